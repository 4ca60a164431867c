package database

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/samber/oops"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/gem-audit/pkg/log"
	"github.com/aquasecurity/gem-audit/pkg/metadata"
	"github.com/aquasecurity/gem-audit/pkg/utils"
)

// Vendor copies the advisory files of the active database into dst and records
// where they came from in dst/metadata.json. An existing tree at dst is
// replaced only once the copy is complete.
func (m *Manager) Vendor(ctx context.Context, dst string) (metadata.Metadata, error) {
	src, err := m.Open(ctx)
	if err != nil {
		return metadata.Metadata{}, err
	}
	if same, err := samePath(src.Path(), dst); err != nil {
		return metadata.Metadata{}, err
	} else if same {
		return metadata.Metadata{}, xerrors.Errorf("%s is the active database", dst)
	}

	updatedAt, err := m.LastUpdated(ctx)
	if err != nil {
		return metadata.Metadata{}, xerrors.Errorf("unknown last update time: %w", err)
	}
	commit, err := m.Commit(ctx)
	if err != nil {
		log.WithPrefix("database").Debug("Unknown commit", log.DirPath(src.Path()), log.Err(err))
	}

	if err = os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return metadata.Metadata{}, oops.With("dir_path", dst).Wrapf(err, "mkdir error")
	}
	staging, err := os.MkdirTemp(filepath.Dir(dst), ".vendor-")
	if err != nil {
		return metadata.Metadata{}, oops.With("dir_path", dst).Wrapf(err, "staging directory error")
	}
	defer os.RemoveAll(staging)

	count, err := copyAdvisories(src, staging)
	if err != nil {
		return metadata.Metadata{}, err
	}

	meta := metadata.Metadata{
		Version:    metadata.SchemaVersion,
		UpdatedAt:  updatedAt.UTC(),
		Commit:     commit,
		Advisories: count,
	}
	if err = metadata.NewClient(staging).Update(meta); err != nil {
		return metadata.Metadata{}, xerrors.Errorf("metadata error: %w", err)
	}

	eb := oops.With("dir_path", dst)
	if err = os.RemoveAll(dst); err != nil {
		return metadata.Metadata{}, eb.Wrapf(err, "failed to remove the previous snapshot")
	}
	if err = os.Rename(staging, dst); err != nil {
		return metadata.Metadata{}, eb.Wrapf(err, "rename error")
	}
	return meta, nil
}

// copyAdvisories copies gems/<name>/*.yml verbatim; records are not validated.
func copyAdvisories(src *Database, dst string) (int, error) {
	root := filepath.Join(src.Path(), gemsDir)
	if !utils.IsDir(root) {
		return 0, nil
	}

	var count int
	err := utils.FileWalk(root, func(r io.Reader, path string) error {
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return xerrors.Errorf("rel error: %w", err)
		}
		gem, name := filepath.Split(rel)
		if filepath.Ext(name) != advisoryExt || gem == "" || filepath.Dir(filepath.Clean(gem)) != "." {
			return nil
		}

		dir := filepath.Join(dst, gemsDir, filepath.Clean(gem))
		if err = os.MkdirAll(dir, 0o755); err != nil {
			return oops.With("dir_path", dir).Wrapf(err, "mkdir error")
		}
		target := filepath.Join(dir, name)
		f, err := os.Create(target)
		if err != nil {
			return oops.With("file_path", target).Wrapf(err, "file create error")
		}
		defer f.Close()

		if _, err = io.Copy(f, r); err != nil {
			return oops.With("file_path", target).Wrapf(err, "file write error")
		}
		if err = f.Close(); err != nil {
			return oops.With("file_path", target).Wrapf(err, "file close error")
		}
		count++
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

func samePath(a, b string) (bool, error) {
	absA, err := filepath.Abs(a)
	if err != nil {
		return false, xerrors.Errorf("abs error: %w", err)
	}
	absB, err := filepath.Abs(b)
	if err != nil {
		return false, xerrors.Errorf("abs error: %w", err)
	}
	return absA == absB, nil
}
