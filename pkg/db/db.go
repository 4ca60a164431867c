package db

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/samber/oops"
	bolt "go.etcd.io/bbolt"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/gem-audit/pkg/log"
)

const (
	SchemaVersion = 1

	dbFile          = "gem-audit.db"
	metadataBucket  = "gem-audit"
	advisoryBucket  = "advisories"
	metadataNested  = "metadata"
	metadataDataKey = "data"
)

var db *bolt.DB

// Operations is the write surface used when exporting an advisory tree.
type Operations interface {
	BatchUpdate(func(*bolt.Tx) error) error
	PutAdvisory(*bolt.Tx, string, string, interface{}) error
	SetMetadata(Metadata) error
}

type Metadata struct {
	Version    int
	UpdatedAt  time.Time
	ExportedAt time.Time
	Commit     string `json:",omitempty"`
	Advisories int
}

type Config struct {
}

func Init(dir string) error {
	dbPath := Path(dir)
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return oops.With("dir_path", dir).Wrapf(err, "failed to mkdir")
	}

	log.Debug("Opening the export database", log.FilePath(dbPath))
	var err error
	db, err = bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return oops.With("file_path", dbPath).Wrapf(err, "failed to open db")
	}
	return nil
}

func Path(dir string) string {
	return filepath.Join(dir, dbFile)
}

func Close() error {
	if db == nil {
		return nil
	}
	if err := db.Close(); err != nil {
		return xerrors.Errorf("failed to close DB: %w", err)
	}
	db = nil
	return nil
}

func GetMetadata() (Metadata, error) {
	value, err := Config{}.get(metadataBucket, metadataNested, metadataDataKey)
	if err != nil {
		return Metadata{}, err
	} else if value == nil {
		return Metadata{}, xerrors.New("metadata not found")
	}

	var metadata Metadata
	if err = json.Unmarshal(value, &metadata); err != nil {
		return Metadata{}, xerrors.Errorf("json unmarshal error: %w", err)
	}
	return metadata, nil
}

func (dbc Config) SetMetadata(metadata Metadata) error {
	err := db.Update(func(tx *bolt.Tx) error {
		root, err := tx.CreateBucketIfNotExists([]byte(metadataBucket))
		if err != nil {
			return xerrors.Errorf("failed to create a bucket: %w", err)
		}
		return dbc.put(root, metadataNested, metadataDataKey, metadata)
	})
	if err != nil {
		return xerrors.Errorf("failed to save metadata: %w", err)
	}
	return nil
}

func (dbc Config) BatchUpdate(fn func(tx *bolt.Tx) error) error {
	if err := db.Batch(fn); err != nil {
		return xerrors.Errorf("error in batch update: %w", err)
	}
	return nil
}

func (dbc Config) put(root *bolt.Bucket, nestedBucket, key string, value interface{}) error {
	nested, err := root.CreateBucketIfNotExists([]byte(nestedBucket))
	if err != nil {
		return xerrors.Errorf("failed to create a bucket: %w", err)
	}
	v, err := json.Marshal(value)
	if err != nil {
		return xerrors.Errorf("failed to marshal JSON: %w", err)
	}
	return nested.Put([]byte(key), v)
}

func (dbc Config) get(rootBucket, nestedBucket, key string) (value []byte, err error) {
	err = db.View(func(tx *bolt.Tx) error {
		root := tx.Bucket([]byte(rootBucket))
		if root == nil {
			return nil
		}
		nested := root.Bucket([]byte(nestedBucket))
		if nested == nil {
			return nil
		}
		if v := nested.Get([]byte(key)); v != nil {
			value = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, xerrors.Errorf("failed to get data from db: %w", err)
	}
	return value, nil
}

func (dbc Config) forEach(rootBucket, nestedBucket string) (value map[string][]byte, err error) {
	value = map[string][]byte{}
	err = db.View(func(tx *bolt.Tx) error {
		root := tx.Bucket([]byte(rootBucket))
		if root == nil {
			return nil
		}
		nested := root.Bucket([]byte(nestedBucket))
		if nested == nil {
			return nil
		}
		err := nested.ForEach(func(k, v []byte) error {
			value[string(k)] = append([]byte(nil), v...)
			return nil
		})
		if err != nil {
			return xerrors.Errorf("error in db foreach: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, xerrors.Errorf("failed to get all key/value in the specified bucket: %w", err)
	}
	return value, nil
}
