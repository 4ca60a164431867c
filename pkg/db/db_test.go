package db_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquasecurity/gem-audit/pkg/db"
	"github.com/aquasecurity/gem-audit/pkg/dbtest"
)

func TestInit(t *testing.T) {
	tests := []struct {
		name   string
		create bool
	}{
		{
			name:   "existing db",
			create: true,
		},
		{
			name: "no db",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "nested")
			if tt.create {
				require.NoError(t, db.Init(dir))
				require.NoError(t, db.Close())
			}

			require.NoError(t, db.Init(dir))
			defer db.Close()

			_, err := os.Stat(db.Path(dir))
			assert.NoError(t, err)
		})
	}
}

func TestGetMetadata(t *testing.T) {
	tests := []struct {
		name     string
		fixtures []string
		want     db.Metadata
		wantErr  string
	}{
		{
			name:     "happy path",
			fixtures: []string{"testdata/fixtures/metadata.yaml"},
			want: db.Metadata{
				Version:    1,
				UpdatedAt:  time.Date(2023, 6, 14, 9, 30, 0, 0, time.UTC),
				ExportedAt: time.Date(2023, 6, 15, 0, 0, 0, 0, time.UTC),
				Commit:     "0123456789abcdef0123456789abcdef01234567",
				Advisories: 3,
			},
		},
		{
			name:     "no metadata",
			fixtures: []string{"testdata/fixtures/advisories.yaml"},
			wantErr:  "metadata not found",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dbtest.InitDB(t, tt.fixtures)

			got, err := db.GetMetadata()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want.Version, got.Version)
			assert.True(t, tt.want.UpdatedAt.Equal(got.UpdatedAt))
			assert.True(t, tt.want.ExportedAt.Equal(got.ExportedAt))
			assert.Equal(t, tt.want.Commit, got.Commit)
			assert.Equal(t, tt.want.Advisories, got.Advisories)
		})
	}
}
