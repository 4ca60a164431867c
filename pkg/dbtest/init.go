package dbtest

import (
	"testing"

	"github.com/stretchr/testify/require"

	fixtures "github.com/aquasecurity/bolt-fixtures"

	"github.com/aquasecurity/gem-audit/pkg/db"
)

// InitDB loads fixture files into a fresh database, opens it and returns its directory.
func InitDB(t *testing.T, fixtureFiles []string) string {
	t.Helper()

	dbDir := t.TempDir()
	dbPath := db.Path(dbDir)

	loader, err := fixtures.New(dbPath, fixtureFiles)
	require.NoError(t, err)
	require.NoError(t, loader.Load())
	require.NoError(t, loader.Close())

	require.NoError(t, db.Init(dbDir))
	t.Cleanup(func() {
		_ = db.Close()
	})
	return dbDir
}
