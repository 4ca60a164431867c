package dbtest

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"
	"golang.org/x/xerrors"
)

var ErrNoBucket = xerrors.New("no such bucket")

// JSONEq asserts that the value stored at keys (buckets followed by a key)
// is JSON-equal to want. The database must be closed by the caller first.
func JSONEq(t *testing.T, dbPath string, keys []string, want interface{}, msgAndArgs ...interface{}) {
	t.Helper()

	wantByte, err := json.Marshal(want)
	require.NoError(t, err, msgAndArgs...)

	got, err := get(dbPath, keys)
	require.NoError(t, err, msgAndArgs...)
	require.NotNil(t, got, append([]interface{}{"no value at %v", keys}, msgAndArgs...)...)

	assert.JSONEq(t, string(wantByte), string(got), msgAndArgs...)
}

// NoKey asserts that nothing is stored at keys.
func NoKey(t *testing.T, dbPath string, keys []string, msgAndArgs ...interface{}) {
	t.Helper()

	got, err := get(dbPath, keys)
	if xerrors.Is(err, ErrNoBucket) {
		return
	}
	require.NoError(t, err, msgAndArgs...)
	assert.Nil(t, got, msgAndArgs...)
}

func get(dbPath string, keys []string) ([]byte, error) {
	if len(keys) < 2 {
		return nil, xerrors.Errorf("malformed keys: %v", keys)
	}
	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{ReadOnly: true, Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var b []byte
	err = db.View(func(tx *bolt.Tx) error {
		buckets, key := keys[:len(keys)-1], keys[len(keys)-1]

		bucket := tx.Bucket([]byte(buckets[0]))
		for _, name := range buckets[1:] {
			if bucket == nil {
				break
			}
			bucket = bucket.Bucket([]byte(name))
		}
		if bucket == nil {
			return xerrors.Errorf("bucket error %v: %w", keys, ErrNoBucket)
		}

		if res := bucket.Get([]byte(key)); res != nil {
			b = append([]byte(nil), res...)
		}
		return nil
	})
	return b, err
}
