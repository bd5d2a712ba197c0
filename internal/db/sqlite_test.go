package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnicodeLower(t *testing.T) {
	database, err := Init(DriverSQLite, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	var builtin, unicode string
	err = database.QueryRow(`SELECT LOWER('ÜBUNG Ärger'), unicode_lower('ÜBUNG Ärger')`).Scan(&builtin, &unicode)
	require.NoError(t, err)

	assert.Equal(t, "Übung Ärger", builtin)
	assert.Equal(t, "übung ärger", unicode)

	var null *string
	require.NoError(t, database.QueryRow(`SELECT unicode_lower(NULL)`).Scan(&null))
	assert.Nil(t, null)
}

func TestLowerFunc(t *testing.T) {
	assert.Equal(t, UnicodeLower, LowerFunc(DriverSQLite))
	assert.Equal(t, "LOWER", LowerFunc(DriverPostgres))
}
