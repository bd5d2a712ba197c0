package db

import (
	"database/sql/driver"
	"strings"

	"modernc.org/sqlite"
)

// UnicodeLower is registered on every sqlite connection. The built-in LOWER
// only folds ASCII letters.
const UnicodeLower = "unicode_lower"

func init() {
	sqlite.MustRegisterDeterministicScalarFunction(UnicodeLower, 1, unicodeLower)
}

func unicodeLower(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return v, nil
	}
}

// LowerFunc names the SQL function that lowercases any letter, not only
// ASCII, for the given driver.
func LowerFunc(driverName string) string {
	if driverName == DriverSQLite {
		return UnicodeLower
	}
	return "LOWER"
}
