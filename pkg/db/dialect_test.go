package db

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestSQLiteDSNEnablesForeignKeys(t *testing.T) {
	cases := map[string]string{
		"":                         "membership.db?_foreign_keys=on",
		"data/app.db":              "data/app.db?_foreign_keys=on",
		"app.db?_busy_timeout=500": "app.db?_busy_timeout=500&_foreign_keys=on",
		"app.db?_foreign_keys=off": "app.db?_foreign_keys=off",
	}
	for in, want := range cases {
		assert.Equal(t, want, sqliteDSN(in), in)
	}
}

func TestDialectSQLiteCascadesDeletes(t *testing.T) {
	dialector, err := Dialect(Config{Type: TypeSQLite, Path: filepath.Join(t.TempDir(), "membership.db")})
	require.NoError(t, err)

	conn, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Discard})
	if err != nil && strings.Contains(err.Error(), "CGO_ENABLED=0") {
		t.Skip("sqlite driver requires cgo")
	}
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, conn.Exec(`CREATE TABLE customers (id INTEGER PRIMARY KEY)`).Error)
	require.NoError(t, conn.Exec(`CREATE TABLE subscriptions (
		id INTEGER PRIMARY KEY,
		customer_id INTEGER NOT NULL REFERENCES customers (id) ON DELETE CASCADE
	)`).Error)
	require.NoError(t, conn.Exec(`INSERT INTO customers (id) VALUES (1)`).Error)
	require.NoError(t, conn.Exec(`INSERT INTO subscriptions (id, customer_id) VALUES (10, 1)`).Error)

	require.NoError(t, conn.Exec(`DELETE FROM customers WHERE id = 1`).Error)

	var remaining int64
	require.NoError(t, conn.Raw(`SELECT COUNT(*) FROM subscriptions`).Scan(&remaining).Error)
	assert.Zero(t, remaining)
}
