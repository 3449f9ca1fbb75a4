package store_test

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/dotside-studios/davi-tap-lab/wallet/store"
)

// openTestDB returns a migrated in-memory database unique to the test.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:test_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", name)

	conn, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	require.NoError(t, store.Migrate(context.Background(), conn))
	t.Cleanup(func() { conn.Close() })
	return conn
}

func newTestStore(t *testing.T) (*store.PassStore, *sql.DB) {
	t.Helper()

	conn := openTestDB(t)
	w := store.NewWorker(conn)
	t.Cleanup(w.Close)
	return store.NewPassStore(conn, w), conn
}
