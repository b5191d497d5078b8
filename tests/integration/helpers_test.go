package integration

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/jackc/pgx/v5"

	"github.com/udisondev/xrprefetch/internal/model"
)

// schemaCounter provides unique schema names for parallel suites.
var schemaCounter atomic.Uint32

// acquireSchema creates an isolated PostgreSQL schema and returns DSN with search_path.
// Schema is automatically dropped via t.Cleanup.
func acquireSchema(t testing.TB) string {
	t.Helper()
	ctx := context.Background()

	schemaName := fmt.Sprintf("test_%d", schemaCounter.Add(1))

	conn, err := pgx.Connect(ctx, sharedPGBaseDSN)
	if err != nil {
		t.Fatalf("connect to shared postgres: %v", err)
	}
	defer conn.Close(ctx)

	if _, err := conn.Exec(ctx, "CREATE SCHEMA "+schemaName); err != nil {
		t.Fatalf("create schema %s: %v", schemaName, err)
	}

	t.Cleanup(func() {
		cleanCtx := context.Background()
		cleanConn, err := pgx.Connect(cleanCtx, sharedPGBaseDSN)
		if err != nil {
			t.Logf("cleanup: connect failed: %v", err)
			return
		}
		defer cleanConn.Close(cleanCtx)
		if _, err := cleanConn.Exec(cleanCtx, "DROP SCHEMA "+schemaName+" CASCADE"); err != nil {
			t.Logf("cleanup: drop schema %s: %v", schemaName, err)
		}
	})

	// Append search_path to DSN
	sep := "&"
	if !strings.Contains(sharedPGBaseDSN, "?") {
		sep = "?"
	}
	return sharedPGBaseDSN + sep + "search_path=" + schemaName
}

// simObject builds a snapshot object at the level's origin.
func simObject(id uint16, section string, levelID uint16) *model.SimObject {
	return model.NewSimObject(id, section, levelID, model.NewLocation(0, 0, 0))
}
