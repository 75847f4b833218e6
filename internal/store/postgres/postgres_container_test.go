package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/paperdesk/paperdesk/internal/store"
	"github.com/paperdesk/paperdesk/internal/store/storetest"
)

// Runs the store conformance suite against a throwaway postgres
// container. Opt in with PAPERDESK_DOCKER_TESTS=1; use
// PAPERDESK_POSTGRES_DSN instead to target an existing database.
func TestPostgresStore_Container(t *testing.T) {
	if os.Getenv("PAPERDESK_DOCKER_TESTS") != "1" {
		t.Skip("PAPERDESK_DOCKER_TESTS not set; skipping container-backed postgres test")
	}

	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "paperdesk",
			"POSTGRES_PASSWORD": "paperdesk",
			"POSTGRES_DB":       "paperdesk",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("container port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://paperdesk:paperdesk@%s:%s/paperdesk?sslmode=disable", host, port.Port())

	if err := Bootstrap(ctx, dsn); err != nil {
		t.Fatalf("postgres bootstrap: %v", err)
	}
	db, err := Open(dsn)
	if err != nil {
		t.Fatalf("postgres open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	st := NewWithDB(db)
	storetest.Run(t, func(t *testing.T) store.Store { return st })
}
