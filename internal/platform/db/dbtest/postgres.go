// Package dbtest starts a shared PostgreSQL container with the embedded
// migrations applied, for tests that need real row-level security.
package dbtest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"

	"freshreceipt_backend/internal/platform/db"
)

// RequestRole is the role the migrations grant policies to.
const RequestRole = "authenticated"

var (
	once      sync.Once
	sharedDSN string
	initErr   error
)

// Setup returns a connection to the shared container. The test is skipped in
// -short mode or when no container provider is reachable.
func Setup(t *testing.T) *gorm.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("dbtest: skipping postgres test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	once.Do(func() {
		sharedDSN, initErr = startContainerAndMigrate()
	})
	if initErr != nil {
		t.Fatalf("dbtest: failed to setup test DB: %v", initErr)
	}

	gdb, err := db.PostgresOpener(sharedDSN)
	if err != nil {
		t.Fatalf("dbtest: open: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gdb
}

// SeedUser inserts a user with the connection's own privileges and returns its id.
func SeedUser(t *testing.T, gdb *gorm.DB, email string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	if err := gdb.Exec(
		"INSERT INTO users (id, email, password) VALUES (?, ?, ?)",
		id, email, "$2a$10$not-a-real-hash",
	).Error; err != nil {
		t.Fatalf("dbtest: seed user %s: %v", email, err)
	}
	return id
}

// UniqueEmail returns an e-mail address that does not collide across tests.
func UniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%s@example.com", prefix, uuid.NewString()[:8])
}

func startContainerAndMigrate() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:17-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "testdb",
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
		return "", fmt.Errorf("start container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("get container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return "", fmt.Errorf("get mapped port: %w", err)
	}

	dsn := fmt.Sprintf("postgres://testuser:testpass@%s:%s/testdb?sslmode=disable", host, port.Port())

	gdb, err := db.ConnectWithRetry(dsn, 30*time.Second, db.PostgresOpener)
	if err != nil {
		return "", err
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return "", err
	}
	defer sqlDB.Close()

	if err := db.Migrate(ctx, gdb); err != nil {
		return "", err
	}
	return dsn, nil
}
