// Package testdb starts a disposable PostgreSQL for integration tests and
// provisions it with the embedded migrations.
package testdb

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/docker/go-connections/nat"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpg "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/klass-lk/postboot/migrations"
)

const (
	image    = "postgres:16-alpine"
	database = "postctl"
	username = "postgres"
	password = "password"
)

type Database struct {
	DB        *sql.DB
	URL       string
	container *tcpg.PostgresContainer
}

// Start runs a PostgreSQL container, waits until it accepts connections and
// applies the migrations.
func Start(ctx context.Context) (*Database, error) {
	container, err := tcpg.Run(ctx,
		image,
		tcpg.WithDatabase(database),
		tcpg.WithUsername(username),
		tcpg.WithPassword(password),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
			wait.ForListeningPort(nat.Port("5432/tcp")),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("starting postgres container: %w", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, fmt.Errorf("reading connection string: %w", err)
	}

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}

	maxRetries := 5
	for i := 0; i < maxRetries; i++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		time.Sleep(time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("pinging postgres after %d retries: %w", maxRetries, err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := migrations.NewMigrator(db, logger).Up(ctx); err != nil {
		return nil, err
	}

	return &Database{DB: db, URL: connStr, container: container}, nil
}

// Reset empties the posts table and restarts its id sequence.
func (d *Database) Reset(ctx context.Context) error {
	_, err := d.DB.ExecContext(ctx, "TRUNCATE TABLE posts RESTART IDENTITY")
	return err
}

func (d *Database) Terminate(ctx context.Context) error {
	d.DB.Close()
	return d.container.Terminate(ctx)
}
