//go:build integration

package postgres

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
)

var testPool *pgxpool.Pool

// schemaFile resolves deploy/postgres/init.sql by walking up to the module root.
func schemaFile() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return filepath.Join(dir, "deploy", "postgres", "init.sql"), nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("go.mod not found above working directory")
		}
		dir = parent
	}
}

// startPostgres runs a throwaway postgres:14 container and returns its DSN
// together with a stop func.
func startPostgres() (string, func(), error) {
	const (
		db   = "quiz-test"
		user = "quiz"
		pass = "quiz"
	)
	var out bytes.Buffer
	cmd := exec.Command("docker", "run", "-d", "--rm", "--network", "host",
		"-e", "POSTGRES_DB="+db,
		"-e", "POSTGRES_USER="+user,
		"-e", "POSTGRES_PASSWORD="+pass,
		"postgres:14",
	)
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return "", nil, fmt.Errorf("docker run: %w", err)
	}
	id := strings.TrimSpace(out.String())
	stop := func() {
		if err := exec.Command("docker", "stop", id).Run(); err != nil {
			log.Printf("stop container %s: %v", id, err)
		}
	}
	return fmt.Sprintf("postgres://%s:%s@localhost:5432/%s?sslmode=disable", user, pass, db), stop, nil
}

func connectWithRetry(ctx context.Context, dsn string, attempts int) (*pgxpool.Pool, error) {
	var lastErr error
	for i := 0; i < attempts; i++ {
		pool, err := pgxpool.Connect(ctx, dsn)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				return pool, nil
			}
			pool.Close()
		}
		lastErr = err
		time.Sleep(2 * time.Second)
	}
	return nil, lastErr
}

// TestMain uses TEST_DATABASE_URL when set, otherwise a docker container.
func TestMain(m *testing.M) {
	ctx := context.Background()

	dsn := os.Getenv("TEST_DATABASE_URL")
	stop := func() {}
	if dsn == "" {
		var err error
		dsn, stop, err = startPostgres()
		if err != nil {
			log.Fatalf("start postgres (is docker running?): %v", err)
		}
	}

	pool, err := connectWithRetry(ctx, dsn, 15)
	if err != nil {
		stop()
		log.Fatalf("connect test database: %v", err)
	}
	testPool = pool

	path, err := schemaFile()
	if err == nil {
		err = ApplySchema(ctx, testPool, path)
	}
	if err != nil {
		testPool.Close()
		stop()
		log.Fatalf("prepare schema: %v", err)
	}

	code := m.Run()

	testPool.Close()
	stop()
	os.Exit(code)
}

func cleanup(t *testing.T) {
	t.Helper()
	_, err := testPool.Exec(context.Background(), `
		TRUNCATE
			users, question_sets, questions, options, purchases, redeem_codes,
			user_progress, wrong_answers, entitlement_notifications
		RESTART IDENTITY CASCADE
	`)
	if err != nil {
		t.Fatalf("Failed to clean up database: %v", err)
	}
}

func TestApplySchema(t *testing.T) {
	ctx := context.Background()

	t.Run("should be idempotent on an existing schema", func(t *testing.T) {
		path, err := schemaFile()
		if err != nil {
			t.Fatalf("schemaFile: %v", err)
		}
		if err := ApplySchema(ctx, testPool, path); err != nil {
			t.Fatalf("ApplySchema() second run error = %v", err)
		}
	})

	t.Run("should fail for a missing file", func(t *testing.T) {
		missing := filepath.Join(t.TempDir(), "nope.sql")
		if err := ApplySchema(ctx, testPool, missing); err == nil {
			t.Fatal("ApplySchema() expected error for missing file")
		}
	})
}
