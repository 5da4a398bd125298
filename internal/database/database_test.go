package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestInitializeCreatesSchema(t *testing.T) {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("devflow_bootstrap"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	defer container.Terminate(ctx)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	t.Setenv("DB_HOST", host)
	t.Setenv("DB_PORT", port.Port())
	t.Setenv("DB_USER", "test")
	t.Setenv("DB_PASSWORD", "test")
	t.Setenv("DB_NAME", "devflow_bootstrap")
	t.Setenv("DB_SSLMODE", "disable")

	db, err := NewDatabase()
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Initialize())
	// Bootstrap must be safe to re-run on restart
	require.NoError(t, db.Initialize())

	tables := []string{"users", "questions", "answers", "votes", "reports", "notifications"}
	for _, table := range tables {
		var exists bool
		err := db.DB.QueryRow(
			"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = $1)",
			table).Scan(&exists)
		require.NoError(t, err)
		assert.True(t, exists, "expected table %s", table)
	}

	var indexed bool
	err = db.DB.QueryRow(
		"SELECT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_reports_pending_reporter')").
		Scan(&indexed)
	require.NoError(t, err)
	assert.True(t, indexed)
}
