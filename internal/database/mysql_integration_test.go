package database_test

import (
	"context"
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mysql"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/iliyamo/cable-billing/internal/database"
)

func TestMySQLOpenAndMigrate(t *testing.T) {
	t.Parallel()
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	ctx := context.Background()
	container, err := mysql.Run(ctx,
		"mysql:8.0",
		mysql.WithDatabase("cable"),
		mysql.WithUsername("billing"),
		mysql.WithPassword("billing"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("port: 3306  MySQL Community Server").
				WithStartupTimeout(2*time.Minute),
		),
	)
	if err != nil {
		t.Fatalf("failed to start mysql container: %v", err)
	}
	defer func() {
		if err := container.Terminate(ctx); err != nil {
			t.Fatalf("failed to terminate mysql container: %v", err)
		}
	}()

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "3306")
	require.NoError(t, err)

	uri := fmt.Sprintf("mysql://%s@%s:%s/cable",
		url.UserPassword("billing", "billing").String(), host, port.Port())
	db, dialect, err := database.Open(uri)
	require.NoError(t, err)
	defer db.Close()
	require.Equal(t, database.MySQL, dialect)

	require.NoError(t, database.Migrate(ctx, db, dialect))
	require.NoError(t, database.Migrate(ctx, db, dialect))

	_, err = db.ExecContext(ctx,
		`INSERT INTO customer (name, address, monthly_charge, set_top_box_number, status)
		 VALUES (?, ?, ?, ?, ?)`, "Asha", "12 Hill Rd", 450.0, "STB-1", "Active")
	require.NoError(t, err)
	_, err = db.ExecContext(ctx,
		`INSERT INTO customer (name, address, monthly_charge, set_top_box_number, status)
		 VALUES (?, ?, ?, ?, ?)`, "Ravi", "3 Lake St", 300.0, "STB-1", "Active")
	require.True(t, database.IsUniqueViolation(err), "want duplicate entry, got %v", err)
}
