package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/whenworks/calendar-api/internal/models"
	"github.com/whenworks/calendar-api/pkg/database"
)

// TestPostgresRoundTrip exercises the repositories against a real Postgres
// instance. Requires a local Docker daemon; skipped under -short.
func TestPostgresRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}

	ctx := context.Background()

	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("calendar_test"),
		tcpostgres.WithUsername("calendar"),
		tcpostgres.WithPassword("calendar"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Skipf("could not start postgres container: %v", err)
	}
	t.Cleanup(func() {
		_ = ctr.Terminate(context.Background())
	})

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := database.OpenPostgres(ctx, dsn, "test")
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Event{}, &models.CalendarShare{}))

	users := NewUserRepository(db)
	events := NewEventRepository(db)
	shares := NewShareRepository(db)

	alice := &models.User{Name: "alice", Username: "alice", Email: "alice@x.com", HashedPassword: "digest"}
	require.NoError(t, users.Create(ctx, alice))
	bob := &models.User{Name: "bob", Username: "bob", Email: "bob@x.com", HashedPassword: "digest"}
	require.NoError(t, users.Create(ctx, bob))

	var byName models.User
	require.NoError(t, users.GetByUsername(ctx, "alice", &byName))
	require.Equal(t, alice.ID, byName.ID)

	e := &models.Event{
		Title:     "Planning",
		StartTime: time.Now().UTC().Truncate(time.Second),
		EndTime:   time.Now().UTC().Add(time.Hour).Truncate(time.Second),
		OwnerID:   alice.ID,
	}
	require.NoError(t, events.Create(ctx, e))

	owned, err := events.ListByOwner(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, owned, 1)

	// the composite unique index makes the edge idempotent under real Postgres
	require.NoError(t, shares.AddEdge(ctx, alice.ID, bob.ID))
	require.NoError(t, shares.AddEdge(ctx, alice.ID, bob.ID))

	sharers, err := shares.ListSharers(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, sharers, 1)
	require.Equal(t, "alice", sharers[0].Username)
}
