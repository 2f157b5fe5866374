//go:build integration

package postgres_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/modkit/modkit-server/internal/model"
	repo "github.com/modkit/modkit-server/internal/repository/postgres"
)

var dsn string

func TestMain(m *testing.M) {
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:15-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "password",
				"POSTGRES_DB":       "modkit_test",
			},
			WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		panic(err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		panic(err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		panic(err)
	}
	dsn = fmt.Sprintf("postgres://postgres:password@%s:%s/modkit_test?sslmode=disable", host, port.Port())

	code := m.Run()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func TestRepositories_CRUD(t *testing.T) {
	ctx := context.Background()
	conn, err := repo.NewConnection(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	t.Run("secret_repository", func(t *testing.T) {
		sr := repo.NewSecretRepository(conn)

		_, err := sr.Get(ctx, "missing-key")
		require.ErrorIs(t, err, model.ErrNotFound)

		require.NoError(t, sr.Put(ctx, "key-1", []byte(`{"iv":"aaaa"}`)))
		value, err := sr.Get(ctx, "key-1")
		require.NoError(t, err)
		require.Equal(t, []byte(`{"iv":"aaaa"}`), value)

		// Overwrite is last-write-wins.
		require.NoError(t, sr.Put(ctx, "key-1", []byte(`{"iv":"bbbb"}`)))
		value, err = sr.Get(ctx, "key-1")
		require.NoError(t, err)
		require.Equal(t, []byte(`{"iv":"bbbb"}`), value)

		require.NoError(t, sr.Delete(ctx, "key-1"))
		_, err = sr.Get(ctx, "key-1")
		require.ErrorIs(t, err, model.ErrNotFound)

		// Deleting an absent key is not an error.
		require.NoError(t, sr.Delete(ctx, "key-1"))
	})

	t.Run("subscription_repository", func(t *testing.T) {
		sr := repo.NewSubscriptionRepository(conn)
		eventAt := time.Now().Truncate(time.Second)

		created, err := sr.Create(ctx, model.Subscription{
			ID:          uuid.New(),
			ExternalID:  "sub_integration_1",
			Status:      model.SubscriptionActive,
			Amount:      29.99,
			Currency:    "usd",
			LastEventAt: &eventAt,
		})
		require.NoError(t, err)

		_, err = sr.Create(ctx, model.Subscription{ID: uuid.New(), ExternalID: "sub_integration_1", Status: model.SubscriptionActive})
		require.ErrorIs(t, err, model.ErrAlreadyExists)

		// A newer event applies.
		applied, err := sr.Update(ctx, created.ID, model.UpdateSubscriptionParams{
			Status:   model.SubscriptionPastDue,
			Amount:   29.99,
			Currency: "usd",
			EventAt:  eventAt.Add(time.Minute),
		})
		require.NoError(t, err)
		require.True(t, applied)

		// Replaying the same event or an older one does not.
		for _, staleAt := range []time.Time{eventAt.Add(time.Minute), eventAt} {
			applied, err = sr.Update(ctx, created.ID, model.UpdateSubscriptionParams{
				Status:  model.SubscriptionActive,
				EventAt: staleAt,
			})
			require.NoError(t, err)
			require.False(t, applied)
		}

		got, err := sr.GetByExternalID(ctx, "sub_integration_1")
		require.NoError(t, err)
		require.Equal(t, model.SubscriptionPastDue, got.Status)

		applied, err = sr.SoftDelete(ctx, created.ID, eventAt.Add(2*time.Minute))
		require.NoError(t, err)
		require.True(t, applied)

		// Soft-deleted rows stay resolvable and repeated deletes no-op.
		got, err = sr.GetByExternalID(ctx, "sub_integration_1")
		require.NoError(t, err)
		require.Equal(t, model.SubscriptionCanceled, got.Status)
		require.NotNil(t, got.DeletedAt)

		applied, err = sr.SoftDelete(ctx, created.ID, eventAt.Add(3*time.Minute))
		require.NoError(t, err)
		require.False(t, applied)
	})

	t.Run("plan_repository", func(t *testing.T) {
		pr := repo.NewPlanRepository(conn)

		created, err := pr.Create(ctx, model.Plan{
			ID:       "pro",
			Name:     "Pro Plan",
			Amount:   29.99,
			Currency: "usd",
			Interval: "month",
		})
		require.NoError(t, err)
		require.False(t, created.CreatedAt.IsZero())

		_, err = pr.Create(ctx, model.Plan{ID: "pro", Name: "Pro Plan", Amount: 29.99, Currency: "usd", Interval: "month"})
		require.ErrorIs(t, err, model.ErrAlreadyExists)

		got, err := pr.GetByID(ctx, "pro")
		require.NoError(t, err)
		require.Equal(t, "Pro Plan", got.Name)

		_, err = pr.GetByID(ctx, "missing")
		require.ErrorIs(t, err, model.ErrNotFound)
	})
}
