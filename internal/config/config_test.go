package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("OLYMPIAD_JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTPAddress())
	require.Equal(t, "postgres", cfg.DatabaseDriver)
	require.Equal(t, 24*time.Hour, cfg.StudentTokenTTL)
	require.Equal(t, 30*24*time.Hour, cfg.StaffTokenTTL)
	require.Equal(t, 50, cfg.BulkBatchSize)
	require.Equal(t, "olympiad", cfg.EventSubjectBase)
	require.Equal(t, "*", cfg.CORSAllowOrigins)
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("OLYMPIAD_JWT_SECRET", "secret")
	t.Setenv("OLYMPIAD_APP_PORT", ":9090")
	t.Setenv("OLYMPIAD_DATABASE_DRIVER", "SQLite")
	t.Setenv("OLYMPIAD_LEADERBOARD_CACHE_TTL", "30s")
	t.Setenv("OLYMPIAD_BULK_BATCH_SIZE", "-1")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTPAddress())
	require.Equal(t, "sqlite", cfg.DatabaseDriver)
	require.Equal(t, 30*time.Second, cfg.LeaderboardCacheTTL)
	require.Equal(t, 50, cfg.BulkBatchSize)
}

func TestLoadRejectsMissingSecretAndBadDurations(t *testing.T) {
	t.Setenv("OLYMPIAD_JWT_SECRET", "")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("OLYMPIAD_JWT_SECRET", "secret")
	t.Setenv("OLYMPIAD_JWT_STAFF_TTL", "forever")
	_, err = Load()
	require.ErrorContains(t, err, "jwt.staff ttl")
}
