package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	require.Equal(t, uint(24), cfg.RingBits)
	require.Equal(t, 2*time.Second, cfg.StabilizeInterval)
	require.Equal(t, 256, cfg.MaxConnections)
}

func TestEffectiveSuccessorListLenDefaultsToRingBits(t *testing.T) {
	cfg := Defaults()
	require.Equal(t, int(cfg.RingBits), cfg.EffectiveSuccessorListLen())

	cfg.SuccessorListLen = 5
	require.Equal(t, 5, cfg.EffectiveSuccessorListLen())
}

func TestApplyEnvOverridesDefaults(t *testing.T) {
	t.Setenv("CHORDRING_RING_BITS", "10")
	t.Setenv("CHORDRING_STABILIZE_INTERVAL", "3s")
	t.Setenv("CHORDRING_MAX_CONNECTIONS", "64")

	cfg, err := ApplyEnv(Defaults())
	require.NoError(t, err)
	require.Equal(t, uint(10), cfg.RingBits)
	require.Equal(t, 3*time.Second, cfg.StabilizeInterval)
	require.Equal(t, 64, cfg.MaxConnections)
}

func TestApplyEnvRejectsInvalidValue(t *testing.T) {
	t.Setenv("CHORDRING_RING_BITS", "not-a-number")
	_, err := ApplyEnv(Defaults())
	require.Error(t, err)
}

func TestLoadDotEnvMissingFileIsNotAnError(t *testing.T) {
	require.NoError(t, LoadDotEnv("/nonexistent/path/.env"))
}

func TestLoadDotEnvLoadsValues(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/.env"
	require.NoError(t, os.WriteFile(path, []byte("CHORDRING_MAX_CONNECTIONS=99\n"), 0o644))

	require.NoError(t, LoadDotEnv(path))
	require.Equal(t, "99", os.Getenv("CHORDRING_MAX_CONNECTIONS"))
}
