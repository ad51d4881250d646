// Package config loads the bootstrap configuration for a chordring peer:
// ring parameters, the maintenance periods/timeouts named throughout §4.9
// and §5, and the connection limit. Bind/join addresses come from the CLI
// flags, not from here. Flags override the process environment,
// which overrides an optional .env file, which overrides built-ins —
// grounded on s4nat-dns-chord/main.go's godotenv.Load() call before reading
// any other configuration source.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every tunable named in §4.9, §5 and §6. Bind/join addresses
// are a per-invocation CLI concern (cli.Flags), not an environment-loaded
// setting, so they live outside this struct.
type Config struct {
	RingBits           uint // m, §3
	SuccessorListLen   int  // r, §3 (0 means "equal to m")

	StabilizeInterval      time.Duration // §4.9: 2s
	FixFingersInterval     time.Duration // §4.9: 0.5s
	CheckPredecessorInterval time.Duration // §4.9: 1s
	JoinRetryInterval      time.Duration // §4.9: 2s

	SendTimeout    time.Duration // §5: 2s
	IsAliveTimeout time.Duration // §5 / §4.6: 5s

	MaxConnections int // SPEC_FULL.md §4.15 connection governor (C16, ambient stack addition over spec.md)
}

// Defaults returns the configuration named throughout §4.9/§5 and
// SPEC_FULL.md §4.15 before any environment or flag overrides are applied.
func Defaults() Config {
	return Config{
		RingBits:                 24,
		SuccessorListLen:         0,
		StabilizeInterval:        2 * time.Second,
		FixFingersInterval:       500 * time.Millisecond,
		CheckPredecessorInterval: 1 * time.Second,
		JoinRetryInterval:        2 * time.Second,
		SendTimeout:              2 * time.Second,
		IsAliveTimeout:           5 * time.Second,
		MaxConnections:           256,
	}
}

// LoadDotEnv loads key=value pairs from path into the process environment if
// the file exists; a missing file is not an error, following godotenv's own
// convention for optional .env files.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(path)
}

// ApplyEnv overlays process-environment overrides named CHORDRING_* onto cfg.
// Flags (applied by the caller after ApplyEnv) take final precedence.
func ApplyEnv(cfg Config) (Config, error) {
	for _, ov := range []struct {
		key string
		set func(string) error
	}{
		{"CHORDRING_RING_BITS", func(v string) error { return setUint(&cfg.RingBits, v) }},
		{"CHORDRING_SUCCESSOR_LIST_LEN", func(v string) error { return setInt(&cfg.SuccessorListLen, v) }},
		{"CHORDRING_STABILIZE_INTERVAL", func(v string) error { return setDuration(&cfg.StabilizeInterval, v) }},
		{"CHORDRING_FIX_FINGERS_INTERVAL", func(v string) error { return setDuration(&cfg.FixFingersInterval, v) }},
		{"CHORDRING_CHECK_PREDECESSOR_INTERVAL", func(v string) error { return setDuration(&cfg.CheckPredecessorInterval, v) }},
		{"CHORDRING_JOIN_RETRY_INTERVAL", func(v string) error { return setDuration(&cfg.JoinRetryInterval, v) }},
		{"CHORDRING_SEND_TIMEOUT", func(v string) error { return setDuration(&cfg.SendTimeout, v) }},
		{"CHORDRING_IS_ALIVE_TIMEOUT", func(v string) error { return setDuration(&cfg.IsAliveTimeout, v) }},
		{"CHORDRING_MAX_CONNECTIONS", func(v string) error { return setInt(&cfg.MaxConnections, v) }},
	} {
		v, ok := os.LookupEnv(ov.key)
		if !ok || v == "" {
			continue
		}
		if err := ov.set(v); err != nil {
			return cfg, fmt.Errorf("config: %s: %w", ov.key, err)
		}
	}
	return cfg, nil
}

// EffectiveSuccessorListLen returns r, defaulting to m when unset (§3).
func (c Config) EffectiveSuccessorListLen() int {
	if c.SuccessorListLen > 0 {
		return c.SuccessorListLen
	}
	return int(c.RingBits)
}

func setUint(dst *uint, v string) error {
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return err
	}
	*dst = uint(n)
	return nil
}

func setInt(dst *int, v string) error {
	n, err := strconv.Atoi(v)
	if err != nil {
		return err
	}
	*dst = n
	return nil
}

func setDuration(dst *time.Duration, v string) error {
	d, err := time.ParseDuration(v)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}
