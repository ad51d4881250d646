// Package cli builds the chordnode command tree and the interactive
// operator prompt. Grounded on sandeepkv93-network-programming's and
// s4nat-dns-chord's command-line shapes: cobra for flag/subcommand parsing
// (C14), a single-character menu loop for interactive store/find/delete/
// inspect commands (C15, s4nat-dns-chord/main.go's showmenu loop).
package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"chordring/internal/config"
)

// Flags is the parsed command-line surface for `chordnode serve` (§4.11,
// §6). Fields mirror config.Config; Apply overlays non-zero flag values onto
// a Config already populated from defaults and the environment, so flags
// take final precedence per §4.11.
type Flags struct {
	Bind string
	Join string
	Env  string

	RingBits         uint
	SuccessorListLen int

	StabilizeInterval        time.Duration
	FixFingersInterval       time.Duration
	CheckPredecessorInterval time.Duration
	JoinRetryInterval        time.Duration
	SendTimeout              time.Duration
	IsAliveTimeout           time.Duration
	MaxConnections           int

	Interactive bool
}

// Apply overlays any flag explicitly set by the user onto cfg.
func (f Flags) Apply(cfg config.Config) config.Config {
	if f.RingBits != 0 {
		cfg.RingBits = f.RingBits
	}
	if f.SuccessorListLen != 0 {
		cfg.SuccessorListLen = f.SuccessorListLen
	}
	if f.StabilizeInterval != 0 {
		cfg.StabilizeInterval = f.StabilizeInterval
	}
	if f.FixFingersInterval != 0 {
		cfg.FixFingersInterval = f.FixFingersInterval
	}
	if f.CheckPredecessorInterval != 0 {
		cfg.CheckPredecessorInterval = f.CheckPredecessorInterval
	}
	if f.JoinRetryInterval != 0 {
		cfg.JoinRetryInterval = f.JoinRetryInterval
	}
	if f.SendTimeout != 0 {
		cfg.SendTimeout = f.SendTimeout
	}
	if f.IsAliveTimeout != 0 {
		cfg.IsAliveTimeout = f.IsAliveTimeout
	}
	if f.MaxConnections != 0 {
		cfg.MaxConnections = f.MaxConnections
	}
	return cfg
}

// NewRootCommand builds the `chordnode` command tree. run is invoked by the
// "serve" subcommand with the fully parsed Flags; it is injected rather than
// called directly here so main retains control of process exit codes (§6,
// §7: 0 clean shutdown, 1 ring-dead fatal, 2 startup error).
func NewRootCommand(run func(Flags) error) *cobra.Command {
	var f Flags

	root := &cobra.Command{
		Use:   "chordnode",
		Short: "Run or operate a chordring peer",
	}

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Start a chordring peer and serve requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.Bind == "" {
				return fmt.Errorf("cli: --bind is required")
			}
			return run(f)
		},
	}

	serve.Flags().StringVar(&f.Bind, "bind", "", "address to listen on (host:port)")
	serve.Flags().StringVar(&f.Join, "join", "", "address of an existing peer to join through (empty starts a new ring)")
	serve.Flags().StringVar(&f.Env, "env", "", "path to a .env file of CHORDRING_* overrides (default .env if present)")

	serve.Flags().UintVar(&f.RingBits, "ring-bits", 0, "identifier space bit-width m (default 24)")
	serve.Flags().IntVar(&f.SuccessorListLen, "successor-list-len", 0, "successor list length r (default m)")

	serve.Flags().DurationVar(&f.StabilizeInterval, "stabilize-interval", 0, "stabilize period (default 2s)")
	serve.Flags().DurationVar(&f.FixFingersInterval, "fix-fingers-interval", 0, "fix-fingers period (default 500ms)")
	serve.Flags().DurationVar(&f.CheckPredecessorInterval, "check-predecessor-interval", 0, "check-predecessor period (default 1s)")
	serve.Flags().DurationVar(&f.JoinRetryInterval, "join-retry-interval", 0, "join retry period (default 2s)")
	serve.Flags().DurationVar(&f.SendTimeout, "send-timeout", 0, "per-request send timeout (default 2s)")
	serve.Flags().DurationVar(&f.IsAliveTimeout, "is-alive-timeout", 0, "liveness probe timeout (default 5s)")
	serve.Flags().IntVar(&f.MaxConnections, "max-connections", 0, "connection governor limit (default 256)")

	serve.Flags().BoolVar(&f.Interactive, "interactive", true, "run the operator store/find/delete/inspect prompt alongside the peer")

	root.AddCommand(serve)
	return root
}
