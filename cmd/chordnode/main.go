// Command chordnode runs a single chordring peer: a Chord DHT node speaking
// the newline-delimited JSON protocol of §6 over TCP, with the maintenance
// loops of §4.9 and an optional interactive store/find/delete prompt (§4.14).
package main

import (
	"context"
	"fmt"
	"os"

	"chordring/internal/cli"
	"chordring/internal/config"
	"chordring/internal/dht"
	"chordring/internal/logging"
	"chordring/internal/protocol"
	"chordring/internal/ring"
	"chordring/internal/transport"
)

func main() {
	root := cli.NewRootCommand(runServe)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}

// runServe builds and runs one peer from parsed flags, exiting with the
// codes named in §6/§7: 2 for a startup error, 1 for a ring-dead fatal
// condition raised from within the maintenance loops (os.Exit there, not
// here), 0 for a clean shutdown.
func runServe(f cli.Flags) error {
	if err := config.LoadDotEnv(f.Env); err != nil {
		return fmt.Errorf("chordnode: load .env: %w", err)
	}

	cfg, err := config.ApplyEnv(config.Defaults())
	if err != nil {
		return fmt.Errorf("chordnode: %w", err)
	}
	cfg = f.Apply(cfg)

	r := ring.New(cfg.RingBits)
	self := protocol.PeerRef{ID: r.HashAddress(f.Bind), Addr: f.Bind}

	var bootstrap protocol.PeerRef
	if f.Join != "" {
		bootstrap = protocol.PeerRef{ID: r.HashAddress(f.Join), Addr: f.Join}
	}

	node := dht.New(cfg, r, self, bootstrap)

	tp := transport.New(f.Bind, cfg.SendTimeout, cfg.IsAliveTimeout, cfg.MaxConnections)
	node.SetTransport(tp)

	logging.Lifecycle.Printf("starting peer %d at %s (ring bits=%d) instance=%s", self.ID, self.Addr, cfg.RingBits, node.InstanceID())

	if f.Interactive {
		go cli.RunPrompt(node, os.Stdin, os.Stdout)
	}

	if err := node.Run(context.Background()); err != nil {
		return fmt.Errorf("chordnode: %w", err)
	}
	return nil
}