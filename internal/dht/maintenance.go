package dht

import (
	"context"
	"errors"
	"os"
	"time"

	"chordring/internal/logging"
)

// errRingDead is returned by stepStabilize when every successor candidate,
// including the last backup, has failed its liveness check. §4.9/§7 treat
// this as unrecoverable: the process exits rather than spinning forever
// against a ring it can no longer reach.
var errRingDead = errors.New("dht: ring is dead, no live successor remains")

// RunMaintenance spawns the four periodic workers of §4.9 — join driver,
// stabilize, fix-fingers, check-predecessor — each on its own ticker at its
// own configured period, mirroring original_source/src/chord.rs's four
// independent tokio tasks rather than the teacher's single combined
// interval. It blocks until ctx is cancelled.
func (n *Node) RunMaintenance(ctx context.Context) {
	done := make(chan struct{}, 4)

	go func() { n.runJoinDriver(ctx); done <- struct{}{} }()
	go func() { n.runStabilizeLoop(ctx); done <- struct{}{} }()
	go func() { n.runFixFingersLoop(ctx); done <- struct{}{} }()
	go func() { n.runCheckPredecessorLoop(ctx); done <- struct{}{} }()

	for i := 0; i < 4; i++ {
		<-done
	}
}

// runJoinDriver repeatedly asks the bootstrap peer who owns this node's own
// id until one answers, then installs the answer as successor and marks the
// node joined (§4.1 join, §4.9). A brand-new ring (no bootstrap) is already
// joined at construction and this loop returns immediately.
func (n *Node) runJoinDriver(ctx context.Context) {
	if n.Joined() {
		return
	}

	attempt := func() bool {
		succ, err := n.findSuccessor(n.self.ID)
		if err != nil {
			logging.Lifecycle.Printf("join: %v", err)
			return false
		}
		n.mu.Lock()
		n.successors.updateFrom(succ, nil)
		n.fingers.put(0, succ)
		n.mu.Unlock()
		n.setJoined(true)
		logging.Lifecycle.Printf("joined ring via successor %d (%s)", succ.ID, succ.Addr)
		return true
	}

	if attempt() {
		return
	}

	ticker := time.NewTicker(n.cfg.JoinRetryInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n.Joined() || attempt() {
				return
			}
		}
	}
}

func (n *Node) runStabilizeLoop(ctx context.Context) {
	ticker := time.NewTicker(n.cfg.StabilizeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !n.Joined() {
				continue
			}
			if err := n.stepStabilize(); err != nil {
				if errors.Is(err, errRingDead) {
					logging.Stabilize.Printf("FATAL: %v", err)
					os.Exit(1)
				}
				logging.Stabilize.Printf("stabilize: %v", err)
			}
		}
	}
}

// stepStabilize is one round of §4.9 stabilize, generalized from the
// teacher's single-successor Stabilize to operate over the whole successor
// list (§3, §4.4): find the first live candidate, ask it for its own
// predecessor and for its successor list, adopt a closer predecessor if one
// exists, refresh the backup list, and notify whoever ends up as successor.
func (n *Node) stepStabilize() error {
	n.mu.RLock()
	self := n.self
	list := n.successors.list()
	n.mu.RUnlock()

	aliveIdx := -1
	for i, s := range list {
		if s.Equal(self) || n.transport.IsAlive(s.Addr) {
			aliveIdx = i
			break
		}
	}
	if aliveIdx == -1 {
		return errRingDead
	}

	head := list[aliveIdx]
	rest := list[aliveIdx+1:]
	// simpleAdvance is true when the only thing that changed is the head
	// itself (the original entry was still first in line, no dead prefix to
	// prune, no fresh backup list fetched): the existing backups are kept in
	// place rather than rebuilt from rest (§4.4 advance_to). Any other case —
	// a dead prefix was pruned, or a fresh successor list was fetched from
	// the new head — replaces the whole list via update_from.
	simpleAdvance := aliveIdx == 0

	if head.Equal(self) {
		if p, ok := n.Predecessor(); ok && !p.Equal(self) {
			if n.r.InOpenInterval(self.ID, self.ID, p.ID) {
				head = p
			}
		}
	} else {
		if predOfSucc, ok, err := n.getPredecessorOf(head.Addr); err == nil && ok && !predOfSucc.Equal(self) {
			if n.r.InOpenInterval(self.ID, head.ID, predOfSucc.ID) {
				head = predOfSucc
			}
		}
		if succList, err := n.getSuccessorListOf(head.Addr); err == nil {
			rest = succList
			simpleAdvance = false
		}
	}

	n.mu.Lock()
	if simpleAdvance {
		n.successors.advanceTo(head)
	} else {
		n.successors.updateFrom(head, rest)
	}
	n.fingers.put(0, n.successors.head())
	n.mu.Unlock()

	if head.Equal(self) {
		return nil
	}
	return n.notify(head.Addr)
}

func (n *Node) runFixFingersLoop(ctx context.Context) {
	ticker := time.NewTicker(n.cfg.FixFingersInterval)
	defer ticker.Stop()

	next := 1 // REDESIGN FLAG R1: cycle [1, m), index 0 tracks the successor directly.
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !n.Joined() {
				continue
			}
			n.mu.RLock()
			m := n.fingers.len()
			n.mu.RUnlock()
			if m <= 1 {
				continue
			}
			n.stepFixFinger(next)
			next++
			if next >= m {
				next = 1
			}
		}
	}
}

// stepFixFinger resolves finger[index]'s owner and installs it (§4.9,
// REDESIGN FLAG R1).
func (n *Node) stepFixFinger(index int) {
	n.mu.RLock()
	start := n.fingers.startAt(index)
	n.mu.RUnlock()

	succ, err := n.findSuccessorFinger(index, start)
	if err != nil {
		logging.FixFingers.Printf("fix-fingers[%d]: %v", index, err)
		return
	}

	n.mu.Lock()
	n.fingers.put(index, succ)
	n.mu.Unlock()
}

func (n *Node) runCheckPredecessorLoop(ctx context.Context) {
	ticker := time.NewTicker(n.cfg.CheckPredecessorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n.stepCheckPredecessor()
		}
	}
}

// stepCheckPredecessor clears the predecessor pointer if it has stopped
// responding to liveness probes (§4.9).
func (n *Node) stepCheckPredecessor() {
	pred, ok := n.Predecessor()
	if !ok || pred.Equal(n.self) {
		return
	}
	if !n.transport.IsAlive(pred.Addr) {
		n.mu.Lock()
		n.setPredecessorLocked(nil)
		n.mu.Unlock()
		logging.CheckPred.Printf("predecessor %d (%s) is dead, cleared", pred.ID, pred.Addr)
	}
}
