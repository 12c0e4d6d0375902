package runtime

import "sort"

// Ledger accumulates score and satisfied learning objectives for one
// run. Rewards are tracked per node so revisits never double-count;
// penalties accumulate every time and may push the score negative.
type Ledger struct {
	score      int
	awarded    map[string]bool
	objectives map[string]bool
}

func NewLedger() *Ledger {
	return &Ledger{
		awarded:    make(map[string]bool),
		objectives: make(map[string]bool),
	}
}

// Award applies a node's reward once per run. Returns false when the
// node already contributed.
func (l *Ledger) Award(nodeID string, points int) bool {
	if l.awarded[nodeID] {
		return false
	}
	l.awarded[nodeID] = true
	l.score += points
	return true
}

// Penalize subtracts points unconditionally.
func (l *Ledger) Penalize(points int) {
	l.score -= points
}

// Satisfy marks objectives as met and returns the ones newly added.
func (l *Ledger) Satisfy(ids ...string) []string {
	var added []string
	for _, id := range ids {
		if id == "" || l.objectives[id] {
			continue
		}
		l.objectives[id] = true
		added = append(added, id)
	}
	return added
}

func (l *Ledger) Score() int {
	return l.score
}

// ObjectiveIDs returns the satisfied objectives in sorted order.
func (l *Ledger) ObjectiveIDs() []string {
	out := make([]string, 0, len(l.objectives))
	for id := range l.objectives {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
