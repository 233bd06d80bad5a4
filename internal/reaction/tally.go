package reaction

// Tally counts qualifying messages per user id. Iteration follows the order
// ids were first added.
type Tally struct {
	order  []string
	counts map[string]int
}

// NewTally returns a tally holding zero for every target.
func NewTally(targets *TargetUsers) *Tally {
	t := &Tally{counts: make(map[string]int)}
	for _, id := range targets.IDs() {
		t.Add(id, 0)
	}
	return t
}

// Add adds n to id's count.
func (t *Tally) Add(id string, n int) {
	if _, ok := t.counts[id]; !ok {
		t.order = append(t.order, id)
	}
	t.counts[id] += n
}

// Get returns id's count.
func (t *Tally) Get(id string) int {
	return t.counts[id]
}

// IDs returns the tallied ids in insertion order.
func (t *Tally) IDs() []string {
	return append([]string(nil), t.order...)
}

// Total returns the sum of all counts.
func (t *Tally) Total() int {
	total := 0
	for _, n := range t.counts {
		total += n
	}
	return total
}

// Merge adds every count of other into t.
func (t *Tally) Merge(other *Tally) {
	if other == nil {
		return
	}
	for _, id := range other.order {
		t.Add(id, other.counts[id])
	}
}

// Map returns a copy of the counts.
func (t *Tally) Map() map[string]int {
	m := make(map[string]int, len(t.counts))
	for id, n := range t.counts {
		m[id] = n
	}
	return m
}

// Count tallies messages authored by a target that carry the named reaction.
// Each message adds at most one to its author.
func Count(messages []Message, targets *TargetUsers, reactionName string) *Tally {
	tally := NewTally(targets)
	for _, msg := range messages {
		if msg.User == "" || !targets.Contains(msg.User) {
			continue
		}
		if msg.HasReaction(reactionName) {
			tally.Add(msg.User, 1)
		}
	}
	return tally
}
