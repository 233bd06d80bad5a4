package reaction

// TargetUsers is the set of users whose messages are tallied, kept in roster
// order so that grouping and tie ordering are deterministic.
type TargetUsers struct {
	ids   []string
	names map[string]string
}

// NewTargetUsers keeps the roster entries whose display name equals one of
// names exactly. Duplicate ids are kept once.
func NewTargetUsers(roster []User, names []string) *TargetUsers {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	t := &TargetUsers{names: make(map[string]string)}
	for _, u := range roster {
		if !want[u.DisplayName] {
			continue
		}
		if _, dup := t.names[u.ID]; dup {
			continue
		}
		t.ids = append(t.ids, u.ID)
		t.names[u.ID] = u.DisplayName
	}
	return t
}

// Contains reports whether id is a target. A nil set contains nobody.
func (t *TargetUsers) Contains(id string) bool {
	if t == nil {
		return false
	}
	_, ok := t.names[id]
	return ok
}

// DisplayName returns the display name of a target id.
func (t *TargetUsers) DisplayName(id string) (string, bool) {
	if t == nil {
		return "", false
	}
	name, ok := t.names[id]
	return name, ok
}

// IDs returns target ids in roster order.
func (t *TargetUsers) IDs() []string {
	if t == nil {
		return nil
	}
	return append([]string(nil), t.ids...)
}

func (t *TargetUsers) Len() int {
	if t == nil {
		return 0
	}
	return len(t.ids)
}

// Missing returns the configured names that matched no roster entry.
func (t *TargetUsers) Missing(names []string) []string {
	found := make(map[string]bool, len(t.names))
	for _, n := range t.names {
		found[n] = true
	}
	var missing []string
	for _, n := range names {
		if !found[n] {
			missing = append(missing, n)
		}
	}
	return missing
}
