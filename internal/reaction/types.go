// Package reaction holds the domain model for reaction tallies and the pure
// transformations from Slack messages to a grouped report.
package reaction

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// User is a roster entry.
type User struct {
	ID          string
	DisplayName string
}

// Channel is a conversation to scan. Name may be empty until resolved.
type Channel struct {
	ID   string
	Name string
}

// Reaction is one emoji attached to a message.
type Reaction struct {
	Name  string
	Count int
}

// Message is the subset of a Slack message the tally needs.
type Message struct {
	Timestamp       string
	User            string
	SubType         string
	ThreadTimestamp string
	Reactions       []Reaction
}

// IsSubtype reports whether the message is a system, edit or broadcast message.
func (m Message) IsSubtype() bool {
	return m.SubType != ""
}

// IsThreadRoot reports whether replies should be fetched for the message.
func (m Message) IsThreadRoot() bool {
	return m.ThreadTimestamp != "" && !m.IsSubtype()
}

// HasReaction reports whether the message carries a reaction with the given name.
func (m Message) HasReaction(name string) bool {
	for _, r := range m.Reactions {
		if r.Name == name {
			return true
		}
	}
	return false
}

// Page is one page of a paginated conversation listing.
type Page struct {
	Messages   []Message
	NextCursor string
}

// ChannelTypes selects which conversations the directory lists.
type ChannelTypes int

const (
	PublicOnly ChannelTypes = iota
	PublicAndPrivate
)

// ParseChannelTypes accepts "public" or "public+private".
func ParseChannelTypes(s string) (ChannelTypes, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "public":
		return PublicOnly, nil
	case "public+private", "all":
		return PublicAndPrivate, nil
	}
	return PublicOnly, fmt.Errorf("unknown channel types %q (want public or public+private)", s)
}

// SlackTypes returns the conversations.list type filter.
func (t ChannelTypes) SlackTypes() []string {
	if t == PublicAndPrivate {
		return []string{"public_channel", "private_channel"}
	}
	return []string{"public_channel"}
}

func (t ChannelTypes) String() string {
	if t == PublicAndPrivate {
		return "public+private"
	}
	return "public"
}

// Window is the aggregation period. A zero bound is open.
type Window struct {
	Start time.Time
	End   time.Time
}

// Validate rejects a window whose start is after its end.
func (w Window) Validate() error {
	if !w.Start.IsZero() && !w.End.IsZero() && w.Start.After(w.End) {
		return fmt.Errorf("window start %s is after end %s", w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
	}
	return nil
}

// Contains reports whether t falls inside the window, bounds included.
func (w Window) Contains(t time.Time) bool {
	if !w.Start.IsZero() && t.Before(w.Start) {
		return false
	}
	if !w.End.IsZero() && t.After(w.End) {
		return false
	}
	return true
}

// ContainsTimestamp is Contains for a Slack "seconds.micros" timestamp.
// Unparseable timestamps are kept.
func (w Window) ContainsTimestamp(ts string) bool {
	t, err := ParseTimestamp(ts)
	if err != nil {
		return true
	}
	return w.Contains(t)
}

// ParseTimestamp converts a Slack message timestamp to a time.
func ParseTimestamp(ts string) (time.Time, error) {
	sec, frac, _ := strings.Cut(ts, ".")
	s, err := strconv.ParseInt(sec, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", ts, err)
	}
	var micros int64
	if frac != "" {
		frac = (frac + "000000")[:6]
		micros, err = strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", ts, err)
		}
	}
	return time.Unix(s, micros*int64(time.Microsecond)), nil
}

// FormatTimestamp renders t as a "seconds.micros" Slack timestamp bound,
// the precision ParseTimestamp reads back.
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	t = t.Truncate(time.Microsecond)
	return fmt.Sprintf("%d.%06d", t.Unix(), t.Nanosecond()/int(time.Microsecond))
}
