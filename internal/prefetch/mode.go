package prefetch

import (
	"fmt"
	"strings"
)

// Mode controls when a section's model is queued for prefetch.
type Mode int

const (
	// ModeAlways queues the model unconditionally.
	ModeAlways Mode = iota

	// ModeExists queues the model if at least one simulation object with
	// the section name exists anywhere.
	ModeExists

	// ModeNearby queues the model if a simulation object with the section
	// name exists on the same level as the actor.
	ModeNearby
)

// ParseMode maps a config field value to a Mode. Matching is
// case-insensitive and ignores surrounding whitespace.
func ParseMode(raw string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "always":
		return ModeAlways, nil
	case "exists":
		return ModeExists, nil
	case "nearby":
		return ModeNearby, nil
	}
	return ModeAlways, fmt.Errorf("unknown prefetch mode %q", raw)
}

func (m Mode) String() string {
	switch m {
	case ModeAlways:
		return "always"
	case ModeExists:
		return "exists"
	case ModeNearby:
		return "nearby"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}
