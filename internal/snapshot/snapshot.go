// Package snapshot defines the snapshot record shared by discovery, retention and destroyer.
package snapshot

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

// TimestampLayout is the layout of the suffix after '@' in a snapshot identifier.
const TimestampLayout = "20060102-1504"

// ErrNotSnapshot is returned by Parse for identifiers that do not have the
// <volume>@<suffix> shape at all.
var ErrNotSnapshot = errors.New("not a snapshot identifier")

var stampPattern = regexp.MustCompile(`^[0-9]{8}-[0-9]{4}$`)

// State is the lifecycle state of a snapshot record.
type State int

const (
	Exists State = iota
	Deleted
)

func (s State) String() string {
	switch s {
	case Exists:
		return "EXISTS"
	case Deleted:
		return "DELETED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// TimestampError reports a snapshot identifier whose suffix is not a valid timestamp.
type TimestampError struct {
	Identifier string
	Stamp      string
	Err        error
}

func (e *TimestampError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("snapshot %q: invalid timestamp %q: %v", e.Identifier, e.Stamp, e.Err)
	}
	return fmt.Sprintf("snapshot %q: invalid timestamp %q", e.Identifier, e.Stamp)
}

func (e *TimestampError) Unwrap() error { return e.Err }

// Snapshot is one point-in-time snapshot of a volume.
type Snapshot struct {
	Name      string
	Volume    string
	CreatedAt time.Time

	state State
}

// Parse builds a Snapshot from an identifier of the form
// <volume>@<YYYYMMDD>-<HHMM>, interpreting the timestamp in loc.
// A nil loc means UTC.
func Parse(identifier string, loc *time.Location) (*Snapshot, error) {
	volume, stamp, ok := Split(identifier)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotSnapshot, identifier)
	}
	if !stampPattern.MatchString(stamp) {
		return nil, &TimestampError{Identifier: identifier, Stamp: stamp}
	}
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(TimestampLayout, stamp, loc)
	if err != nil {
		return nil, &TimestampError{Identifier: identifier, Stamp: stamp, Err: err}
	}
	return &Snapshot{Name: identifier, Volume: volume, CreatedAt: t, state: Exists}, nil
}

// Split separates an identifier into its volume and suffix parts.
func Split(identifier string) (volume, suffix string, ok bool) {
	volume, suffix, ok = strings.Cut(identifier, "@")
	if !ok || volume == "" || suffix == "" {
		return "", "", false
	}
	return volume, suffix, true
}

// State returns the current lifecycle state.
func (s *Snapshot) State() State { return s.state }

// MarkDeleted records a successful destroy. It panics if the snapshot was
// already deleted: that can only happen through a bug in the caller.
func (s *Snapshot) MarkDeleted() {
	if s.state != Exists {
		panic(fmt.Sprintf("snapshot %s: MarkDeleted in state %s", s.Name, s.state))
	}
	s.state = Deleted
}

// Age returns how long before now the snapshot was taken, in seconds.
func (s *Snapshot) Age(now time.Time) float64 {
	return now.Sub(s.CreatedAt).Seconds()
}

func (s *Snapshot) String() string {
	return fmt.Sprintf("<Snapshot %s %s>", s.Name, s.state)
}

// Sort orders snapshots oldest first. Equal timestamps keep their input order.
func Sort(snaps []*Snapshot) {
	sort.SliceStable(snaps, func(i, j int) bool {
		return snaps[i].CreatedAt.Before(snaps[j].CreatedAt)
	})
}
