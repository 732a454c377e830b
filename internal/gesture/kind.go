// Package gesture recognizes page-turn gestures from per-frame face measurements.
//
// The recognizer is a small state machine: Step takes the current State, the
// active Config, one frame's faces and a millisecond timestamp, and returns the
// next State plus at most one Event. Engine wraps Step for callers that prefer
// callbacks over returned events.
package gesture

import "fmt"

// Kind identifies one of the recognized gestures.
type Kind uint8

const (
	// WinkLeft is the left eye closed while the right eye stays open.
	WinkLeft Kind = iota
	// WinkRight is the right eye closed while the left eye stays open.
	WinkRight
	// Smile is a rising edge of the smile probability.
	Smile
	// NodDown is a downward head tilt followed by a return to the baseline.
	NodDown
	// NodUp is an upward head tilt followed by a return to the baseline.
	NodUp
)

// Priority is the fixed evaluation order. The first kind whose trigger
// condition holds decides the frame.
var Priority = []Kind{WinkLeft, WinkRight, Smile, NodDown, NodUp}

var kindNames = [...]string{
	WinkLeft:  "wink_left",
	WinkRight: "wink_right",
	Smile:     "smile",
	NodDown:   "nod_down",
	NodUp:     "nod_up",
}

// String returns the snake_case name used in storage and over the wire.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind converts a name produced by String back into a Kind.
func ParseKind(name string) (Kind, error) {
	for i, n := range kindNames {
		if n == name {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown gesture %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if int(k) >= len(kindNames) {
		return nil, fmt.Errorf("unknown gesture %d", uint8(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

func (k Kind) isNod() bool {
	return k == NodDown || k == NodUp
}

// KindSet is a set of gesture kinds.
type KindSet uint8

// AllKinds contains every gesture kind.
const AllKinds = KindSet(1<<WinkLeft | 1<<WinkRight | 1<<Smile | 1<<NodDown | 1<<NodUp)

// NewKindSet returns a set holding the given kinds.
func NewKindSet(kinds ...Kind) KindSet {
	var s KindSet
	for _, k := range kinds {
		s = s.With(k)
	}
	return s
}

// Has reports whether k is in the set.
func (s KindSet) Has(k Kind) bool {
	return s&(1<<k) != 0
}

// With returns a copy of the set with k added.
func (s KindSet) With(k Kind) KindSet {
	return s | 1<<k
}

// Without returns a copy of the set with k removed.
func (s KindSet) Without(k Kind) KindSet {
	return s &^ (1 << k)
}

// Kinds lists the members in priority order.
func (s KindSet) Kinds() []Kind {
	var out []Kind
	for _, k := range Priority {
		if s.Has(k) {
			out = append(out, k)
		}
	}
	return out
}
