package gesture

// SmileReleaseRatio sets the smile hysteresis band: once latched, the smile
// latch only releases below SmileThreshold*SmileReleaseRatio.
const SmileReleaseRatio = 0.7

// Config holds every tunable the engine reads. It is replaced as a whole;
// there is no partial update.
type Config struct {
	// Enabled lists the gestures allowed to trigger. A disabled gesture is not
	// evaluated at all and its latch keeps whatever value it had.
	Enabled KindSet

	// CooldownMs is the minimum gap between two fired events of any kind.
	CooldownMs int64

	// Eye-open probability below WinkClosedThr counts as closed; above
	// WinkOpenThr counts as open.
	WinkClosedThr float64
	WinkOpenThr   float64

	SmileThreshold float64

	// NodDownDeltaDeg is the tilt away from baseline, in either direction,
	// that arms a nod. NodReturnDeltaDeg is how close to baseline the head
	// must come back for the nod to fire.
	NodDownDeltaDeg   float64
	NodReturnDeltaDeg float64
}

// DefaultConfig returns the stock tuning with every gesture except smile enabled.
func DefaultConfig() Config {
	return Config{
		Enabled:           NewKindSet(WinkLeft, WinkRight, NodDown, NodUp),
		CooldownMs:        900,
		WinkClosedThr:     0.25,
		WinkOpenThr:       0.75,
		SmileThreshold:    0.8,
		NodDownDeltaDeg:   15,
		NodReturnDeltaDeg: 7,
	}
}
