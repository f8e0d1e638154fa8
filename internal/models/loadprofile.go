package models

// LoadProfile holds the execution parameters applied to every thread group
// unless an AI-recommended override is present for a specific group.
type LoadProfile struct {
	ThreadCount     int  `json:"threadCount"`
	RampUpSeconds   int  `json:"rampUpSeconds"`
	DurationSeconds int  `json:"durationSeconds"`
	LoopCount       int  `json:"loopCount"`
	ContinueForever bool `json:"continueForever"`
}

// DefaultLoadProfile returns a conservative single-loop profile.
func DefaultLoadProfile() LoadProfile {
	return LoadProfile{
		ThreadCount:   10,
		RampUpSeconds: 30,
		LoopCount:     1,
	}
}

// UseScheduler reports whether the generated thread groups run on a duration
// scheduler instead of a fixed loop count.
func (p LoadProfile) UseScheduler() bool {
	return p.DurationSeconds > 0
}

// Loops returns the loop count to serialize, honoring the infinite sentinel.
func (p LoadProfile) Loops() int {
	if p.ContinueForever {
		return -1
	}
	if p.LoopCount <= 0 {
		return 1
	}
	return p.LoopCount
}
