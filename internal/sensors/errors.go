package sensors

import (
	"fmt"
	"strings"
)

// FaultKind tells the acquisition loop how to recover from a probe failure.
type FaultKind int

const (
	// FaultTransient is a timing glitch; the next cycle retries.
	FaultTransient FaultKind = iota
	// FaultWiring means the probe did not answer at all; its power line is
	// cycled before the next attempt.
	FaultWiring
)

func (k FaultKind) String() string {
	switch k {
	case FaultWiring:
		return "wiring"
	default:
		return "transient"
	}
}

// wiringMarkers are message fragments that mean the probe did not respond.
// Driver errors that arrive as plain text are classified with them.
var wiringMarkers = []string{
	"check wiring",
	"sensor not found",
	"no response",
}

// ProbeError is an expected, recoverable humidity probe read failure.
type ProbeError struct {
	Kind FaultKind
	Msg  string
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("humidity probe: %s", e.Msg)
}

// NewProbeError builds a ProbeError whose kind is derived from the message.
func NewProbeError(msg string) *ProbeError {
	return &ProbeError{Kind: ClassifyMessage(msg), Msg: msg}
}

// ClassifyMessage maps a free-text driver message to a FaultKind.
func ClassifyMessage(msg string) FaultKind {
	lower := strings.ToLower(msg)
	for _, marker := range wiringMarkers {
		if strings.Contains(lower, marker) {
			return FaultWiring
		}
	}
	return FaultTransient
}
