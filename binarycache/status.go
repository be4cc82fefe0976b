// Package binarycache implements the binary-cache provider contract
// (§4.8): a per-action cache-status state machine, precheck/fetch/push
// ordering, and the fetch-completion synchronizer the install executor
// polls to know when outstanding cache jobs have drained. Transport
// backends (HTTP, NuGet, cloud blob stores) are out of scope (§1); this
// package only defines the Provider interface they would implement,
// grounded on the teacher's in-memory SourceCache status bookkeeping in
// source_cache.go.
package binarycache

// State is one of the four observable cache-status states (§4.8).
type State int

const (
	StateUnknown State = iota
	StateAvailable
	StateUnavailable
	StateRestored
)

func (s State) String() string {
	switch s {
	case StateAvailable:
		return "available"
	case StateUnavailable:
		return "unavailable"
	case StateRestored:
		return "restored"
	default:
		return "unknown"
	}
}

// Status tracks one action's cache-status across providers (§4.8). The
// zero value is ready to use, starting in StateUnknown.
type Status struct {
	state    State
	provider string // set once a provider reports availability
}

// ShouldAttemptPrecheck reports whether a precheck call is still useful:
// true only in StateUnknown (§4.8).
func (s *Status) ShouldAttemptPrecheck() bool { return s.state == StateUnknown }

// ShouldAttemptRestore reports whether restore is still worth trying:
// true in StateUnknown or StateAvailable, false once the action is known
// Unavailable or already Restored (§4.8).
func (s *Status) ShouldAttemptRestore() bool {
	return s.state == StateUnknown || s.state == StateAvailable
}

// IsUnavailable reports the terminal unavailable state.
func (s *Status) IsUnavailable() bool { return s.state == StateUnavailable }

// IsRestored reports whether a provider already restored this action.
func (s *Status) IsRestored() bool { return s.state == StateRestored }

// GetAvailableProvider returns the name of the provider that reported
// this action Available, if the status is currently in that state.
func (s *Status) GetAvailableProvider() (string, bool) {
	return s.provider, s.state == StateAvailable
}

// MarkAvailable transitions Unknown -> Available, recording which
// provider reported it. A no-op once the status has moved past Unknown,
// since §4.8's diagram only draws that edge out of Unknown.
func (s *Status) MarkAvailable(provider string) {
	if s.state == StateUnknown {
		s.state = StateAvailable
		s.provider = provider
	}
}

// MarkUnavailable transitions Unknown or Available to Unavailable, the
// terminal "no provider has this" state. Never downgrades a Restored
// status.
func (s *Status) MarkUnavailable() {
	if s.state != StateRestored {
		s.state = StateUnavailable
	}
}

// MarkRestored transitions Available -> Restored after a successful
// restore.
func (s *Status) MarkRestored() { s.state = StateRestored }

// State returns the current machine state, mostly for diagnostics/tests.
func (s *Status) State() State { return s.state }
