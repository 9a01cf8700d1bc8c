package guestfs

// State represents the handle lifecycle state.
type State int

const (
	StateConfig State = iota // Created, drives may be added
	StateReady               // Launched, device actions allowed
	StateClosed              // Resources released
)

func (s State) String() string {
	switch s {
	case StateConfig:
		return "config"
	case StateReady:
		return "ready"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}
