package types

// PoolStatus is the run-state of a worker pool
type PoolStatus int32

const (
	// StatusInvalid is the zero value: the pool has not been initialized
	StatusInvalid PoolStatus = iota
	// StatusStopped means initialized with no workers running
	StatusStopped
	// StatusRunning means workers are consuming the queue
	StatusRunning
	// StatusPaused means workers were drained without consuming the queue
	StatusPaused
)

// String returns the string representation of PoolStatus
func (s PoolStatus) String() string {
	switch s {
	case StatusInvalid:
		return "invalid"
	case StatusStopped:
		return "stopped"
	case StatusRunning:
		return "running"
	case StatusPaused:
		return "paused"
	default:
		return "unknown"
	}
}

// Valid reports whether s is one of the known statuses
func (s PoolStatus) Valid() bool {
	switch s {
	case StatusInvalid, StatusStopped, StatusRunning, StatusPaused:
		return true
	}
	return false
}
