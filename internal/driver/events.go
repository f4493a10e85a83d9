package driver

// Status describes where one manifest is in the render pipeline.
type Status uint8

const (
	StatusQueued Status = iota
	StatusLoading
	StatusRendering
	StatusDone
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusQueued:
		return "queued"
	case StatusLoading:
		return "loading"
	case StatusRendering:
		return "rendering"
	case StatusDone:
		return "done"
	case StatusError:
		return "error"
	}
	return "unknown"
}

// Event reports pipeline progress for one manifest. Events feed the
// optional progress UI; dropping them is always safe.
type Event struct {
	Path   string
	Status Status
}

// emitEvent sends without blocking when no listener keeps up.
func emitEvent(ch chan<- Event, ev Event) {
	if ch == nil {
		return
	}
	select {
	case ch <- ev:
	default:
	}
}
