package session

import (
	"time"
)

type TimeoutPhases struct {
	Alert time.Duration
	Fail  time.Duration
}

type Timeouts struct {
	Authenticate TimeoutPhases
	Call         TimeoutPhases
}

func DefaultTimeouts() Timeouts {
	return Timeouts{
		Authenticate: TimeoutPhases{
			Alert: 4 * time.Second,
			Fail:  15 * time.Second,
		},
		Call: TimeoutPhases{
			Alert: 2 * time.Second,
			Fail:  30 * time.Second,
		},
	}
}
