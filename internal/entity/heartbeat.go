package entity

import "time"

// Heartbeat is the single current-value liveness record of the monitor loop.
type Heartbeat struct {
	Status     string `json:"status"`
	LastUpdate int64  `json:"last_update"`
	Message    string `json:"message"`
	PID        int    `json:"pid"`
}

// UpdatedAt returns LastUpdate as a time.
func (h Heartbeat) UpdatedAt() time.Time {
	return time.Unix(h.LastUpdate, 0)
}

// Age returns how long ago the heartbeat was written.
func (h Heartbeat) Age(now time.Time) time.Duration {
	return now.Sub(h.UpdatedAt())
}
