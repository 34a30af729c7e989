package models

import "time"

// NoShowSweepPayload is the payload for the queued no-show sweep task.
type NoShowSweepPayload struct {
	Before time.Time `json:"before"`
}
