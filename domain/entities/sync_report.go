package entities

import "time"

// SyncReport summarizes one sync run against a single device.
type SyncReport struct {
	Device            string    `json:"device"`
	Site              string    `json:"site"`
	Platform          string    `json:"platform"`
	InterfacesTotal   int       `json:"interfaces_total"`
	InterfacesMatched int       `json:"interfaces_matched"`
	PatchesPlanned    int       `json:"patches_planned"`
	Applied           bool      `json:"applied"`
	StartedAt         time.Time `json:"started_at"`
	Duration          string    `json:"duration"`
	Error             string    `json:"error,omitempty"`
}
