package models

import "time"

// GatheringInfo is the descriptive part of a gathering.
type GatheringInfo struct {
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	Host        string    `json:"host,omitempty"`
	StartsAt    time.Time `json:"starts_at,omitempty"`
}

// Gathering is an event a user may RSVP to. Read-only from this service.
type Gathering struct {
	ID   uint64        `json:"id"`
	Info GatheringInfo `json:"info"`
}
