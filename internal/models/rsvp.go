package models

// Rsvp is the write-only payload submitted against a gathering.
type Rsvp struct {
	Attending bool   `json:"attending"`
	Note      string `json:"note,omitempty"`
}
