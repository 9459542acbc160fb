package models

// User wraps a Profile with the identity metadata the backend assigns.
type User struct {
	ID        string  `json:"id"`
	Principal string  `json:"principal"`
	Profile   Profile `json:"profile"`
}
