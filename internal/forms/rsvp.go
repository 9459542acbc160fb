package forms

import (
	"errors"
	"net/url"
	"strings"

	"github.com/AnshRaj112/gather-web/internal/models"
)

// ErrAttendingRequired is shown when the attending choice is missing.
var ErrAttendingRequired = errors.New(`Response for "Attending" is required`)

// ParseRsvp reads the RSVP form: attending is "yes" or "no", note is optional.
func ParseRsvp(form url.Values) (models.Rsvp, error) {
	var rsvp models.Rsvp
	switch strings.ToLower(strings.TrimSpace(form.Get("attending"))) {
	case "yes", "true":
		rsvp.Attending = true
	case "no", "false":
		rsvp.Attending = false
	default:
		return models.Rsvp{}, ErrAttendingRequired
	}
	rsvp.Note = strings.TrimSpace(form.Get("note"))
	return rsvp, nil
}
