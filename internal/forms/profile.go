// Package forms turns submitted HTML forms into domain values.
package forms

import (
	"errors"
	"net/url"
	"strings"

	"github.com/AnshRaj112/gather-web/internal/models"
)

// Profile form field names.
const (
	FieldName    = "name"
	FieldEmail   = "email"
	FieldPhone   = "phone"
	FieldPicture = "picture"
)

var ErrNameRequired = errors.New("Name is required")

// ProfileDraft is the editable state of the profile form.
type ProfileDraft struct {
	Name    string
	Email   string
	Phone   string
	Picture string

	// Carried through unchanged; not editable from the form.
	GatheringsCreated   []uint64
	GatheringsResponded []uint64
}

// ProfileAction is applied to a draft by ReduceProfile.
type ProfileAction interface {
	isProfileAction()
}

// SetField replaces one text field.
type SetField struct {
	Field string
	Value string
}

// Reset replaces the whole draft with a stored profile.
type Reset struct {
	Profile models.Profile
}

func (SetField) isProfileAction() {}
func (Reset) isProfileAction()    {}

// ReduceProfile returns the draft after applying action. Unknown fields
// leave the draft unchanged.
func ReduceProfile(d ProfileDraft, action ProfileAction) ProfileDraft {
	switch a := action.(type) {
	case SetField:
		v := strings.TrimSpace(a.Value)
		switch a.Field {
		case FieldName:
			d.Name = v
		case FieldEmail:
			d.Email = v
		case FieldPhone:
			d.Phone = v
		case FieldPicture:
			d.Picture = v
		}
	case Reset:
		d = ProfileDraft{
			Name:                a.Profile.Name,
			Email:               a.Profile.Email,
			Phone:               a.Profile.Phone,
			Picture:             a.Profile.Picture,
			GatheringsCreated:   a.Profile.GatheringsCreated,
			GatheringsResponded: a.Profile.GatheringsResponded,
		}
	}
	return d
}

// DraftFromForm starts from base and applies every submitted field.
func DraftFromForm(base models.Profile, form url.Values) ProfileDraft {
	d := ReduceProfile(ProfileDraft{}, Reset{Profile: base})
	for _, field := range []string{FieldName, FieldEmail, FieldPhone, FieldPicture} {
		if _, ok := form[field]; ok {
			d = ReduceProfile(d, SetField{Field: field, Value: form.Get(field)})
		}
	}
	return d
}

// Validate reports the first problem with the draft.
func (d ProfileDraft) Validate() error {
	if d.Name == "" {
		return ErrNameRequired
	}
	return nil
}

// Profile converts the draft into the value sent to the backend.
func (d ProfileDraft) Profile() models.Profile {
	return models.Profile{
		Name:                d.Name,
		Email:               d.Email,
		Phone:               d.Phone,
		Picture:             d.Picture,
		GatheringsCreated:   d.GatheringsCreated,
		GatheringsResponded: d.GatheringsResponded,
	}.Normalized()
}
