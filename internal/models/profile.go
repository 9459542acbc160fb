package models

// Profile is the user-editable part of a User as the backend stores it.
type Profile struct {
	Name                string   `json:"name"`
	Email               string   `json:"email"`
	Phone               string   `json:"phone"`
	Picture             string   `json:"picture"`
	GatheringsCreated   []uint64 `json:"gatherings_created"`
	GatheringsResponded []uint64 `json:"gatherings_responded"`
}

// EmptyProfile returns the canonical "no profile yet" value.
func EmptyProfile() Profile {
	return Profile{
		GatheringsCreated:   []uint64{},
		GatheringsResponded: []uint64{},
	}
}

// IsEmpty reports whether p equals EmptyProfile field by field.
// A nil collection and an empty one compare equal.
func (p Profile) IsEmpty() bool {
	empty := EmptyProfile()
	return p.Name == empty.Name &&
		p.Email == empty.Email &&
		p.Phone == empty.Phone &&
		p.Picture == empty.Picture &&
		len(p.GatheringsCreated) == 0 &&
		len(p.GatheringsResponded) == 0
}

// Normalized returns a copy with nil collections replaced by empty ones,
// so the backend always receives arrays.
func (p Profile) Normalized() Profile {
	if p.GatheringsCreated == nil {
		p.GatheringsCreated = []uint64{}
	}
	if p.GatheringsResponded == nil {
		p.GatheringsResponded = []uint64{}
	}
	return p
}
