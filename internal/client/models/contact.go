package models

import "time"

// Contact is an address-book entry. Phone is kept as typed; uniqueness is
// checked on its digits only.
type Contact struct {
	ID        int64     `json:"id,omitempty"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Role      string    `json:"role,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type ContactPatch struct {
	Name  *string
	Phone *string
	Role  *string
	Notes *string
}

func (p ContactPatch) Apply(c Contact) Contact {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Phone != nil {
		c.Phone = *p.Phone
	}
	if p.Role != nil {
		c.Role = *p.Role
	}
	if p.Notes != nil {
		c.Notes = *p.Notes
	}
	return c
}
