package models

import "time"

// FileRecord is a stored document (scan, photo or PDF).
type FileRecord struct {
	ID    int64  `json:"id,omitempty"`
	Title string `json:"title"`

	// Data is the stored payload. When Encrypted is set it is a sealed
	// blob keyed to the vault PIN. Never serialized directly.
	Data      []byte `json:"-"`
	MimeType  string `json:"mimeType"`
	Encrypted bool   `json:"encrypted,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

type RecordPatch struct {
	Title *string
}

func (p RecordPatch) Apply(r FileRecord) FileRecord {
	if p.Title != nil {
		r.Title = *p.Title
	}
	return r
}
