package models

import "time"

// BackupRecord is the transport form of a FileRecord: the payload is
// carried as base64 text and is always plaintext.
type BackupRecord struct {
	ID             int64     `json:"id,omitempty"`
	Title          string    `json:"title"`
	MimeType       string    `json:"mimeType"`
	CreatedAt      time.Time `json:"createdAt"`
	FileDataBase64 string    `json:"fileDataBase64"`
}

// BackupDocument is a full snapshot of the store.
type BackupDocument struct {
	Version      string         `json:"version"`
	ExportedAt   time.Time      `json:"exportedAt"`
	Tasks        []Task         `json:"tasks"`
	Transactions []Transaction  `json:"transactions"`
	Contacts     []Contact      `json:"contacts"`
	Records      []BackupRecord `json:"records"`
}

func (d *BackupDocument) Counts() Counts {
	return Counts{
		Tasks:        len(d.Tasks),
		Transactions: len(d.Transactions),
		Contacts:     len(d.Contacts),
		Records:      len(d.Records),
	}
}
