package models

import "time"

// CertificateRecord stores an uploaded criminal-record clearance document.
type CertificateRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PersonID  uint      `gorm:"index;not null" json:"person_id"`
	FileName  string    `gorm:"size:255;not null" json:"file_name"`
	URL       string    `gorm:"size:1024;not null" json:"url"`
	MimeType  string    `gorm:"size:128" json:"mime_type"`
	SizeBytes int64     `json:"size_bytes"`
	Checksum  string    `gorm:"size:64" json:"checksum"`
	CreatedAt time.Time `json:"created_at"`
}
