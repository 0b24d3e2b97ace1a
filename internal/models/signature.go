package models

import (
	"time"

	"gorm.io/gorm"
)

// Signature records the acceptance of a quote with a drawn signature.
// It is written once, alongside the accepted transition.
type Signature struct {
	ID      string `gorm:"type:varchar(36);primaryKey" json:"id"`
	QuoteID string `gorm:"type:varchar(36);uniqueIndex;not null" json:"quote_id"`

	// ImageKey references the signature image in object storage.
	ImageKey   string    `gorm:"size:255;not null" json:"image_key"`
	IPAddress  string    `gorm:"size:64" json:"ip_address,omitempty"`
	SignerName string    `gorm:"size:255" json:"signer_name,omitempty"`
	SignedAt   time.Time `gorm:"not null" json:"signed_at"`
}

// BeforeCreate assigns a random ID when none is set.
func (s *Signature) BeforeCreate(_ *gorm.DB) error {
	if s.ID == "" {
		s.ID = NewID()
	}
	return nil
}
