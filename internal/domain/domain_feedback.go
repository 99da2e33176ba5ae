package domain

import "time"

// DomainFeedback stores the optional free-text comment a user leaves when
// unlinking a domain. Recording it is best-effort; it never participates in
// the deletion transaction.
type DomainFeedback struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	DomainRecordID uint      `gorm:"not null;index" json:"domain_record_id"`
	OwnerID        uint      `gorm:"not null;index" json:"owner_id"`
	Reason         string    `gorm:"size:64" json:"reason"`
	Comment        string    `gorm:"size:1024" json:"comment"`
	CreatedAt      time.Time `json:"created_at"`
}
