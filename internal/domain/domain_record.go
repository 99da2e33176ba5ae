package domain

import "time"

// Verification and certificate states are mirrored verbatim from the edge
// platform; the service never interprets intermediate values, it only gates on
// the fully-active pair.
const (
	HostnameStatusActive  = "active"
	HostnameStatusPending = "pending"

	SSLStatusActive            = "active"
	SSLStatusPending           = "pending"
	SSLStatusPendingValidation = "pending_validation"
)

const (
	LifecycleActive  = "active"
	LifecycleDeleted = "deleted"
)

// DomainRecord is one domain-ownership claim. Rows are never physically
// removed; deletion flips LifecycleStatus so the audit trail survives.
type DomainRecord struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	OwnerID            uint      `gorm:"not null;index" json:"owner_id"`
	Domain             string    `gorm:"size:253;not null;index:idx_domain_lifecycle" json:"domain"`
	EdgeHostnameID     string    `gorm:"size:64;not null;uniqueIndex" json:"edge_hostname_id"`
	VerificationStatus string    `gorm:"size:32;not null;default:pending" json:"verification_status"`
	SSLStatus          string    `gorm:"size:32;not null;default:pending" json:"ssl_status"`
	LifecycleStatus    string    `gorm:"size:16;not null;default:active;index:idx_domain_lifecycle" json:"lifecycle_status"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Routable reports whether the record may be published to the routing table.
// Both statuses must be active simultaneously; partial activation is never
// routable.
func (d *DomainRecord) Routable() bool {
	return d.LifecycleStatus == LifecycleActive &&
		d.VerificationStatus == HostnameStatusActive &&
		d.SSLStatus == SSLStatusActive
}

// Deleted reports whether the record reached its terminal lifecycle state.
func (d *DomainRecord) Deleted() bool {
	return d.LifecycleStatus == LifecycleDeleted
}
