package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"go-domain-routing-service/internal/domain"
	"go-domain-routing-service/internal/observability"
)

var (
	ErrDomainRecordNotFound = errors.New("domain record not found")
	ErrDomainRecordConflict = errors.New("domain already claimed")
)

type DomainRepository interface {
	Create(record *domain.DomainRecord) error
	FindActiveByDomain(fqdn string) (*domain.DomainRecord, error)
	FindByHostnameID(hostnameID string) (*domain.DomainRecord, error)
	ListByOwner(ownerID uint) ([]domain.DomainRecord, error)
	UpdateStatus(id uint, verificationStatus, sslStatus string) error
	MarkDeleted(id uint) error
}

type GormDomainRepository struct{ db *gorm.DB }

func NewDomainRepository(db *gorm.DB) DomainRepository {
	return &GormDomainRepository{db: db}
}

// Create persists a new ownership claim. At most one ACTIVE row may exist per
// FQDN; a second claim fails with ErrDomainRecordConflict regardless of which
// owner holds the first.
func (r *GormDomainRepository) Create(record *domain.DomainRecord) error {
	record.Domain = strings.ToLower(strings.TrimSpace(record.Domain))

	var count int64
	err := r.db.Model(&domain.DomainRecord{}).
		Where("domain = ? AND lifecycle_status = ?", record.Domain, domain.LifecycleActive).
		Count(&count).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "domain_record", "create", "error")
		return err
	}
	if count > 0 {
		observability.RecordRepositoryOperation(context.Background(), "domain_record", "create", "conflict")
		return ErrDomainRecordConflict
	}

	if err := r.db.Create(record).Error; err != nil {
		observability.RecordRepositoryOperation(context.Background(), "domain_record", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "domain_record", "create", "success")
	return nil
}

// FindActiveByDomain resolves the ACTIVE claim for an FQDN, if any.
func (r *GormDomainRepository) FindActiveByDomain(fqdn string) (*domain.DomainRecord, error) {
	var record domain.DomainRecord
	err := r.db.
		Where("domain = ? AND lifecycle_status = ?", strings.ToLower(strings.TrimSpace(fqdn)), domain.LifecycleActive).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "domain_record", "find_active_by_domain", "not_found")
			return nil, ErrDomainRecordNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "domain_record", "find_active_by_domain", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "domain_record", "find_active_by_domain", "success")
	return &record, nil
}

// FindByHostnameID resolves an ACTIVE record by its edge-assigned hostname id.
// Deleted records are invisible here so a retried delete reports not-found.
func (r *GormDomainRepository) FindByHostnameID(hostnameID string) (*domain.DomainRecord, error) {
	var record domain.DomainRecord
	err := r.db.
		Where("edge_hostname_id = ? AND lifecycle_status = ?", hostnameID, domain.LifecycleActive).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "domain_record", "find_by_hostname_id", "not_found")
			return nil, ErrDomainRecordNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "domain_record", "find_by_hostname_id", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "domain_record", "find_by_hostname_id", "success")
	return &record, nil
}

func (r *GormDomainRepository) ListByOwner(ownerID uint) ([]domain.DomainRecord, error) {
	var records []domain.DomainRecord
	err := r.db.
		Where("owner_id = ? AND lifecycle_status = ?", ownerID, domain.LifecycleActive).
		Order("created_at asc").Order("id asc").
		Find(&records).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "domain_record", "list_by_owner", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "domain_record", "list_by_owner", "success")
	return records, nil
}

// UpdateStatus overwrites the cached verification pair in one statement so
// concurrent refreshes cannot interleave a half-written status.
func (r *GormDomainRepository) UpdateStatus(id uint, verificationStatus, sslStatus string) error {
	res := r.db.Model(&domain.DomainRecord{}).
		Where("id = ? AND lifecycle_status = ?", id, domain.LifecycleActive).
		Updates(map[string]any{
			"verification_status": verificationStatus,
			"ssl_status":          sslStatus,
		})
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "domain_record", "update_status", "error")
		return res.Error
	}
	if res.RowsAffected == 0 {
		observability.RecordRepositoryOperation(context.Background(), "domain_record", "update_status", "not_found")
		return ErrDomainRecordNotFound
	}
	observability.RecordRepositoryOperation(context.Background(), "domain_record", "update_status", "success")
	return nil
}

// MarkDeleted is the one-way ACTIVE→DELETED transition. The row stays behind
// for audit history.
func (r *GormDomainRepository) MarkDeleted(id uint) error {
	res := r.db.Model(&domain.DomainRecord{}).
		Where("id = ? AND lifecycle_status = ?", id, domain.LifecycleActive).
		Update("lifecycle_status", domain.LifecycleDeleted)
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "domain_record", "mark_deleted", "error")
		return res.Error
	}
	if res.RowsAffected == 0 {
		observability.RecordRepositoryOperation(context.Background(), "domain_record", "mark_deleted", "not_found")
		return ErrDomainRecordNotFound
	}
	observability.RecordRepositoryOperation(context.Background(), "domain_record", "mark_deleted", "success")
	return nil
}
