package database

import (
	"go-domain-routing-service/internal/domain"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.DomainRecord{},
		&domain.DomainFeedback{},
	)
}
