package repository

import (
	"context"

	"gorm.io/gorm"

	"go-domain-routing-service/internal/domain"
	"go-domain-routing-service/internal/observability"
)

type FeedbackRepository interface {
	Create(feedback *domain.DomainFeedback) error
}

type GormFeedbackRepository struct{ db *gorm.DB }

func NewFeedbackRepository(db *gorm.DB) FeedbackRepository {
	return &GormFeedbackRepository{db: db}
}

func (r *GormFeedbackRepository) Create(feedback *domain.DomainFeedback) error {
	if err := r.db.Create(feedback).Error; err != nil {
		observability.RecordRepositoryOperation(context.Background(), "domain_feedback", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "domain_feedback", "create", "success")
	return nil
}
