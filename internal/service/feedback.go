package service

import (
	"context"
	"log/slog"

	"go-domain-routing-service/internal/domain"
	"go-domain-routing-service/internal/repository"
)

// FeedbackSink receives best-effort deletion feedback. Implementations must
// be safe to fail: callers log and move on.
type FeedbackSink interface {
	Record(ctx context.Context, record *domain.DomainRecord, principal Principal, input FeedbackInput) error
}

type dbFeedbackSink struct {
	repo   repository.FeedbackRepository
	logger *slog.Logger
}

func NewDBFeedbackSink(repo repository.FeedbackRepository, logger *slog.Logger) FeedbackSink {
	return &dbFeedbackSink{repo: repo, logger: logger}
}

func (s *dbFeedbackSink) Record(ctx context.Context, record *domain.DomainRecord, principal Principal, input FeedbackInput) error {
	entry := &domain.DomainFeedback{
		DomainRecordID: record.ID,
		OwnerID:        principal.OwnerID,
		Reason:         input.Reason,
		Comment:        input.Comment,
	}
	if err := s.repo.Create(entry); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "deletion feedback recorded",
		"domain", record.Domain, "reason", input.Reason)
	return nil
}

// NoopFeedbackSink discards feedback; used when no store is configured.
type NoopFeedbackSink struct{}

func (NoopFeedbackSink) Record(context.Context, *domain.DomainRecord, Principal, FeedbackInput) error {
	return nil
}
