package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"go-domain-routing-service/internal/domain"
	"go-domain-routing-service/internal/edge"
	"go-domain-routing-service/internal/observability"
	"go-domain-routing-service/internal/repository"
)

var (
	// ErrInvalidDomain rejects malformed caller input; never retried.
	ErrInvalidDomain = errors.New("invalid domain name")
	// ErrDomainNotFound covers both a missing record and an ownership
	// mismatch so callers cannot probe for other tenants' domains.
	ErrDomainNotFound = errors.New("domain not found")
	// ErrDomainConflict signals an existing ACTIVE claim for the FQDN.
	ErrDomainConflict = errors.New("domain already linked")
	// ErrRoutingPublish means the status fetch succeeded and was persisted
	// but the routing-table write was not acknowledged. A later refresh
	// re-attempts the publish because gating is status-derived.
	ErrRoutingPublish = errors.New("routing table publish failed")
	// ErrPartialDeletion means one of the two deletion legs failed; the
	// record stays ACTIVE and both legs are safe to retry.
	ErrPartialDeletion = errors.New("domain deletion incomplete")
)

// Principal is the authenticated owner supplied by the session layer. The
// service trusts it and performs no credential validation of its own.
type Principal struct {
	OwnerID   uint
	TenantKey string
}

// DomainStatus is the caller-facing view of one claim: the durable record
// plus the transient DNS records and platform errors from the last fetch.
// The transient part is never cached beyond the request that produced it.
type DomainStatus struct {
	Record     *domain.DomainRecord
	DNSRecords []edge.DNSRecord
	Errors     []string
}

type FeedbackInput struct {
	Reason  string
	Comment string
}

type DomainServiceInterface interface {
	Link(ctx context.Context, principal Principal, fqdn string) (*DomainStatus, error)
	Get(ctx context.Context, principal Principal, hostnameID string, forceRefresh bool) (*DomainStatus, error)
	List(ctx context.Context, principal Principal) ([]domain.DomainRecord, error)
	Delete(ctx context.Context, principal Principal, hostnameID string, feedback FeedbackInput) error
}

// DomainService reconciles the relational record, the edge provisioning
// platform and the KV routing table. It is stateless between invocations;
// reconciliation runs on demand, never from a background poller.
type DomainService struct {
	repo      repository.DomainRepository
	hostnames edge.HostnameProvisioner
	routing   edge.RoutingPublisher
	feedback  FeedbackSink
	logger    *slog.Logger
}

func NewDomainService(
	repo repository.DomainRepository,
	hostnames edge.HostnameProvisioner,
	routing edge.RoutingPublisher,
	feedback FeedbackSink,
	logger *slog.Logger,
) *DomainService {
	return &DomainService{
		repo:      repo,
		hostnames: hostnames,
		routing:   routing,
		feedback:  feedback,
		logger:    logger,
	}
}

// Link claims a domain: registers the custom hostname upstream, then
// persists the ownership record with whatever statuses the platform
// reported. Publication never happens here, even if the platform reports an
// instantly-active hostname; the first refresh promotes it instead.
func (s *DomainService) Link(ctx context.Context, principal Principal, fqdn string) (*DomainStatus, error) {
	fqdn = strings.ToLower(strings.TrimSpace(fqdn))
	if fqdn == "" || strings.ContainsAny(fqdn, " /") {
		observability.RecordDomainLifecycleEvent(ctx, "link", "invalid_input")
		return nil, ErrInvalidDomain
	}

	// Checked before provisioning so a conflicting claim never creates an
	// orphan hostname upstream.
	if _, err := s.repo.FindActiveByDomain(fqdn); err == nil {
		observability.RecordDomainLifecycleEvent(ctx, "link", "conflict")
		return nil, ErrDomainConflict
	} else if !errors.Is(err, repository.ErrDomainRecordNotFound) {
		observability.RecordDomainLifecycleEvent(ctx, "link", "error")
		return nil, err
	}

	details, err := s.hostnames.Create(ctx, fqdn)
	if err != nil {
		observability.RecordEdgeCall(ctx, "create_hostname", "error")
		observability.RecordDomainLifecycleEvent(ctx, "link", "upstream_error")
		s.logger.ErrorContext(ctx, "hostname provisioning failed", "domain", fqdn, "error", err)
		return nil, err
	}
	observability.RecordEdgeCall(ctx, "create_hostname", "success")

	record := &domain.DomainRecord{
		OwnerID:            principal.OwnerID,
		Domain:             fqdn,
		EdgeHostnameID:     details.ID,
		VerificationStatus: statusOrPending(details.VerificationStatus),
		SSLStatus:          statusOrPending(details.SSLStatus),
		LifecycleStatus:    domain.LifecycleActive,
	}
	if err := s.repo.Create(record); err != nil {
		if errors.Is(err, repository.ErrDomainRecordConflict) {
			observability.RecordDomainLifecycleEvent(ctx, "link", "conflict")
			return nil, ErrDomainConflict
		}
		observability.RecordDomainLifecycleEvent(ctx, "link", "error")
		s.logger.ErrorContext(ctx, "domain record create failed after provisioning",
			"domain", fqdn, "edge_hostname_id", details.ID, "error", err)
		return nil, err
	}

	observability.RecordDomainLifecycleEvent(ctx, "link", "success")
	return &DomainStatus{Record: record, DNSRecords: details.DNSRecords, Errors: details.Errors}, nil
}

// Get returns the caller's record, refreshing it from the platform when
// forced or whenever either status is not yet active. A failed fetch leaves
// the persisted statuses untouched; stale cache beats an uncertain
// overwrite.
func (s *DomainService) Get(ctx context.Context, principal Principal, hostnameID string, forceRefresh bool) (*DomainStatus, error) {
	record, err := s.ownedRecord(ctx, principal, hostnameID)
	if err != nil {
		return nil, err
	}

	status := &DomainStatus{Record: record}
	if !forceRefresh && record.Routable() {
		return status, nil
	}

	details, err := s.hostnames.Fetch(ctx, hostnameID)
	if err != nil {
		observability.RecordEdgeCall(ctx, "fetch_hostname", "error")
		observability.RecordDomainLifecycleEvent(ctx, "refresh", "upstream_error")
		return nil, err
	}
	observability.RecordEdgeCall(ctx, "fetch_hostname", "success")

	verification := statusOrPending(details.VerificationStatus)
	ssl := statusOrPending(details.SSLStatus)
	if err := s.repo.UpdateStatus(record.ID, verification, ssl); err != nil {
		observability.RecordDomainLifecycleEvent(ctx, "refresh", "error")
		return nil, err
	}
	record.VerificationStatus = verification
	record.SSLStatus = ssl
	// Platform error strings travel back verbatim together with the DNS
	// records the user needs to fix their configuration.
	status.DNSRecords = details.DNSRecords
	status.Errors = details.Errors

	if record.Routable() {
		ok, err := s.routing.Publish(ctx, record.Domain, principal.TenantKey)
		if err != nil || !ok {
			observability.RecordRoutingTableUpdate(ctx, "publish", "error")
			observability.RecordDomainLifecycleEvent(ctx, "refresh", "publish_error")
			s.logger.ErrorContext(ctx, "routing table publish failed",
				"domain", record.Domain, "error", err)
			return nil, fmt.Errorf("%w: %v", ErrRoutingPublish, err)
		}
		observability.RecordRoutingTableUpdate(ctx, "publish", "success")
		s.logger.InfoContext(ctx, "domain activated",
			"domain", record.Domain, "edge_hostname_id", record.EdgeHostnameID)
	}

	observability.RecordDomainLifecycleEvent(ctx, "refresh", "success")
	return status, nil
}

func (s *DomainService) List(ctx context.Context, principal Principal) ([]domain.DomainRecord, error) {
	return s.repo.ListByOwner(principal.OwnerID)
}

// Delete retracts the routing mapping and deletes the upstream hostname
// concurrently, waits for both, and only then marks the record deleted. A
// single failed leg leaves the record ACTIVE; both legs are idempotent so
// the caller simply retries.
func (s *DomainService) Delete(ctx context.Context, principal Principal, hostnameID string, feedback FeedbackInput) error {
	record, err := s.ownedRecord(ctx, principal, hostnameID)
	if err != nil {
		return err
	}

	g := new(errgroup.Group)
	g.Go(func() error {
		ok, err := s.routing.Retract(ctx, record.Domain)
		if err == nil && !ok {
			err = errors.New("routing table retraction unacknowledged")
		}
		if err != nil {
			observability.RecordRoutingTableUpdate(ctx, "retract", "error")
			return fmt.Errorf("retract mapping: %w", err)
		}
		observability.RecordRoutingTableUpdate(ctx, "retract", "success")
		return nil
	})
	g.Go(func() error {
		if err := s.hostnames.Delete(ctx, record.EdgeHostnameID); err != nil {
			observability.RecordEdgeCall(ctx, "delete_hostname", "error")
			return fmt.Errorf("delete hostname: %w", err)
		}
		observability.RecordEdgeCall(ctx, "delete_hostname", "success")
		return nil
	})
	if err := g.Wait(); err != nil {
		observability.RecordDomainLifecycleEvent(ctx, "delete", "partial")
		s.logger.ErrorContext(ctx, "domain deletion left in partial state",
			"domain", record.Domain, "edge_hostname_id", record.EdgeHostnameID, "error", err)
		return fmt.Errorf("%w: %v", ErrPartialDeletion, err)
	}

	if err := s.repo.MarkDeleted(record.ID); err != nil {
		observability.RecordDomainLifecycleEvent(ctx, "delete", "error")
		return err
	}
	observability.RecordDomainLifecycleEvent(ctx, "delete", "success")

	// Feedback is audit-only; a failure here never unwinds the deletion.
	if feedback.Comment != "" || feedback.Reason != "" {
		if err := s.feedback.Record(ctx, record, principal, feedback); err != nil {
			s.logger.WarnContext(ctx, "deletion feedback not recorded",
				"domain", record.Domain, "error", err)
		}
	}
	return nil
}

func (s *DomainService) ownedRecord(ctx context.Context, principal Principal, hostnameID string) (*domain.DomainRecord, error) {
	record, err := s.repo.FindByHostnameID(hostnameID)
	if err != nil {
		if errors.Is(err, repository.ErrDomainRecordNotFound) {
			return nil, ErrDomainNotFound
		}
		return nil, err
	}
	// An ownership mismatch reports the same error as a missing record.
	if record.OwnerID != principal.OwnerID {
		s.logger.WarnContext(ctx, "domain access by non-owner",
			"edge_hostname_id", hostnameID, "owner_id", record.OwnerID, "caller_id", principal.OwnerID)
		return nil, ErrDomainNotFound
	}
	return record, nil
}

func statusOrPending(status string) string {
	if status == "" {
		return domain.HostnameStatusPending
	}
	return status
}
