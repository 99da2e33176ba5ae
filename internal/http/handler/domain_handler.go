package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"go-domain-routing-service/internal/domain"
	"go-domain-routing-service/internal/edge"
	"go-domain-routing-service/internal/http/middleware"
	"go-domain-routing-service/internal/http/response"
	"go-domain-routing-service/internal/observability"
	"go-domain-routing-service/internal/service"
)

type DomainHandler struct {
	domainSvc      service.DomainServiceInterface
	idempotency    service.LinkIdempotencyStore
	idempotencyTTL time.Duration
}

func NewDomainHandler(domainSvc service.DomainServiceInterface, idempotency service.LinkIdempotencyStore, idempotencyTTL time.Duration) *DomainHandler {
	return &DomainHandler{
		domainSvc:      domainSvc,
		idempotency:    idempotency,
		idempotencyTTL: idempotencyTTL,
	}
}

type domainView struct {
	Domain             string           `json:"domain"`
	HostnameID         string           `json:"hostname_id"`
	VerificationStatus string           `json:"verification_status"`
	SSLStatus          string           `json:"ssl_status"`
	LifecycleStatus    string           `json:"lifecycle_status"`
	Routable           bool             `json:"routable"`
	DNSRecords         []edge.DNSRecord `json:"dns_records,omitempty"`
	Errors             []string         `json:"errors,omitempty"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

func viewFromStatus(status *service.DomainStatus) domainView {
	view := viewFromRecord(status.Record)
	view.DNSRecords = status.DNSRecords
	view.Errors = status.Errors
	return view
}

func viewFromRecord(record *domain.DomainRecord) domainView {
	return domainView{
		Domain:             record.Domain,
		HostnameID:         record.EdgeHostnameID,
		VerificationStatus: record.VerificationStatus,
		SSLStatus:          record.SSLStatus,
		LifecycleStatus:    record.LifecycleStatus,
		Routable:           record.Routable(),
		CreatedAt:          record.CreatedAt,
		UpdatedAt:          record.UpdatedAt,
	}
}

func (h *DomainHandler) Link(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid user", nil)
		return
	}

	var req struct {
		Domain string `json:"domain"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}
	fqdn := strings.ToLower(strings.TrimSpace(req.Domain))

	idemKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	scope := observability.ActorUserID(principal.OwnerID)
	if idemKey != "" && h.idempotency != nil {
		begin, err := h.idempotency.Begin(r.Context(), scope, idemKey, fqdn, h.idempotencyTTL)
		if err == nil {
			switch begin.State {
			case service.IdempotencyStateReplay:
				response.JSON(w, r, begin.Cached.StatusCode, json.RawMessage(begin.Cached.Body))
				return
			case service.IdempotencyStateConflict:
				response.Error(w, r, http.StatusConflict, "CONFLICT", "idempotency key reused with a different domain", nil)
				return
			case service.IdempotencyStateInProgress:
				response.Error(w, r, http.StatusConflict, "CONFLICT", "a request with this idempotency key is in progress", nil)
				return
			}
		}
		// Begin errors degrade to a non-idempotent link rather than
		// failing the request.
	}

	status, err := h.domainSvc.Link(r.Context(), principal, fqdn)
	if err != nil {
		h.writeLinkError(w, r, principal, fqdn, err)
		return
	}

	view := viewFromStatus(status)
	if idemKey != "" && h.idempotency != nil {
		if body, marshalErr := json.Marshal(view); marshalErr == nil {
			cached := service.CachedHTTPResponse{
				StatusCode:  http.StatusCreated,
				ContentType: "application/json",
				Body:        body,
			}
			_ = h.idempotency.Complete(r.Context(), scope, idemKey, fqdn, cached, h.idempotencyTTL)
		}
	}

	observability.EmitAudit(r, observability.AuditInput{
		EventName:   "domain.link",
		ActorUserID: observability.ActorUserID(principal.OwnerID),
		TargetType:  "domain",
		TargetID:    view.HostnameID,
		Action:      "link",
		Outcome:     "success",
		Reason:      "domain_claimed",
	}, "domain", view.Domain)
	response.JSON(w, r, http.StatusCreated, view)
}

func (h *DomainHandler) writeLinkError(w http.ResponseWriter, r *http.Request, principal service.Principal, fqdn string, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidDomain):
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "a valid domain name is required", nil)
	case errors.Is(err, service.ErrDomainConflict):
		observability.EmitAudit(r, observability.AuditInput{
			EventName:   "domain.link",
			ActorUserID: observability.ActorUserID(principal.OwnerID),
			TargetType:  "domain",
			TargetID:    fqdn,
			Action:      "link",
			Outcome:     "denied",
			Reason:      "duplicate_claim",
		})
		response.Error(w, r, http.StatusConflict, "CONFLICT", "domain is already linked", nil)
	default:
		var upstream *edge.UpstreamError
		if errors.As(err, &upstream) {
			response.Error(w, r, http.StatusInternalServerError, "UPSTREAM_ERROR", "hostname provisioning failed", map[string]any{
				"upstream_status": upstream.Status,
			})
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to link domain", nil)
	}
}

func (h *DomainHandler) Get(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid user", nil)
		return
	}

	hostnameID := chi.URLParam(r, "hostname_id")
	if hostnameID == "" {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "hostname id is required", nil)
		return
	}
	force := r.URL.Query().Get("refresh") == "1"

	status, err := h.domainSvc.Get(r.Context(), principal, hostnameID, force)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDomainNotFound):
			response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "domain not found", nil)
		case errors.Is(err, service.ErrRoutingPublish):
			response.Error(w, r, http.StatusInternalServerError, "PUBLICATION_FAILED", "domain verified but routing publication failed", nil)
		default:
			var upstream *edge.UpstreamError
			if errors.As(err, &upstream) {
				response.Error(w, r, http.StatusInternalServerError, "UPSTREAM_ERROR", "hostname status fetch failed", map[string]any{
					"upstream_status": upstream.Status,
				})
				return
			}
			response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to load domain", nil)
		}
		return
	}

	response.JSON(w, r, http.StatusOK, viewFromStatus(status))
}

func (h *DomainHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid user", nil)
		return
	}

	records, err := h.domainSvc.List(r.Context(), principal)
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to list domains", nil)
		return
	}

	views := make([]domainView, 0, len(records))
	for i := range records {
		views = append(views, viewFromRecord(&records[i]))
	}
	response.JSON(w, r, http.StatusOK, views)
}

func (h *DomainHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid user", nil)
		return
	}

	hostnameID := chi.URLParam(r, "hostname_id")
	if hostnameID == "" {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "hostname id is required", nil)
		return
	}

	var feedback service.FeedbackInput
	if r.Body != nil && r.ContentLength != 0 {
		var req struct {
			Reason  string `json:"reason"`
			Comment string `json:"comment"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			feedback = service.FeedbackInput{Reason: req.Reason, Comment: req.Comment}
		}
	}

	if err := h.domainSvc.Delete(r.Context(), principal, hostnameID, feedback); err != nil {
		switch {
		case errors.Is(err, service.ErrDomainNotFound):
			response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "domain not found", nil)
		case errors.Is(err, service.ErrPartialDeletion):
			observability.EmitAudit(r, observability.AuditInput{
				EventName:   "domain.unlink",
				ActorUserID: observability.ActorUserID(principal.OwnerID),
				TargetType:  "domain",
				TargetID:    hostnameID,
				Action:      "unlink",
				Outcome:     "partial",
				Reason:      "deletion_leg_failed",
			})
			response.Error(w, r, http.StatusInternalServerError, "PARTIAL_DELETION", "deletion incomplete, retry to finish unlinking", nil)
		default:
			response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to unlink domain", nil)
		}
		return
	}

	observability.EmitAudit(r, observability.AuditInput{
		EventName:   "domain.unlink",
		ActorUserID: observability.ActorUserID(principal.OwnerID),
		TargetType:  "domain",
		TargetID:    hostnameID,
		Action:      "unlink",
		Outcome:     "success",
		Reason:      "domain_unlinked",
	})
	response.JSON(w, r, http.StatusOK, map[string]any{
		"hostname_id": hostnameID,
		"deleted":     true,
	})
}
