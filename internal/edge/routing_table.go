package edge

import (
	"context"
	"net/http"
	"net/url"

	"go-domain-routing-service/internal/config"
)

type RoutingPublisher interface {
	Publish(ctx context.Context, domain, tenantKey string) (bool, error)
	Retract(ctx context.Context, domain string) (bool, error)
}

// RoutingTable writes the hostname→tenant mapping that the edge consults on
// every inbound request. Both operations are idempotent at the facade:
// republishing an existing mapping or retracting an absent one succeeds.
type RoutingTable struct {
	workerClient
	namespace string
}

func NewRoutingTable(cfg *config.Config) *RoutingTable {
	return &RoutingTable{
		workerClient: workerClient{
			baseURL:    cfg.WorkerURL,
			token:      cfg.WorkerSecretToken,
			httpClient: &http.Client{Timeout: cfg.EdgeRequestTimeout},
		},
		namespace: cfg.KVNamespace,
	}
}

func (t *RoutingTable) Publish(ctx context.Context, domain, tenantKey string) (bool, error) {
	_, _, err := t.do(ctx, "publish mapping", http.MethodPost, t.kvPath(domain), []byte(tenantKey))
	if err != nil {
		return false, err
	}
	return true, nil
}

func (t *RoutingTable) Retract(ctx context.Context, domain string) (bool, error) {
	_, _, err := t.do(ctx, "retract mapping", http.MethodDelete, t.kvPath(domain), nil)
	if err != nil {
		return false, err
	}
	return true, nil
}

func (t *RoutingTable) kvPath(domain string) string {
	return "/_/kv/" + url.PathEscape(t.namespace) + "/" + url.PathEscape(domain)
}
