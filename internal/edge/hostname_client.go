package edge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"go-domain-routing-service/internal/config"
)

// DNSRecord is one record the customer must create to prove ownership or to
// pass certificate validation. Field names follow the facade wire shape.
type DNSRecord struct {
	Type  string `json:"record_type"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

// HostnameDetails is the point-in-time provisioning state of one custom
// hostname as reported by the edge platform. It is never cached locally.
type HostnameDetails struct {
	ID                 string      `json:"id"`
	Hostname           string      `json:"hostname"`
	DNSRecords         []DNSRecord `json:"dns_records"`
	VerificationStatus string      `json:"verification_status"`
	SSLStatus          string      `json:"ssl_status"`
	Errors             []string    `json:"errors"`
}

type HostnameProvisioner interface {
	Create(ctx context.Context, hostname string) (*HostnameDetails, error)
	Fetch(ctx context.Context, hostnameID string) (*HostnameDetails, error)
	Delete(ctx context.Context, hostnameID string) error
}

// HostnameClient talks to the facade's custom-hostname endpoints. It holds no
// state beyond the fixed credential established at startup.
type HostnameClient struct {
	workerClient
}

func NewHostnameClient(cfg *config.Config) *HostnameClient {
	return &HostnameClient{workerClient{
		baseURL:    cfg.WorkerURL,
		token:      cfg.WorkerSecretToken,
		httpClient: &http.Client{Timeout: cfg.EdgeRequestTimeout},
	}}
}

func (c *HostnameClient) Create(ctx context.Context, hostname string) (*HostnameDetails, error) {
	return c.details(ctx, "create hostname", http.MethodPost, hostname)
}

func (c *HostnameClient) Fetch(ctx context.Context, hostnameID string) (*HostnameDetails, error) {
	return c.details(ctx, "fetch hostname", http.MethodGet, hostnameID)
}

func (c *HostnameClient) Delete(ctx context.Context, hostnameID string) error {
	_, _, err := c.do(ctx, "delete hostname", http.MethodDelete, hostnamePath(hostnameID), nil)
	return err
}

func (c *HostnameClient) details(ctx context.Context, op, method, ref string) (*HostnameDetails, error) {
	_, payload, err := c.do(ctx, op, method, hostnamePath(ref), nil)
	if err != nil {
		return nil, err
	}
	var details HostnameDetails
	if err := json.Unmarshal(payload, &details); err != nil {
		return nil, fmt.Errorf("edge %s: decode response: %w", op, err)
	}
	return &details, nil
}

func hostnamePath(ref string) string {
	return "/_/cf/hostname/" + url.PathEscape(ref)
}
