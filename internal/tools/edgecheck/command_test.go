package edgecheck

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-domain-routing-service/internal/config"
)

func TestNewRootCommandHasRun(t *testing.T) {
	cmd := NewRootCommand()
	if cmd.Use != "edgecheck" {
		t.Fatalf("unexpected use: %s", cmd.Use)
	}
	if c, _, err := cmd.Find([]string{"run"}); err != nil || c == nil {
		t.Fatalf("expected run subcommand: err=%v", err)
	}
}

func probeConfig(baseURL string) *config.Config {
	return &config.Config{
		WorkerURL:          baseURL,
		WorkerSecretToken:  "test-token",
		KVNamespace:        "domains",
		EdgeRequestTimeout: 2 * time.Second,
	}
}

func TestProbeAcceptsNotFoundAsHealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-token" {
			t.Fatalf("missing bearer token, got %q", r.Header.Get("Authorization"))
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	details, err := probe(context.Background(), probeConfig(srv.URL))
	if err != nil {
		t.Fatalf("probe failed: %v", err)
	}
	if len(details) != 2 {
		t.Fatalf("unexpected details: %v", details)
	}
}

func TestProbeRejectsCredentialFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	if _, err := probe(context.Background(), probeConfig(srv.URL)); err == nil {
		t.Fatal("expected credential error")
	}
}

func TestProbeReportsUnreachableWorker(t *testing.T) {
	if _, err := probe(context.Background(), probeConfig("http://127.0.0.1:1")); err == nil {
		t.Fatal("expected transport error")
	}
}
