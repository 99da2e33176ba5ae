package integration

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"go-domain-routing-service/internal/config"
	"go-domain-routing-service/internal/database"
	"go-domain-routing-service/internal/edge"
	"go-domain-routing-service/internal/http/handler"
	"go-domain-routing-service/internal/http/middleware"
	"go-domain-routing-service/internal/http/router"
	"go-domain-routing-service/internal/repository"
	"go-domain-routing-service/internal/security"
	"go-domain-routing-service/internal/service"
)

// fakeWorker emulates the provisioning worker facade: custom hostnames
// under /_/cf/hostname/ and the KV routing table under /_/kv/.
type fakeWorker struct {
	mu        sync.Mutex
	srv       *httptest.Server
	seq       int
	hostnames map[string]*edge.HostnameDetails
	kv        map[string]string

	// Per-endpoint failure toggles for partial-deletion scenarios.
	failKVDelete       bool
	failHostnameDelete bool

	verificationStatus string
	sslStatus          string
}

func newFakeWorker(t *testing.T) *fakeWorker {
	t.Helper()
	w := &fakeWorker{
		hostnames:          make(map[string]*edge.HostnameDetails),
		kv:                 make(map[string]string),
		verificationStatus: "pending",
		sslStatus:          "pending_validation",
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/_/cf/hostname/", w.handleHostname)
	mux.HandleFunc("/_/kv/", w.handleKV)
	w.srv = httptest.NewServer(mux)
	t.Cleanup(w.srv.Close)
	return w
}

func (w *fakeWorker) handleHostname(rw http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer worker-secret" {
		rw.WriteHeader(http.StatusForbidden)
		return
	}
	ref := strings.TrimPrefix(r.URL.Path, "/_/cf/hostname/")
	w.mu.Lock()
	defer w.mu.Unlock()

	switch r.Method {
	case http.MethodPost:
		w.seq++
		details := &edge.HostnameDetails{
			ID:                 fmt.Sprintf("hn-%d", w.seq),
			Hostname:           ref,
			VerificationStatus: "pending",
			SSLStatus:          "pending_validation",
			DNSRecords: []edge.DNSRecord{
				{Type: "TXT", Name: "_cf-custom-hostname." + ref, Value: "validation-token"},
			},
		}
		w.hostnames[details.ID] = details
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(details)
	case http.MethodGet:
		details, ok := w.hostnames[ref]
		if !ok {
			rw.WriteHeader(http.StatusNotFound)
			return
		}
		snapshot := *details
		snapshot.VerificationStatus = w.verificationStatus
		snapshot.SSLStatus = w.sslStatus
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(&snapshot)
	case http.MethodDelete:
		if w.failHostnameDelete {
			rw.WriteHeader(http.StatusInternalServerError)
			return
		}
		delete(w.hostnames, ref)
		rw.WriteHeader(http.StatusOK)
	default:
		rw.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (w *fakeWorker) handleKV(rw http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer worker-secret" {
		rw.WriteHeader(http.StatusForbidden)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/_/kv/")
	namespace, key, ok := strings.Cut(rest, "/")
	if !ok || namespace != "domains" {
		rw.WriteHeader(http.StatusNotFound)
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	switch r.Method {
	case http.MethodPost:
		body, _ := io.ReadAll(r.Body)
		w.kv[key] = string(body)
		rw.WriteHeader(http.StatusOK)
	case http.MethodDelete:
		if w.failKVDelete {
			rw.WriteHeader(http.StatusInternalServerError)
			return
		}
		delete(w.kv, key)
		rw.WriteHeader(http.StatusOK)
	default:
		rw.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (w *fakeWorker) setStatuses(verification, ssl string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.verificationStatus = verification
	w.sslStatus = ssl
}

func (w *fakeWorker) setFailKVDelete(fail bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.failKVDelete = fail
}

func (w *fakeWorker) kvValue(key string) (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	v, ok := w.kv[key]
	return v, ok
}

func (w *fakeWorker) hostnameExists(ref string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.hostnames[ref]
	return ok
}

type testEnv struct {
	router http.Handler
	worker *fakeWorker
	jwtMgr *security.JWTManager
	db     *gorm.DB
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	worker := newFakeWorker(t)
	cfg := &config.Config{
		Env:                "test",
		HTTPPort:           "0",
		WorkerURL:          worker.srv.URL,
		WorkerSecretToken:  "worker-secret",
		KVNamespace:        "domains",
		EdgeRequestTimeout: 5 * time.Second,
		JWTIssuer:          "iss",
		JWTAudience:        "aud",
		JWTAccessSecret:    "abcdefghijklmnopqrstuvwxyz123456",
		APIRateLimitPerMin: 1000,
		RateLimitBurst:     1000,
		LinkIdempotencyTTL: time.Hour,
	}

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })

	log := slog.Default()
	repo := repository.NewDomainRepository(db)
	feedbackRepo := repository.NewFeedbackRepository(db)
	svc := service.NewDomainService(
		repo,
		edge.NewHostnameClient(cfg),
		edge.NewRoutingTable(cfg),
		service.NewDBFeedbackSink(feedbackRepo, log),
		log,
	)
	jwtMgr := security.NewJWTManager(cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTAccessSecret)
	idem := service.NewRedisLinkIdempotencyStore(redisClient, "linkidem")

	dep := router.Dependencies{
		Domain:            handler.NewDomainHandler(svc, idem, cfg.LinkIdempotencyTTL),
		Health:            handler.NewHealthHandler(db, redisClient),
		JWT:               jwtMgr,
		Limiter:           middleware.NewLocalFixedWindowLimiter(),
		APIRateLimitRPM:   cfg.APIRateLimitPerMin,
		RateLimitFailOpen: true,
	}
	return &testEnv{router: router.New(dep), worker: worker, jwtMgr: jwtMgr, db: db}
}

func (e *testEnv) token(t *testing.T, ownerID uint, tenantKey string) string {
	t.Helper()
	token, err := e.jwtMgr.SignAccessToken(ownerID, tenantKey, time.Hour)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (e *testEnv) do(t *testing.T, method, path, token, body string, headers map[string]string) (*httptest.ResponseRecorder, apiEnvelope) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)

	var envelope apiEnvelope
	if rr.Body.Len() > 0 {
		if err := json.Unmarshal(rr.Body.Bytes(), &envelope); err != nil {
			t.Fatalf("decode envelope: %v body=%s", err, rr.Body.String())
		}
	}
	return rr, envelope
}

type domainPayload struct {
	Domain             string `json:"domain"`
	HostnameID         string `json:"hostname_id"`
	VerificationStatus string `json:"verification_status"`
	SSLStatus          string `json:"ssl_status"`
	LifecycleStatus    string `json:"lifecycle_status"`
	Routable           bool   `json:"routable"`
}

func decodeDomain(t *testing.T, raw json.RawMessage) domainPayload {
	t.Helper()
	var payload domainPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("decode domain payload: %v raw=%s", err, raw)
	}
	return payload
}
