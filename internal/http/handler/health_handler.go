package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"go-domain-routing-service/internal/http/response"
)

type HealthHandler struct {
	db    *gorm.DB
	redis redis.UniversalClient
}

func NewHealthHandler(db *gorm.DB, redisClient redis.UniversalClient) *HealthHandler {
	return &HealthHandler{db: db, redis: redisClient}
}

func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, map[string]any{"status": "ok"})
}

// Ready reports whether the relational store and redis are reachable.
// Readiness never calls the provisioning worker; an upstream outage must
// not take this service out of rotation.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{"database": "ok", "redis": "ok"}
	healthy := true

	if h.db != nil {
		sqlDB, err := h.db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			checks["database"] = "unreachable"
			healthy = false
		}
	}
	if h.redis != nil {
		if err := h.redis.Ping(ctx).Err(); err != nil {
			checks["redis"] = "unreachable"
			healthy = false
		}
	}

	if !healthy {
		response.Error(w, r, http.StatusServiceUnavailable, "DEPENDENCY_UNREADY", "a dependency is unavailable", checks)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": checks})
}
