package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type healthResponse struct {
	Status      string `json:"status"`
	Database    string `json:"database"`
	Cache       string `json:"cache"`
	Storage     string `json:"storage"`
	Environment string `json:"environment"`
}

func (h HandlerSet) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{
		Status:      "ok",
		Database:    h.check(ctx, "database", h.store.Ping),
		Cache:       "ok",
		Storage:     "disabled",
		Environment: h.cfg.Environment,
	}
	if h.cache != nil {
		resp.Cache = h.check(ctx, "redis", func(ctx context.Context) error { return h.cache.Ping(ctx).Err() })
	}
	if h.photos != nil {
		resp.Storage = h.check(ctx, "storage", h.photos.Ping)
	}

	status := http.StatusOK
	if resp.Database != "ok" || resp.Cache != "ok" {
		resp.Status = "degraded"
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, resp)
}

func (h HandlerSet) check(ctx context.Context, name string, ping func(context.Context) error) string {
	if err := ping(ctx); err != nil {
		h.log.Error().Err(err).Str("component", name).Msg("health check failed")
		return "error"
	}
	return "ok"
}
