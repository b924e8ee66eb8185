package handlers

import (
	"context"
	"net/http"
	"slices"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	appctx "github.com/Ramsey-B/fern/pkg/context"
	"github.com/Ramsey-B/fern/pkg/endpoint"
)

// Invalidator drops cached responses of endpoints, or all of them when none are named.
type Invalidator interface {
	Invalidate(ctx context.Context, endpoints []string) (int64, error)
}

type AdminHandler struct {
	invalidator Invalidator
	paths       []string
	logger      ectologger.Logger
}

func NewAdminHandler(invalidator Invalidator, endpoints []*endpoint.Endpoint, logger ectologger.Logger) *AdminHandler {
	paths := make([]string, len(endpoints))
	for i, ep := range endpoints {
		paths[i] = ep.Path
	}
	return &AdminHandler{invalidator: invalidator, paths: paths, logger: logger}
}

type PurgeResponse struct {
	Endpoints []string `json:"endpoints"`
	Deleted   int64    `json:"deleted"`
}

// PurgeCache removes cached responses, optionally limited to the repeated
// endpoint query parameter.
// DELETE /admin/cache
func (h *AdminHandler) PurgeCache(c echo.Context) error {
	ctx := c.Request().Context()

	endpoints := c.QueryParams()["endpoint"]
	for _, path := range endpoints {
		if !slices.Contains(h.paths, path) {
			return httperror.NewHTTPErrorf(http.StatusBadRequest, "unknown endpoint %s", path)
		}
	}

	deleted, err := h.invalidator.Invalidate(ctx, endpoints)
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("Failed to purge cache")
		return err
	}

	h.logger.WithContext(ctx).WithFields(map[string]any{
		"subject":   appctx.GetSubject(ctx),
		"endpoints": endpoints,
		"deleted":   deleted,
	}).Info("Purged endpoint cache")
	if endpoints == nil {
		endpoints = []string{}
	}
	return c.JSON(http.StatusOK, PurgeResponse{Endpoints: endpoints, Deleted: deleted})
}

func (h *AdminHandler) RegisterRoutes(e *echo.Echo, mw ...echo.MiddlewareFunc) {
	admin := e.Group("/admin", mw...)
	admin.DELETE("/cache", h.PurgeCache)
}
