package handlers

import (
	"context"
	"net/http"
	"net/url"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	appctx "github.com/Ramsey-B/fern/pkg/context"
	"github.com/Ramsey-B/fern/pkg/endpoint"
	"github.com/Ramsey-B/fern/pkg/response"
)

// Server runs an endpoint request through the query pipeline.
type Server interface {
	Serve(ctx context.Context, e *endpoint.Endpoint, raw url.Values) (*response.Response, error)
}

// EndpointHandler exposes every catalogue endpoint as a GET route.
type EndpointHandler struct {
	server    Server
	endpoints []*endpoint.Endpoint
	logger    ectologger.Logger
}

func NewEndpointHandler(server Server, endpoints []*endpoint.Endpoint, logger ectologger.Logger) *EndpointHandler {
	return &EndpointHandler{server: server, endpoints: endpoints, logger: logger}
}

func (h *EndpointHandler) RegisterRoutes(e *echo.Echo) {
	for _, ep := range h.endpoints {
		e.GET(ep.Path, h.handle(ep))
	}
}

func (h *EndpointHandler) handle(ep *endpoint.Endpoint) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := appctx.SetEndpoint(c.Request().Context(), ep.Path)
		c.SetRequest(c.Request().WithContext(ctx))

		resp, err := h.server.Serve(ctx, ep, c.QueryParams())
		if err != nil {
			return err
		}
		return Write(c, resp)
	}
}

// Write sends a rendered response. A 204 carries no body.
func Write(c echo.Context, resp *response.Response) error {
	if resp.Status == http.StatusNoContent {
		return c.NoContent(http.StatusNoContent)
	}
	if disposition := resp.ContentDisposition(); disposition != "" {
		c.Response().Header().Set(echo.HeaderContentDisposition, disposition)
	}
	return c.Blob(resp.Status, resp.ContentType, resp.Body)
}

type endpointSummary struct {
	Path     string   `json:"path"`
	Formats  []string `json:"formats"`
	Datasets []string `json:"datasets"`
	CacheTTL string   `json:"cache_ttl,omitempty"`
}

// List describes the served endpoints.
// GET /
func (h *EndpointHandler) List(c echo.Context) error {
	out := make([]endpointSummary, 0, len(h.endpoints))
	for _, ep := range h.endpoints {
		summary := endpointSummary{
			Path:     ep.Path,
			Formats:  response.Formats(ep.Spatial),
			Datasets: ep.Datasets,
		}
		if ep.CacheTTL > 0 {
			summary.CacheTTL = ep.CacheTTL.String()
		}
		out = append(out, summary)
	}
	return c.JSON(http.StatusOK, map[string]any{"endpoints": out})
}
