package nlq

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinilab/clinilab/internal/platform/auth"
)

// Runner abstracts the fenced executor so handler tests can stub the
// database side.
type Runner interface {
	Execute(ctx context.Context, query string) ([]map[string]interface{}, error)
}

type Handler struct {
	gen    QueryGenerator
	runner Runner
	log    zerolog.Logger
}

func NewHandler(gen QueryGenerator, runner Runner, log zerolog.Logger) *Handler {
	return &Handler{gen: gen, runner: runner, log: log}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	analytics := api.Group("/analytics", auth.RequireRole("staff"))
	analytics.POST("/nlq", h.Query)
}

type queryRequest struct {
	Text string `json:"text" form:"text"`
}

type queryResponse struct {
	Query string                   `json:"query"`
	Rows  []map[string]interface{} `json:"rows"`
}

// Query turns a free-text question into SQL and runs it. Generation or
// execution failures degrade to an empty result set rather than an
// error status, so a dashboard polling this endpoint keeps rendering.
func (h *Handler) Query(c echo.Context) error {
	var req queryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Text == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "text is required")
	}

	ctx := c.Request().Context()

	query, err := h.gen.GenerateQuery(ctx, req.Text, SchemaDescription())
	if err != nil {
		h.log.Warn().Err(err).Str("text", req.Text).Msg("query generation failed")
		return c.JSON(http.StatusOK, queryResponse{Rows: []map[string]interface{}{}})
	}

	rows, err := h.runner.Execute(ctx, query)
	if err != nil {
		h.log.Warn().Err(err).Str("query", query).Msg("query execution failed")
		return c.JSON(http.StatusOK, queryResponse{Query: query, Rows: []map[string]interface{}{}})
	}

	return c.JSON(http.StatusOK, queryResponse{Query: query, Rows: rows})
}
