package reporting

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinilab/clinilab/internal/platform/auth"
)

type Handler struct {
	svc *Service
	log zerolog.Logger
}

func NewHandler(svc *Service, log zerolog.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	kpi := api.Group("/kpi", auth.RequireRole("staff"))
	kpi.GET("/satisfaction", h.Satisfaction)
	kpi.GET("/staff", h.Staff)
	kpi.GET("/volume/monthly", h.MonthlyVolume)
	kpi.GET("/volume/weekly", h.WeeklyVolume)
	kpi.GET("/demographics", h.Demographics)
	kpi.GET("/field", h.GroupByField)
	kpi.POST("/field", h.GroupByField)

	api.GET("/query", h.AdHocQuery, auth.RequireRole("staff"))
}

// Satisfaction bundles the rating KPIs: overall index, split by client
// sex, the rating histogram and category demand.
func (h *Handler) Satisfaction(c echo.Context) error {
	ctx := c.Request().Context()

	index, err := h.svc.SatisfactionIndex(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	bySex, err := h.svc.SatisfactionBySex(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	distribution, err := h.svc.RatingDistribution(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	categories, err := h.svc.CategoryShare(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"satisfaction_index":  index,
		"satisfaction_by_sex": bySex,
		"rating_distribution": distribution,
		"category_share":      categories,
	})
}

// Staff bundles the per-staff workload KPIs.
func (h *Handler) Staff(c echo.Context) error {
	ctx := c.Request().Context()

	counts, err := h.svc.StaffTestCounts(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	share, err := h.svc.StaffTestShare(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	turnaround, err := h.svc.StaffAvgTurnaround(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	rating, err := h.svc.StaffAvgRating(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	bySex, err := h.svc.VolumeByStaffSex(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"test_counts":    counts,
		"test_share":     share,
		"avg_turnaround": turnaround,
		"avg_rating":     rating,
		"volume_by_sex":  bySex,
	})
}

func (h *Handler) MonthlyVolume(c echo.Context) error {
	series, err := h.svc.MonthlyVolume(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, series)
}

func (h *Handler) WeeklyVolume(c echo.Context) error {
	ctx := c.Request().Context()

	total, err := h.svc.WeeklyVolume(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	byName, err := h.svc.WeeklyVolumeByTestName(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	turnaround, err := h.svc.TurnaroundByTestName(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"total":              total,
		"by_test":            byName,
		"turnaround_by_test": turnaround,
	})
}

// Demographics bundles the client-demographic and ranking KPIs.
func (h *Handler) Demographics(c echo.Context) error {
	ctx := c.Request().Context()

	byAge, err := h.svc.TestsByAge(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	byAgeAndName, err := h.svc.TestsByAgeAndName(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	bySex, err := h.svc.TestsByClientSex(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	share, err := h.svc.ShareByTestName(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	top, err := h.svc.TopTests(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	bottom, err := h.svc.BottomTests(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"tests_by_age":          byAge,
		"tests_by_age_and_name": byAgeAndName,
		"tests_by_client_sex":   bySex,
		"share_by_test":         share,
		"top_tests":             top,
		"bottom_tests":          bottom,
	})
}

// GroupByField serves the free-field group-by. An invalid field is an
// error message with an empty series, not a failed request.
func (h *Handler) GroupByField(c echo.Context) error {
	field := c.QueryParam("formula")
	if field == "" {
		field = c.FormValue("formula")
	}
	entity := c.QueryParam("entity")
	if entity == "" {
		entity = "test"
	}

	series, err := h.svc.GroupByField(c.Request().Context(), entity, field)
	if err != nil {
		h.log.Warn().Err(err).Str("field", field).Str("entity", entity).
			Msg("field group-by rejected")
		return c.JSON(http.StatusOK, map[string]interface{}{
			"error":  err.Error(),
			"labels": []string{},
			"data":   []float64{},
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"field":  field,
		"labels": series.Labels,
		"data":   series.Data,
	})
}

func (h *Handler) AdHocQuery(c echo.Context) error {
	field := c.QueryParam("field_name")
	operation := c.QueryParam("operation")
	order := c.QueryParam("order")
	if order == "" {
		order = "asc"
	}

	series, err := h.svc.AdHocQuery(c.Request().Context(), field, operation, order)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, series)
}
