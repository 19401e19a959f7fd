package ingest

import (
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/clinilab/clinilab/internal/platform/auth"
)

type Handler struct {
	loader *Loader
}

func NewHandler(loader *Loader) *Handler {
	return &Handler{loader: loader}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/load", auth.RequireRole("staff"))
	g.POST("/persons", h.LoadPersons)
	g.POST("/tests", h.LoadTests)
}

func openUpload(c echo.Context) (multipart.File, error) {
	fh, err := c.FormFile("csv_file")
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "csv_file is required")
	}
	if !strings.HasSuffix(strings.ToLower(fh.Filename), ".csv") {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "file must have a .csv extension")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "cannot open uploaded file")
	}
	return f, nil
}

func (h *Handler) LoadPersons(c echo.Context) error {
	f, err := openUpload(c)
	if err != nil {
		return err
	}
	defer f.Close()

	n, err := h.loader.LoadPersons(c.Request().Context(), f)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"loaded": n})
}

func (h *Handler) LoadTests(c echo.Context) error {
	f, err := openUpload(c)
	if err != nil {
		return err
	}
	defer f.Close()

	n, err := h.loader.LoadTests(c.Request().Context(), f)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"loaded": n})
}
