// handlers_chart.go - Chart preview, save and render handlers
package api

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"github.com/sheet-dashboard/backend/internal/chart"
	"github.com/sheet-dashboard/backend/internal/models"
)

// ChartHandlerImpl implements the ChartHandler interface
type ChartHandlerImpl struct {
	store    UploadStore
	renderer ChartRenderer
	logger   *log.Logger
}

// NewChartHandler creates a new chart handler instance
func NewChartHandler(store UploadStore, renderer ChartRenderer, logger *log.Logger) ChartHandler {
	if logger == nil {
		logger = log.New("api")
	}
	return &ChartHandlerImpl{
		store:    store,
		renderer: renderer,
		logger:   logger,
	}
}

type chartRequest struct {
	XField string `json:"xField"`
	YField string `json:"yField"`
	Kind   string `json:"kind"`
}

// resolve fills in default axes and checks the request against the upload.
func (r *chartRequest) resolve(upload *models.Upload) (models.ChartKind, error) {
	kind := models.ChartBar
	if r.Kind != "" {
		k, err := chart.ParseKind(r.Kind)
		if err != nil {
			return "", wrapError(err, "invalid chart kind")
		}
		kind = k
	}
	x, y := chart.DefaultAxes(upload.Columns)
	if r.XField == "" {
		r.XField = x
	}
	if r.YField == "" {
		r.YField = y
	}
	if err := chart.Validate(upload.Columns, r.XField, r.YField); err != nil {
		return "", wrapError(err, "invalid chart axes")
	}
	return kind, nil
}

// HandleListKinds returns the chart kinds in display order
func (h *ChartHandlerImpl) HandleListKinds(c echo.Context) error {
	return c.JSON(http.StatusOK, chart.Kinds())
}

// HandlePreviewChart builds a chart config without storing it
func (h *ChartHandlerImpl) HandlePreviewChart(c echo.Context) error {
	upload, req, kind, err := h.bindChart(c)
	if err != nil {
		return err
	}
	cfg := chart.Build(upload.Rows, req.XField, req.YField, kind)
	return c.JSON(http.StatusOK, cfg)
}

// HandleSaveChart builds a chart config and appends it to the upload
func (h *ChartHandlerImpl) HandleSaveChart(c echo.Context) error {
	upload, req, kind, err := h.bindChart(c)
	if err != nil {
		return err
	}
	cfg := chart.Build(upload.Rows, req.XField, req.YField, kind)
	saved, ok := h.store.AppendChart(upload.ID, cfg)
	if !ok {
		return NewNotFoundError("upload", upload.ID)
	}
	h.logger.Infof("[Chart %s] saved %s chart %s by %s", shortID(upload.ID), kind, req.YField, req.XField)
	return c.JSON(http.StatusCreated, saved)
}

// HandleRenderChart renders a saved chart as a standalone HTML page
func (h *ChartHandlerImpl) HandleRenderChart(c echo.Context) error {
	uploadID := c.Param("id")
	chartID := c.Param("chartId")
	if uploadID == "" {
		return NewValidationError("id")
	}
	if chartID == "" {
		return NewValidationError("chartId")
	}
	if h.renderer == nil {
		return NewServiceUnavailableError("chart rendering is disabled")
	}

	upload, ok := h.store.GetUpload(uploadID)
	if !ok {
		return NewNotFoundError("upload", uploadID)
	}
	saved, ok := h.store.GetChart(uploadID, chartID)
	if !ok {
		return NewNotFoundError("chart", chartID)
	}

	title := fmt.Sprintf("%s: %s by %s", upload.Filename, saved.YField, saved.XField)
	html, err := h.renderer.Render(saved.Config, title)
	if err != nil {
		return NewInternalError("failed to render chart", err)
	}
	return c.HTML(http.StatusOK, html)
}

func (h *ChartHandlerImpl) bindChart(c echo.Context) (*models.Upload, *chartRequest, models.ChartKind, error) {
	id := c.Param("id")
	if id == "" {
		return nil, nil, "", NewValidationError("id")
	}
	var req chartRequest
	if err := c.Bind(&req); err != nil {
		return nil, nil, "", NewBadRequestError("invalid JSON body", err)
	}
	upload, ok := h.store.GetUpload(id)
	if !ok {
		return nil, nil, "", NewNotFoundError("upload", id)
	}
	kind, err := req.resolve(upload)
	if err != nil {
		return nil, nil, "", err
	}
	return upload, &req, kind, nil
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
