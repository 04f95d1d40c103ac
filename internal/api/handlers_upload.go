// handlers_upload.go - Spreadsheet upload handlers
package api

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"github.com/sheet-dashboard/backend/internal/chart"
	"github.com/sheet-dashboard/backend/internal/ingest"
	"github.com/sheet-dashboard/backend/internal/models"
	"github.com/sheet-dashboard/backend/internal/profile"
	"github.com/vmihailenco/msgpack/v5"
)

// formFileFields are checked in order for the uploaded file.
var formFileFields = []string{"file", "files"}

// UploadLimits restricts what HandleUpload accepts
type UploadLimits struct {
	MaxBytes          int64
	AllowedExtensions []string
	RecentCount       int
}

// UploadHandlerImpl implements the UploadHandler interface
type UploadHandlerImpl struct {
	store    UploadStore
	ingestor Ingestor
	profiler ColumnProfiler
	limits   UploadLimits
	logger   *log.Logger
}

// NewUploadHandler creates a new upload handler instance
func NewUploadHandler(store UploadStore, ingestor Ingestor, profiler ColumnProfiler, limits UploadLimits, logger *log.Logger) UploadHandler {
	if limits.RecentCount <= 0 {
		limits.RecentCount = 3
	}
	if logger == nil {
		logger = log.New("api")
	}
	return &UploadHandlerImpl{
		store:    store,
		ingestor: ingestor,
		profiler: profiler,
		limits:   limits,
		logger:   logger,
	}
}

type uploadResponse struct {
	Upload  models.UploadSummary `json:"upload"`
	Columns []string             `json:"columns"`
	Status  ingest.Status        `json:"status"`
}

// HandleUpload ingests the first file of a multipart form. Further files are ignored.
func (h *UploadHandlerImpl) HandleUpload(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return NewBadRequestError("invalid multipart form", err)
	}
	file, ignored := firstFile(form)
	if file == nil {
		return NewValidationError("file")
	}
	if ignored > 0 {
		h.logger.Infof("[Upload] %s: ignoring %d additional file(s)", file.Filename, ignored)
	}

	if err := h.checkFile(file); err != nil {
		return err
	}

	src, err := file.Open()
	if err != nil {
		return NewInternalError("failed to open uploaded file", err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return NewInternalError("failed to read uploaded file", err)
	}

	upload, err := h.ingestor.Ingest(c.Request().Context(), filepath.Base(file.Filename), data)
	if err != nil {
		apiErr := wrapError(err, ingest.FallbackMessage)
		if apiErr.Status == http.StatusInternalServerError {
			apiErr.Message = ingest.StatusFor(err).Message
		}
		return apiErr
	}

	return c.JSON(http.StatusCreated, uploadResponse{
		Upload:  upload.Summary(),
		Columns: upload.Columns,
		Status:  ingest.StatusFor(nil),
	})
}

func (h *UploadHandlerImpl) checkFile(file *multipart.FileHeader) error {
	if h.limits.MaxBytes > 0 && file.Size > h.limits.MaxBytes {
		return &APIError{
			Status:  http.StatusRequestEntityTooLarge,
			Code:    "FILE_TOO_LARGE",
			Message: fmt.Sprintf("file exceeds %d bytes", h.limits.MaxBytes),
		}
	}
	if len(h.limits.AllowedExtensions) == 0 {
		return nil
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	for _, allowed := range h.limits.AllowedExtensions {
		if ext == allowed {
			return nil
		}
	}
	return &APIError{
		Status:  http.StatusUnsupportedMediaType,
		Code:    "UNSUPPORTED_FORMAT",
		Message: fmt.Sprintf("file type %q is not allowed", ext),
		Details: "allowed: " + strings.Join(h.limits.AllowedExtensions, ", "),
	}
}

func firstFile(form *multipart.Form) (*multipart.FileHeader, int) {
	var (
		first *multipart.FileHeader
		total int
	)
	for _, field := range formFileFields {
		for _, f := range form.File[field] {
			if first == nil {
				first = f
			}
			total++
		}
	}
	if first == nil {
		return nil, 0
	}
	return first, total - 1
}

// HandleListUploads returns every upload, most recent first
func (h *UploadHandlerImpl) HandleListUploads(c echo.Context) error {
	return c.JSON(http.StatusOK, summaries(h.store.ListUploads()))
}

// HandleRecentUploads returns the uploads shown on the dashboard
func (h *UploadHandlerImpl) HandleRecentUploads(c echo.Context) error {
	return c.JSON(http.StatusOK, summaries(h.store.Recent(h.limits.RecentCount)))
}

// HandleGetUpload returns one upload with its rows and charts
func (h *UploadHandlerImpl) HandleGetUpload(c echo.Context) error {
	upload, err := h.lookup(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, upload)
}

// HandleGetRowsMsgpack returns the upload rows msgpack-encoded
func (h *UploadHandlerImpl) HandleGetRowsMsgpack(c echo.Context) error {
	upload, err := h.lookup(c)
	if err != nil {
		return err
	}
	data, err := msgpack.Marshal(upload)
	if err != nil {
		return NewInternalError("failed to encode msgpack", err)
	}
	return c.Blob(http.StatusOK, "application/x-msgpack", data)
}

// HandleGetProfile returns per-column statistics and suggested axes
func (h *UploadHandlerImpl) HandleGetProfile(c echo.Context) error {
	if h.profiler == nil {
		return NewServiceUnavailableError("column profiling is disabled")
	}
	upload, err := h.lookup(c)
	if err != nil {
		return err
	}
	profiles, err := h.profiler.Profile(c.Request().Context(), upload)
	if err != nil {
		return NewInternalError("failed to profile upload", err)
	}
	return c.JSON(http.StatusOK, newProfileResponse(upload, profiles))
}

func (h *UploadHandlerImpl) lookup(c echo.Context) (*models.Upload, error) {
	id := c.Param("id")
	if id == "" {
		return nil, NewValidationError("id")
	}
	upload, ok := h.store.GetUpload(id)
	if !ok {
		return nil, NewNotFoundError("upload", id)
	}
	return upload, nil
}

func summaries(uploads []*models.Upload) []models.UploadSummary {
	out := make([]models.UploadSummary, len(uploads))
	for i, u := range uploads {
		out[i] = u.Summary()
	}
	return out
}

type profileResponse struct {
	Columns    []profile.ColumnProfile `json:"columns"`
	DefaultX   string                  `json:"defaultX"`
	DefaultY   string                  `json:"defaultY"`
	SuggestedY string                  `json:"suggestedY,omitempty"`
}

func newProfileResponse(upload *models.Upload, profiles []profile.ColumnProfile) profileResponse {
	x, y := chart.DefaultAxes(upload.Columns)
	return profileResponse{
		Columns:    profiles,
		DefaultX:   x,
		DefaultY:   y,
		SuggestedY: profile.SuggestY(profiles, x),
	}
}
