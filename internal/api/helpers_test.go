package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"github.com/sheet-dashboard/backend/internal/auth"
	"github.com/sheet-dashboard/backend/internal/decoder"
	"github.com/sheet-dashboard/backend/internal/ingest"
	"github.com/sheet-dashboard/backend/internal/models"
	"github.com/sheet-dashboard/backend/internal/pages"
	"github.com/sheet-dashboard/backend/internal/profile"
	"github.com/sheet-dashboard/backend/internal/render"
	"github.com/sheet-dashboard/backend/internal/store"
	"github.com/sheet-dashboard/backend/internal/testutil"
	"github.com/stretchr/testify/require"
)

// testEnv is a fully wired API backed by in-memory components.
type testEnv struct {
	e          *echo.Echo
	store      *store.Store
	sessions   *auth.Sessions
	handlers   *Handlers
	userToken  string
	adminToken string
}

func quietLogger() *log.Logger {
	l := log.New("test")
	l.SetLevel(log.OFF)
	return l
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	clock := testutil.NewClock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	s := store.New(store.WithClock(clock.Now), store.WithIDGenerator(testutil.SequentialIDs("id")))
	t.Cleanup(s.Close)
	return s
}

func newTestIngestor(s *store.Store) *ingest.Service {
	return ingest.NewService(decoder.NewRegistry(), s, quietLogger())
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st := newTestStore(t)

	sessions, err := auth.NewSessions(
		testutil.NewFakeAuthenticator(testutil.AdminUser, testutil.PlainUser),
		[]byte("test-secret"),
		auth.WithLogger(quietLogger()),
	)
	require.NoError(t, err)

	catalog, err := pages.Default()
	require.NoError(t, err)

	deps := &Dependencies{
		Store:    st,
		Ingestor: newTestIngestor(st),
		Profiler: &fakeProfiler{},
		Renderer: render.NewRenderer(),
		Sessions: sessions,
		Pages:    catalog,
		Limits: UploadLimits{
			MaxBytes:          1 << 20,
			AllowedExtensions: []string{".xlsx", ".xls", ".csv"},
		},
		AuthMode: "mock",
		Version:  "test",
		Logger:   quietLogger(),
	}
	handlers := NewHandlers(deps)

	e := echo.New()
	SetupMiddleware(e, MiddlewareConfig{})
	RegisterRoutes(e, handlers, sessions)

	ctx := context.Background()
	user, err := sessions.Login(ctx, models.Credentials{Email: testutil.PlainUser.Email})
	require.NoError(t, err)
	admin, err := sessions.Login(ctx, models.Credentials{Email: testutil.AdminUser.Email})
	require.NoError(t, err)

	return &testEnv{
		e:          e,
		store:      st,
		sessions:   sessions,
		handlers:   handlers,
		userToken:  user.Token,
		adminToken: admin.Token,
	}
}

// do sends a request through the router.
func (env *testEnv) do(method, path string, body io.Reader, contentType, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) doJSON(method, path string, payload interface{}, token string) *httptest.ResponseRecorder {
	var body io.Reader
	if payload != nil {
		data, _ := json.Marshal(payload)
		body = bytes.NewReader(data)
	}
	return env.do(method, path, body, echo.MIMEApplicationJSON, token)
}

type formFile struct {
	field    string
	filename string
	content  []byte
}

func multipartBody(t *testing.T, files ...formFile) (*bytes.Buffer, string) {
	t.Helper()
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)
	for _, f := range files {
		part, err := writer.CreateFormFile(f.field, f.filename)
		require.NoError(t, err)
		_, err = part.Write(f.content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func salesXLSX(t *testing.T) []byte {
	t.Helper()
	data, err := testutil.BuildXLSX(testutil.SalesSheet())
	require.NoError(t, err)
	return data
}

func decodeAPIError(t *testing.T, rec *httptest.ResponseRecorder) APIError {
	t.Helper()
	var apiErr APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	return apiErr
}

func seedUpload(s *store.Store) *models.Upload {
	return s.CreateUpload("sales.xlsx", []models.Row{
		{"Region": "North", "Sales": int64(120)},
		{"Region": "South", "Sales": 80.5},
		{"Region": "East", "Sales": "n/a"},
	}, []string{"Region", "Sales"})
}

type fakeProfiler struct {
	err error
}

func (f *fakeProfiler) Profile(_ context.Context, upload *models.Upload) ([]profile.ColumnProfile, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]profile.ColumnProfile, len(upload.Columns))
	for i, c := range upload.Columns {
		out[i] = profile.ColumnProfile{Name: c, NonEmpty: len(upload.Rows)}
	}
	if len(out) > 1 {
		out[1].Numeric = out[1].NonEmpty
	}
	return out, nil
}

type fakeIngestor struct {
	upload *models.Upload
	err    error
}

func (f *fakeIngestor) Ingest(context.Context, string, []byte) (*models.Upload, error) {
	return f.upload, f.err
}

func (f *fakeIngestor) Uploading() bool { return false }

func newContext(req *http.Request) (echo.Context, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

func mustXLSX(t *testing.T, rows [][]any) []byte {
	t.Helper()
	data, err := testutil.BuildXLSX(rows)
	require.NoError(t, err)
	return data
}
