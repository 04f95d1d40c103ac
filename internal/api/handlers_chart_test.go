// handlers_chart_test.go - Tests for chart handlers
package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/sheet-dashboard/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChartHandler_Preview(t *testing.T) {
	env := newTestEnv(t)
	u := seedUpload(env.store)

	rec := env.doJSON(http.MethodPost, "/api/uploads/"+u.ID+"/charts/preview",
		chartRequest{XField: "Region", YField: "Sales", Kind: "line"}, env.userToken)

	require.Equal(t, http.StatusOK, rec.Code)
	var cfg models.ChartConfig
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cfg))
	assert.Equal(t, models.ChartLine, cfg.Kind)
	assert.Equal(t, []string{"North", "South", "East"}, cfg.Labels)
	require.Len(t, cfg.Datasets, 1)
	assert.Equal(t, []float64{120, 80.5, 0}, cfg.Datasets[0].Data)

	stored, ok := env.store.GetUpload(u.ID)
	require.True(t, ok)
	assert.Empty(t, stored.Charts, "preview must not store a chart")
}

func TestChartHandler_PreviewDefaults(t *testing.T) {
	env := newTestEnv(t)
	u := seedUpload(env.store)

	rec := env.doJSON(http.MethodPost, "/api/uploads/"+u.ID+"/charts/preview", map[string]string{}, env.userToken)

	require.Equal(t, http.StatusOK, rec.Code)
	var cfg models.ChartConfig
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cfg))
	assert.Equal(t, models.ChartBar, cfg.Kind)
	assert.Equal(t, "Region", cfg.XField)
	assert.Equal(t, "Sales", cfg.YField)
}

func TestChartHandler_Errors(t *testing.T) {
	tests := []struct {
		name       string
		uploadID   string
		body       string
		wantStatus int
		errCode    string
	}{
		{
			name:       "unknown kind",
			body:       `{"xField":"Region","yField":"Sales","kind":"scatter"}`,
			wantStatus: http.StatusBadRequest,
			errCode:    "BAD_REQUEST",
		},
		{
			name:       "unknown x field",
			body:       `{"xField":"City","yField":"Sales"}`,
			wantStatus: http.StatusBadRequest,
			errCode:    "VALIDATION_ERROR",
		},
		{
			name:       "unknown y field",
			body:       `{"xField":"Region","yField":"Profit"}`,
			wantStatus: http.StatusBadRequest,
			errCode:    "VALIDATION_ERROR",
		},
		{
			name:       "malformed body",
			body:       `{"xField":`,
			wantStatus: http.StatusBadRequest,
			errCode:    "BAD_REQUEST",
		},
		{
			name:       "unknown upload",
			uploadID:   "missing",
			body:       `{}`,
			wantStatus: http.StatusNotFound,
			errCode:    "NOT_FOUND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			u := seedUpload(env.store)
			id := u.ID
			if tt.uploadID != "" {
				id = tt.uploadID
			}

			for _, path := range []string{"/charts/preview", "/charts"} {
				rec := env.do(http.MethodPost, "/api/uploads/"+id+path,
					strings.NewReader(tt.body), echo.MIMEApplicationJSON, env.userToken)

				assert.Equal(t, tt.wantStatus, rec.Code, path)
				assert.Equal(t, tt.errCode, decodeAPIError(t, rec).Code, path)
			}
			stored, _ := env.store.GetUpload(u.ID)
			assert.Empty(t, stored.Charts)
		})
	}
}

func TestChartHandler_Save(t *testing.T) {
	env := newTestEnv(t)
	u := seedUpload(env.store)

	rec := env.doJSON(http.MethodPost, "/api/uploads/"+u.ID+"/charts",
		chartRequest{XField: "Region", YField: "Sales", Kind: "pie"}, env.userToken)

	require.Equal(t, http.StatusCreated, rec.Code)
	var saved models.Chart
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &saved))
	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, models.ChartPie, saved.Kind)
	assert.Equal(t, "Sales", saved.YField)

	stored, _ := env.store.GetUpload(u.ID)
	require.Len(t, stored.Charts, 1)
	assert.Equal(t, saved.ID, stored.Charts[0].ID)
	assert.Equal(t, 1, env.store.Stats().TotalCharts)
}

func TestChartHandler_Render(t *testing.T) {
	env := newTestEnv(t)
	u := seedUpload(env.store)
	saved, ok := env.store.AppendChart(u.ID, models.ChartConfig{
		Kind:   models.ChartBar,
		XField: "Region",
		YField: "Sales",
		Labels: []string{"North"},
		Datasets: []models.Dataset{{
			Label:           "Sales",
			Data:            []float64{120},
			BackgroundColor: []string{"rgba(54, 162, 235, 0.6)"},
			BorderColor:     []string{"rgba(54, 162, 235, 1)"},
			BorderWidth:     1,
		}},
	})
	require.True(t, ok)

	rec := env.do(http.MethodGet, "/api/uploads/"+u.ID+"/charts/"+saved.ID+"/render", nil, "", env.userToken)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), echo.MIMETextHTML)
	assert.Contains(t, rec.Body.String(), "sales.xlsx: Sales by Region")

	rec = env.do(http.MethodGet, "/api/uploads/"+u.ID+"/charts/nope/render", nil, "", env.userToken)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(http.MethodGet, "/api/uploads/nope/charts/"+saved.ID+"/render", nil, "", env.userToken)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChartHandler_ListKinds(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/charts/kinds", nil, "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var kinds []models.ChartKind
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &kinds))
	assert.Equal(t, []models.ChartKind{models.ChartBar, models.ChartLine, models.ChartPie}, kinds)
}
