package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/healthmap/internal/config"
	"github.com/sells-group/healthmap/internal/intake"
	"github.com/sells-group/healthmap/internal/model"
	"github.com/sells-group/healthmap/internal/workbook"
	"github.com/sells-group/healthmap/pkg/orgapi"
)

func testConfig(workbookPath string) *config.Config {
	c := &config.Config{}
	c.Server.Port = 8080
	c.Server.Resource = "organizations"
	c.Server.AllowedOrigins = []string{"*"}
	c.Sheets.WorkbookPath = workbookPath
	c.Cache.TTLSecs = 30
	c.Cache.MaxEntries = 64
	c.Map.MobileBreakpoint = 768
	c.I18n.DefaultLocale = "en"
	c.Log.Level = "info"
	return c
}

func seededWorkbook(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "orgs.xlsx")
	b, err := workbook.Create(path)
	require.NoError(t, err)
	for _, row := range []string{
		`{"ID":"h1","Name":"Hospital Central","Type":"Hospital","Address":"Calle Mayor 1","City":"Madrid","Country":"España","Latitude":"40.4168","Longitude":"-3.7038","Status":"1"}`,
		`{"ID":"a1","Name":"Asociación Vida","Type":"Asociación","City":"Barcelona","Country":"España","Latitude":"41.38","Longitude":"2.17"}`,
	} {
		_, err := b.Append(context.Background(), []byte(row))
		require.NoError(t, err)
	}
	return path
}

// startProxy serves a workbook-backed proxy and points cfg at it.
func startProxy(t *testing.T) *httptest.Server {
	t.Helper()
	c := testConfig(seededWorkbook(t))
	h, err := buildHandler(c)
	require.NoError(t, err)
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c.Client.BaseURL = srv.URL
	prev := cfg
	cfg = c
	t.Cleanup(func() { cfg = prev })
	return srv
}

func TestBuildHandler_Health(t *testing.T) {
	h, err := buildHandler(testConfig(seededWorkbook(t)))
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestBuildHandler_GetCachesAndPostInvalidates(t *testing.T) {
	h, err := buildHandler(testConfig(seededWorkbook(t)))
	require.NoError(t, err)

	get := func() (int, []model.RawRow, bool) {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/organizations?sheet=all", nil))
		var body struct {
			Data   []model.RawRow `json:"data"`
			Cached bool           `json:"cached"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		return rr.Code, body.Data, body.Cached
	}

	code, rows, cached := get()
	assert.Equal(t, http.StatusOK, code)
	assert.Len(t, rows, 2)
	assert.False(t, cached)

	_, _, cached = get()
	assert.True(t, cached)

	rr := httptest.NewRecorder()
	body := `{"ID":"h2","Name":"Clínica Norte","Type":"Hospital","Latitude":"43.26","Longitude":"-2.93"}`
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/organizations", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"success","message":"Row added"}`, rr.Body.String())

	_, rows, cached = get()
	assert.False(t, cached)
	assert.Len(t, rows, 3)
}

func TestBuildHandler_MethodNotAllowed(t *testing.T) {
	h, err := buildHandler(testConfig(seededWorkbook(t)))
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/api/organizations", bytes.NewReader([]byte(`{}`))))

	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, "GET, POST", rr.Header().Get("Allow"))
}

func TestBuildHandler_NoBackend(t *testing.T) {
	h, err := buildHandler(testConfig(""))
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/organizations", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"status":"error","message":"Data backend is not configured"}`, rr.Body.String())
}

func TestNewBackend_MissingWorkbook(t *testing.T) {
	_, err := newBackend(testConfig(filepath.Join(t.TempDir(), "missing.xlsx")))
	assert.Error(t, err)
}

func TestNewBackend_PrefersScript(t *testing.T) {
	c := testConfig("ignored.xlsx")
	c.Sheets.ScriptURL = "https://script.google.com/macros/s/x/exec"
	b, err := newBackend(c)
	require.NoError(t, err)
	assert.NotNil(t, b)
}

func TestLoadOrganizations_ThroughProxy(t *testing.T) {
	startProxy(t)
	client, err := newProxyClient()
	require.NoError(t, err)

	orgs, err := loadOrganizations(context.Background(), client, listFilter{Sheet: model.SheetAll, Hospitals: true, Associations: true})
	require.NoError(t, err)
	require.Len(t, orgs, 2)
	assert.Equal(t, model.TypeHospital, orgs[0].Type)
	assert.Equal(t, model.TypeAssociation, orgs[1].Type)

	orgs, err = loadOrganizations(context.Background(), client, listFilter{Sheet: model.SheetAll, Hospitals: true, Associations: true, OnlyActive: true})
	require.NoError(t, err)
	require.Len(t, orgs, 1)
	assert.Equal(t, "h1", orgs[0].ID)

	var out bytes.Buffer
	formatOrganizations(&out, orgs)
	assert.Contains(t, out.String(), "Hospital Central")
	assert.Contains(t, out.String(), "40.416800")
}

func TestAddOrganization_ThroughProxy(t *testing.T) {
	srv := startProxy(t)
	client := orgapi.NewClient(orgapi.WithBaseURL(srv.URL))
	catalog := newTestCatalog(t)

	form := intake.NewFormData().WithCoordinates(model.Coordinates{37.38, -5.98})
	form.Name = "Red Apoyo"
	form.Type = model.TypeAssociation
	form.Address = "Calle Sierpes 3"
	form.Country = "España"
	form.City = "Sevilla"

	var errOut bytes.Buffer
	org, err := addOrganization(context.Background(), client, catalog, form, &errOut)
	require.NoError(t, err)
	assert.Empty(t, errOut.String())
	assert.True(t, strings.HasPrefix(org.ID, "ID_"))

	orgs, err := loadOrganizations(context.Background(), client, listFilter{Sheet: model.SheetAssociations, Associations: true})
	require.NoError(t, err)
	require.Len(t, orgs, 2)
	assert.Equal(t, "Red Apoyo", orgs[1].Name)
}

func TestAddOrganization_InvalidPrintsTranslatedErrors(t *testing.T) {
	var errOut bytes.Buffer
	_, err := addOrganization(context.Background(), nil, newTestCatalog(t), intake.NewFormData(), &errOut)
	require.ErrorIs(t, err, intake.ErrInvalid)

	out := errOut.String()
	assert.Contains(t, out, "name: Name is required")
	assert.Contains(t, out, "coordinates: You must select a location on the map")
	assert.Less(t, strings.Index(out, "address:"), strings.Index(out, "name:"))
}

func TestMarkersGeoJSON(t *testing.T) {
	startProxy(t)
	client, err := newProxyClient()
	require.NoError(t, err)
	orgs, err := loadOrganizations(context.Background(), client, listFilter{Sheet: model.SheetAll, Hospitals: true, Associations: false})
	require.NoError(t, err)

	data, err := markersGeoJSON(orgs, 400, "en")
	require.NoError(t, err)

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Geometry struct {
				Coordinates []float64 `json:"coordinates"`
			} `json:"geometry"`
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(data, &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 1)
	assert.InDelta(t, -3.7038, fc.Features[0].Geometry.Coordinates[0], 1e-9)
	assert.InDelta(t, 40.4168, fc.Features[0].Geometry.Coordinates[1], 1e-9)
}
