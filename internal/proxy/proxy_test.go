package proxy

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/healthmap/internal/i18n"
	"github.com/sells-group/healthmap/internal/model"
	"github.com/sells-group/healthmap/pkg/appscript"
	"github.com/sells-group/healthmap/pkg/geocode"
)

type fakeBackend struct {
	mu        sync.Mutex
	sheets    map[string][]model.RawRow
	fetches   atomic.Int32
	appends   [][]byte
	fetchErr  error
	appendErr error
	release   chan struct{}
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{sheets: map[string][]model.RawRow{
		model.SheetAll: {
			{ID: "h1", Name: "Hospital Central", Type: "Hospital", Latitude: "40.4168", Longitude: "-3.7038", Status: "1"},
			{ID: "a1", Name: "Asociación Vida", Type: "Asociación", Latitude: "41.38", Longitude: "2.17"},
			{ID: "x1", Name: "Sin coordenadas", Type: "Hospital"},
		},
		model.SheetHospitals: {
			{ID: "h1", Name: "Hospital Central", Type: "Hospital", Latitude: "40.4168", Longitude: "-3.7038"},
		},
	}}
}

func (f *fakeBackend) FetchSheet(_ context.Context, sheet string) ([]model.RawRow, error) {
	f.fetches.Add(1)
	if f.release != nil {
		<-f.release
	}
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	rows, ok := f.sheets[sheet]
	if !ok {
		return nil, eris.Errorf("sheet %s not found", sheet)
	}
	return append([]model.RawRow(nil), rows...), nil
}

func (f *fakeBackend) Append(_ context.Context, row []byte) (json.RawMessage, error) {
	if f.appendErr != nil {
		return nil, f.appendErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appends = append(f.appends, row)
	var r model.RawRow
	if err := json.Unmarshal(row, &r); err != nil {
		return nil, err
	}
	f.sheets[model.SheetAll] = append(f.sheets[model.SheetAll], r)
	return json.RawMessage(`{"status":"success","message":"Row added"}`), nil
}

func newTestServer(t *testing.T, b Backend, deps Deps) (*httptest.Server, *Proxy) {
	t.Helper()
	p := New(b, NewSheetCache(16, 30*time.Second))
	srv := httptest.NewServer(NewRouter(p, deps, RouterConfig{Resource: "organizations"}))
	t.Cleanup(srv.Close)
	return srv, p
}

func getJSON(t *testing.T, url string, v any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	if v != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	}
	return resp
}

type sheetBody struct {
	Status  string         `json:"status"`
	Message string         `json:"message"`
	Data    []model.RawRow `json:"data"`
	Cached  bool           `json:"cached"`
}

func TestGet_CachesPerSheet(t *testing.T) {
	b := newFakeBackend()
	srv, _ := newTestServer(t, b, Deps{})

	var first, second, other sheetBody
	getJSON(t, srv.URL+"/api/organizations", &first)
	getJSON(t, srv.URL+"/api/organizations?sheet=all", &second)
	getJSON(t, srv.URL+"/api/organizations?sheet=Hospitales", &other)

	assert.Equal(t, "success", first.Status)
	assert.Len(t, first.Data, 3)
	assert.False(t, first.Cached)
	assert.True(t, second.Cached)
	assert.False(t, other.Cached)
	assert.Len(t, other.Data, 1)
	assert.Equal(t, int32(2), b.fetches.Load())
}

func TestPost_ForwardsAndInvalidates(t *testing.T) {
	b := newFakeBackend()
	srv, _ := newTestServer(t, b, Deps{})

	var before sheetBody
	getJSON(t, srv.URL+"/api/organizations", &before)
	require.Len(t, before.Data, 3)

	resp, err := http.Post(srv.URL+"/api/organizations", "application/json",
		strings.NewReader(`{"ID":"n1","Name":"Nueva Clínica","Type":"Hospital","Latitude":"1","Longitude":"2"}`))
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var saved map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&saved))
	assert.Equal(t, "success", saved["status"])
	require.Len(t, b.appends, 1)

	var after sheetBody
	getJSON(t, srv.URL+"/api/organizations", &after)
	assert.False(t, after.Cached)
	assert.Len(t, after.Data, 4)
}

func TestPost_InvalidBody(t *testing.T) {
	srv, _ := newTestServer(t, newFakeBackend(), Deps{})

	resp, err := http.Post(srv.URL+"/api/organizations", "application/json", strings.NewReader(`[1,2]`))
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPost_UpstreamFailureKeepsCache(t *testing.T) {
	b := newFakeBackend()
	srv, p := newTestServer(t, b, Deps{})
	getJSON(t, srv.URL+"/api/organizations", nil)

	b.appendErr = eris.New("script down")
	resp, err := http.Post(srv.URL+"/api/organizations", "application/json", strings.NewReader(`{"Name":"x"}`))
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, 1, p.Stats().Entries)
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t, newFakeBackend(), Deps{})

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/organizations", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, "GET, POST", resp.Header.Get("Allow"))
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Method DELETE Not Allowed", body["message"])
}

func TestGet_UpstreamErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		message string
	}{
		{"invalid json", eris.Wrap(appscript.ErrInvalidResponse, "appscript: decode sheet"), "Invalid response from Google Script"},
		{"transport", eris.New("connection refused"), "Failed to reach data backend"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newFakeBackend()
			b.fetchErr = tt.err
			srv, _ := newTestServer(t, b, Deps{})

			var body sheetBody
			resp := getJSON(t, srv.URL+"/api/organizations", &body)
			assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
			assert.Equal(t, "error", body.Status)
			assert.Equal(t, tt.message, body.Message)
		})
	}
}

func TestNotConfigured(t *testing.T) {
	p := New(nil, NewSheetCache(4, time.Second))
	srv := httptest.NewServer(NewRouter(p, Deps{}, RouterConfig{}))
	defer srv.Close()

	var body sheetBody
	resp := getJSON(t, srv.URL+"/api/organizations", &body)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Data backend is not configured", body.Message)

	_, err := p.Append(context.Background(), []byte(`{}`))
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestRows_CoalescesConcurrentMisses(t *testing.T) {
	b := newFakeBackend()
	b.release = make(chan struct{})
	p := New(b, NewSheetCache(4, time.Minute))

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rows, _, err := p.Rows(context.Background(), model.SheetAll)
			assert.NoError(t, err)
			assert.Len(t, rows, 3)
		}()
	}
	require.Eventually(t, func() bool { return b.fetches.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(b.release)
	wg.Wait()

	assert.Equal(t, int32(1), b.fetches.Load())
}

func TestRows_WriteDuringFetchIsNotCached(t *testing.T) {
	b := newFakeBackend()
	b.release = make(chan struct{})
	p := New(b, NewSheetCache(4, time.Minute))

	done := make(chan []model.RawRow)
	go func() {
		rows, _, err := p.Rows(context.Background(), model.SheetAll)
		assert.NoError(t, err)
		done <- rows
	}()
	require.Eventually(t, func() bool { return b.fetches.Load() == 1 }, time.Second, 5*time.Millisecond)

	_, err := p.Append(context.Background(), []byte(`{"ID":"n1","Name":"Nuevo","Type":"Hospital"}`))
	require.NoError(t, err)
	close(b.release)
	<-done

	stats := p.Stats()
	assert.Equal(t, 0, stats.Entries)
	assert.Equal(t, int64(1), stats.Rejected)

	rows, cached, err := p.Rows(context.Background(), model.SheetAll)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Len(t, rows, 4)
	assert.Equal(t, int32(2), b.fetches.Load())
}

func TestRows_ContextCanceled(t *testing.T) {
	b := newFakeBackend()
	b.release = make(chan struct{})
	defer close(b.release)
	p := New(b, NewSheetCache(4, time.Minute))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := p.Rows(ctx, model.SheetAll)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHealthAndStats(t *testing.T) {
	srv, _ := newTestServer(t, newFakeBackend(), Deps{})

	var health map[string]string
	resp := getJSON(t, srv.URL+"/health", &health)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", health["status"])

	getJSON(t, srv.URL+"/api/organizations", nil)
	getJSON(t, srv.URL+"/api/organizations", nil)

	var stats CacheStats
	getJSON(t, srv.URL+"/api/cache/stats", &stats)
	assert.Equal(t, 1, stats.Entries)
	assert.Equal(t, int64(1), stats.Hits)
}

func TestMarkers_GeoJSON(t *testing.T) {
	catalog, err := i18n.New("es")
	require.NoError(t, err)
	srv, _ := newTestServer(t, newFakeBackend(), Deps{Catalog: catalog})

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			ID         string         `json:"id"`
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	resp := getJSON(t, srv.URL+"/api/markers?associations=false&width=400&locale=en", &fc)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/geo+json", resp.Header.Get("Content-Type"))
	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 1)
	assert.Equal(t, "h1", fc.Features[0].ID)
	assert.Equal(t, float64(25), fc.Features[0].Properties["size"])
	assert.Contains(t, fc.Features[0].Properties["popup"], "Address:")
}

type stubGeocoder struct {
	places []geocode.Place
	err    error
	calls  int
}

func (s *stubGeocoder) Search(_ context.Context, _ string) ([]geocode.Place, error) {
	s.calls++
	return s.places, s.err
}

func TestGeocode(t *testing.T) {
	g := &stubGeocoder{places: []geocode.Place{{DisplayName: "Madrid, España", Latitude: 40.41, Longitude: -3.70}}}
	srv, _ := newTestServer(t, newFakeBackend(), Deps{Geocoder: g})

	resp := getJSON(t, srv.URL+"/api/geocode?q=Ma", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 0, g.calls)

	var body struct {
		Data []geocode.Place `json:"data"`
	}
	resp = getJSON(t, srv.URL+"/api/geocode?q=Madrid", &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, body.Data, 1)
	assert.Equal(t, "Madrid, España", body.Data[0].DisplayName)

	g.err = geocode.ErrNotConfigured
	resp = getJSON(t, srv.URL+"/api/geocode?q=Madrid", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestMessages(t *testing.T) {
	catalog, err := i18n.New("es")
	require.NoError(t, err)
	srv, _ := newTestServer(t, newFakeBackend(), Deps{Catalog: catalog})

	var body struct {
		Locale   string            `json:"locale"`
		Messages map[string]string `json:"messages"`
	}
	getJSON(t, srv.URL+"/api/i18n/fr", &body)
	assert.Equal(t, "fr", body.Locale)
	assert.Equal(t, "Adresse", body.Messages["address"])

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/i18n/auto", nil)
	require.NoError(t, err)
	req.Header.Set("Accept-Language", "en-GB,en;q=0.8")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "en", body.Locale)

	resp2 := getJSON(t, srv.URL+"/api/i18n/de", nil)
	assert.Equal(t, http.StatusNotFound, resp2.StatusCode)
}
