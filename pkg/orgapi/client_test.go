package orgapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/healthmap/internal/model"
)

func TestFetchSheet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/organizations", r.URL.Path)
		assert.Equal(t, "Hospitales", r.URL.Query().Get("sheet"))
		_, _ = w.Write([]byte(`{"status":"success","cached":true,"data":[{"Nombre":"Hospital Central","Latitud":"40.4"}]}`))
	}))
	defer srv.Close()

	resp, err := NewClient(WithBaseURL(srv.URL+"/")).FetchSheet(context.Background(), "Hospitales")
	require.NoError(t, err)
	assert.True(t, resp.Cached)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "Hospital Central", resp.Data[0].Name)
	assert.Equal(t, "40.4", resp.Data[0].Latitude)
}

func TestFetchSheet_CustomResource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/google-sheets", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":"success","data":[]}`))
	}))
	defer srv.Close()

	_, err := NewClient(WithBaseURL(srv.URL), WithResource("/google-sheets/")).FetchSheet(context.Background(), "all")
	require.NoError(t, err)
}

func TestFetchSheet_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"status":"error","message":"Invalid response from Google Script"}`))
	}))
	defer srv.Close()

	_, err := NewClient(WithBaseURL(srv.URL)).FetchSheet(context.Background(), "all")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid response from Google Script")
	assert.Contains(t, err.Error(), "500")
}

func TestFetchSheet_Malformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	}))
	defer srv.Close()

	_, err := NewClient(WithBaseURL(srv.URL)).FetchSheet(context.Background(), "all")
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestSave(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var row map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&row))
		assert.Equal(t, "Clínica Sol", row["Name"])
		assert.Equal(t, "Hospital", row["Type"])
		_, _ = w.Write([]byte(`{"status":"success","message":"Row added","row":7}`))
	}))
	defer srv.Close()

	resp, err := NewClient(WithBaseURL(srv.URL)).Save(context.Background(), model.RawRow{Name: "Clínica Sol", Type: "Hospital"})
	require.NoError(t, err)
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "Row added", resp.Message)
	assert.JSONEq(t, `{"status":"success","message":"Row added","row":7}`, string(resp.Raw))
}

func TestSave_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"error","message":"Sheet locked"}`))
	}))
	defer srv.Close()

	resp, err := NewClient(WithBaseURL(srv.URL)).Save(context.Background(), model.RawRow{Name: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Sheet locked")
	require.NotNil(t, resp)
	assert.Equal(t, "error", resp.Status)
}

func TestHealth(t *testing.T) {
	healthy := true
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		if !healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	assert.NoError(t, c.Health(context.Background()))

	healthy = false
	assert.Error(t, c.Health(context.Background()))
}

func TestHealth_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	assert.Error(t, NewClient(WithBaseURL(url)).Health(context.Background()))
}
