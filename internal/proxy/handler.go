package proxy

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/healthmap/internal/model"
	"github.com/sells-group/healthmap/pkg/appscript"
)

const maxBodyBytes = 1 << 20

type sheetResponse struct {
	Status string         `json:"status"`
	Data   []model.RawRow `json:"data"`
	Cached bool           `json:"cached"`
}

type errorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ResourceRoutes returns the GET/POST handlers for one resource path.
func (p *Proxy) ResourceRoutes() http.Handler {
	r := chi.NewRouter()
	r.Get("/", p.handleGet)
	r.Post("/", p.handlePost)
	r.MethodNotAllowed(handleMethodNotAllowed)
	return r
}

func (p *Proxy) handleGet(w http.ResponseWriter, r *http.Request) {
	sheet := strings.TrimSpace(r.URL.Query().Get("sheet"))
	if sheet == "" {
		sheet = model.SheetAll
	}

	rows, cached, err := p.Rows(r.Context(), sheet)
	if err != nil {
		writeUpstreamError(w, "proxy: get sheet failed", err, zap.String("sheet", sheet))
		return
	}
	if rows == nil {
		rows = []model.RawRow{}
	}
	writeJSON(w, http.StatusOK, sheetResponse{Status: "success", Data: rows, Cached: cached})
}

func (p *Proxy) handlePost(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read request body")
		return
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(body, &probe); err != nil {
		writeError(w, http.StatusBadRequest, "request body must be a JSON object")
		return
	}

	resp, err := p.Append(r.Context(), body)
	if err != nil {
		writeUpstreamError(w, "proxy: append failed", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(resp)
}

func handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Allow", "GET, POST")
	writeError(w, http.StatusMethodNotAllowed, "Method "+r.Method+" Not Allowed")
}

// writeUpstreamError logs err and answers 500 with a client-safe message.
func writeUpstreamError(w http.ResponseWriter, msg string, err error, fields ...zap.Field) {
	zap.L().Error(msg, append(fields, zap.Error(err))...)

	message := "Failed to reach data backend"
	switch {
	case eris.Is(err, ErrNotConfigured):
		message = "Data backend is not configured"
	case eris.Is(err, appscript.ErrInvalidResponse):
		message = appscript.ErrInvalidResponse.Error()
	}
	writeError(w, http.StatusInternalServerError, message)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Status: "error", Message: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("proxy: encode response", zap.Error(err))
	}
}
