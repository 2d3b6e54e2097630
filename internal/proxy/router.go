package proxy

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/healthmap/internal/directory"
	"github.com/sells-group/healthmap/internal/i18n"
	"github.com/sells-group/healthmap/internal/markers"
	"github.com/sells-group/healthmap/internal/model"
	"github.com/sells-group/healthmap/internal/normalize"
	"github.com/sells-group/healthmap/pkg/geocode"
)

// RouterConfig configures NewRouter.
type RouterConfig struct {
	Resource         string
	AllowedOrigins   []string
	MobileBreakpoint int
	OnlyActive       bool
}

// Deps are the optional collaborators of the router. Nil members disable
// the routes that need them.
type Deps struct {
	Geocoder geocode.Client
	Catalog  *i18n.Catalog
}

type api struct {
	proxy *Proxy
	deps  Deps
	cfg   RouterConfig
}

// NewRouter builds the HTTP handler for the service.
func NewRouter(p *Proxy, deps Deps, cfg RouterConfig) http.Handler {
	if cfg.Resource == "" {
		cfg.Resource = "organizations"
	}
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	a := &api{proxy: p, deps: deps, cfg: cfg}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Accept-Language"},
		MaxAge:         300,
	}))

	r.Get("/health", handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/cache/stats", a.handleCacheStats)
		r.Get("/markers", a.handleMarkers)
		r.Get("/geocode", a.handleGeocode)
		r.Get("/i18n/{locale}", a.handleMessages)
		r.Mount("/"+strings.Trim(cfg.Resource, "/"), p.ResourceRoutes())
	})
	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *api) handleCacheStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.proxy.Stats())
}

// handleMarkers serves the filtered marker set for a sheet as GeoJSON.
func (a *api) handleMarkers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sheet := q.Get("sheet")
	if sheet == "" {
		sheet = model.SheetAll
	}
	showHospitals := boolParam(q.Get("hospitals"), true)
	showAssociations := boolParam(q.Get("associations"), true)
	width, _ := strconv.Atoi(q.Get("width"))

	rows, _, err := a.proxy.Rows(r.Context(), sheet)
	if err != nil {
		writeUpstreamError(w, "proxy: markers fetch failed", err, zap.String("sheet", sheet))
		return
	}

	orgs := normalize.Normalize(rows)
	if a.cfg.OnlyActive {
		orgs = directory.VisibleOnly(orgs)
	}
	orgs = directory.FilterByCategory(orgs, showHospitals, showAssociations)

	opts := markers.Options{
		Viewport:   markers.Viewport{Width: width},
		Breakpoint: a.cfg.MobileBreakpoint,
	}
	if a.deps.Catalog != nil {
		locale := q.Get("locale")
		if locale == "" {
			locale = a.deps.Catalog.Negotiate(r.Header.Get("Accept-Language"))
		}
		opts.Translator = a.deps.Catalog.For(locale)
	}

	fc := markers.FeatureCollection(markers.Build(orgs, opts))
	data, err := fc.MarshalJSON()
	if err != nil {
		zap.L().Error("proxy: encode markers", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not encode markers")
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (a *api) handleGeocode(w http.ResponseWriter, r *http.Request) {
	if a.deps.Geocoder == nil {
		writeError(w, http.StatusServiceUnavailable, "address search is not configured")
		return
	}
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if len([]rune(query)) < geocode.MinQueryLength {
		writeError(w, http.StatusBadRequest, "query must be at least 3 characters")
		return
	}

	places, err := a.deps.Geocoder.Search(r.Context(), query)
	if err != nil {
		zap.L().Error("proxy: geocode failed", zap.String("query", query), zap.Error(err))
		status := http.StatusBadGateway
		if eris.Is(err, geocode.ErrNotConfigured) {
			status = http.StatusServiceUnavailable
		}
		writeError(w, status, "address search failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "data": places})
}

func (a *api) handleMessages(w http.ResponseWriter, r *http.Request) {
	if a.deps.Catalog == nil {
		writeError(w, http.StatusNotFound, "translations are not configured")
		return
	}
	locale := chi.URLParam(r, "locale")
	if locale == "auto" {
		locale = a.deps.Catalog.Negotiate(r.Header.Get("Accept-Language"))
	}
	msgs, err := a.deps.Catalog.Messages(locale)
	if err != nil {
		writeError(w, http.StatusNotFound, "unsupported locale")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"locale": locale, "messages": msgs})
}

func boolParam(v string, def bool) bool {
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
