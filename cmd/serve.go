package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/healthmap/internal/config"
	"github.com/sells-group/healthmap/internal/i18n"
	"github.com/sells-group/healthmap/internal/proxy"
	"github.com/sells-group/healthmap/internal/workbook"
	"github.com/sells-group/healthmap/pkg/appscript"
	"github.com/sells-group/healthmap/pkg/geocode"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the caching proxy for the organization spreadsheet",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if servePort != 0 {
			cfg.Server.Port = servePort
		}
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		handler, err := buildHandler(cfg)
		if err != nil {
			return err
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server",
			zap.Int("port", cfg.Server.Port),
			zap.String("resource", cfg.Server.Resource),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// newBackend picks the spreadsheet backend: the Apps Script endpoint when a
// script URL is set, else the local workbook. Neither yields a nil backend.
func newBackend(c *config.Config) (proxy.Backend, error) {
	switch {
	case c.Sheets.ScriptURL != "":
		return appscript.NewClient(c.Sheets.ScriptURL,
			appscript.WithTimeout(time.Duration(c.Sheets.TimeoutSecs)*time.Second),
		), nil
	case c.Sheets.WorkbookPath != "":
		wb, err := workbook.Open(c.Sheets.WorkbookPath)
		if err != nil {
			return nil, err
		}
		return wb, nil
	}
	zap.L().Warn("no spreadsheet backend configured; data routes will fail")
	return nil, nil
}

// buildHandler wires the proxy, cache and optional collaborators into the
// HTTP router.
func buildHandler(c *config.Config) (http.Handler, error) {
	backend, err := newBackend(c)
	if err != nil {
		return nil, err
	}

	cache := proxy.NewSheetCache(c.Cache.MaxEntries, time.Duration(c.Cache.TTLSecs)*time.Second)
	p := proxy.New(backend, cache)

	catalog, err := i18n.New(c.I18n.DefaultLocale)
	if err != nil {
		return nil, err
	}

	deps := proxy.Deps{Catalog: catalog}
	if c.Geocode.GoogleKey != "" {
		deps.Geocoder = geocode.NewClient(c.Geocode.GoogleKey,
			geocode.WithRateLimit(c.Geocode.RateLimit),
			geocode.WithLanguage(catalog.Locale()),
		)
	}

	return proxy.NewRouter(p, deps, proxy.RouterConfig{
		Resource:         c.Server.Resource,
		AllowedOrigins:   c.Server.AllowedOrigins,
		MobileBreakpoint: c.Map.MobileBreakpoint,
		OnlyActive:       c.Map.OnlyActive,
	}), nil
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
