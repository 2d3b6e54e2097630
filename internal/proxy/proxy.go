// Package proxy serves the organizations API: a caching pass-through to the
// spreadsheet backend plus read-only projections of the same data.
package proxy

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/sells-group/healthmap/internal/model"
)

// ErrNotConfigured is returned when no backend has been configured.
var ErrNotConfigured = eris.New("proxy: backend not configured")

// Backend is the spreadsheet store behind the proxy.
type Backend interface {
	FetchSheet(ctx context.Context, sheet string) ([]model.RawRow, error)
	Append(ctx context.Context, row []byte) (json.RawMessage, error)
}

// Proxy caches sheet reads and forwards writes to a Backend.
type Proxy struct {
	backend Backend
	cache   *SheetCache
	group   singleflight.Group
}

// New creates a Proxy. A nil backend makes every call fail with ErrNotConfigured.
func New(backend Backend, cache *SheetCache) *Proxy {
	return &Proxy{backend: backend, cache: cache}
}

// Rows returns the rows of sheet, from cache when fresh. The second result
// reports whether the rows came from the cache. Concurrent misses for the
// same sheet share one upstream request.
func (p *Proxy) Rows(ctx context.Context, sheet string) ([]model.RawRow, bool, error) {
	if p.backend == nil {
		return nil, false, ErrNotConfigured
	}
	if sheet == "" {
		sheet = model.SheetAll
	}

	if p.cache != nil {
		if rows, ok := p.cache.Get(sheet); ok {
			return rows, true, nil
		}
	}

	var gen uint64
	if p.cache != nil {
		gen = p.cache.Generation()
	}
	key := strconv.FormatUint(gen, 10) + "/" + sheet
	ch := p.group.DoChan(key, func() (interface{}, error) {
		rows, err := p.backend.FetchSheet(context.WithoutCancel(ctx), sheet)
		if err != nil {
			return nil, err
		}
		stored := p.cache != nil && p.cache.Put(sheet, gen, rows)
		zap.L().Debug("proxy: fetched sheet",
			zap.String("sheet", sheet),
			zap.Int("rows", len(rows)),
			zap.Bool("cached", stored),
		)
		return rows, nil
	})

	select {
	case <-ctx.Done():
		return nil, false, eris.Wrap(ctx.Err(), "proxy: fetch sheet")
	case res := <-ch:
		if res.Err != nil {
			return nil, false, eris.Wrapf(res.Err, "proxy: fetch sheet %s", sheet)
		}
		return res.Val.([]model.RawRow), false, nil
	}
}

// Append forwards a raw row upstream and, on success, invalidates the cache.
func (p *Proxy) Append(ctx context.Context, row []byte) (json.RawMessage, error) {
	if p.backend == nil {
		return nil, ErrNotConfigured
	}
	resp, err := p.backend.Append(ctx, row)
	if err != nil {
		return nil, eris.Wrap(err, "proxy: append row")
	}
	if p.cache != nil {
		p.cache.Invalidate()
	}
	return resp, nil
}

// Stats returns cache statistics; zero when caching is disabled.
func (p *Proxy) Stats() CacheStats {
	if p.cache == nil {
		return CacheStats{}
	}
	return p.cache.Stats()
}
