// Package dataset holds the client-side organization list: fetching a sheet
// through the proxy, normalizing it, and optimistic saves.
package dataset

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/healthmap/internal/model"
	"github.com/sells-group/healthmap/internal/normalize"
	"github.com/sells-group/healthmap/pkg/orgapi"
)

// Errors reported by the hook.
var (
	ErrClosed = eris.New("dataset: hook closed")
	ErrStale  = eris.New("dataset: superseded by a newer fetch")
)

// Status is a snapshot of the hook's request state.
type Status struct {
	Loading   bool  `json:"loading"`
	Connected bool  `json:"connected"`
	Err       error `json:"-"`
}

// SaveResult is the backend's answer to a save.
type SaveResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Option configures a Hook.
type Option func(*Hook)

// WithNormalizer sets the normalizer used on fetched rows.
func WithNormalizer(n *normalize.Normalizer) Option {
	return func(h *Hook) { h.normalizer = n }
}

// Hook owns the current organization list. It is safe for concurrent use.
type Hook struct {
	client     orgapi.Client
	normalizer *normalize.Normalizer

	mu        sync.Mutex
	orgs      []model.Organization
	pending   map[string]model.Organization
	issued    uint64
	committed uint64
	inflight  int
	loaded    bool
	connected bool
	err       error
	closed    bool
}

// New creates a Hook reading through client.
func New(client orgapi.Client, opts ...Option) *Hook {
	h := &Hook{
		client:     client,
		normalizer: normalize.New(),
		pending:    make(map[string]model.Organization),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// FetchCategory loads one sheet and replaces the list. Responses older than
// an already committed fetch are discarded with ErrStale. On failure the
// list keeps its previous contents, or becomes empty if nothing has loaded yet.
func (h *Hook) FetchCategory(ctx context.Context, sheet string) ([]model.Organization, error) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrClosed
	}
	h.issued++
	seq := h.issued
	h.inflight++
	h.mu.Unlock()

	resp, fetchErr := h.client.FetchSheet(ctx, sheet)

	var orgs []model.Organization
	if fetchErr == nil {
		var stats normalize.Stats
		orgs, stats = h.normalizer.Normalize(resp.Data)
		zap.L().Debug("dataset: normalized sheet",
			zap.String("sheet", sheet),
			zap.Int("rows", len(resp.Data)),
			zap.Int("kept", stats.Kept),
			zap.Int("invalid_coordinates", stats.InvalidCoordinates),
			zap.Bool("cached", resp.Cached),
		)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.inflight--

	if h.closed {
		return nil, ErrClosed
	}
	if seq < h.committed {
		zap.L().Debug("dataset: discarding stale response", zap.String("sheet", sheet), zap.Uint64("seq", seq))
		return nil, ErrStale
	}
	h.committed = seq

	if fetchErr != nil {
		err := eris.Wrapf(fetchErr, "dataset: fetch %s", sheet)
		h.err = err
		h.connected = false
		if !h.loaded {
			h.orgs = h.withPending(nil)
		}
		zap.L().Warn("dataset: fetch failed", zap.String("sheet", sheet), zap.Error(fetchErr))
		return nil, err
	}

	h.orgs = h.withPending(orgs)
	h.err = nil
	h.connected = true
	h.loaded = true
	return h.snapshot(), nil
}

// withPending re-appends optimistic entries the backend has not returned yet.
// Entries the backend did return are confirmed and can no longer be rolled back.
func (h *Hook) withPending(orgs []model.Organization) []model.Organization {
	if len(h.pending) == 0 {
		return orgs
	}
	present := make(map[string]struct{}, len(orgs))
	for _, o := range orgs {
		present[o.ID] = struct{}{}
	}
	for _, o := range h.orderedPending() {
		if _, ok := present[o.ID]; ok {
			delete(h.pending, o.ID)
			continue
		}
		orgs = append(orgs, o)
	}
	return orgs
}

func (h *Hook) orderedPending() []model.Organization {
	out := make([]model.Organization, 0, len(h.pending))
	for _, o := range h.orgs {
		if p, ok := h.pending[o.ID]; ok {
			out = append(out, p)
		}
	}
	return out
}

// Save sends org to the backend. It does not touch the local list.
func (h *Hook) Save(ctx context.Context, org model.Organization) (SaveResult, error) {
	resp, err := h.client.Save(ctx, model.RawRowFromOrganization(org))
	if err != nil {
		return SaveResult{}, eris.Wrapf(err, "dataset: save %s", org.ID)
	}
	return SaveResult{Status: resp.Status, Message: resp.Message}, nil
}

// AppendOptimistic adds org to the local list ahead of backend confirmation.
func (h *Hook) AppendOptimistic(org model.Organization) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.orgs = append(h.orgs, org)
	h.pending[org.ID] = org
}

// Rollback removes an optimistically appended organization. Entries that
// came from the backend are never removed.
func (h *Hook) Rollback(id string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.pending[id]; !ok {
		return false
	}
	delete(h.pending, id)
	for i := len(h.orgs) - 1; i >= 0; i-- {
		if h.orgs[i].ID == id {
			h.orgs = append(h.orgs[:i:i], h.orgs[i+1:]...)
			return true
		}
	}
	return true
}

// Commit marks an optimistic entry as accepted by the backend, so it can no
// longer be rolled back.
func (h *Hook) Commit(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.pending, id)
}

// Submit appends org optimistically, saves it, and rolls back on failure.
func (h *Hook) Submit(ctx context.Context, org model.Organization) (SaveResult, error) {
	h.AppendOptimistic(org)
	res, err := h.Save(ctx, org)
	if err != nil {
		h.Rollback(org.ID)
		return res, err
	}
	h.Commit(org.ID)
	zap.L().Info("dataset: organization saved", zap.String("id", org.ID), zap.String("name", org.Name))
	return res, nil
}

// TestConnection reports whether the proxy answers its health check.
func (h *Hook) TestConnection(ctx context.Context) (bool, error) {
	if err := h.client.Health(ctx); err != nil {
		return false, eris.Wrap(err, "dataset: test connection")
	}
	return true, nil
}

// Organizations returns a copy of the current list.
func (h *Hook) Organizations() []model.Organization {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.snapshot()
}

// Status returns the loading, connectivity and last-error state.
func (h *Hook) Status() Status {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Status{Loading: h.inflight > 0, Connected: h.connected, Err: h.err}
}

// Loading reports whether a fetch is in flight.
func (h *Hook) Loading() bool { return h.Status().Loading }

// Connected reports whether the last committed fetch succeeded.
func (h *Hook) Connected() bool { return h.Status().Connected }

// Err returns the error of the last committed fetch, if any.
func (h *Hook) Err() error { return h.Status().Err }

// Close tears the hook down; in-flight results are discarded.
func (h *Hook) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
}

func (h *Hook) snapshot() []model.Organization {
	return append([]model.Organization(nil), h.orgs...)
}
