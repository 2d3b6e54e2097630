package markers

import (
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/healthmap/internal/model"
)

// ErrInvalidPosition is returned for markers outside WGS84 bounds.
var ErrInvalidPosition = eris.New("markers: invalid position")

// Renderer is the drawing surface markers are placed on.
type Renderer interface {
	AddMarker(m Marker) error
	RemoveMarker(id string)
}

// Layer keeps a Renderer in sync with an organization list.
type Layer struct {
	mu       sync.Mutex
	renderer Renderer
	opts     Options
	last     []model.Organization
	placed   []string
}

// NewLayer creates a Layer drawing onto r.
func NewLayer(r Renderer, opts Options) *Layer {
	return &Layer{renderer: r, opts: opts}
}

// Sync removes every marker the layer placed and adds one per organization.
// It returns the number of markers placed.
func (l *Layer) Sync(orgs []model.Organization) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.last = append(l.last[:0], orgs...)
	return l.redraw()
}

// SetViewport updates the viewport and redraws when the icon variant changes.
func (l *Layer) SetViewport(v Viewport) {
	l.mu.Lock()
	defer l.mu.Unlock()
	changed := v.Mobile(l.opts.Breakpoint) != l.opts.Viewport.Mobile(l.opts.Breakpoint)
	l.opts.Viewport = v
	if changed {
		l.redraw()
	}
}

// Placed returns the ids of markers currently drawn by the layer.
func (l *Layer) Placed() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.placed...)
}

// Mobile reports whether the layer is drawing mobile icons.
func (l *Layer) Mobile() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.opts.Viewport.Mobile(l.opts.Breakpoint)
}

func (l *Layer) redraw() int {
	for _, id := range l.placed {
		l.renderer.RemoveMarker(id)
	}
	l.placed = l.placed[:0]

	for _, m := range Build(l.last, l.opts) {
		if err := l.renderer.AddMarker(m); err != nil {
			zap.L().Warn("markers: renderer rejected marker",
				zap.String("id", m.ID),
				zap.Error(err),
			)
			continue
		}
		l.placed = append(l.placed, m.ID)
	}
	return len(l.placed)
}
