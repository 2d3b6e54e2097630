// Package mapview is the map session: it ties the organization list,
// category filters, the marker layer, the add-organization form and the
// location picker together.
package mapview

import (
	"context"
	"strconv"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/healthmap/internal/dataset"
	"github.com/sells-group/healthmap/internal/directory"
	"github.com/sells-group/healthmap/internal/i18n"
	"github.com/sells-group/healthmap/internal/intake"
	"github.com/sells-group/healthmap/internal/markers"
	"github.com/sells-group/healthmap/internal/model"
	"github.com/sells-group/healthmap/internal/normalize"
	"github.com/sells-group/healthmap/internal/selection"
	"github.com/sells-group/healthmap/pkg/geocode"
)

// Errors returned by session operations.
var (
	ErrPicking    = eris.New("mapview: location picking in progress")
	ErrFormClosed = eris.New("mapview: form is not open")
	ErrSaving     = eris.New("mapview: save in progress")
)

// UserError is an error with a translated, user-facing message.
type UserError struct {
	Key     string
	Message string
	Err     error
}

func (e *UserError) Error() string { return e.Message }

func (e *UserError) Unwrap() error { return e.Err }

// Option configures a Session.
type Option func(*Session)

// WithSheet sets the sheet loaded by Load. Defaults to all sheets.
func WithSheet(sheet string) Option {
	return func(s *Session) { s.sheet = sheet }
}

// WithOnlyActive hides organizations whose status flag is not set.
func WithOnlyActive(on bool) Option {
	return func(s *Session) { s.onlyActive = on }
}

// WithViewport sets the initial viewport width and the mobile breakpoint.
func WithViewport(width, breakpoint int) Option {
	return func(s *Session) {
		s.viewport = markers.Viewport{Width: width}
		s.breakpoint = breakpoint
	}
}

// WithCatalog sets the translations used for labels, popups and errors.
func WithCatalog(c *i18n.Catalog) Option {
	return func(s *Session) { s.catalog = c }
}

// WithGeocoder enables address search.
func WithGeocoder(g geocode.Client) Option {
	return func(s *Session) { s.geocoder = g }
}

// WithLocator enables the "my location" control.
func WithLocator(l Locator) Option {
	return func(s *Session) { s.locator = l }
}

// WithNormalizer sets the id generator for new organizations.
func WithNormalizer(n *normalize.Normalizer) Option {
	return func(s *Session) { s.normalizer = n }
}

// Session is one user's view of the map. It is safe for concurrent use.
type Session struct {
	hook       *dataset.Hook
	renderer   markers.Renderer
	layer      *markers.Layer
	machine    *selection.Machine[intake.FormData]
	normalizer *normalize.Normalizer
	catalog    *i18n.Catalog
	geocoder   geocode.Client
	locator    Locator

	sheet      string
	onlyActive bool
	viewport   markers.Viewport
	breakpoint int

	mu               sync.Mutex
	form             *intake.Form
	saving           bool
	showHospitals    bool
	showAssociations bool
	center           *model.Coordinates
}

// New creates a session drawing onto r. Both categories start enabled.
func New(hook *dataset.Hook, r markers.Renderer, opts ...Option) *Session {
	s := &Session{
		hook:             hook,
		renderer:         r,
		normalizer:       normalize.New(),
		sheet:            model.SheetAll,
		breakpoint:       markers.DefaultMobileBreakpoint,
		form:             intake.NewForm(),
		showHospitals:    true,
		showAssociations: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	lo := markers.Options{Viewport: s.viewport, Breakpoint: s.breakpoint}
	if s.catalog != nil {
		lo.Translator = s.catalog
	}
	s.layer = markers.NewLayer(r, lo)
	s.machine = selection.New[intake.FormData](pickListener{s: s})
	return s
}

// Load fetches the configured sheet and redraws the markers. A response
// superseded by a newer load is ignored.
func (s *Session) Load(ctx context.Context) error {
	_, err := s.hook.FetchCategory(ctx, s.sheet)
	if eris.Is(err, dataset.ErrStale) {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.redrawLocked()
	if err != nil {
		return s.userError("loadFailed", err)
	}
	return nil
}

// Status reports the data hook's loading state.
func (s *Session) Status() dataset.Status {
	return s.hook.Status()
}

// SetFilters toggles the two categories and redraws. It returns the number
// of markers placed.
func (s *Session) SetFilters(hospitals, associations bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.showHospitals = hospitals
	s.showAssociations = associations
	return s.redrawLocked()
}

// Filters returns the category toggles.
func (s *Session) Filters() (hospitals, associations bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.showHospitals, s.showAssociations
}

// Organizations returns the organizations currently shown on the map.
func (s *Session) Organizations() []model.Organization {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visibleLocked()
}

// Counts tallies loaded organizations per category, ignoring the toggles.
func (s *Session) Counts() directory.Counts {
	return directory.VisibleCounts(s.loaded())
}

// CategoryLabels returns the translated filter labels with their counts.
func (s *Session) CategoryLabels() (hospitals, associations string) {
	c := s.Counts()
	hospitals = s.translate("hospitals", map[string]string{"count": strconv.Itoa(c.Hospitals)})
	associations = s.translate("associations", map[string]string{"count": strconv.Itoa(c.Associations)})
	return hospitals, associations
}

// Search matches query against the organizations on the map.
func (s *Session) Search(query string) []model.Organization {
	return directory.Search(s.Organizations(), query)
}

// SetViewport updates the viewport width; markers switch icon size when it
// crosses the mobile breakpoint.
func (s *Session) SetViewport(width int) {
	s.layer.SetViewport(markers.Viewport{Width: width})
}

// Placed returns the ids of the organization markers on the map.
func (s *Session) Placed() []string {
	return s.layer.Placed()
}

// SetLocale switches the UI language and redraws the popups.
func (s *Session) SetLocale(code string) error {
	if s.catalog == nil {
		return eris.Wrapf(i18n.ErrUnsupportedLocale, "%q", code)
	}
	if err := s.catalog.SetLocale(code); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.redrawLocked()
	return nil
}

// Translate resolves key in the session's locale.
func (s *Session) Translate(key string, placeholders map[string]string) string {
	return s.translate(key, placeholders)
}

func (s *Session) translate(key string, placeholders map[string]string) string {
	if s.catalog == nil {
		return key
	}
	return s.catalog.Translate(key, placeholders)
}

func (s *Session) userError(key string, err error) *UserError {
	var ph map[string]string
	if err != nil {
		ph = map[string]string{"error": eris.Cause(err).Error()}
	}
	return &UserError{Key: key, Message: s.translate(key, ph), Err: err}
}

func (s *Session) loaded() []model.Organization {
	orgs := s.hook.Organizations()
	if s.onlyActive {
		orgs = directory.VisibleOnly(orgs)
	}
	return orgs
}

func (s *Session) visibleLocked() []model.Organization {
	return directory.FilterByCategory(s.loaded(), s.showHospitals, s.showAssociations)
}

func (s *Session) redrawLocked() int {
	n := s.layer.Sync(s.visibleLocked())
	zap.L().Debug("mapview: markers redrawn", zap.Int("placed", n))
	return n
}
