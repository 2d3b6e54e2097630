// Package normalize turns raw spreadsheet rows into canonical organizations.
package normalize

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/healthmap/internal/model"
)

// Errors returned by ParseCoordinates.
var (
	ErrMissingCoordinates = eris.New("normalize: missing coordinates")
	ErrOutOfRange         = eris.New("normalize: coordinates out of range")
)

// Stats summarizes one normalization pass.
type Stats struct {
	Kept               int `json:"kept"`
	MissingName        int `json:"missing_name"`
	InvalidCoordinates int `json:"invalid_coordinates"`
	UnmappedType       int `json:"unmapped_type"`
	DuplicateID        int `json:"duplicate_id"`
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithClock sets the time source used for synthesized ids.
func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) { n.now = now }
}

// WithSuffix sets the random-part source used for synthesized ids.
func WithSuffix(suffix func() string) Option {
	return func(n *Normalizer) { n.suffix = suffix }
}

// Normalizer converts raw rows into organizations.
type Normalizer struct {
	now    func() time.Time
	suffix func() string
}

// New creates a Normalizer with the wall clock and uuid-derived suffixes.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		now:    time.Now,
		suffix: RandomSuffix,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize converts rows with a default Normalizer.
func Normalize(rows []model.RawRow) []model.Organization {
	orgs, _ := New().Normalize(rows)
	return orgs
}

// Normalize converts rows in order. Rows without a name or with unusable
// coordinates are skipped. Ids are unique in the returned slice.
func (n *Normalizer) Normalize(rows []model.RawRow) ([]model.Organization, Stats) {
	var stats Stats
	orgs := make([]model.Organization, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))

	for i, row := range rows {
		name := trimSpace(row.Name)
		if name == "" {
			stats.MissingName++
			zap.L().Debug("normalize: skipping row without name", zap.Int("row", i))
			continue
		}

		coords, err := ParseCoordinates(row.Latitude, row.Longitude)
		if err != nil {
			stats.InvalidCoordinates++
			zap.L().Warn("normalize: skipping row with invalid coordinates",
				zap.Int("row", i),
				zap.String("name", name),
				zap.String("latitude", row.Latitude),
				zap.String("longitude", row.Longitude),
				zap.Error(err),
			)
			continue
		}

		orgType, mapped := CanonicalType(row.Type)
		if !mapped {
			stats.UnmappedType++
			zap.L().Warn("normalize: unmapped organization type",
				zap.String("name", name),
				zap.String("type", row.Type),
			)
		}

		id := trimSpace(row.ID)
		if _, dup := seen[id]; dup && id != "" {
			stats.DuplicateID++
			zap.L().Warn("normalize: duplicate id, synthesizing replacement",
				zap.String("id", id),
				zap.String("name", name),
			)
			id = ""
		}
		if id == "" {
			id = n.uniqueID(seen)
		}
		seen[id] = struct{}{}

		orgs = append(orgs, model.Organization{
			ID:          id,
			Name:        name,
			Type:        orgType,
			Address:     trimSpace(row.Address),
			Phone:       trimSpace(row.Phone),
			Website:     trimSpace(row.Website),
			Email:       trimSpace(row.Email),
			Country:     trimSpace(row.Country),
			City:        trimSpace(row.City),
			Specialty:   trimSpace(row.Specialty),
			Coordinates: coords,
			Status:      parseStatus(row.Status),
		})
	}

	stats.Kept = len(orgs)
	return orgs, stats
}

// NewID returns a fresh id of the form ID_<unix-millis>_<suffix>.
func (n *Normalizer) NewID() string {
	return FormatID(n.now(), n.suffix())
}

func (n *Normalizer) uniqueID(seen map[string]struct{}) string {
	id := n.NewID()
	for {
		if _, taken := seen[id]; !taken {
			return id
		}
		id = FormatID(n.now(), RandomSuffix())
	}
}

// FormatID builds an id from a timestamp and a random suffix.
func FormatID(t time.Time, suffix string) string {
	return fmt.Sprintf("ID_%d_%s", t.UnixMilli(), suffix)
}

// RandomSuffix returns 8 hex characters taken from a random uuid.
func RandomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// ParseCoordinates parses a latitude/longitude pair of cell values.
func ParseCoordinates(lat, lng string) (model.Coordinates, error) {
	lat, lng = trimSpace(lat), trimSpace(lng)
	if lat == "" || lng == "" {
		return model.Coordinates{}, ErrMissingCoordinates
	}
	la, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return model.Coordinates{}, eris.Wrapf(err, "normalize: parse latitude %q", lat)
	}
	ln, err := strconv.ParseFloat(lng, 64)
	if err != nil {
		return model.Coordinates{}, eris.Wrapf(err, "normalize: parse longitude %q", lng)
	}
	if !model.ValidLatLng(la, ln) {
		return model.Coordinates{}, eris.Wrapf(ErrOutOfRange, "lat=%v lng=%v", la, ln)
	}
	return model.Coordinates{la, ln}, nil
}

func parseStatus(s string) int {
	v, err := strconv.ParseFloat(trimSpace(s), 64)
	if err != nil || v != 1 {
		return 0
	}
	return 1
}

func trimSpace(s string) string {
	return strings.TrimSpace(s)
}
