package mapview

import (
	"context"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/healthmap/internal/model"
	"github.com/sells-group/healthmap/pkg/geocode"
)

// Geolocation errors a Locator may return.
var (
	ErrGeolocationUnsupported = eris.New("mapview: geolocation unsupported")
	ErrGeolocationDenied      = eris.New("mapview: geolocation permission denied")
	ErrQueryTooShort          = eris.New("mapview: address query too short")
)

// Locator reports the user's current position.
type Locator interface {
	Locate(ctx context.Context) (model.Coordinates, error)
}

// LocatorFunc adapts a function to Locator.
type LocatorFunc func(ctx context.Context) (model.Coordinates, error)

// Locate calls f.
func (f LocatorFunc) Locate(ctx context.Context) (model.Coordinates, error) { return f(ctx) }

// LocateMe centers the map on the user's position. Failures are not retried.
func (s *Session) LocateMe(ctx context.Context) (model.Coordinates, error) {
	if s.locator == nil {
		return model.Coordinates{}, s.userError("geolocationUnsupported", ErrGeolocationUnsupported)
	}
	p, err := s.locator.Locate(ctx)
	if err == nil && !p.Valid() {
		err = eris.Errorf("mapview: locator returned %v", p)
	}
	if err != nil {
		key := "geolocationFailed"
		if eris.Is(err, ErrGeolocationUnsupported) {
			key = "geolocationUnsupported"
		}
		return model.Coordinates{}, s.userError(key, err)
	}

	s.mu.Lock()
	s.center = &p
	s.mu.Unlock()
	return p, nil
}

// Center returns the last position the map was centered on.
func (s *Session) Center() (model.Coordinates, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.center == nil {
		return model.Coordinates{}, false
	}
	return *s.center, true
}

// SearchAddress geocodes query for the address box.
func (s *Session) SearchAddress(ctx context.Context, query string) ([]geocode.Place, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < geocode.MinQueryLength {
		msg := s.translate("queryTooShort", map[string]string{"min": strconv.Itoa(geocode.MinQueryLength)})
		return nil, &UserError{Key: "queryTooShort", Message: msg, Err: ErrQueryTooShort}
	}
	if s.geocoder == nil {
		return nil, s.userError("searchFailed", geocode.ErrNotConfigured)
	}
	places, err := s.geocoder.Search(ctx, query)
	if err != nil {
		return nil, s.userError("searchFailed", err)
	}
	return places, nil
}

// GoTo centers the map on a place picked from the address results.
func (s *Session) GoTo(p geocode.Place) error {
	c := model.Coordinates{p.Latitude, p.Longitude}
	if !c.Valid() {
		return eris.Errorf("mapview: invalid place position %v", c)
	}
	s.mu.Lock()
	s.center = &c
	s.mu.Unlock()
	return nil
}
