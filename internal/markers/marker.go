// Package markers projects organizations into map markers.
package markers

import (
	"go.uber.org/zap"

	"github.com/sells-group/healthmap/internal/model"
)

// TempMarkerID identifies the temporary marker shown while picking a location.
const TempMarkerID = "__selection__"

// Marker is one drawable map point.
type Marker struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Type     model.OrgType     `json:"type"`
	Position model.Coordinates `json:"position"`
	Icon     Icon              `json:"icon"`
	Popup    string            `json:"popup"`
}

// Options controls marker projection.
type Options struct {
	Viewport   Viewport
	Breakpoint int
	Translator Translator
}

// Build projects organizations into markers in list order. Organizations
// with invalid coordinates or unrenderable popups are skipped.
func Build(orgs []model.Organization, opts Options) []Marker {
	mobile := opts.Viewport.Mobile(opts.Breakpoint)
	out := make([]Marker, 0, len(orgs))
	for _, o := range orgs {
		m, err := buildOne(o, mobile, opts.Translator)
		if err != nil {
			zap.L().Warn("markers: skipping organization",
				zap.String("id", o.ID),
				zap.String("name", o.Name),
				zap.Error(err),
			)
			continue
		}
		out = append(out, m)
	}
	return out
}

func buildOne(o model.Organization, mobile bool, tr Translator) (Marker, error) {
	if !o.Coordinates.Valid() {
		return Marker{}, ErrInvalidPosition
	}
	popup, err := Popup(o, tr)
	if err != nil {
		return Marker{}, err
	}
	return Marker{
		ID:       o.ID,
		Name:     o.Name,
		Type:     o.Type,
		Position: o.Coordinates,
		Icon:     IconFor(o.Type, mobile),
		Popup:    popup,
	}, nil
}

// TempMarker is the marker shown at a candidate location.
func TempMarker(p model.Coordinates, mobile bool) Marker {
	return Marker{
		ID:       TempMarkerID,
		Position: p,
		Icon:     newIcon(selectionStyle, mobile),
	}
}
