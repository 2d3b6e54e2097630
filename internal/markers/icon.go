package markers

import "github.com/sells-group/healthmap/internal/model"

// Icon sizes in pixels.
const (
	DesktopIconSize = 30
	MobileIconSize  = 25
)

// DefaultMobileBreakpoint is the widest viewport, in pixels, that gets mobile icons.
const DefaultMobileBreakpoint = 768

// Icon describes how a marker is drawn.
type Icon struct {
	Class  string `json:"class"`
	Color  string `json:"color"`
	Glyph  string `json:"glyph"`
	Size   int    `json:"size"`
	Mobile bool   `json:"mobile"`
}

// Anchor returns the icon anchor offset, the icon center.
func (i Icon) Anchor() [2]int {
	return [2]int{i.Size / 2, i.Size / 2}
}

// PopupAnchor returns the popup offset relative to the anchor.
func (i Icon) PopupAnchor() [2]int {
	return [2]int{0, -i.Size / 2}
}

type iconStyle struct {
	class string
	color string
	glyph string
}

var (
	hospitalStyle    = iconStyle{class: "custom-hospital-icon", color: "#dc3545", glyph: "⚕"}
	associationStyle = iconStyle{class: "custom-association-icon", color: "#007bff", glyph: "👥"}
	selectionStyle   = iconStyle{class: "selection-marker-icon", color: "#28a745", glyph: "📍"}
)

// Viewport is the client display size.
type Viewport struct {
	Width int `json:"width"`
}

// Mobile reports whether the viewport is at or under breakpoint. A zero
// width is treated as desktop.
func (v Viewport) Mobile(breakpoint int) bool {
	if breakpoint <= 0 {
		breakpoint = DefaultMobileBreakpoint
	}
	return v.Width > 0 && v.Width <= breakpoint
}

// IconFor picks the icon for an organization type. Anything that is not a
// hospital is drawn with the association icon.
func IconFor(t model.OrgType, mobile bool) Icon {
	style := associationStyle
	if t == model.TypeHospital {
		style = hospitalStyle
	}
	return newIcon(style, mobile)
}

func newIcon(style iconStyle, mobile bool) Icon {
	icon := Icon{
		Class:  style.class,
		Color:  style.color,
		Glyph:  style.glyph,
		Size:   DesktopIconSize,
		Mobile: mobile,
	}
	if mobile {
		icon.Class += "-mobile"
		icon.Size = MobileIconSize
	}
	return icon
}
