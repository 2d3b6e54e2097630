package markers

import (
	"regexp"
	"strconv"
)

// Platform is the client operating system family.
type Platform int

const (
	PlatformOther Platform = iota
	PlatformIOS
	PlatformAndroid
)

var (
	iosUA     = regexp.MustCompile(`(?i)iPad|iPhone|iPod`)
	androidUA = regexp.MustCompile(`(?i)android`)
)

// PlatformFromUserAgent classifies a User-Agent header.
func PlatformFromUserAgent(ua string) Platform {
	switch {
	case iosUA.MatchString(ua):
		return PlatformIOS
	case androidUA.MatchString(ua):
		return PlatformAndroid
	default:
		return PlatformOther
	}
}

// DeepLink holds the preferred maps URL and a web fallback. Fallback is
// empty when Primary is already the web URL.
type DeepLink struct {
	Primary  string `json:"primary"`
	Fallback string `json:"fallback,omitempty"`
}

// WebMapsURL returns the Google Maps search URL for a point.
func WebMapsURL(lat, lng float64) string {
	return "https://www.google.com/maps/search/?api=1&query=" + formatPair(lat, lng)
}

// MapsLink returns the external-maps link for a point on the given platform.
func MapsLink(lat, lng float64, p Platform) DeepLink {
	web := WebMapsURL(lat, lng)
	if p == PlatformIOS {
		return DeepLink{
			Primary:  "maps://maps.apple.com/?q=" + formatPair(lat, lng),
			Fallback: web,
		}
	}
	return DeepLink{Primary: web}
}

func formatPair(lat, lng float64) string {
	return formatCoord(lat) + "," + formatCoord(lng)
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
