package directory

import (
	"strings"

	"github.com/sells-group/healthmap/internal/model"
)

// SearchLimit caps the number of search results.
const SearchLimit = 5

// Search returns up to SearchLimit organizations, in list order, whose name,
// address, city, country, specialty or type contains query
// case-insensitively. A blank query matches nothing.
func Search(orgs []model.Organization, query string) []model.Organization {
	out := make([]model.Organization, 0, SearchLimit)
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return out
	}
	for _, o := range orgs {
		if matches(o, q) {
			out = append(out, o)
			if len(out) == SearchLimit {
				break
			}
		}
	}
	return out
}

func matches(o model.Organization, q string) bool {
	for _, field := range []string{o.Name, o.Address, o.City, o.Country, o.Specialty, string(o.Type)} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}
