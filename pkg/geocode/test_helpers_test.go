package geocode

import (
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"
)

func newTestLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Inf, 1)
}

// newRewriteClient sends requests whose URL starts with prefix to the test
// server instead, keeping the query string.
func newRewriteClient(testServerURL, prefix string) *http.Client {
	target, _ := url.Parse(testServerURL)
	return &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			if strings.HasPrefix(req.URL.String(), prefix) {
				req = req.Clone(req.Context())
				req.URL.Scheme = target.Scheme
				req.URL.Host = target.Host
				req.URL.Path = "/"
				req.Host = target.Host
			}
			return http.DefaultTransport.RoundTrip(req)
		}),
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}
