package cookie

import "net/http"

// Option adjusts the attributes a cookie is written with.
type Option func(*http.Cookie)

func WithPath(path string) Option {
	return func(c *http.Cookie) { c.Path = path }
}

func WithDomain(domain string) Option {
	return func(c *http.Cookie) { c.Domain = domain }
}

// WithMaxAge sets max-age in seconds. Zero keeps the cookie for the browser
// session only.
func WithMaxAge(seconds int) Option {
	return func(c *http.Cookie) { c.MaxAge = seconds }
}

func WithSecure(secure bool) Option {
	return func(c *http.Cookie) { c.Secure = secure }
}

func WithSameSite(mode http.SameSite) Option {
	return func(c *http.Cookie) { c.SameSite = mode }
}

// template returns a copy of base with opts applied and the name and value
// set.
func template(base http.Cookie, name, value string, opts []Option) *http.Cookie {
	c := base
	for _, opt := range opts {
		opt(&c)
	}
	c.Name = name
	c.Value = value
	return &c
}
