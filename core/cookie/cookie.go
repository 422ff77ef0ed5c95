package cookie

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const (
	// MaxCookieSize is the browser limit for one Set-Cookie value.
	MaxCookieSize = 4096

	minSecretLength = 32

	flashPrefix = "__flash_"
	// A flash only has to survive the redirect that follows it.
	flashMaxAge = 5 * time.Minute
)

// Manager writes cookies with a shared set of attributes and signs or seals
// their values with a rotating keyring.
type Manager struct {
	keys *keyring
	base http.Cookie
}

// New creates a Manager. Cookies default to Path "/", HttpOnly and
// SameSite=Lax; opts change the defaults.
func New(secrets []string, opts ...Option) (*Manager, error) {
	keys, err := newKeyring(secrets)
	if err != nil {
		return nil, err
	}
	base := http.Cookie{Path: "/", HttpOnly: true, SameSite: http.SameSiteLaxMode}
	for _, opt := range opts {
		opt(&base)
	}
	return &Manager{keys: keys, base: base}, nil
}

// Set writes value as is.
func (m *Manager) Set(w http.ResponseWriter, name, value string, opts ...Option) error {
	c := template(m.base, name, value, opts)
	if n := len(c.String()); n > MaxCookieSize {
		return TooLargeError{Name: name, Size: n}
	}
	http.SetCookie(w, c)
	return nil
}

// Get returns the raw value of name, or ErrCookieNotFound.
func (m *Manager) Get(r *http.Request, name string) (string, error) {
	c, err := r.Cookie(name)
	switch {
	case errors.Is(err, http.ErrNoCookie):
		return "", ErrCookieNotFound
	case err != nil:
		return "", err
	}
	return c.Value, nil
}

// Delete expires name using the manager's path and domain.
func (m *Manager) Delete(w http.ResponseWriter, name string) {
	c := template(m.base, name, "", nil)
	c.MaxAge = -1
	c.Expires = time.Unix(0, 0)
	http.SetCookie(w, c)
}

// SetSigned writes value in clear with an HMAC bound to name.
func (m *Manager) SetSigned(w http.ResponseWriter, name, value string, opts ...Option) error {
	return m.Set(w, name, m.keys.sign(name, value), opts...)
}

func (m *Manager) GetSigned(r *http.Request, name string) (string, error) {
	raw, err := m.Get(r, name)
	if err != nil {
		return "", err
	}
	return m.keys.verify(name, raw)
}

// SetEncrypted writes value sealed with AES-GCM, using name as associated
// data.
func (m *Manager) SetEncrypted(w http.ResponseWriter, name, value string, opts ...Option) error {
	sealed, err := m.keys.seal(name, value)
	if err != nil {
		return err
	}
	return m.Set(w, name, sealed, opts...)
}

func (m *Manager) GetEncrypted(r *http.Request, name string) (string, error) {
	raw, err := m.Get(r, name)
	if err != nil {
		return "", err
	}
	return m.keys.open(name, raw)
}

// SetFlash stores value as JSON in a short-lived encrypted cookie.
func (m *Manager) SetFlash(w http.ResponseWriter, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cookie: encode flash %q: %w", key, err)
	}
	return m.SetEncrypted(w, flashPrefix+key, string(data), WithMaxAge(int(flashMaxAge.Seconds())))
}

// GetFlash decodes the flash stored under key into dest. The cookie is
// removed whether or not it could be read, so a flash shows at most once.
func (m *Manager) GetFlash(w http.ResponseWriter, r *http.Request, key string, dest any) error {
	name := flashPrefix + key
	data, err := m.GetEncrypted(r, name)
	if errors.Is(err, ErrCookieNotFound) {
		return err
	}
	m.Delete(w, name)
	if err != nil {
		return err
	}

	if err := json.Unmarshal([]byte(data), dest); err != nil {
		return fmt.Errorf("cookie: decode flash %q: %w", key, err)
	}
	return nil
}
