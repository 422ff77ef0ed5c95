package cookie_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/testportal/core/cookie"
)

const (
	testSecret  = "test-secret-key-32-characters!!!"
	testSecret2 = "another-secret-key-32-chars!!!!!"
)

// carry copies the cookies written to w into a new request.
func carry(w *httptest.ResponseRecorder) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range w.Result().Cookies() {
		if c.MaxAge >= 0 {
			r.AddCookie(c)
		}
	}
	return r
}

func TestNew(t *testing.T) {
	t.Parallel()

	_, err := cookie.New(nil)
	assert.ErrorIs(t, err, cookie.ErrNoSecret)

	_, err = cookie.New([]string{"", ""})
	assert.ErrorIs(t, err, cookie.ErrNoSecret)

	_, err = cookie.New([]string{"short"})
	assert.ErrorIs(t, err, cookie.ErrSecretTooShort)
}

func TestPlainCookie(t *testing.T) {
	t.Parallel()

	m, err := cookie.New([]string{testSecret}, cookie.WithSecure(true))
	require.NoError(t, err)

	w := httptest.NewRecorder()
	require.NoError(t, m.Set(w, "theme", "dark"))

	set := w.Result().Cookies()[0]
	assert.True(t, set.HttpOnly)
	assert.True(t, set.Secure)
	assert.Equal(t, http.SameSiteLaxMode, set.SameSite)
	assert.Equal(t, "/", set.Path)

	got, err := m.Get(carry(w), "theme")
	require.NoError(t, err)
	assert.Equal(t, "dark", got)

	_, err = m.Get(httptest.NewRequest(http.MethodGet, "/", nil), "theme")
	assert.ErrorIs(t, err, cookie.ErrCookieNotFound)

	err = m.Set(httptest.NewRecorder(), "big", strings.Repeat("x", cookie.MaxCookieSize))
	var tooLarge cookie.TooLargeError
	require.ErrorAs(t, err, &tooLarge)
	assert.Equal(t, "big", tooLarge.Name)

	w = httptest.NewRecorder()
	m.Delete(w, "theme")
	assert.Equal(t, -1, w.Result().Cookies()[0].MaxAge)
}

func TestSignedCookie(t *testing.T) {
	t.Parallel()

	m, err := cookie.New([]string{testSecret})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	require.NoError(t, m.SetSigned(w, "__client", "c-123"))

	got, err := m.GetSigned(carry(w), "__client")
	require.NoError(t, err)
	assert.Equal(t, "c-123", got)

	t.Run("tampered value", func(t *testing.T) {
		value := w.Result().Cookies()[0].Value
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: "__client", Value: "Yy00NTY" + value[strings.Index(value, "."):]})
		_, err := m.GetSigned(r, "__client")
		assert.ErrorIs(t, err, cookie.ErrInvalidSignature)
	})

	t.Run("value moved to another cookie", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: "other", Value: w.Result().Cookies()[0].Value})
		_, err := m.GetSigned(r, "other")
		assert.ErrorIs(t, err, cookie.ErrInvalidSignature)
	})

	t.Run("garbage", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: "__client", Value: "no-dot"})
		_, err := m.GetSigned(r, "__client")
		assert.ErrorIs(t, err, cookie.ErrInvalidFormat)
	})
}

func TestEncryptedCookieRotation(t *testing.T) {
	t.Parallel()

	old, err := cookie.New([]string{testSecret})
	require.NoError(t, err)
	rotated, err := cookie.New([]string{testSecret2, testSecret})
	require.NoError(t, err)
	other, err := cookie.New([]string{testSecret2})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	require.NoError(t, old.SetEncrypted(w, "data", "secret value"))
	assert.NotContains(t, w.Header().Get("Set-Cookie"), "secret value")

	got, err := rotated.GetEncrypted(carry(w), "data")
	require.NoError(t, err)
	assert.Equal(t, "secret value", got)

	_, err = other.GetEncrypted(carry(w), "data")
	assert.ErrorIs(t, err, cookie.ErrDecryptionFailed)
}

func TestFlash(t *testing.T) {
	t.Parallel()

	m, err := cookie.New([]string{testSecret})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	require.NoError(t, m.SetFlash(w, "error", "Invalid email or password!"))
	assert.Equal(t, 300, w.Result().Cookies()[0].MaxAge)

	r := carry(w)
	read := httptest.NewRecorder()
	var msg string
	require.NoError(t, m.GetFlash(read, r, "error", &msg))
	assert.Equal(t, "Invalid email or password!", msg)

	deleted := read.Result().Cookies()
	require.Len(t, deleted, 1)
	assert.Equal(t, -1, deleted[0].MaxAge, "flash is consumed on read")

	err = m.GetFlash(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil), "error", &msg)
	assert.ErrorIs(t, err, cookie.ErrCookieNotFound)
}

func TestNewFromConfig(t *testing.T) {
	t.Parallel()

	m, err := cookie.NewFromConfig(cookie.Config{
		Secrets:  " " + testSecret + " ,," + testSecret2,
		Path:     "/",
		Secure:   true,
		SameSite: "strict",
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	require.NoError(t, m.Set(w, "a", "b"))
	c := w.Result().Cookies()[0]
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteStrictMode, c.SameSite)

	_, err = cookie.NewFromConfig(cookie.Config{})
	assert.ErrorIs(t, err, cookie.ErrNoSecret)
}
