package portal

import "errors"

// ErrLoginFailed is returned when credentials were valid but the session
// could not be stored. Callers show a generic notice.
var ErrLoginFailed = errors.New("login failed")
