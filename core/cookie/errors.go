package cookie

import (
	"errors"
	"fmt"
)

var (
	ErrNoSecret         = errors.New("cookie: no secret configured")
	ErrSecretTooShort   = errors.New("cookie: secret shorter than 32 bytes")
	ErrInvalidSignature = errors.New("cookie: bad signature")
	ErrDecryptionFailed = errors.New("cookie: cannot decrypt value")
	ErrCookieNotFound   = errors.New("cookie: not present")
	ErrInvalidFormat    = errors.New("cookie: malformed value")
)

// TooLargeError reports an encoded cookie over MaxCookieSize.
type TooLargeError struct {
	Name string
	Size int
}

func (e TooLargeError) Error() string {
	return fmt.Sprintf("cookie: %q is %d bytes, limit is %d", e.Name, e.Size, MaxCookieSize)
}
