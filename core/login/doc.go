// Package login resolves an identity/secret pair to a record of the
// directory.
//
// Resolution is a linear scan with exact, case-sensitive equality on both
// fields. An unknown identity and a wrong secret produce the same
// ErrInvalidCredentials so callers cannot tell them apart. The comparison is
// plain string equality; the portal is a results viewer, not an
// authentication boundary.
package login
