// Package clientip extracts the client IP address from an HTTP request.
//
// FromRequest checks proxy headers in order (CF-Connecting-IP,
// DO-Connecting-IP, the leftmost X-Forwarded-For entry, X-Real-IP) and falls
// back to RemoteAddr. Headers are only trustworthy behind a proxy that sets
// them; Direct ignores headers entirely and is used when the portal faces
// clients directly.
//
// Every candidate is parsed with net/netip; unparsable and unspecified
// addresses are skipped and IPv4-mapped IPv6 addresses are unmapped.
package clientip
