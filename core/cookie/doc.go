// Package cookie manages plain, signed and encrypted HTTP cookies and
// one-time flash values.
//
// Signed cookies are readable by the browser but tamper-evident (HMAC-SHA256).
// Encrypted cookies are sealed with AES-256-GCM. Both bind the value to the
// cookie name. Several secrets may be configured: the first one writes, all
// of them are accepted when reading, which allows rotation.
//
//	m, err := cookie.New([]string{os.Getenv("COOKIE_SECRET")}, cookie.WithSecure(true))
//	if err != nil {
//		return err
//	}
//	_ = m.SetSigned(w, "__client", clientID)
//	id, err := m.GetSigned(r, "__client")
//
// Flash values survive exactly one read:
//
//	_ = m.SetFlash(w, "error", "Invalid email or password!")
//	var msg string
//	if err := m.GetFlash(w, r, "error", &msg); err == nil {
//		// render msg
//	}
package cookie
