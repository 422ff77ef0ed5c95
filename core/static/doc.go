// Package static serves embedded assets.
//
// FS wraps an fs.FS (usually an embed.FS) in a handler that never lists
// directories and marks responses cacheable:
//
//	//go:embed assets
//	var assets embed.FS
//
//	r.Get("/static/*", static.FS[*router.Context](assets,
//		static.WithSubFS("assets"),
//		static.WithStripPrefix("/static"),
//		static.WithMaxAge(time.Hour),
//	))
package static
