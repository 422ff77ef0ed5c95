// Package storage resolves artifact keys to readable documents.
//
// A Storage opens a key and returns its content together with basic metadata.
// Keys are slash-separated and relative; absolute keys and keys that escape
// the storage root are rejected with ErrInvalidPath.
//
// LocalStorage serves files from a directory:
//
//	store, err := storage.NewLocalStorage("./artifacts")
//	if err != nil {
//		return err
//	}
//
//	rc, info, err := store.Open(ctx, "report.pdf")
//	if errors.Is(err, storage.ErrFileNotFound) {
//		// 404
//	}
//	defer rc.Close()
//
// The S3 implementation lives in integration/storage/s3 and reports the same
// error values, so callers can switch backends through configuration only.
package storage
