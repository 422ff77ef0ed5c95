// Package session keeps the current record of each client in a persisted
// slot and tells every interested party when a slot changes.
//
// A client is one browser profile. Its slot holds at most one record, stored
// as JSON under "<prefix><client>":
//
//	store := session.NewStore(session.NewMemorySlot(), bus, session.WithLogger(log))
//
//	if err := store.Save(ctx, clientID, rec); err != nil { ... }
//	rec, err := store.Load(ctx, clientID)    // ErrNoSession when absent or corrupt
//	err = store.Clear(ctx, clientID)         // idempotent
//
// Load never fails because of bad slot content: a value that does not decode
// is logged with ErrCorruptData and reported as ErrNoSession. Save encodes
// before writing, so an encoding failure (ErrSerialization) leaves the slot
// untouched.
//
// After a write completes the store publishes a Change on its broadcaster.
// Open tabs subscribe to it to follow logins and logouts made elsewhere.
package session
