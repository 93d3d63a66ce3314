// Package registry keeps the current constraint of every published dataset.
//
// Publish swaps in a fully built entry per dataset id, so concurrent readers
// observe either the previous or the new constraint, never a mix. Each entry
// carries a dimension -> code set index built at publish time; validation and
// label resolution go through Lookup and then work on the returned Entry
// without further locking.
//
//	reg := registry.New(registry.WithLogger(log))
//	change, err := reg.Publish(c)
//	if change.StructureChanged {
//		// upstream structure version moved
//	}
//	entry, err := reg.Lookup("163_156")
//	ok := entry.Contains("ADJUSTMENT", "Y")
//
// Publishing a constraint with the checksum of the current one is a no-op
// reported as Unchanged. Observers registered with WithObserver see every
// change after it becomes visible.
package registry
