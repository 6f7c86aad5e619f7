// Package memory owns the storage that intrusive containers link together
// but never allocate: typed object pools, a single-producer retire ring and
// epoch-based reclamation that decides when a retired object may go back to
// its pool.
//
// Objects leave a container on the writer goroutine and are stamped with the
// epoch current at that moment. They are only recycled once every registered
// reader that might still hold a pointer to them has moved to a later epoch.
package memory
