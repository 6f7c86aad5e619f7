// Package snapshot persists the resting orders of a book and loads them
// back. A Reader pins the reclamation epoch while a snapshot is captured so
// that no order it walks is recycled underneath it.
package snapshot
