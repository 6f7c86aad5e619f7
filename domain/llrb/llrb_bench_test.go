package llrb

import (
	"math/rand"
	"testing"
)

// ---------------- Basic Benchmarks ---------------- //

func benchItems(n int) []item {
	rng := rand.New(rand.NewSource(7))
	items := make([]item, n)
	for i, k := range rng.Perm(n) {
		items[i].key = k
	}
	return items
}

func BenchmarkInsert(b *testing.B) {
	items := benchItems(b.N)

	b.ReportAllocs()
	b.ResetTimer()
	var root *item
	for i := 0; i < b.N; i++ {
		root, _ = Insert[item](byKey{}, root, &items[i])
	}
}

func BenchmarkRemove(b *testing.B) {
	items := benchItems(b.N)
	var root *item
	for i := range items {
		root, _ = Insert[item](byKey{}, root, &items[i])
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		root, _ = Remove[item](byKey{}, root, &items[i])
	}
}

func BenchmarkRemoveMin(b *testing.B) {
	items := benchItems(b.N)
	var root *item
	for i := range items {
		root, _ = Insert[item](byKey{}, root, &items[i])
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, root = RemoveMin[item](byKey{}, root)
	}
}

// ---------------- Steady State ---------------- //

// BenchmarkChurn keeps the tree at a fixed size while replacing its
// smallest member, the access pattern of a price ladder.
func BenchmarkChurn(b *testing.B) {
	const size = 1 << 14
	items := benchItems(size)
	var root *item
	for i := range items {
		root, _ = Insert[item](byKey{}, root, &items[i])
	}
	next := size

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var least *item
		least, root = RemoveMin[item](byKey{}, root)
		least.key = next
		next++
		root, _ = Insert[item](byKey{}, root, least)
	}
}
