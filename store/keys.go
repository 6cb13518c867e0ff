package store

// Batch-read helpers. Finders that fetch child rows for several parents in
// one statement use these to fan the flat result back out per parent, and
// GetMany uses OrderByKeys to hand rows back in request order.

// KeyFunc extracts the grouping key from an entity.
type KeyFunc[K comparable, V any] func(V) K

// OrderByKeys reorders values to match the order of keys. The result has
// one slot per key; missing keys leave a zero value and report their
// position in the returned index slice.
func OrderByKeys[K comparable, V any](keys []K, values []V, keyFn KeyFunc[K, V]) ([]V, []int) {
	lookup := make(map[K]V, len(values))
	for _, v := range values {
		lookup[keyFn(v)] = v
	}
	result := make([]V, len(keys))
	var missing []int
	for i, key := range keys {
		v, ok := lookup[key]
		if !ok {
			missing = append(missing, i)
			continue
		}
		result[i] = v
	}
	return result, missing
}

// GroupByKey groups values by key, preserving encounter order within each
// group. The one-to-many loaders (lines per document, ruts per company)
// build their per-parent slices with it.
func GroupByKey[K comparable, V any](values []V, keyFn KeyFunc[K, V]) map[K][]V {
	result := make(map[K][]V)
	for _, v := range values {
		key := keyFn(v)
		result[key] = append(result[key], v)
	}
	return result
}
