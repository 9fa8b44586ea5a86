package viewmodel

// MergeNewestFirst prepends the items of fetched whose key is not yet in
// existing, keeping their fetched order. Existing items are not touched.
// When nothing is new it returns existing itself and false.
func MergeNewestFirst[T any](existing, fetched []T, key func(T) string) ([]T, bool) {
	seen := make(map[string]struct{}, len(existing)+len(fetched))
	for _, it := range existing {
		seen[key(it)] = struct{}{}
	}

	var fresh []T
	for _, it := range fetched {
		k := key(it)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		fresh = append(fresh, it)
	}
	if len(fresh) == 0 {
		return existing, false
	}

	merged := make([]T, 0, len(fresh)+len(existing))
	merged = append(merged, fresh...)
	merged = append(merged, existing...)
	return merged, true
}
