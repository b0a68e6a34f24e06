package fn

// Map returns a new slice with f applied to each element.
func Map[In, Out any](in []In, f func(In) Out) []Out {
	if in == nil {
		return nil
	}
	out := make([]Out, len(in))
	for i, v := range in {
		out[i] = f(v)
	}
	return out
}

// Filter keeps the elements for which keep returns true, preserving order.
func Filter[T any](in []T, keep func(T) bool) []T {
	if in == nil {
		return nil
	}
	out := make([]T, 0, len(in))
	for _, v := range in {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}

// FilterMap transforms and filters in one pass. f returns the mapped
// value and whether to keep it.
func FilterMap[In, Out any](in []In, f func(In) (Out, bool)) []Out {
	out := make([]Out, 0, len(in))
	for _, v := range in {
		if mapped, ok := f(v); ok {
			out = append(out, mapped)
		}
	}
	return out
}

// FlatMap maps each element to a slice and concatenates the results.
func FlatMap[In, Out any](in []In, f func(In) []Out) []Out {
	var out []Out
	for _, v := range in {
		out = append(out, f(v)...)
	}
	return out
}

// UniqueBy drops elements whose key was already seen. The first
// occurrence of each key wins.
func UniqueBy[T any, K comparable](in []T, key func(T) K) []T {
	if in == nil {
		return nil
	}
	seen := make(map[K]struct{}, len(in))
	out := make([]T, 0, len(in))
	for _, v := range in {
		k := key(v)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, v)
	}
	return out
}

// GroupBy buckets elements by key, preserving encounter order inside
// each bucket.
func GroupBy[T any, K comparable](in []T, key func(T) K) map[K][]T {
	out := make(map[K][]T)
	for _, v := range in {
		k := key(v)
		out[k] = append(out[k], v)
	}
	return out
}
