// Package collection provides generic helpers for the entity slices held in
// the store. Every function returns a new slice and leaves its input alone,
// which is what a reducer needs.
//
//	items = collection.UpsertBy(items, created, func(c models.Category) string { return c.ID })
//	items = collection.RemoveBy(items, id, func(c models.Category) string { return c.ID })
package collection

// Map transforms each element of s using fn.
func Map[T, R any](s []T, fn func(T) R) []R {
	out := make([]R, len(s))
	for i, v := range s {
		out[i] = fn(v)
	}
	return out
}

// Filter returns elements of s for which fn returns true.
func Filter[T any](s []T, fn func(T) bool) []T {
	var out []T
	for _, v := range s {
		if fn(v) {
			out = append(out, v)
		}
	}
	return out
}

// First returns the first element for which fn returns true.
func First[T any](s []T, fn func(T) bool) (T, bool) {
	for _, v := range s {
		if fn(v) {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// UniqueBy keeps the first element for each key.
func UniqueBy[T any, K comparable](s []T, key func(T) K) []T {
	seen := make(map[K]struct{}, len(s))
	out := make([]T, 0, len(s))
	for _, v := range s {
		k := key(v)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, v)
	}
	return out
}

// UpsertBy replaces every element whose key equals item's with item, keeping
// the position of the first one and dropping the rest. If none matches, item
// is prepended. The result holds item exactly once.
func UpsertBy[T any, K comparable](s []T, item T, key func(T) K) []T {
	k := key(item)
	out := make([]T, 0, len(s)+1)
	found := false
	for _, v := range s {
		if key(v) != k {
			out = append(out, v)
			continue
		}
		if !found {
			out = append(out, item)
			found = true
		}
	}
	if !found {
		out = append([]T{item}, out...)
	}
	return out
}

// RemoveBy drops every element whose key equals k.
func RemoveBy[T any, K comparable](s []T, k K, key func(T) K) []T {
	out := make([]T, 0, len(s))
	for _, v := range s {
		if key(v) != k {
			out = append(out, v)
		}
	}
	return out
}

// KeyBy indexes s by key; later elements win.
func KeyBy[T any, K comparable](s []T, key func(T) K) map[K]T {
	out := make(map[K]T, len(s))
	for _, v := range s {
		out[key(v)] = v
	}
	return out
}
