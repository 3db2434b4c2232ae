// Package store keeps per-resource lists in sync with the backend using
// fetch-on-start seeding plus event-driven incremental patching.
//
// Every store follows the same policy: the push event, not the mutating HTTP
// response, is the source of truth for list membership. Added events are
// deduplicated by id, updated events replace by id, deleted events filter by
// id, and list events replace wholesale.
package store

// prependIfAbsent inserts item at the front unless an element with the same
// id is already present.
func prependIfAbsent[T any](list []T, item T, id func(T) string) []T {
	key := id(item)
	for _, existing := range list {
		if id(existing) == key {
			return list
		}
	}
	return append([]T{item}, list...)
}

// replaceByID swaps the element with a matching id; no-op when absent.
func replaceByID[T any](list []T, item T, id func(T) string) []T {
	key := id(item)
	for i, existing := range list {
		if id(existing) == key {
			list[i] = item
		}
	}
	return list
}

// removeByID filters out the element with the given id.
func removeByID[T any](list []T, key string, id func(T) string) []T {
	out := list[:0]
	for _, existing := range list {
		if id(existing) != key {
			out = append(out, existing)
		}
	}
	return out
}
