package queue

import "strings"

// TrackingSuffix is appended to a queue name to form its tracking key.
const TrackingSuffix = "--queue"

// TrackingKey returns the tracking-list key for a queue name.
// Format: {name}--queue
func TrackingKey(name string) string { return name + TrackingSuffix }

// sliceFirst splits the tracking list into its first id and the remainder.
// ok is false when the list is empty.
func sliceFirst(list, delim string) (first, rest string, ok bool) {
	if list == "" {
		return "", "", false
	}
	i := strings.Index(list, delim)
	if i < 0 {
		return list, "", true
	}
	return list[:i], list[i+len(delim):], true
}

// appendIDs returns list with ids appended in order.
func appendIDs(list, delim string, ids ...string) string {
	if len(ids) == 0 {
		return list
	}
	joined := strings.Join(ids, delim)
	if list == "" {
		return joined
	}
	return list + delim + joined
}

// countIDs returns the number of ids in list.
func countIDs(list, delim string) int {
	if list == "" {
		return 0
	}
	return strings.Count(list, delim) + 1
}

// splitIDs returns every id in list, oldest first.
func splitIDs(list, delim string) []string {
	if list == "" {
		return nil
	}
	return strings.Split(list, delim)
}
