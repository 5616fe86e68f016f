package pipeline

import (
	"regexp"
	"sort"
	"strconv"
)

var keyDigits = regexp.MustCompile(`\d+`)

// keyIndex extracts the first embedded integer from a segment or script key.
// Keys without digits sort as index 0.
func keyIndex(key string) int {
	match := keyDigits.FindString(key)
	if match == "" {
		return 0
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		return 0
	}
	return n
}

// OrderKeys returns keys sorted ascending by their embedded integer index,
// ties broken by the key string. The same ordering drives both segment
// processing and final concatenation, so it must stay stable and pure.
func OrderKeys(keys []string) []string {
	ordered := make([]string, len(keys))
	copy(ordered, keys)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := keyIndex(ordered[i]), keyIndex(ordered[j])
		if a != b {
			return a < b
		}
		return ordered[i] < ordered[j]
	})
	return ordered
}
