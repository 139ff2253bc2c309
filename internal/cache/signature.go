package cache

import (
	"sort"
	"strconv"
	"strings"
)

// Signature derives the cache key for a logical request.
// Format: {endpoint}_{"k1":"v1","k2":"v2"} with keys sorted, so parameter order
// never changes the key.
func Signature(endpoint string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(endpoint)
	b.WriteString("_{")
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Quote(k))
		b.WriteByte(':')
		b.WriteString(strconv.Quote(params[k]))
	}
	b.WriteByte('}')
	return b.String()
}
