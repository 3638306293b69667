package identity

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// NormalizeScope converts a raw scope value (absent, single value, collection,
// or pre-joined string) into its canonical wire form. The second return value
// is false when the field should be omitted from wire payloads.
//
// Rules:
//   - nil: omitted
//   - empty string: omitted
//   - non-empty string: returned unchanged (pre-joined strings pass through)
//   - collection: blank entries removed, remainder joined with ","; an empty
//     result after filtering is omitted
//   - any other scalar: stringified
func NormalizeScope(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false

	case string:
		if x == "" {
			return "", false
		}
		return x, true

	case []string:
		parts := make([]string, 0, len(x))
		for _, e := range x {
			if e == "" {
				continue
			}
			parts = append(parts, e)
		}
		return joined(parts)

	case []any:
		parts := make([]string, 0, len(x))
		for _, e := range x {
			if e == nil {
				continue
			}
			s := scalarString(e)
			if s == "" {
				continue
			}
			parts = append(parts, s)
		}
		return joined(parts)

	default:
		s := scalarString(v)
		if s == "" {
			return "", false
		}
		return s, true
	}
}

func joined(parts []string) (string, bool) {
	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, ","), true
}

// scalarString stringifies a scalar without float formatting artifacts
// (JSON numbers decode as float64, and 7.0 must render as "7").
func scalarString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", x)
	}
}
