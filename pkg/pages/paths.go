package pages

import (
	"fmt"
	"strconv"
	"strings"
)

// GetRelativePrefixToRootFromPath returns the relative prefix that leads from
// the page at path back to the site root, e.g. "a/b/c.html" -> "../../".
func GetRelativePrefixToRootFromPath(path string) string {
	segments := strings.Split(path, "/")
	depth := len(segments) - 1
	if depth <= 0 {
		return ""
	}
	return strings.Repeat("../", depth)
}

func toString(v interface{}) string {
	switch n := v.(type) {
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case int:
		return strconv.Itoa(n)
	case int64:
		return strconv.FormatInt(n, 10)
	default:
		return fmt.Sprint(v)
	}
}
