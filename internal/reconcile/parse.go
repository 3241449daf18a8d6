package reconcile

import (
	"encoding/json"
	"strconv"
	"strings"
)

// ParseNumber turns whatever the external feed sent into a float64.
// Values arrive as native JSON numbers or as strings with currency
// signs, percent signs and mixed separator conventions. Upstream data
// quality is inconsistent, so anything unparseable is 0, never an
// error.
func ParseNumber(raw any) float64 {
	var s string

	switch v := raw.(type) {
	case nil:
		return 0
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case json.Number:
		s = v.String()
	case string:
		s = v
	default:
		return 0
	}

	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "%", "")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return 0
	}

	// With both separators present, commas are thousands marks. A lone
	// comma is a decimal comma.
	if strings.Contains(s, ".") && strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ",", "")
	} else if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ",", ".")
	}

	val, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return val
}
