package common

import (
	"strconv"
	"strings"
)

// FloatDefault parses value as a float falling back to def when it is empty or malformed.
func FloatDefault(value string, def float64) float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}
