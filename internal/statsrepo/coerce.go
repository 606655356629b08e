package statsrepo

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Payloads decoded into `any` carry JSON numbers as float64, objects as
// map[string]any and arrays as []any. The helpers below read those loosely.

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"Mon Jan 02 2006 15:04:05 GMT-0700",
	"Mon Jan 02 2006",
	"Mon Jan 2 2006",
	"1/2/2006",
}

// finiteNumber accepts only real JSON numbers.
func finiteNumber(v any) (float64, bool) {
	f, ok := v.(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// wholeCount floors a finite number and clamps it at zero.
func wholeCount(v any) (int, bool) {
	f, ok := finiteNumber(v)
	if !ok {
		return 0, false
	}
	return clampInt(int(math.Floor(f))), true
}

// looseInt reads a number or a numeric string prefix, truncating toward zero.
// Anything else is 0. The result is clamped at zero.
func looseInt(v any) int {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0
		}
		return clampInt(int(math.Trunc(t)))
	case string:
		return clampInt(leadingInt(strings.TrimSpace(t)))
	default:
		return 0
	}
}

// looseFloat reads a number or a numeric string. Anything else is 0.
func looseFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0
		}
		return t
	case string:
		s := strings.TrimSpace(t)
		if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(f, 0) {
			return f
		}
		return float64(leadingInt(s))
	default:
		return 0
	}
}

// percent reads a loose number, rounds it and clamps it to [0, 100].
func percent(v any) int {
	f := math.Round(looseFloat(v))
	if f < 0 {
		return 0
	}
	if f > 100 {
		return 100
	}
	return int(f)
}

func leadingInt(s string) int {
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}

// truthy mirrors a loose boolean check: false, 0, "" and null are false.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0 && !math.IsNaN(t)
	case string:
		return t != ""
	default:
		return true
	}
}

// parseDate accepts date strings in the layouts written by current and older
// versions. Strings without a zone are read in local time.
func parseDate(v any) (time.Time, bool) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if i := strings.Index(s, " ("); i > 0 {
		s = s[:i]
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseTimestamp is parseDate plus epoch milliseconds.
func parseTimestamp(v any) (time.Time, bool) {
	if f, ok := finiteNumber(v); ok && f > 0 {
		return time.UnixMilli(int64(f)), true
	}
	return parseDate(v)
}

func datePtr(v any) *time.Time {
	t, ok := parseDate(v)
	if !ok {
		return nil
	}
	return &t
}

// idString renders a string or numeric identifier.
func idString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}

func text(v any) string {
	s, _ := v.(string)
	return s
}

func firstOf(obj map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := obj[k]; ok && truthy(v) {
			return v
		}
	}
	return nil
}

func stringList(v any) []string {
	out := []string{}
	items, ok := v.([]any)
	if !ok {
		return out
	}
	for _, item := range items {
		if s := idString(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func clampInt(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
