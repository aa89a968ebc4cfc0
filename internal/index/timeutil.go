package index

import (
	"fmt"
	"strings"
	"time"
)

// DefaultZone is the IANA zone used to interpret client-supplied times when
// the request does not name one.
const DefaultZone = "Asia/Shanghai"

// timeLayouts are the accepted client time formats, tried in order.
var timeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// ParseTimeInZone parses value with the accepted layouts in the named IANA
// zone and returns the instant in UTC. An empty zone falls back to
// DefaultZone.
func ParseTimeInZone(value, zone string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("index: empty time value")
	}
	if zone == "" {
		zone = DefaultZone
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return time.Time{}, fmt.Errorf("index: unknown timezone %q: %w", zone, err)
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("index: unparseable time %q, expected yyyy-MM-dd HH:mm", value)
}

// FormatUTC renders a UTC instant the way responses and logs expect it.
func FormatUTC(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05")
}
