// Package pubdate converts RSS pubDate strings into normalized timestamps and
// renders timestamps in the layout used for persisted records.
//
// Parsed and stored values go through the same normalization (UTC, whole
// seconds) so they compare exactly when filtering items against a watermark.
package pubdate

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidDate is returned when a pubDate string cannot be parsed.
var ErrInvalidDate = errors.New("invalid pubDate")

// StoredLayout is the layout of timestamps written to the database.
const StoredLayout = "2006-01-02 15:04:05"

// RSS 2.0 の pubDate は RFC 822 だが、実際のフィードには揺れがあるため複数レイアウトを試す
var layouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"Mon, 02 Jan 2006 15:04 -0700",
	"Mon, 02 Jan 2006 15:04 MST",
	"Mon, 2 Jan 2006 15:04 -0700",
	"Mon, 2 Jan 2006 15:04 MST",
	"02 Jan 2006 15:04:05 -0700",
	"02 Jan 2006 15:04:05 MST",
	"2 Jan 2006 15:04:05 -0700",
	"2 Jan 2006 15:04:05 MST",
	time.RFC822Z,
	time.RFC822,
	"Mon, 02 Jan 06 15:04:05 -0700",
	"Mon, 02 Jan 06 15:04:05 MST",
}

// RFC 822 section 5 の名前付きタイムゾーン（時間単位のオフセット）。
// time.Parse は未知の略称をオフセット 0 として扱うため、ここで解決する。
var namedZones = map[string]int{
	"UT":  0,
	"UTC": 0,
	"GMT": 0,
	"Z":   0,
	"EST": -5,
	"EDT": -4,
	"CST": -6,
	"CDT": -5,
	"MST": -7,
	"MDT": -6,
	"PST": -8,
	"PDT": -7,
}

// Parse parses an RFC 822 style pubDate.
// Named zones must be one of the RFC 822 abbreviations; any other name is
// rejected rather than read as UTC. The result is normalized with Normalize.
func Parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrInvalidDate)
	}

	// time.Parse は 3 文字未満の略称を受け付けない
	zone := ""
	if i := strings.LastIndexByte(s, ' '); i >= 0 {
		zone = s[i+1:]
		if zone == "UT" || zone == "Z" {
			s = s[:i+1] + "GMT"
		}
	}

	for _, layout := range layouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		if strings.HasSuffix(layout, "MST") {
			hours, ok := namedZones[zone]
			if !ok {
				return time.Time{}, fmt.Errorf("%w: unknown time zone %q", ErrInvalidDate, zone)
			}
			t = time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0,
				time.FixedZone(zone, hours*60*60))
		}
		return Normalize(t), nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// Format renders t as an RSS pubDate. Parse(Format(t)) returns Normalize(t).
func Format(t time.Time) string {
	return t.Format(time.RFC1123Z)
}

// Normalize converts t to UTC and drops sub-second precision.
func Normalize(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

// FormatStored renders t in StoredLayout (UTC).
func FormatStored(t time.Time) string {
	return t.UTC().Format(StoredLayout)
}

// ParseStored parses a value written by FormatStored.
func ParseStored(s string) (time.Time, error) {
	t, err := time.ParseInLocation(StoredLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored time %q: %w", s, err)
	}
	return t, nil
}

// ParseStoredPtr is ParseStored for nullable columns. nil and "" map to nil.
func ParseStoredPtr(s *string) (*time.Time, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	t, err := ParseStored(*s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// FormatStoredPtr is FormatStored for nullable columns.
func FormatStoredPtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := FormatStored(*t)
	return &s
}

// In converts t to loc for display. A nil loc keeps UTC.
func In(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		return t.UTC()
	}
	return t.In(loc)
}
