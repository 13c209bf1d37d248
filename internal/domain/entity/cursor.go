package entity

import (
	"strconv"
	"strings"
	"time"
)

// CompareCursor orders two pagination cursors and returns -1, 0 or +1.
//
// Cursors are provider defined. Decimal strings (unix seconds, numeric ids)
// compare numerically regardless of length. Media ids of the form
// "<media>_<user>" compare by media number, then user number. RFC 3339
// timestamps compare chronologically. Anything else falls back to byte order.
func CompareCursor(a, b string) int {
	if isDecimal(a) && isDecimal(b) {
		return compareDecimal(a, b)
	}

	if am, au, ok := splitMediaID(a); ok {
		if bm, bu, ok := splitMediaID(b); ok {
			if c := compareDecimal(am, bm); c != 0 {
				return c
			}
			return compareDecimal(au, bu)
		}
	}

	ta, errA := time.Parse(time.RFC3339, a)
	tb, errB := time.Parse(time.RFC3339, b)
	if errA == nil && errB == nil {
		return ta.Compare(tb)
	}

	return strings.Compare(a, b)
}

// UnixCursor formats t as a unix-seconds cursor.
func UnixCursor(t time.Time) string {
	return strconv.FormatInt(t.Unix(), 10)
}

// TimeCursor formats t as an RFC 3339 cursor in UTC.
func TimeCursor(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func compareDecimal(a, b string) int {
	a, b = strings.TrimLeft(a, "0"), strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

func splitMediaID(s string) (media, user string, ok bool) {
	media, user, ok = strings.Cut(s, "_")
	return media, user, ok && isDecimal(media) && isDecimal(user)
}

func isDecimal(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
