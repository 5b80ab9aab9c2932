package timer

import (
	"fmt"
	"strings"
	"time"
)

const maxFractionDigits = 7

// Format renders the time left before completion with a custom duration
// pattern:
//
//	d..dddddddd  whole days, zero padded to the number of letters
//	h, hh        hours of the day
//	m, mm        minutes of the hour
//	s, ss        seconds of the minute
//	f..fffffff   fraction of the second, truncated
//	F..FFFFFFF   like f, without trailing zeros
//	'x', "x"     literal text
//	\x           literal character
//
// Other characters are copied as they are. If trimZeros is set, leading
// spaces, zeros, colons and unit letters are removed from the result, so
// "00:01:05" becomes "1:05".
func (t *Timer) Format(pattern string, trimZeros bool) string {
	left := time.Duration(float64(t.left()) * float64(time.Second))

	s := formatDuration(left, pattern)
	if trimZeros {
		s = strings.TrimLeft(s, " dhms0:")
	}

	return s
}

func formatDuration(d time.Duration, pattern string) string {
	if d < 0 {
		d = -d
	}

	days := int64(d / (24 * time.Hour))
	hours := int64(d/time.Hour) % 24
	minutes := int64(d/time.Minute) % 60
	seconds := int64(d/time.Second) % 60
	fraction := fmt.Sprintf("%07d", int64(d%time.Second)/100)

	var b strings.Builder

	runes := []rune(pattern)
	for i := 0; i < len(runes); {
		c := runes[i]

		switch c {
		case 'd', 'h', 'm', 's', 'f', 'F':
			n := runLength(runes, i)
			i += n

			switch c {
			case 'd':
				fmt.Fprintf(&b, "%0*d", n, days)
			case 'h':
				fmt.Fprintf(&b, "%0*d", min(n, 2), hours)
			case 'm':
				fmt.Fprintf(&b, "%0*d", min(n, 2), minutes)
			case 's':
				fmt.Fprintf(&b, "%0*d", min(n, 2), seconds)
			case 'f':
				b.WriteString(fraction[:min(n, maxFractionDigits)])
			case 'F':
				b.WriteString(strings.TrimRight(
					fraction[:min(n, maxFractionDigits)], "0"))
			}
		case '\'', '"':
			end := i + 1
			for end < len(runes) && runes[end] != c {
				end++
			}

			b.WriteString(string(runes[i+1 : end]))
			i = end + 1
		case '\\':
			if i+1 < len(runes) {
				b.WriteRune(runes[i+1])
			}

			i += 2
		default:
			b.WriteRune(c)
			i++
		}
	}

	return b.String()
}

func runLength(runes []rune, start int) int {
	n := 1
	for start+n < len(runes) && runes[start+n] == runes[start] {
		n++
	}

	return n
}
