package timecode

import (
	"fmt"
	"strconv"
	"strings"
)

const rangeSeparator = " -> "

// ParseError reports a malformed timestamp or range string.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid timecode %q: %s", e.Input, e.Reason)
}

// Parse converts an "M:SS" timestamp into a count of seconds.
func Parse(s string) (int, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, &ParseError{Input: s, Reason: "missing ':' separator"}
	}

	minutes, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, &ParseError{Input: s, Reason: "minutes not numeric"}
	}
	seconds, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, &ParseError{Input: s, Reason: "seconds not numeric"}
	}

	if minutes < 0 {
		return 0, &ParseError{Input: s, Reason: "minutes negative"}
	}
	if seconds < 0 || seconds >= 60 {
		return 0, &ParseError{Input: s, Reason: "seconds out of range"}
	}

	return minutes*60 + seconds, nil
}

// ParseRange converts an "M:SS -> M:SS" range into start and end seconds.
func ParseRange(s string) (start, end int, err error) {
	left, right, found := strings.Cut(s, rangeSeparator)
	if !found {
		return 0, 0, &ParseError{Input: s, Reason: "missing '->' separator"}
	}

	start, err = Parse(strings.TrimSpace(left))
	if err != nil {
		return 0, 0, err
	}
	end, err = Parse(strings.TrimSpace(right))
	if err != nil {
		return 0, 0, err
	}

	return start, end, nil
}

// ParseStart returns only the start offset of a range.
func ParseStart(s string) (int, error) {
	start, _, err := ParseRange(s)
	return start, err
}

// Format renders a second count back into "M:SS".
func Format(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// FormatRange renders start and end seconds as "M:SS -> M:SS".
func FormatRange(start, end int) string {
	return Format(start) + rangeSeparator + Format(end)
}
