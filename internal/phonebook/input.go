package phonebook

import (
	"math"
	"strings"
)

// EntryInput holds the fields of a "Name,Number[,Index]" argument.
type EntryInput struct {
	Name   string
	Number string
	Index  string
}

// ParseEntryInput splits s on commas into exactly n fields, where n is 2
// (name, number) or 3 (name, number, index). Fields are neither trimmed nor
// validated.
func ParseEntryInput(s string, n int) (EntryInput, error) {
	fields := strings.Split(s, ",")
	switch {
	case len(fields) > n:
		return EntryInput{}, ErrTooManyArguments
	case len(fields) < n:
		return EntryInput{}, ErrMissingArguments
	}

	in := EntryInput{Name: fields[0], Number: fields[1]}
	if n > 2 {
		in.Index = fields[2]
	}
	return in, nil
}

// atoi converts the leading decimal digits of s, after optional spaces and
// sign, the way C atoi does on LP64: the digits are read as a 64-bit long,
// saturating at its limits, and then truncated to 32 bits. Anything
// unparsable yields 0.
func atoi(s string) int32 {
	s = strings.TrimLeft(s, " \t\n\v\f\r")

	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}

	// Magnitude up to 1<<63 so that LONG_MIN is representable.
	var n uint64
	overflow := false
	for i := 0; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		d := uint64(s[i] - '0')
		if overflow || n > (1<<63-d)/10 {
			overflow = true
			continue
		}
		n = n*10 + d
	}

	var v int64
	switch {
	case neg && (overflow || n == 1<<63):
		v = math.MinInt64
	case neg:
		v = -int64(n)
	case overflow || n > math.MaxInt64:
		v = math.MaxInt64
	default:
		v = int64(n)
	}
	return int32(v)
}
