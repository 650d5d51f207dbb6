// Package bytesize parses and formats human-readable byte sizes for
// configuration values such as the sync recognition size limit.
// Units are binary (1024-based); "10MB", "1.5 GB" and bare byte counts
// are all accepted.
package bytesize

import (
	"fmt"
	"strconv"
	"strings"
)

// Size is a byte count.
type Size int64

// Binary unit constants.
const (
	B  Size = 1
	KB Size = 1 << 10
	MB Size = 1 << 20
	GB Size = 1 << 30
	TB Size = 1 << 40
)

var units = map[string]Size{
	"":      B,
	"b":     B,
	"byte":  B,
	"bytes": B,
	"k":     KB,
	"kb":    KB,
	"kib":   KB,
	"m":     MB,
	"mb":    MB,
	"mib":   MB,
	"g":     GB,
	"gb":    GB,
	"gib":   GB,
	"t":     TB,
	"tb":    TB,
	"tib":   TB,
}

// Parse converts a string like "10MB", "1.5 GB" or "1024" into a Size.
// A missing unit means bytes. Unit names are case-insensitive.
func Parse(s string) (Size, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, fmt.Errorf("bytesize: empty string")
	}

	// Split the numeric prefix from the unit suffix.
	cut := len(trimmed)
	for i, r := range trimmed {
		if (r < '0' || r > '9') && r != '.' {
			cut = i
			break
		}
	}
	numPart := trimmed[:cut]
	unitPart := strings.ToLower(strings.TrimSpace(trimmed[cut:]))

	if numPart == "" {
		return 0, fmt.Errorf("bytesize: invalid format %q", s)
	}
	value, err := strconv.ParseFloat(numPart, 64)
	if err != nil {
		return 0, fmt.Errorf("bytesize: invalid number %q: %w", numPart, err)
	}

	mult, ok := units[unitPart]
	if !ok {
		return 0, fmt.Errorf("bytesize: unknown unit %q", unitPart)
	}
	return Size(value * float64(mult)), nil
}

// Format renders the size using the largest unit with a value >= 1,
// trimming insignificant fraction digits: 5242880 -> "5MB", 1536 -> "1.5KB".
func Format(s Size) string {
	if s == 0 {
		return "0B"
	}
	neg := ""
	if s < 0 {
		neg, s = "-", -s
	}

	type step struct {
		unit Size
		name string
	}
	for _, st := range []step{{TB, "TB"}, {GB, "GB"}, {MB, "MB"}, {KB, "KB"}} {
		if s >= st.unit {
			v := float64(s) / float64(st.unit)
			if v == float64(int64(v)) {
				return fmt.Sprintf("%s%d%s", neg, int64(v), st.name)
			}
			out := strconv.FormatFloat(v, 'f', 2, 64)
			out = strings.TrimRight(strings.TrimRight(out, "0"), ".")
			return neg + out + st.name
		}
	}
	return fmt.Sprintf("%s%dB", neg, int64(s))
}

// Bytes returns the size as a plain int64.
func (s Size) Bytes() int64 { return int64(s) }

// String implements fmt.Stringer.
func (s Size) String() string { return Format(s) }
