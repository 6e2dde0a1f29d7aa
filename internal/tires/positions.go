package tires

import (
	"strconv"
	"strings"
)

// NormalizePosition folds a wheel position to its canonical form. Positions
// arrive as "1", "1.0", " 3 " or the odd "LH" label; numeric values collapse
// to their integer spelling and everything else is trimmed and uppercased.
func NormalizePosition(position string) string {
	position = strings.ToUpper(strings.TrimSpace(position))
	if position == "" {
		return ""
	}
	if f, err := strconv.ParseFloat(position, 64); err == nil {
		if f == float64(int64(f)) {
			return strconv.FormatInt(int64(f), 10)
		}
	}
	return position
}
