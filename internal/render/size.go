package render

import (
	"fmt"
	"strings"
)

var sizeUnits = []string{"bytes", "KB", "MB", "GB", "TB"}

// FormatSize formats a byte count as a human-readable string with 1024
// thresholds. Values in bytes print as integers; larger units use two
// decimals with trailing zeros and decimal point trimmed ("1.5 KB").
// Negative input returns "0".
func FormatSize(size int) string {
	if size < 0 {
		return "0"
	}

	value := float64(size)
	i := 0
	for value >= 1024 && i < len(sizeUnits)-1 {
		value /= 1024
		i++
	}

	if i == 0 {
		return fmt.Sprintf("%d %s", size, sizeUnits[i])
	}

	num := strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", value), "0"), ".")
	return fmt.Sprintf("%s %s", num, sizeUnits[i])
}
