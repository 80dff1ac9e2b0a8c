// Package format renders byte counts and timers for display.
package format

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"
)

var sizeUnits = []string{"Bytes", "KB", "MB", "GB"}

// Size converts a byte count into a two-decimal magnitude with a binary unit
// suffix: 0 is "0 Bytes", 1536 is "1.50 KB". Units stop at GB, so larger
// values are expressed in GB. Negative counts are treated as 0.
func Size(b int64) string {
	if b <= 0 {
		return "0 Bytes"
	}
	unit := int(math.Floor(math.Log(float64(b)) / math.Log(1024)))
	if unit < 0 {
		unit = 0
	}
	if unit >= len(sizeUnits) {
		unit = len(sizeUnits) - 1
	}
	// Log rounding can land one unit off next to a power of 1024.
	for unit > 0 && float64(b) < math.Pow(1024, float64(unit)) {
		unit--
	}
	for unit < len(sizeUnits)-1 && float64(b) >= math.Pow(1024, float64(unit+1)) {
		unit++
	}
	return fmt.Sprintf("%.2f %s", float64(b)/math.Pow(1024, float64(unit)), sizeUnits[unit])
}

// Extension returns the upper-cased extension of name without the dot, or
// "FILE" when there is none.
func Extension(name string) string {
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	if ext == "" {
		return "FILE"
	}
	return strings.ToUpper(ext)
}

// Clock renders whole seconds as zero-padded mm:ss. Minutes are not capped
// at 59, so 3600 renders as "60:00".
func Clock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
