package debpkg

import (
	"math"
	"strconv"
)

var byteUnits = []string{"B", "KB", "MB", "GB", "TB", "PB", "EB", "ZB", "YB"}

// FormatByteSize renders size using the largest binary unit that keeps the
// magnitude below 1024. Byte values are always printed without decimals.
func FormatByteSize(size float64, precision int) string {
	unit := 0
	for math.Abs(size) >= 1024 && unit < len(byteUnits)-1 {
		size /= 1024
		unit++
	}

	if unit == 0 {
		precision = 0
	}

	return strconv.FormatFloat(size, 'f', precision, 64) + " " + byteUnits[unit]
}

// FormatInstalledSize converts an Installed-Size control value (KiB) into a
// human-readable string. Returns "" when the value is not a number.
func FormatInstalledSize(raw string) string {
	kib, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return ""
	}
	return FormatByteSize(kib*1024, 1)
}
