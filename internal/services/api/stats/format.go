package stats

import (
	"errors"
	"fmt"
	"math"
)

var ErrNegativeSize = errors.New("bytes size must be non-negative")

var byteUnits = []string{"B", "KB", "MB", "GB", "TB"}

// FormatBytes renders n with two decimals in the largest 1024-based unit
// that keeps it below 1024, topping out at PB.
func FormatBytes(n float64) (string, error) {
	if n < 0 {
		return "", ErrNegativeSize
	}
	for _, unit := range byteUnits {
		if n < 1024 {
			return fmt.Sprintf("%.2f %s", n, unit), nil
		}
		n /= 1024
	}
	return fmt.Sprintf("%.2f PB", n), nil
}

// FormatTime renders elapsed seconds as "DDd HHh MMm SS.SSs".
func FormatTime(elapsed float64) string {
	days := math.Floor(elapsed / 86400)
	rem := elapsed - days*86400
	hours := math.Floor(rem / 3600)
	rem -= hours * 3600
	minutes := math.Floor(rem / 60)
	seconds := rem - minutes*60
	return fmt.Sprintf("%02dd %02dh %02dm %05.2fs", int(days), int(hours), int(minutes), seconds)
}
