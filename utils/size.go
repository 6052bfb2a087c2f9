package utils

import "fmt"

// ByteSize formats a byte count for reports.
type ByteSize int64

const (
	Byte ByteSize = 1
	KB   ByteSize = 1024 * Byte
	MB   ByteSize = 1024 * KB
	GB   ByteSize = 1024 * MB
)

func (b ByteSize) String() string {
	if b <= 0 {
		return "0B"
	}

	format := func(val float64, unit string) string {
		if val == float64(int64(val)) {
			return fmt.Sprintf("%.0f%s", val, unit)
		}
		return fmt.Sprintf("%.1f%s", val, unit)
	}

	switch {
	case b >= GB:
		return format(float64(b)/float64(GB), "G")
	case b >= MB:
		return format(float64(b)/float64(MB), "M")
	case b >= KB:
		return format(float64(b)/float64(KB), "K")
	default:
		return fmt.Sprintf("%dB", b)
	}
}
