package compressor

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
)

var sizeUnits = []string{"B", "KiB", "MiB", "GiB", "TiB", "PiB", "EiB"}

// FormatSize renders n with two decimals in binary units, e.g. "1.00 KiB".
func FormatSize(n int64) string {
	if n <= 0 {
		return "0.00 B"
	}

	size := float64(n)
	exp := 0
	for size >= 1024 && exp < len(sizeUnits)-1 {
		size /= 1024
		exp++
	}
	// 1023.999 KiB would print as "1024.00 KiB".
	if math.Round(size*100) >= 1024*100 && exp < len(sizeUnits)-1 {
		size /= 1024
		exp++
	}
	return fmt.Sprintf("%.2f %s", size, sizeUnits[exp])
}

// ParseSize accepts sizes like "512MiB", "1.5 GB" or a plain byte count.
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	return int64(n), nil
}
