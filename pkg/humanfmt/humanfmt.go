// Package humanfmt provides human-readable formatting for counts and durations.
package humanfmt

import (
	"fmt"
	"math/big"
	"time"

	"github.com/dustin/go-humanize"
)

// Comma formats n with thousands separators, e.g. "16,777,216".
func Comma(n int64) string {
	return humanize.Comma(n)
}

// CommaUint64 is like Comma but for uint64. Values above math.MaxInt64
// are formatted through BigComma.
func CommaUint64(n uint64) string {
	if n > 1<<63-1 {
		return BigComma(new(big.Int).SetUint64(n))
	}
	return humanize.Comma(int64(n))
}

// BigComma formats an arbitrary-precision integer with thousands separators.
// A nil value formats as "0". b is not modified.
func BigComma(b *big.Int) string {
	if b == nil {
		return "0"
	}
	// humanize.BigComma divides its argument in place.
	return humanize.BigComma(new(big.Int).Set(b))
}

// SignedBigComma is like BigComma but always carries a sign: "+1,024",
// "-7", "+0".
func SignedBigComma(b *big.Int) string {
	if b == nil || b.Sign() >= 0 {
		return "+" + BigComma(b)
	}
	return BigComma(b)
}

// Duration formats d compactly.
// Examples: "1.23s", "45.6ms", "789µs", "1m30s", "2h15m".
func Duration(d time.Duration) string {
	if d < 0 {
		return d.String()
	}

	switch {
	case d >= time.Hour:
		h := d / time.Hour
		m := (d % time.Hour) / time.Minute
		if m == 0 {
			return fmt.Sprintf("%dh", h)
		}
		return fmt.Sprintf("%dh%dm", h, m)
	case d >= time.Minute:
		m := d / time.Minute
		s := (d % time.Minute) / time.Second
		if s == 0 {
			return fmt.Sprintf("%dm", m)
		}
		return fmt.Sprintf("%dm%ds", m, s)
	case d >= time.Second:
		return fmt.Sprintf("%.2fs", d.Seconds())
	case d >= time.Millisecond:
		return fmt.Sprintf("%.1fms", float64(d)/float64(time.Millisecond))
	case d >= time.Microsecond:
		return fmt.Sprintf("%.1fµs", float64(d)/float64(time.Microsecond))
	default:
		return fmt.Sprintf("%dns", d.Nanoseconds())
	}
}
