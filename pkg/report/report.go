// Package report renders aggregation results as a fixed-layout text report.
package report

import (
	"bufio"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/eunmann/prefix-verify/pkg/aggregate"
	"github.com/eunmann/prefix-verify/pkg/humanfmt"
)

// DefaultCountry replaces an empty Options.Country. DefaultTopN is the
// command-line default; a zero TopN prints an empty table.
const (
	DefaultCountry = "??"
	DefaultTopN    = 10
)

// Below this, an expected value is compared against the prefix count;
// at or above it, against the total address count.
const prefixCountThreshold = 10000

// Options controls what Render prints besides the result itself.
type Options struct {
	// Path is echoed in the header.
	Path string
	// Country is a display label only.
	Country string
	// Expected, when non-nil, adds a comparison section.
	Expected *int64
	// TopN is the number of largest prefixes to list.
	TopN int
}

var (
	heavyRule = strings.Repeat("=", 70)
	tableRule = strings.Repeat("-", 70)
	topRule   = strings.Repeat("-", 40)
)

// Render writes the report for res to w.
func Render(w io.Writer, res *aggregate.Result, opts Options) error {
	country := opts.Country
	if country == "" {
		country = DefaultCountry
	}

	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "Verifying prefix data for: %s\n", country)
	fmt.Fprintf(bw, "File: %s\n", opts.Path)
	fmt.Fprintln(bw, heavyRule)
	fmt.Fprintln(bw)

	fmt.Fprintf(bw, "Total prefixes:      %s\n", humanfmt.CommaUint64(res.PrefixCount))
	fmt.Fprintf(bw, "Total IP addresses:  %s\n", humanfmt.BigComma(res.TotalAddresses))
	fmt.Fprintln(bw)

	if opts.Expected != nil {
		writeComparison(bw, res, *opts.Expected)
	}

	writeDistribution(bw, res)
	writeTop(bw, res, opts.TopN)

	fmt.Fprintln(bw, heavyRule)
	fmt.Fprintln(bw, "Summary:")
	fmt.Fprintf(bw, "  - The source lists %s prefixes for %s\n", humanfmt.CommaUint64(res.PrefixCount), country)
	fmt.Fprintf(bw, "  - This represents %s total IP addresses\n", humanfmt.BigComma(res.TotalAddresses))
	fmt.Fprintf(bw, "  - An active scan would probe at most %s addresses\n", humanfmt.BigComma(res.TotalAddresses))
	fmt.Fprintln(bw)

	return bw.Flush()
}

// Difference returns actual minus expected and whether the comparison was
// made against the prefix count. Small expected values are taken to be
// prefix counts; this guess is inherited behavior and deliberately crude.
func Difference(res *aggregate.Result, expected int64) (diff *big.Int, byPrefixes bool) {
	if expected < prefixCountThreshold {
		actual := new(big.Int).SetUint64(res.PrefixCount)
		return actual.Sub(actual, big.NewInt(expected)), true
	}
	diff = new(big.Int).Sub(total(res), big.NewInt(expected))
	return diff, false
}

func writeComparison(w io.Writer, res *aggregate.Result, expected int64) {
	fmt.Fprintf(w, "Expected value:      %s\n", humanfmt.Comma(expected))
	diff, byPrefixes := Difference(res, expected)
	if byPrefixes {
		fmt.Fprintf(w, "Difference (prefixes): %s\n", humanfmt.SignedBigComma(diff))
	} else {
		fmt.Fprintf(w, "Difference (IPs):      %s\n", humanfmt.SignedBigComma(diff))
	}
	fmt.Fprintln(w)
}

func writeDistribution(w io.Writer, res *aggregate.Result) {
	fmt.Fprintln(w, "Prefix size distribution:")
	fmt.Fprintf(w, "%10s %8s %18s %18s\n", "Prefix", "Count", "IPs per prefix", "Total IPs")
	fmt.Fprintln(w, tableRule)

	for _, row := range res.Rows() {
		fmt.Fprintf(w, "/%-8d %8s %18s %18s\n",
			row.Length,
			humanfmt.CommaUint64(row.Count),
			humanfmt.BigComma(row.PerPrefix),
			humanfmt.BigComma(row.Addresses))
	}
	fmt.Fprintln(w)
}

func writeTop(w io.Writer, res *aggregate.Result, n int) {
	fmt.Fprintf(w, "Top %d largest prefixes:\n", n)
	fmt.Fprintf(w, "%20s %15s\n", "Prefix", "IP Count")
	fmt.Fprintln(w, topRule)

	for _, r := range res.Top(n) {
		fmt.Fprintf(w, "%20s %15s\n", r.Prefix, humanfmt.BigComma(r.Addresses))
	}
	fmt.Fprintln(w)
}

func total(res *aggregate.Result) *big.Int {
	if res.TotalAddresses == nil {
		return new(big.Int)
	}
	return res.TotalAddresses
}
