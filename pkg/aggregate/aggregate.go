// Package aggregate reads prefix-list files and accumulates address-space
// statistics: prefix count, total addresses, a histogram by prefix length,
// and the per-line records used for ranking the largest prefixes.
package aggregate

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math/big"
	"os"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/eunmann/prefix-verify/internal/logctx"
	"github.com/eunmann/prefix-verify/pkg/cidr"
	"github.com/eunmann/prefix-verify/pkg/humanfmt"
)

// ErrFileNotFound indicates the input file does not exist.
var ErrFileNotFound = errors.New("file not found")

// Record is one successfully parsed line.
type Record struct {
	// Prefix is the line text as it appeared in the file, trimmed.
	Prefix string
	// Addresses is the size of the network's address space.
	Addresses *big.Int
}

// Bucket holds the statistics for one prefix length.
type Bucket struct {
	Count     uint64
	Addresses *big.Int
}

// Result is the outcome of one aggregation run.
type Result struct {
	TotalAddresses *big.Int
	PrefixCount    uint64
	// Sizes maps prefix length to its bucket.
	Sizes map[int]*Bucket
	// Records are kept in file order.
	Records []Record
	// Skipped counts lines that failed to parse.
	Skipped int

	// families splits Sizes by address width, so a /24 of IPv4 and a /24
	// of IPv6 are sized separately.
	families map[familyKey]*Bucket
}

type familyKey struct {
	addrBits int
	length   int
}

// SizeRow is one row of the size distribution: the prefixes of a given
// length within one address family.
type SizeRow struct {
	Length int
	// AddrBits is 32 for IPv4 and 128 for IPv6.
	AddrBits  int
	Count     uint64
	PerPrefix *big.Int
	Addresses *big.Int
}

// Rows returns the size distribution ordered by prefix length, IPv4
// before IPv6 where both families share a length. PerPrefix is
// 2^(AddrBits-Length).
func (r *Result) Rows() []SizeRow {
	rows := make([]SizeRow, 0, len(r.families))
	for k, b := range r.families {
		rows = append(rows, SizeRow{
			Length:    k.length,
			AddrBits:  k.addrBits,
			Count:     b.Count,
			PerPrefix: new(big.Int).Lsh(big.NewInt(1), uint(k.addrBits-k.length)),
			Addresses: b.Addresses,
		})
	}
	slices.SortFunc(rows, func(a, b SizeRow) int {
		if a.Length != b.Length {
			return a.Length - b.Length
		}
		return a.AddrBits - b.AddrBits
	})
	return rows
}

// Lengths returns the prefix lengths present in Sizes in ascending order.
func (r *Result) Lengths() []int {
	lengths := make([]int, 0, len(r.Sizes))
	for l := range r.Sizes {
		lengths = append(lengths, l)
	}
	slices.Sort(lengths)
	return lengths
}

// Top returns the n records with the most addresses, largest first.
// Records of equal size keep their file order. Records itself is not
// reordered.
func (r *Result) Top(n int) []Record {
	if n <= 0 || len(r.Records) == 0 {
		return nil
	}

	sorted := slices.Clone(r.Records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Addresses.Cmp(sorted[j].Addresses) > 0
	})

	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:n]
}

// LineParseError reports a line that is not a network expression.
type LineParseError struct {
	LineNo int
	Line   string
	Err    error
}

func (e *LineParseError) Error() string {
	return fmt.Sprintf("line %d: error parsing %s: %v", e.LineNo, e.Line, e.Err)
}

func (e *LineParseError) Unwrap() error {
	return e.Err
}

// Aggregator accumulates a Result one line at a time.
type Aggregator struct {
	res *Result
}

// New creates an empty Aggregator.
func New() *Aggregator {
	return &Aggregator{
		res: &Result{
			TotalAddresses: new(big.Int),
			Sizes:          make(map[int]*Bucket),
			families:       make(map[familyKey]*Bucket),
		},
	}
}

// Add parses line and folds it into the result. Host bits set in the
// expression are masked rather than rejected. A malformed line leaves the
// result unchanged and returns a *LineParseError.
func (a *Aggregator) Add(lineNo int, line string) error {
	p, err := cidr.Parse(line)
	if err != nil {
		a.res.Skipped++
		return &LineParseError{LineNo: lineNo, Line: line, Err: err}
	}

	n := cidr.AddressCount(p)
	a.res.PrefixCount++
	a.res.TotalAddresses.Add(a.res.TotalAddresses, n)

	b, ok := a.res.Sizes[p.Bits()]
	if !ok {
		b = &Bucket{Addresses: new(big.Int)}
		a.res.Sizes[p.Bits()] = b
	}
	b.Count++
	b.Addresses.Add(b.Addresses, n)

	key := familyKey{addrBits: p.Addr().BitLen(), length: p.Bits()}
	fb, ok := a.res.families[key]
	if !ok {
		fb = &Bucket{Addresses: new(big.Int)}
		a.res.families[key] = fb
	}
	fb.Count++
	fb.Addresses.Add(fb.Addresses, n)

	a.res.Records = append(a.res.Records, Record{Prefix: line, Addresses: n})
	return nil
}

// Result returns the accumulated result.
func (a *Aggregator) Result() *Result {
	return a.res
}

// File aggregates the prefix list at path. A missing file yields an error
// wrapping ErrFileNotFound; any other open or read failure is returned
// as is.
func File(ctx context.Context, path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	return Read(ctx, f)
}

// Read aggregates one network expression per line from r. Blank lines are
// ignored and surrounding whitespace is trimmed. Lines that fail to parse
// are logged as warnings through the context logger and skipped.
func Read(ctx context.Context, r io.Reader) (*Result, error) {
	log := logctx.FromContext(ctx)
	start := time.Now()
	agg := New()
	br := bufio.NewReader(r)

	for lineNo := 1; ; lineNo++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		raw, readErr := br.ReadString('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return nil, fmt.Errorf("read line %d: %w", lineNo, readErr)
		}

		if line := strings.TrimSpace(raw); line != "" {
			if err := agg.Add(lineNo, line); err != nil {
				var lpe *LineParseError
				if errors.As(err, &lpe) {
					log.Warn().
						Int("line_no", lpe.LineNo).
						Str("line", lpe.Line).
						Err(lpe.Err).
						Msg("error parsing prefix")
				}
			}
		}

		if readErr != nil {
			break
		}
	}

	res := agg.Result()
	log.Debug().
		Uint64("prefixes", res.PrefixCount).
		Int("skipped", res.Skipped).
		Str("total_addresses", res.TotalAddresses.String()).
		Int("distinct_lengths", len(res.Sizes)).
		Str("elapsed", humanfmt.Duration(time.Since(start))).
		Msg("aggregated prefix list")

	return res, nil
}
