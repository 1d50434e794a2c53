// Package cli implements the command-line interface for prefix-verify.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/carlmjohnson/versioninfo"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/eunmann/prefix-verify/internal/logctx"
	"github.com/eunmann/prefix-verify/pkg/aggregate"
	"github.com/eunmann/prefix-verify/pkg/logging"
	"github.com/eunmann/prefix-verify/pkg/report"
)

const appName = "prefix-verify"

// EnvPrefix is prepended to flag names to form their environment variables,
// e.g. PREFIX_VERIFY_SHOW_TOP for --show-top.
const EnvPrefix = "PREFIX_VERIFY"

// ErrUsage indicates invalid or missing command-line flags.
var ErrUsage = errors.New("usage error")

// Config holds the parsed command-line configuration.
type Config struct {
	File     string
	Country  string
	Expected *int64
	ShowTop  int
	Debug    bool
	LogJSON  bool
	Version  bool
}

// ParseConfig parses args (and PREFIX_VERIFY_* environment variables) into
// a Config. Help requests return an error wrapping ff.ErrHelp and the help
// text to print.
func ParseConfig(args []string) (Config, string, error) {
	fs := ff.NewFlagSet(appName)
	file := fs.String('f', "file", "", "prefix list file, one CIDR per line (required)")
	country := fs.String('c', "country", report.DefaultCountry, "country code for display")
	expected := fs.String('e', "expected", "", "expected number of IPs or prefixes")
	showTop := fs.IntLong("show-top", report.DefaultTopN, "show top N largest prefixes")
	debug := fs.BoolLong("debug", "enable debug diagnostics")
	logJSON := fs.BoolLong("log-json", "write diagnostics as JSON")
	version := fs.BoolLong("version", "print version and exit")

	help := ffhelp.Flags(fs).String()

	if err := ff.Parse(fs, args, ff.WithEnvVarPrefix(EnvPrefix)); err != nil {
		if errors.Is(err, ff.ErrHelp) {
			return Config{}, help, err
		}
		return Config{}, help, fmt.Errorf("%w: %v", ErrUsage, err)
	}

	cfg := Config{
		File:    *file,
		Country: *country,
		ShowTop: *showTop,
		Debug:   *debug,
		LogJSON: *logJSON,
		Version: *version,
	}
	if cfg.Version {
		return cfg, help, nil
	}

	if rest := fs.GetArgs(); len(rest) > 0 {
		return Config{}, help, fmt.Errorf("%w: unexpected arguments: %v", ErrUsage, rest)
	}
	if cfg.File == "" {
		return Config{}, help, fmt.Errorf("%w: --file is required", ErrUsage)
	}
	if cfg.ShowTop < 0 {
		return Config{}, help, fmt.Errorf("%w: --show-top must not be negative, got %d", ErrUsage, cfg.ShowTop)
	}
	if *expected != "" {
		n, err := strconv.ParseInt(*expected, 10, 64)
		if err != nil {
			return Config{}, help, fmt.Errorf("%w: --expected: invalid integer %q", ErrUsage, *expected)
		}
		cfg.Expected = &n
	}

	return cfg, help, nil
}

// Run executes the CLI with the given arguments. The report goes to stdout;
// warnings and diagnostics go to stderr.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cfg, help, err := ParseConfig(args)
	if errors.Is(err, ff.ErrHelp) {
		fmt.Fprintln(stdout, help)
		return nil
	}
	if err != nil {
		return err
	}

	if cfg.Version {
		fmt.Fprintf(stdout, "%s %s\n", appName, versioninfo.Short())
		return nil
	}

	log := logging.New(stderr, logging.Options{Debug: cfg.Debug, JSON: cfg.LogJSON})
	ctx = logctx.WithLogger(ctx, log)
	ctx = logctx.WithStr(ctx, "file", cfg.File)

	res, err := aggregate.File(ctx, cfg.File)
	if err != nil {
		return err
	}

	opts := report.Options{
		Path:     cfg.File,
		Country:  cfg.Country,
		Expected: cfg.Expected,
		TopN:     cfg.ShowTop,
	}
	if err := report.Render(stdout, res, opts); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	logger := logctx.FromContext(ctx)
	logger.Debug().
		Uint64("prefixes", res.PrefixCount).
		Int("skipped", res.Skipped).
		Msg("report written")

	return nil
}

// ExitCode maps an error returned by Run to a process exit code:
// 2 for usage errors, 1 for everything else, 0 for nil.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrUsage):
		return 2
	default:
		return 1
	}
}
