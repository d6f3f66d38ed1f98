// Command fitar fits autoregressive lag coefficients to one column of a CSV
// file and prints them in the AR_COEFFICIENTS format.
//
// Usage:
//
//	go run ./cmd/fitar -csv history.csv -column temp -order 3
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/couchcryptid/weather-forecast-service/internal/adapter/csvfile"
	"github.com/couchcryptid/weather-forecast-service/internal/model"
)

func main() {
	defaults := model.DefaultFitOptions()

	path := flag.String("csv", "", "path to a CSV file with a header row")
	column := flag.String("column", "temp", "column to fit")
	order := flag.Int("order", defaults.Order, "number of lag coefficients")
	lower := flag.Float64("lower", defaults.Lower, "lower coefficient bound")
	upper := flag.Float64("upper", defaults.Upper, "upper coefficient bound")
	maxIter := flag.Int("max-iter", defaults.MaxIter, "maximum coordinate-descent sweeps")
	flag.Parse()

	if *path == "" {
		flag.Usage()
		os.Exit(1)
	}

	opts := defaults
	opts.Order = *order
	opts.Lower = *lower
	opts.Upper = *upper
	opts.MaxIter = *maxIter
	if opts.Order != len(defaults.Initial) {
		opts.Initial = nil
	}

	if err := run(os.Stdout, *path, *column, opts); err != nil {
		fmt.Fprintf(os.Stderr, "fitar: %v\n", err)
		os.Exit(1)
	}
}

func run(w io.Writer, path, column string, opts model.FitOptions) error {
	f, err := os.Open(path) //nolint:gosec // path comes from the command line
	if err != nil {
		return err
	}
	defer f.Close() //nolint:errcheck // read-only

	series, err := csvfile.ReadColumn(f, column)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	coeffs, err := model.FitCoefficients(series, opts)
	if err != nil {
		return err
	}

	parts := make([]string, len(coeffs))
	for i, c := range coeffs {
		parts[i] = strconv.FormatFloat(c, 'f', 6, 64)
	}
	fmt.Fprintf(w, "points:          %d\n", len(series))
	fmt.Fprintf(w, "squared error:   %.6f\n", model.SquaredError(series, coeffs))
	fmt.Fprintf(w, "AR_COEFFICIENTS=%s\n", strings.Join(parts, ","))
	return nil
}
