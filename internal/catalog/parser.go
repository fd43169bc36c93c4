package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"
)

// ParseOptions controls how malformed rows are handled.
type ParseOptions struct {
	// Lenient skips malformed rows instead of failing. Skipped rows are
	// logged and returned alongside the targets.
	Lenient bool
}

// Parse reads comma-separated "ra, dec, mag" rows with no header. Lines
// starting with '#' and blank lines are ignored, columns after the third
// are ignored and an empty magnitude is read as NaN.
func Parse(r io.Reader, opts ParseOptions, logger *slog.Logger) ([]Target, []*RowError, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var (
		targets []Target
		skipped []*RowError
	)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				rowErr := &RowError{Line: perr.Line, Reason: perr.Err.Error()}
				if !opts.Lenient {
					return nil, nil, rowErr
				}
				logger.Warn("skipping malformed catalog row", "line", rowErr.Line, "error", rowErr.Reason)
				skipped = append(skipped, rowErr)
				continue
			}
			return nil, nil, fmt.Errorf("reading catalog: %w", err)
		}

		line, _ := cr.FieldPos(0)
		t, rowErr := parseRow(rec, line)
		if rowErr != nil {
			if !opts.Lenient {
				return nil, nil, rowErr
			}
			logger.Warn("skipping malformed catalog row", "line", line, "error", rowErr.Reason)
			skipped = append(skipped, rowErr)
			continue
		}
		targets = append(targets, t)
	}
	return targets, skipped, nil
}

func parseRow(rec []string, line int) (Target, *RowError) {
	if len(rec) < 3 {
		return Target{}, &RowError{Line: line, Reason: fmt.Sprintf("expected 3 columns, got %d", len(rec))}
	}
	ra, err := parseCoord(rec[0])
	if err != nil {
		return Target{}, &RowError{Line: line, Reason: "ra: " + err.Error()}
	}
	dec, err := parseCoord(rec[1])
	if err != nil {
		return Target{}, &RowError{Line: line, Reason: "dec: " + err.Error()}
	}
	if dec < -90 || dec > 90 {
		return Target{}, &RowError{Line: line, Reason: fmt.Sprintf("dec %v outside [-90, 90]", dec)}
	}

	mag := math.NaN()
	if s := strings.TrimSpace(rec[2]); s != "" {
		mag, err = strconv.ParseFloat(s, 64)
		if err != nil {
			return Target{}, &RowError{Line: line, Reason: "mag: " + err.Error()}
		}
	}
	return Target{Line: line, RA: ra, Dec: dec, Mag: mag}, nil
}

func parseCoord(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not finite")
	}
	return v, nil
}
