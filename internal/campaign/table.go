// Package campaign provides the K2 campaign table: field pointings, roll
// angles, observing dates and the channels lost to hardware failures.
//
// The table ships embedded in the binary. A refreshed copy can be fetched
// over HTTP, kept in a disk cache and published through a Store.
package campaign

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/mrtommyb/K2fov/internal/fov"
	"github.com/mrtommyb/K2fov/internal/layout"
)

//go:embed data/k2_campaigns.json
var embeddedTable []byte

const dateLayout = "2006-01-02"

// ErrUnknownCampaign is returned when a campaign id is not in the table.
var ErrUnknownCampaign = errors.New("unknown campaign")

// ErrInvalidTable is returned for malformed campaign tables.
var ErrInvalidTable = errors.New("invalid campaign table")

var (
	// Modules 3 and 7 failed before K2 began.
	initialBroken = []int{5, 6, 7, 8, 17, 18, 19, 20}

	// Module 4 failed during campaign 10; campaigns starting after this
	// date lose its channels.
	module4Broken = []int{9, 10, 11, 12}
	module4Failed = time.Date(2016, 7, 20, 0, 0, 0, 0, time.UTC)
)

// Table is an immutable, validated campaign table.
type Table struct {
	order  []string
	fields map[string]Field
	start  map[string]time.Time
	stop   map[string]time.Time
}

// Embedded parses the campaign table compiled into the binary.
func Embedded() (*Table, error) {
	return Parse(bytes.NewReader(embeddedTable))
}

// EmbeddedJSON returns the raw embedded table.
func EmbeddedJSON() []byte {
	return append([]byte(nil), embeddedTable...)
}

// Parse reads and validates a JSON campaign table.
func Parse(r io.Reader) (*Table, error) {
	var tf tableFile
	if err := json.NewDecoder(r).Decode(&tf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTable, err)
	}
	if len(tf.FieldNumbers) == 0 {
		return nil, fmt.Errorf("%w: no fields", ErrInvalidTable)
	}

	t := &Table{
		fields: make(map[string]Field, len(tf.FieldNumbers)),
		start:  make(map[string]time.Time, len(tf.FieldNumbers)),
		stop:   make(map[string]time.Time, len(tf.FieldNumbers)),
	}
	for _, id := range tf.FieldNumbers {
		f, ok := tf.Fields[id]
		if !ok {
			return nil, fmt.Errorf("%w: field %s listed but not defined", ErrInvalidTable, id)
		}
		if f.Dec < -90 || f.Dec > 90 {
			return nil, fmt.Errorf("%w: field %s dec %v", ErrInvalidTable, id, f.Dec)
		}
		start, err := time.Parse(dateLayout, f.Start)
		if err != nil {
			return nil, fmt.Errorf("%w: field %s start: %v", ErrInvalidTable, id, err)
		}
		stop, err := time.Parse(dateLayout, f.Stop)
		if err != nil {
			return nil, fmt.Errorf("%w: field %s stop: %v", ErrInvalidTable, id, err)
		}
		if stop.Before(start) {
			return nil, fmt.Errorf("%w: field %s stops before it starts", ErrInvalidTable, id)
		}
		f.Campaign = id
		t.order = append(t.order, id)
		t.fields[id] = f
		t.start[id] = start
		t.stop[id] = stop
	}
	return t, nil
}

// NormalizeID accepts "9", "c9", "C9" or " 09 " and returns "9".
func NormalizeID(id string) string {
	id = strings.TrimSpace(id)
	id = strings.TrimPrefix(strings.TrimPrefix(id, "c"), "C")
	if n, err := strconv.Atoi(id); err == nil {
		return strconv.Itoa(n)
	}
	return id
}

// FieldNumbers returns every campaign id in table order.
func (t *Table) FieldNumbers() []string {
	return append([]string(nil), t.order...)
}

// Lookup returns the field for id. Preliminary pointings are logged at warn
// level when logger is non-nil.
func (t *Table) Lookup(id string, logger *slog.Logger) (Field, error) {
	key := NormalizeID(id)
	f, ok := t.fields[key]
	if !ok {
		return Field{}, fmt.Errorf("%w: %q", ErrUnknownCampaign, id)
	}
	if f.Preliminary && logger != nil {
		logger.Warn("campaign position is preliminary, do not use it for final target selection",
			"campaign", key)
	}
	return f, nil
}

// BrokenChannels returns the channels unavailable during campaign id.
// Failures accumulate: a channel lost in one campaign stays lost.
func (t *Table) BrokenChannels(id string) ([]int, error) {
	key := NormalizeID(id)
	start, ok := t.start[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCampaign, id)
	}
	out := append([]int(nil), initialBroken...)
	if start.After(module4Failed) {
		out = append(out, module4Broken...)
	}
	return out, nil
}

// Pointing returns the pointing, roll, broken channels and dates of id.
func (t *Table) Pointing(id string, logger *slog.Logger) (Pointing, error) {
	f, err := t.Lookup(id, logger)
	if err != nil {
		return Pointing{}, err
	}
	broken, err := t.BrokenChannels(f.Campaign)
	if err != nil {
		return Pointing{}, err
	}
	return Pointing{
		Campaign:       f.Campaign,
		RA:             f.RA,
		Dec:            f.Dec,
		SpacecraftRoll: f.Roll,
		FovRoll:        fov.FovRollFromSpacecraftRoll(f.Roll),
		BrokenChannels: broken,
		Start:          t.start[f.Campaign],
		Stop:           t.stop[f.Campaign],
		Preliminary:    f.Preliminary,
	}, nil
}

// FieldOfView builds the field of view of campaign id.
func (t *Table) FieldOfView(id string, l *layout.Layout, logger *slog.Logger) (*fov.FieldOfView, error) {
	p, err := t.Pointing(id, logger)
	if err != nil {
		return nil, err
	}
	f, err := fov.New(fov.Pointing{RA: p.RA, Dec: p.Dec, Roll: p.FovRoll},
		fov.NewBrokenChannelSet(p.BrokenChannels...), l, logger)
	if err != nil {
		return nil, fmt.Errorf("campaign %s: %w", p.Campaign, err)
	}
	return f, nil
}
