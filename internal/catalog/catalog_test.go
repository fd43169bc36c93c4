package catalog

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/mrtommyb/K2fov/internal/fov"
	"github.com/mrtommyb/K2fov/internal/layout"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func testFOV(t *testing.T, broken ...int) *fov.FieldOfView {
	t.Helper()
	l, err := layout.Default()
	if err != nil {
		t.Fatal(err)
	}
	f, err := fov.New(fov.Pointing{}, fov.NewBrokenChannelSet(broken...), l, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func TestParse(t *testing.T) {
	in := `# ra, dec, mag
269.5, -28.5, 12.3

270.1,-27.9,14
  10.0 , 20.0 , , extra
`
	targets, skipped, err := Parse(strings.NewReader(in), ParseOptions{}, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if len(skipped) != 0 {
		t.Errorf("unexpected skipped rows: %v", skipped)
	}
	if len(targets) != 3 {
		t.Fatalf("expected 3 targets, got %d", len(targets))
	}

	if targets[0].RA != 269.5 || targets[0].Dec != -28.5 || targets[0].Mag != 12.3 || targets[0].Line != 2 {
		t.Errorf("row 0 = %+v", targets[0])
	}
	if targets[1].Line != 4 || targets[1].Mag != 14 {
		t.Errorf("row 1 = %+v", targets[1])
	}
	if targets[2].RA != 10 || targets[2].Dec != 20 || !math.IsNaN(targets[2].Mag) {
		t.Errorf("row 2 = %+v", targets[2])
	}
}

func TestParseMalformed(t *testing.T) {
	tests := []struct {
		name string
		in   string
		line int
	}{
		{"too few columns", "1, 2, 3\n4, 5\n", 2},
		{"bad ra", "abc, 2, 3\n", 1},
		{"bad dec", "1, x, 3\n", 1},
		{"dec out of range", "1, 2, 3\n1, 95, 3\n", 2},
		{"bad mag", "1, 2, bright\n", 1},
		{"infinite ra", "+Inf, 2, 3\n", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Parse(strings.NewReader(tt.in), ParseOptions{}, testLogger())
			if !errors.Is(err, ErrMalformedRow) {
				t.Fatalf("err = %v, want ErrMalformedRow", err)
			}
			var rowErr *RowError
			if !errors.As(err, &rowErr) || rowErr.Line != tt.line {
				t.Errorf("err = %v, want line %d", err, tt.line)
			}
		})
	}
}

func TestParseLenient(t *testing.T) {
	in := "1, 2, 3\nbad row\n4, 5, 6\n7, 100, 8\n"
	targets, skipped, err := Parse(strings.NewReader(in), ParseOptions{Lenient: true}, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if len(targets) != 2 {
		t.Errorf("expected 2 targets, got %d", len(targets))
	}
	if len(skipped) != 2 || skipped[0].Line != 2 || skipped[1].Line != 4 {
		t.Errorf("skipped = %v", skipped)
	}
}

func TestClassify(t *testing.T) {
	f := testFOV(t)
	ra, dec, err := f.ChannelCenter(43)
	if err != nil {
		t.Fatal(err)
	}
	opts := Options{Padding: 0, NearSiliconSep: fov.DefaultNearSiliconSep}

	tests := []struct {
		name string
		t    Target
		want Flag
	}{
		{"channel centre", Target{RA: ra, Dec: dec}, OnSilicon},
		{"boresight gap", Target{RA: 0, Dec: 0}, NearSilicon},
		{"antipode", Target{RA: 180, Dec: 0}, NotOnSilicon},
		{"20 deg away", Target{RA: 0, Dec: 20}, NotOnSilicon},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(f, tt.t, opts); got != tt.want {
				t.Errorf("Classify = %v, want %v", got, tt.want)
			}
		})
	}

	broken := testFOV(t, 43)
	if got := Classify(broken, Target{RA: ra, Dec: dec}, opts); got != NearSilicon {
		t.Errorf("broken channel centre = %v, want %v", got, NearSilicon)
	}
}

// TestClassifyBatchMatchesSerial verifies the pool keeps input order and
// agrees with Classify.
func TestClassifyBatchMatchesSerial(t *testing.T) {
	f := testFOV(t)
	var targets []Target
	for i := 0; i < 200; i++ {
		targets = append(targets, Target{Line: i + 1, RA: float64(i%20) - 10, Dec: float64(i/20) - 5, Mag: 10})
	}

	pool := NewWorkerPool(4, testLogger())
	got, err := pool.ClassifyBatch(context.Background(), f, targets, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(targets) {
		t.Fatalf("got %d results, want %d", len(got), len(targets))
	}
	for i, c := range got {
		if c.Target != targets[i] {
			t.Fatalf("result %d is for %+v, want %+v", i, c.Target, targets[i])
		}
		if want := Classify(f, targets[i], DefaultOptions()); c.Flag != want {
			t.Errorf("target %d flag = %v, want %v", i, c.Flag, want)
		}
	}

	summary := Summary(got)
	if summary[OnSilicon] == 0 || summary[NotOnSilicon] == 0 {
		t.Errorf("expected a mix of flags, got %v", summary)
	}
}

func TestClassifyBatchCancelled(t *testing.T) {
	f := testFOV(t)
	targets := make([]Target, 10000)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewWorkerPool(1, testLogger()).ClassifyBatch(ctx, f, targets, DefaultOptions())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestClassifyBatchEmpty(t *testing.T) {
	got, err := NewWorkerPool(0, testLogger()).ClassifyBatch(context.Background(), testFOV(t), nil, DefaultOptions())
	if err != nil || got != nil {
		t.Errorf("got %v, %v", got, err)
	}
}

func TestWrite(t *testing.T) {
	rows := []Classified{
		{Target: Target{RA: 269.5, Dec: -28.5, Mag: 12.3456}, Flag: OnSilicon},
		{Target: Target{RA: 1, Dec: 2, Mag: math.NaN()}, Flag: NotOnSilicon},
	}
	var buf bytes.Buffer
	if err := Write(&buf, rows); err != nil {
		t.Fatal(err)
	}
	want := "269.5000000000, -28.5000000000,      12.35, 2\n1.0000000000, 2.0000000000,        NaN, 0\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestFlagString(t *testing.T) {
	if OnSilicon.String() != "on_silicon" || Flag(7).String() != "flag(7)" {
		t.Error("unexpected flag names")
	}
}
