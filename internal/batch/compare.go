package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jwalitptl/gentacalc/internal/calc"
	"github.com/jwalitptl/gentacalc/internal/model"
)

const numericTolerance = 1e-6

// Expected holds reference outputs for a scenario. Nil fields are not
// checked, and an empty instruction matches anything.
type Expected struct {
	FirstDoseMg  *float64  `json:"first_dose_mg"`
	SecondDoseMg *float64  `json:"second_dose_mg"`
	ThirdDoseMg  *float64  `json:"third_dose_mg"`
	Instructions [3]string `json:"instructions"`
	ChosenGFR    *float64  `json:"chosen_gfr"`
	GFRBand      *int      `json:"gfr_band"`

	// NoDoses marks fixtures where the reference shows no doses at all.
	NoDoses bool `json:"no_doses"`
}

// Fixture pairs an input scenario with its reference outputs.
type Fixture struct {
	ID       int      `json:"id"`
	Input    Scenario `json:"input"`
	Expected Expected `json:"expected"`
}

// Difference is one field where the engine disagrees with the reference.
type Difference struct {
	Field    string `json:"field"`
	Expected any    `json:"expected"`
	Actual   any    `json:"actual"`
}

type Result struct {
	ID          int          `json:"id"`
	Input       Scenario     `json:"input"`
	Differences []Difference `json:"differences,omitempty"`
	Error       string       `json:"error,omitempty"`
}

// Summary aggregates a comparison run. Results keep the fixture order.
type Summary struct {
	Total      int      `json:"total"`
	Mismatches int      `json:"mismatches"`
	Errors     int      `json:"errors"`
	Results    []Result `json:"results"`
}

// OK reports whether every fixture matched.
func (s Summary) OK() bool {
	return s.Mismatches == 0 && s.Errors == 0
}

// LoadFixtures decodes a JSON array of fixtures.
func LoadFixtures(r io.Reader) ([]Fixture, error) {
	var fixtures []Fixture
	if err := json.NewDecoder(r).Decode(&fixtures); err != nil {
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}
	return fixtures, nil
}

func LoadFixturesFile(path string) ([]Fixture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fixtures: %w", err)
	}
	defer f.Close()
	return LoadFixtures(f)
}

// Runner evaluates fixtures concurrently with a bounded number of workers.
type Runner struct {
	engine  *calc.Engine
	workers int
	now     time.Time
}

// NewRunner creates a runner. A non-positive worker count uses GOMAXPROCS.
func NewRunner(engine *calc.Engine, workers int, now time.Time) *Runner {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Runner{engine: engine, workers: workers, now: now}
}

// Run compares every fixture. Engine rejections are reported per fixture;
// only cancellation of ctx aborts the run.
func (r *Runner) Run(ctx context.Context, fixtures []Fixture) (Summary, error) {
	results := make([]Result, len(fixtures))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, fx := range fixtures {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = r.evaluate(fx)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}
	if err := ctx.Err(); err != nil {
		return Summary{}, err
	}

	summary := Summary{Total: len(results), Results: results}
	for _, res := range results {
		switch {
		case res.Error != "":
			summary.Errors++
		case len(res.Differences) > 0:
			summary.Mismatches++
		}
	}
	return summary, nil
}

func (r *Runner) evaluate(fx Fixture) Result {
	res := Result{ID: fx.ID, Input: fx.Input}

	p, err := fx.Input.Patient()
	if err != nil {
		res.Error = err.Error()
		return res
	}
	plan, err := r.engine.Calculate(p, r.now)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Differences = Compare(fx.Expected, plan)
	return res
}

// Compare lists the fields where plan disagrees with the reference.
func Compare(exp Expected, plan model.DosingPlan) []Difference {
	var diffs []Difference
	add := func(field string, expected, actual any) {
		diffs = append(diffs, Difference{Field: field, Expected: expected, Actual: actual})
	}

	doses := []struct {
		field    string
		expected *float64
		actual   *int
	}{
		{"dose_1", exp.FirstDoseMg, plan.FirstDoseMg},
		{"dose_2", exp.SecondDoseMg, plan.SecondDoseMg},
		{"dose_3", exp.ThirdDoseMg, plan.ThirdDoseMg},
	}
	for _, d := range doses {
		switch {
		case d.expected != nil:
			if d.actual == nil || !equalNumeric(*d.expected, float64(*d.actual)) {
				add(d.field, *d.expected, intValue(d.actual))
			}
		case exp.NoDoses && d.actual != nil:
			add(d.field, nil, *d.actual)
		}
	}

	for i, text := range exp.Instructions {
		want := ParseInstruction(text)
		if want == nil {
			continue
		}
		got := ParseInstruction(plan.Instructions[i])
		if got == nil || *got != *want {
			add(fmt.Sprintf("instruction_%d", i+1), want, got)
		}
	}

	if exp.ChosenGFR != nil {
		got := plan.Context.ChosenGFR
		if got == nil || !equalNumeric(*exp.ChosenGFR, *got) {
			add("chosen_gfr", *exp.ChosenGFR, floatValue(got))
		}
	}
	if exp.GFRBand != nil {
		band := plan.Context.GFRBand
		if band == nil || int(*band) != *exp.GFRBand {
			var actual any
			if band != nil {
				actual = int(*band)
			}
			add("gfr_band", *exp.GFRBand, actual)
		}
	}
	return diffs
}

func equalNumeric(a, b float64) bool {
	return math.Abs(a-b) <= numericTolerance
}

func intValue(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func floatValue(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
