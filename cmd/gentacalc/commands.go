package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jwalitptl/gentacalc/internal/batch"
	"github.com/jwalitptl/gentacalc/internal/calc"
	"github.com/jwalitptl/gentacalc/internal/model"
	"github.com/jwalitptl/gentacalc/internal/texts"
	"github.com/jwalitptl/gentacalc/pkg/validator"
)

const (
	nowLayout     = "2006-01-02T15:04"
	sampleDiffMax = 5
)

func newRootCmd(out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:          "gentacalc",
		Short:        "Gentamicin dosing calculator tools",
		SilenceUsage: true,
	}
	root.SetOut(out)
	root.PersistentFlags().String("tz", "Europe/Oslo", "IANA timezone for --now and the default clock")
	root.PersistentFlags().String("texts", "", "alert text table (defaults to the embedded table)")

	root.AddCommand(calcCmd())
	root.AddCommand(scenariosCmd())
	root.AddCommand(compareCmd())
	return root
}

func calcCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Calculate a dosing plan and print it as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			payload := map[string]any{}
			for _, name := range []string{"sex", "age", "weight", "height", "creatinine", "mg-per-kg", "first-dose-hour"} {
				if !flags.Changed(name) {
					continue
				}
				v, _ := flags.GetString(name)
				payload[payloadKey(name)] = v
			}

			input, err := validator.ParsePatient(payload)
			if err != nil {
				return err
			}

			now, err := resolveNow(cmd)
			if err != nil {
				return err
			}
			engine, err := newEngine(cmd)
			if err != nil {
				return err
			}
			plan, err := engine.Calculate(input, now)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), model.NewPlanResponse(plan))
		},
	}

	cmd.Flags().String("sex", "", "kvinne/female or mann/male")
	cmd.Flags().String("age", "", "age in years")
	cmd.Flags().String("weight", "", "weight in kg")
	cmd.Flags().String("height", "", "height in cm (optional)")
	cmd.Flags().String("creatinine", "", "serum creatinine in µmol/L")
	cmd.Flags().String("mg-per-kg", "", "target dose in mg/kg")
	cmd.Flags().String("first-dose-hour", "", "hour of the first dose (1-24)")
	cmd.Flags().String("now", "", "reference time as "+nowLayout+" (defaults to the current time)")
	return cmd
}

func scenariosCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scenarios",
		Short: "Write a sampled scenario grid as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("max")
			seed, _ := cmd.Flags().GetInt64("seed")
			if limit <= 0 {
				return fmt.Errorf("--max must be positive")
			}
			return writeJSON(cmd.OutOrStdout(), batch.GenerateScenarios(limit, seed))
		},
	}
	cmd.Flags().Int("max", 1500, "maximum number of scenarios")
	cmd.Flags().Int64("seed", batch.DefaultSeed, "sampling seed")
	return cmd
}

func compareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare engine output against reference fixtures",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("fixtures")
			workers, _ := cmd.Flags().GetInt("workers")
			output, _ := cmd.Flags().GetString("output")
			if path == "" {
				return fmt.Errorf("--fixtures is required")
			}

			fixtures, err := batch.LoadFixturesFile(path)
			if err != nil {
				return err
			}
			now, err := resolveNow(cmd)
			if err != nil {
				return err
			}
			engine, err := newEngine(cmd)
			if err != nil {
				return err
			}

			summary, err := batch.NewRunner(engine, workers, now).Run(context.Background(), fixtures)
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), summary)

			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create output: %w", err)
				}
				defer f.Close()
				if err := writeJSON(f, summary); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote detailed comparison to %s\n", output)
			}

			if !summary.OK() {
				return fmt.Errorf("%d mismatches, %d errors", summary.Mismatches, summary.Errors)
			}
			return nil
		},
	}
	cmd.Flags().String("fixtures", "", "JSON file with reference fixtures")
	cmd.Flags().Int("workers", 0, "concurrent workers (defaults to GOMAXPROCS)")
	cmd.Flags().String("output", "", "write the full comparison as JSON")
	cmd.Flags().String("now", "", "reference time as "+nowLayout+" (defaults to the current time)")
	return cmd
}

func printSummary(w io.Writer, s batch.Summary) {
	fmt.Fprintf(w, "Evaluated scenarios: %d\n", s.Total)
	fmt.Fprintf(w, "Mismatches found: %d\n", s.Mismatches)
	fmt.Fprintf(w, "Errors: %d\n", s.Errors)

	shown := 0
	for _, res := range s.Results {
		if shown == sampleDiffMax {
			break
		}
		if len(res.Differences) == 0 && res.Error == "" {
			continue
		}
		if shown == 0 {
			fmt.Fprintln(w, "\nSample mismatches:")
		}
		shown++
		fmt.Fprintf(w, "Scenario #%d: %+v\n", res.ID, res.Input)
		if res.Error != "" {
			fmt.Fprintf(w, "  error: %s\n", res.Error)
		}
		for _, d := range res.Differences {
			fmt.Fprintf(w, "  %s: expected=%v actual=%v\n", d.Field, d.Expected, d.Actual)
		}
	}
}

func newEngine(cmd *cobra.Command) (*calc.Engine, error) {
	path, _ := cmd.Flags().GetString("texts")
	table, err := texts.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return calc.NewEngine(table), nil
}

func resolveNow(cmd *cobra.Command) (time.Time, error) {
	tz, _ := cmd.Flags().GetString("tz")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --tz %q: %w", tz, err)
	}

	raw, _ := cmd.Flags().GetString("now")
	if raw == "" {
		return time.Now().In(loc), nil
	}
	now, err := time.ParseInLocation(nowLayout, raw, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --now %q: %w", raw, err)
	}
	return now, nil
}

// payloadKey maps a flag name to the field name the validator expects.
func payloadKey(flag string) string {
	switch flag {
	case "mg-per-kg":
		return validator.FieldMgPerKg
	case "first-dose-hour":
		return validator.FieldFirstDoseHour
	default:
		return flag
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
