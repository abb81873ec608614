package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/propshield/climarisk/internal/application/assessment"
	"github.com/propshield/climarisk/internal/domain/risk"
)

// assessInput is the JSON document the assess command consumes.
type assessInput struct {
	PropertyID string                                            `json:"property_id"`
	Sources    map[string]risk.RawSourcePayload                  `json:"sources"`
	Weather    map[risk.HazardType]risk.WeatherAdjustmentFactors `json:"weather,omitempty"`
	AsOf       time.Time                                         `json:"as_of,omitempty"`
}

// NewAssessCmd creates the assess command.  It runs the scoring engine
// locally on a payload bundle, without a server or database.
func NewAssessCmd() *cobra.Command {
	var (
		inputPath  string
		propertyID string
	)

	cmd := &cobra.Command{
		Use:   "assess",
		Short: "Score a property from a JSON payload bundle",
		Long:  "Reads a JSON document with per-source raw payloads and runs the full\naggregation locally: normalization, per-hazard scoring, weather adjustment,\noverall aggregation, and confidence estimation.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			input, err := readAssessInput(inputPath)
			if err != nil {
				return err
			}
			if propertyID != "" {
				input.PropertyID = propertyID
			}

			engineCfg := cliCtx.Config.Engine
			service, err := assessment.NewService(
				engineCfg.Hazards, engineCfg.Reliabilities, engineCfg.Bands,
				nil, nil, nil, nil, nil,
				cliCtx.Logger,
				assessment.ServiceConfig{},
			)
			if err != nil {
				return err
			}

			result, err := service.Aggregate(cmd.Context(), &assessment.AggregateRequest{
				PropertyID: input.PropertyID,
				Sources:    input.Sources,
				Weather:    input.Weather,
				AsOf:       input.AsOf,
			})
			if err != nil {
				return err
			}

			return printResult(cmd, cliCtx, result, func() {
				printAssessmentText(cmd.OutOrStdout(), result)
			})
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "-", "payload bundle JSON file (- for stdin)")
	cmd.Flags().StringVarP(&propertyID, "property", "p", "", "override the property id from the input")
	return cmd
}

func readAssessInput(path string) (*assessInput, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		r = f
	}

	var input assessInput
	if err := json.NewDecoder(r).Decode(&input); err != nil {
		return nil, fmt.Errorf("failed to parse input JSON: %w", err)
	}
	return &input, nil
}

func printAssessmentText(w io.Writer, a *risk.RiskAssessment) {
	fmt.Fprintf(w, "Property:    %s\n", a.PropertyID)
	fmt.Fprintf(w, "Assessed at: %s\n", a.AssessmentDate.Format(time.RFC3339))
	fmt.Fprintf(w, "Overall:     %d (%s), confidence %.2f\n\n",
		a.OverallRisk.Score, a.OverallRisk.Level, a.OverallRisk.Confidence)

	hazards := make([]risk.HazardType, 0, len(a.RiskBreakdown))
	for hazard := range a.RiskBreakdown {
		hazards = append(hazards, hazard)
	}
	sort.Slice(hazards, func(i, j int) bool { return hazards[i] < hazards[j] })

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "HAZARD\tSCORE\tLEVEL\tCONFIDENCE\tWEATHER")
	for _, hazard := range hazards {
		h := a.RiskBreakdown[hazard]
		weather := "-"
		if h.Weather != nil {
			weather = fmt.Sprintf("%d -> %d (%s)", h.Weather.BaseScore, h.Weather.AdjustedScore, h.Weather.DominantFactor)
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%.2f\t%s\n", hazard, h.Score, h.Level, h.Confidence, weather)
	}
	tw.Flush()

	fmt.Fprintf(w, "\nData quality: completeness %.2f, reliability %.2f, recency %.2f\n",
		a.DataQuality.Completeness, a.DataQuality.Reliability, a.DataQuality.Recency)
	fmt.Fprintf(w, "Sources used: %d, processing time: %dms\n",
		a.Metadata.SourcesUsed, a.Metadata.ProcessingTimeMs)
}
