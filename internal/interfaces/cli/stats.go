package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/propshield/climarisk/internal/application/assessment"
	"github.com/propshield/climarisk/pkg/types/common"
)

// NewStatsCmd creates the stats command, which queries a running API server
// for its aggregation statistics.
func NewStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show aggregation statistics of a running server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cliCtx.Timeout)
			defer cancel()

			snapshot, err := fetchStats(ctx, cliCtx.ServerAddr)
			if err != nil {
				return err
			}

			return printResult(cmd, cliCtx, snapshot, func() {
				printStatsText(cmd.OutOrStdout(), snapshot)
			})
		},
	}
}

func fetchStats(ctx context.Context, serverAddr string) (*assessment.StatsSnapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, serverAddr+"/api/v1/stats", nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach server at %s: %w", serverAddr, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	var envelope common.APIResponse[assessment.StatsSnapshot]
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode stats response: %w", err)
	}
	return &envelope.Data, nil
}

func printStatsText(w io.Writer, s *assessment.StatsSnapshot) {
	fmt.Fprintf(w, "Total aggregations:      %d\n", s.TotalAggregations)
	fmt.Fprintf(w, "Successful aggregations: %d\n", s.SuccessfulAggregations)
	fmt.Fprintf(w, "Success rate:            %.2f\n", s.SuccessRate)
	fmt.Fprintf(w, "Average confidence:      %.2f\n", s.AverageConfidence)
	fmt.Fprintf(w, "Average processing time: %.1fms\n", s.AverageProcessingTimeMs)

	if len(s.MostUsedSources) == 0 {
		return
	}
	fmt.Fprintln(w, "\nMost used sources:")
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SOURCE\tCOUNT")
	for _, u := range s.MostUsedSources {
		fmt.Fprintf(tw, "%s\t%d\n", u.SourceID, u.Count)
	}
	tw.Flush()
}
