package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/mmitucha/compactmapper/internal/stats"
)

var (
	statsFile   string
	statsFormat string
	statsXLSX   string
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print compaction statistics for a telemetry file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		rc, err := loadContext(statsFile)
		if err != nil {
			return eris.Wrap(err, "stats")
		}

		out := cmd.OutOrStdout()
		if err := stats.Encode(out, statsFormat, rc.Report); err != nil {
			return eris.Wrap(err, "stats")
		}
		if statsXLSX != "" {
			if err := stats.SaveXLSX(statsXLSX, rc.Report); err != nil {
				return eris.Wrap(err, "stats")
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Workbook saved to: %s\n", statsXLSX)
		}
		return nil
	},
}

func init() {
	statsCmd.Flags().StringVarP(&statsFile, "file", "f", "", "telemetry CSV file (required)")
	statsCmd.Flags().StringVar(&statsFormat, "format", "text", "output format: text|json|yaml")
	statsCmd.Flags().StringVar(&statsXLSX, "xlsx", "", "also write the report as an Excel workbook")
	_ = statsCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(statsCmd)
}
