package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/mmitucha/compactmapper/internal/sorter"
)

var (
	sortFiles      string
	sortOutput     string
	sortSkipErrors bool
	sortDelimiter  string
)

var sortCmd = &cobra.Command{
	Use:   "sort",
	Short: "Split exports into one CSV per day, design and amplitude",
	Long: "Splits every matching CSV by day, DesignName and LastAmp. A row whose Time does not parse " +
		"stops the run unless --skip-errors is given; skipped rows are then listed in err.log in the output directory.",
	Example: "  compactmapper sort --files 'raw/*.csv' --output sorted\n" +
		"  compactmapper sort --files 'raw/*.csv' --output sorted --skip-errors",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if sortFiles == "" || sortOutput == "" {
			return eris.New("sort: --files and --output are required")
		}
		csvOpts, err := csvOptions(sortDelimiter)
		if err != nil {
			return eris.Wrap(err, "sort")
		}
		opts := sorter.Options{CSV: csvOpts, SkipErrors: sortSkipErrors}

		var logPath string
		if sortSkipErrors {
			if err := os.MkdirAll(sortOutput, 0o755); err != nil {
				return eris.Wrapf(err, "sort: create %s", sortOutput)
			}
			logPath = filepath.Join(sortOutput, sorter.ErrorLogName)
			lf, err := os.Create(logPath)
			if err != nil {
				return eris.Wrapf(err, "sort: create %s", logPath)
			}
			defer lf.Close()
			opts.ErrorLog = lf
		}

		res, err := sorter.SortGlob(sortFiles, sortOutput, opts)
		if err != nil {
			return eris.Wrap(err, "sort")
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Sorted %d rows from %d files into %d outputs\n", res.Rows, res.Inputs, len(res.Outputs))
		if res.Skipped > 0 || len(res.Failed) > 0 {
			fmt.Fprintf(out, "Skipped %d rows with unreadable timestamps and %d files; see %s\n",
				res.Skipped, len(res.Failed), logPath)
		}
		for _, p := range res.Outputs {
			fmt.Fprintf(out, "  %s\n", p)
		}
		return nil
	},
}

func init() {
	sortCmd.Flags().StringVar(&sortFiles, "files", "", "glob of CSV files to sort (required)")
	sortCmd.Flags().StringVarP(&sortOutput, "output", "o", "", "output directory (required)")
	sortCmd.Flags().BoolVar(&sortSkipErrors, "skip-errors", false, "skip rows with unreadable timestamps and log them to err.log")
	sortCmd.Flags().StringVar(&sortDelimiter, "delimiter", ",", `field separator (single character or "tab")`)
	_ = sortCmd.MarkFlagRequired("files")
	_ = sortCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(sortCmd)
}
