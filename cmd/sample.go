package main

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/mmitucha/compactmapper/internal/sampler"
)

var (
	sampleCols      string
	sampleCount     int
	sampleDelimiter string
)

var sampleCmd = &cobra.Command{
	Use:   "sample <input> <output>",
	Short: "Keep a fixed number of rows per group of columns",
	Long: "Writes the first --sample-count rows of every unique combination of --cols. " +
		"The special key Date groups by the day of the Time column.",
	Example: "  compactmapper sample in.csv out.csv --cols Date,DesignName,Machine\n" +
		"  compactmapper sample in.csv out.csv --cols DesignName --sample-count 5",
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var cols []string
		for _, c := range strings.Split(sampleCols, ",") {
			if c = strings.TrimSpace(c); c != "" {
				cols = append(cols, c)
			}
		}
		if len(cols) == 0 {
			return eris.New("sample: --cols must name at least one column")
		}

		opts, err := csvOptions(sampleDelimiter)
		if err != nil {
			return eris.Wrap(err, "sample")
		}

		res, err := sampler.Sample(args[0], args[1], cols, sampleCount, opts)
		if err != nil {
			return eris.Wrap(err, "sample")
		}

		out := cmd.OutOrStdout()
		short := res.Short()
		for _, g := range short {
			fmt.Fprintf(out, "  Warning: %s has only %d/%d rows\n", g.Label(cols), g.Available, sampleCount)
		}
		fmt.Fprintf(out, "Sampled %d rows from %d groups\n", res.Rows, len(res.Groups))
		if len(short) > 0 {
			fmt.Fprintf(out, "  %d/%d groups had fewer than %d rows\n", len(short), len(res.Groups), sampleCount)
		}
		fmt.Fprintf(out, "Output written to: %s\n", args[1])
		return nil
	},
}

func init() {
	sampleCmd.Flags().StringVar(&sampleCols, "cols", "", "comma-separated grouping columns; Date derives the day from Time (required)")
	sampleCmd.Flags().IntVar(&sampleCount, "sample-count", sampler.DefaultCount, "rows to keep per group")
	sampleCmd.Flags().StringVar(&sampleDelimiter, "delimiter", ",", `field separator (single character or "tab")`)
	_ = sampleCmd.MarkFlagRequired("cols")
	rootCmd.AddCommand(sampleCmd)
}
