package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/mmitucha/compactmapper/internal/export"
)

var (
	exportFile   string
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export classified samples as GeoJSON points",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if exportOutput == "" {
			return eris.New("export: --output is required")
		}
		rc, err := loadContext(exportFile)
		if err != nil {
			return eris.Wrap(err, "export")
		}
		if err := export.SaveGeoJSON(exportOutput, rc.Dataset, rc.Categories); err != nil {
			return eris.Wrap(err, "export")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "GeoJSON saved to: %s\n", exportOutput)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportFile, "file", "f", "", "telemetry CSV file (required)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "GeoJSON output path (required)")
	_ = exportCmd.MarkFlagRequired("file")
	_ = exportCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(exportCmd)
}
