package main

import (
	"context"
	"fmt"
	"net"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mmitucha/compactmapper/internal/preview"
	"github.com/mmitucha/compactmapper/internal/render"
	"github.com/mmitucha/compactmapper/internal/stats"
)

var (
	visualizeFile   string
	visualizeType   string
	visualizeOutput string
	visualizeStats  bool
	visualizeReport string
)

var visualizeCmd = &cobra.Command{
	Use:   "visualize",
	Short: "Render a compaction view to an image or an interactive preview",
	Long: "Loads a telemetry CSV and renders one view. With --output the view is written as an image " +
		"(format from the extension); without it a local preview server is started until interrupted.",
	Example: "  compactmapper visualize -f day1.csv\n" +
		"  compactmapper visualize -f day1.csv -t overview -o overview.png --stats",
	RunE: func(cmd *cobra.Command, _ []string) error {
		view, err := render.ParseView(visualizeType)
		if err != nil {
			return err
		}
		if visualizeOutput != "" {
			if _, err := render.FormatFor(visualizeOutput); err != nil {
				return err
			}
		}

		rc, err := loadContext(visualizeFile)
		if err != nil {
			return eris.Wrap(err, "visualize")
		}

		out := cmd.OutOrStdout()
		if visualizeStats {
			if err := stats.WriteText(out, rc.Report); err != nil {
				return eris.Wrap(err, "visualize: stats")
			}
		}
		if visualizeReport != "" {
			if err := stats.Save(visualizeReport, rc.Report); err != nil {
				return eris.Wrap(err, "visualize: report")
			}
			fmt.Fprintf(out, "Report saved to: %s\n", visualizeReport)
		}

		if visualizeOutput != "" {
			if err := render.Save(rc, view, visualizeOutput); err != nil {
				return eris.Wrap(err, "visualize")
			}
			fmt.Fprintf(out, "Visualization saved to: %s\n", visualizeOutput)
			return nil
		}

		parent := cmd.Context()
		if parent == nil {
			parent = context.Background()
		}
		ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		srv := preview.New(rc, view)
		if err := srv.Warm(view); err != nil {
			return eris.Wrap(err, "visualize")
		}
		addr := "127.0.0.1:8765"
		if cfg != nil && cfg.Preview.Addr != "" {
			addr = cfg.Preview.Addr
		}
		return srv.Serve(ctx, addr, func(a net.Addr) {
			fmt.Fprintf(out, "Preview at http://%s/ (Ctrl-C to stop)\n", a)
			zap.L().Debug("preview ready", zap.String("view", string(view)))
		})
	},
}

func init() {
	f := visualizeCmd.Flags()
	f.StringVarP(&visualizeFile, "file", "f", "", "telemetry CSV file (required)")
	f.StringVarP(&visualizeType, "type", "t", string(render.Quality), "view: "+render.ViewNames())
	f.StringVarP(&visualizeOutput, "output", "o", "", "image path (.png, .svg, .pdf, ...); omit for an interactive preview")
	f.BoolVarP(&visualizeStats, "stats", "s", false, "print the statistics report")
	f.StringVar(&visualizeReport, "report", "", "also save the statistics report (.json, .yaml, .yml, .txt, .xlsx)")
	_ = visualizeCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(visualizeCmd)
}
