// Package render draws telemetry views as static images (gonum/plot) or
// interactive HTML charts (go-echarts).
package render

import (
	"strings"

	"github.com/rotisserie/eris"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"

	"github.com/mmitucha/compactmapper/internal/surface"
	"github.com/mmitucha/compactmapper/internal/telemetry"
)

// View names a visualisation.
type View string

// Views selectable from the command line.
const (
	Overview  View = "overview"
	Quality   View = "quality"
	PassCount View = "pass_count"
	Elevation View = "elevation"
	CMV       View = "cmv"
	MDP       View = "mdp"
)

// Views lists every view in help order.
var Views = []View{Overview, Quality, PassCount, Elevation, CMV, MDP}

// ParseView maps a command-line name to a View.
func ParseView(s string) (View, error) {
	for _, v := range Views {
		if string(v) == strings.ToLower(strings.TrimSpace(s)) {
			return v, nil
		}
	}
	return "", eris.Errorf("render: unknown view %q (want one of %s)", s, ViewNames())
}

// ViewNames returns the view names joined for help text.
func ViewNames() string {
	names := make([]string, len(Views))
	for i, v := range Views {
		names[i] = string(v)
	}
	return strings.Join(names, "|")
}

// scalarView is a scatter of one field over a continuous colour map.
type scalarView struct {
	title string
	label string
	field surface.Field
	cmap  func() palette.ColorMap
}

var (
	passCountView = scalarView{
		title: "Compaction Pass Count Distribution",
		label: "Pass Count",
		field: surface.ColumnField(telemetry.ColPassCount),
		cmap:  moreland.Kindlmann,
	}
	elevationView = scalarView{
		title: "Elevation Map",
		label: "Elevation (m)",
		field: surface.ColumnField(telemetry.ColElevation),
		cmap:  func() palette.ColorMap { return moreland.SmoothBlueTan() },
	}
	cmvView = scalarView{
		title: "Compaction Meter Value (CMV)",
		label: "CMV",
		field: surface.ColumnField(telemetry.ColLastCMV),
		// red is soft ground, green is stiff
		cmap: func() palette.ColorMap { return palette.Reverse(moreland.SmoothGreenRed()) },
	}
	mdpView = scalarView{
		title: "Machine Drive Power (MDP)",
		label: "MDP",
		field: surface.ColumnField(telemetry.ColLastMDP),
		cmap:  moreland.BlackBody,
	}
	deltaView = scalarView{
		title: "Pass Count Delta from Target",
		label: "Delta from Target",
		field: surface.DeltaField,
		cmap:  func() palette.ColorMap { return moreland.SmoothGreenRed() },
	}
)

var scalarViews = map[View]scalarView{
	PassCount: passCountView,
	Elevation: elevationView,
	CMV:       cmvView,
	MDP:       mdpView,
}
