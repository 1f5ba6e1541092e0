package store

import (
	"fmt"
	"os"
	"strings"

	"github.com/apogee-sim/airbrakes/internal/sim"
)

// ExportSVG renders the flight profile as a standalone SVG: altitude
// trace in green, deployment fraction (scaled to the plot height) in
// orange, and the target apogee as a dashed line.
func ExportSVG(path string, target float64, result *sim.Result) error {
	if len(result.Times) < 2 {
		return fmt.Errorf("not enough samples to plot")
	}
	return os.WriteFile(path, []byte(renderSVG(target, result)), 0644)
}

const (
	svgWidth  = 800
	svgHeight = 400
)

func renderSVG(target float64, result *sim.Result) string {
	tMin := result.Times[0]
	tMax := result.Times[len(result.Times)-1]
	if tMax == tMin {
		tMax = tMin + 1
	}

	altMin, altMax := result.States[0][0], result.States[0][0]
	for _, s := range result.States {
		if s[0] < altMin {
			altMin = s[0]
		}
		if s[0] > altMax {
			altMax = s[0]
		}
	}
	if target < altMin {
		altMin = target
	}
	if target > altMax {
		altMax = target
	}
	span := altMax - altMin
	if span == 0 {
		span = 1
	}
	altMin -= span * 0.05
	altMax += span * 0.05
	span = altMax - altMin

	xAt := func(t float64) float64 {
		return (t - tMin) / (tMax - tMin) * svgWidth
	}
	yAlt := func(alt float64) float64 {
		return svgHeight - (alt-altMin)/span*svgHeight
	}
	yDeploy := func(d float64) float64 {
		return svgHeight - d*svgHeight*0.9
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, svgWidth, svgHeight, svgWidth, svgHeight))

	ty := yAlt(target)
	sb.WriteString(fmt.Sprintf(`<line x1="0" y1="%.1f" x2="%d" y2="%.1f" stroke="#888888" stroke-width="1" stroke-dasharray="6,4"/>
`, ty, svgWidth, ty))

	writePath := func(color string, y func(int) float64) {
		sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="M`, color))
		for i, t := range result.Times {
			if i == 0 {
				sb.WriteString(fmt.Sprintf("%.1f,%.1f", xAt(t), y(i)))
			} else {
				sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", xAt(t), y(i)))
			}
		}
		sb.WriteString("\"/>\n")
	}

	writePath("#00ff00", func(i int) float64 { return yAlt(result.States[i][0]) })
	writePath("#ff9900", func(i int) float64 { return yDeploy(result.Deployments[i]) })

	sb.WriteString("</svg>\n")
	return sb.String()
}
