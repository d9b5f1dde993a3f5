package cli

import (
	"fmt"
	"io"
	"strings"

	"rfdetr-toolkit/internal/core/domain"
	"rfdetr-toolkit/internal/core/services"
)

const bannerWidth = 50

// consoleProgress writes workflow step lines to w.
func consoleProgress(w io.Writer) services.Progress {
	return func(line string) {
		fmt.Fprintln(w, line)
	}
}

func printBanner(w io.Writer, title string) {
	rule := strings.Repeat("=", bannerWidth)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, rule)
}

func printDeployed(w io.Writer, res *services.CreateProjectResult) {
	rule := strings.Repeat("=", bannerWidth)
	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "SUCCESS! Your model is deployed.")
	fmt.Fprintf(w, "  Project: %s\n", res.Project.ID)
	fmt.Fprintf(w, "  Version: %d\n", res.Version.Number)
	fmt.Fprintf(w, "  Model ID: %s\n", res.ModelID())
	fmt.Fprintln(w, rule)
}

// printDetections lists detections, or dumps the raw response when the
// hosted service returned no predictions.
func printDetections(w io.Writer, pred *domain.Prediction) {
	if !pred.HasDetections {
		fmt.Fprintln(w, string(pred.Raw))
		return
	}
	fmt.Fprintf(w, "\nDetected %d objects:\n", len(pred.Detections))
	for _, d := range pred.Detections {
		fmt.Fprintf(w, "  - %s\n", d)
	}
}
