package present

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dooshek/textgrab/internal/history"
	"github.com/dooshek/textgrab/internal/timing"
	"github.com/dooshek/textgrab/internal/types"
	"github.com/fatih/color"
)

var (
	bold   = color.New(color.Bold)
	cyan   = color.New(color.FgCyan)
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed)
	faint  = color.New(color.Faint)
)

// Message turns a pipeline error into a message telling the user what to do
func Message(err error) string {
	if err == nil {
		return ""
	}

	switch types.KindOf(err) {
	case types.KindNotFound:
		return "No matching window. Check the name with `textgrab list`, or pass a handle (0x...) or pid:<n>."
	case types.KindAllStrategiesFailed:
		return "The window could not be captured: every capture came back blank or failed. Bring it on screen, un-minimize it, or try the region strategy."
	case types.KindRecognitionUnavailable:
		return "Text recognition failed. Make sure tesseract and the language data for the configured language are installed."
	case types.KindTimeout:
		return "The capture took too long and was abandoned. Try again, or raise the limits under `timeouts` in the config."
	case types.KindBusy:
		return "A capture is already running. Wait for it to finish."
	default:
		return err.Error()
	}
}

// Regions prints regions in reading order with their confidence
func Regions(w io.Writer, regions []types.TextRegion) {
	if len(regions) == 0 {
		yellow.Fprintln(w, "No text found above the confidence threshold.")
		return
	}

	for i, r := range regions {
		tl := r.Polygon.TopLeft()
		fmt.Fprintf(w, "%s %s %s\n",
			faint.Sprintf("%3d.", i+1),
			r.Text,
			faint.Sprintf("(%.2f @ %d,%d)", r.Confidence, tl.X, tl.Y))
	}
	green.Fprintf(w, "%d regions\n", len(regions))
}

// RegionsJSON writes regions as indented JSON
func RegionsJSON(w io.Writer, regions []types.TextRegion) error {
	if regions == nil {
		regions = []types.TextRegion{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(regions)
}

// Error prints err with its actionable message and the capture attempts
func Error(w io.Writer, err error) {
	red.Fprintf(w, "Error: %s\n", Message(err))
	faint.Fprintf(w, "  %v\n", err)

	var pe *types.PipelineError
	if !errors.As(err, &pe) {
		return
	}
	for _, a := range pe.Attempts {
		faint.Fprintf(w, "  - %s\n", a.String())
	}
}

// Windows prints a window list
func Windows(w io.Writer, windows []types.WindowHandle) {
	if len(windows) == 0 {
		yellow.Fprintln(w, "No windows found.")
		return
	}

	for _, win := range windows {
		state := ""
		switch {
		case win.Minimized:
			state = yellow.Sprint(" [minimized]")
		case !win.Visible:
			state = faint.Sprint(" [hidden]")
		}
		fmt.Fprintf(w, "%s  %-20s %-7d %s%s %s\n",
			cyan.Sprintf("0x%08x", win.ID),
			truncate(win.ProcessName, 20),
			win.PID,
			win.Title,
			state,
			faint.Sprint(win.Bounds.String()))
	}
}

// Timings prints the stage summary in pipeline order
func Timings(w io.Writer, summary map[string]timing.StageSummary) {
	if len(summary) == 0 {
		yellow.Fprintln(w, "No timings recorded yet.")
		return
	}

	order := map[string]int{
		timing.StageLocate: 0, timing.StageActivation: 1, timing.StageCapture: 2,
		timing.StageOCR: 3, timing.StageFilter: 4, timing.StageTotal: 5,
	}
	stages := make([]string, 0, len(summary))
	for s := range summary {
		stages = append(stages, s)
	}
	sort.Slice(stages, func(i, j int) bool {
		oi, iok := order[stages[i]]
		oj, jok := order[stages[j]]
		if iok != jok {
			return iok
		}
		if oi != oj {
			return oi < oj
		}
		return stages[i] < stages[j]
	})

	bold.Fprintf(w, "%-12s %8s %12s %12s\n", "stage", "count", "total ms", "avg ms")
	for _, s := range stages {
		sum := summary[s]
		fmt.Fprintf(w, "%-12s %8d %12.1f %12.1f\n", s, sum.Count, sum.TotalMs, sum.AverageMs)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}

// Preview shortens text for a notification body
func Preview(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	if len([]rune(text)) <= n {
		return text
	}
	return string([]rune(text)[:n]) + "…"
}

// History prints stored runs, newest first
func History(w io.Writer, runs []*history.Run) {
	if len(runs) == 0 {
		yellow.Fprintln(w, "No runs recorded yet.")
		return
	}

	for _, r := range runs {
		status := green.Sprintf("%d regions", r.RegionCount)
		if r.Failed() {
			status = red.Sprint(r.ErrorKind)
		}
		fmt.Fprintf(w, "%s  %-20s %-7s %7.0fms  %s  %s\n",
			faint.Sprint(r.CreatedAt.Local().Format("2006-01-02 15:04:05")),
			truncate(r.Target, 20),
			r.Strategy,
			r.DurationMs,
			status,
			Preview(r.Text, 60))
	}
}
