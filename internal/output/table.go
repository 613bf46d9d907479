// Package output provides terminal output utilities for updreset: ASCII
// table rendering for run history, rotation slots, and service state, with
// ANSI colors gated on TTY detection.
package output

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/blackwell-systems/updreset/internal/store"
	"github.com/blackwell-systems/updreset/internal/winsvc"
)

// ANSI color codes for outcome display
const (
	colorReset = "\033[0m"
	colorGreen = "\033[32m"
	colorRed   = "\033[31m"
	colorGray  = "\033[90m"
)

// IsColorEnabled returns true if ANSI color codes should be emitted.
// It checks that os.Stdout is a TTY and that the NO_COLOR env var is not set.
func IsColorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

func colorize(s, color string) string {
	if !IsColorEnabled() {
		return s
	}
	return color + s + colorReset
}

// outcomeCell renders ok/failed with color when available.
func outcomeCell(ok bool) string {
	if ok {
		return colorize("ok", colorGreen)
	}
	return colorize("FAILED", colorRed)
}

// RenderRunTable renders the run history, newest first.
func RenderRunTable(runs []*store.Run) string {
	if len(runs) == 0 {
		return "No remediation runs recorded.\n"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-38s %-22s %-10s %-8s\n", "Run", "Started", "Duration", "Result"))
	sb.WriteString(strings.Repeat("─", 80))
	sb.WriteString("\n")

	for _, run := range runs {
		duration := "-"
		if !run.FinishedAt.IsZero() {
			duration = run.FinishedAt.Sub(run.StartedAt).Round(time.Second).String()
		}
		sb.WriteString(fmt.Sprintf("%-38s %-22s %-10s %-8s\n",
			run.ID,
			humanize.Time(run.StartedAt),
			duration,
			outcomeCell(run.OK),
		))
	}
	return sb.String()
}

// RenderStepTable renders one run's step outcomes in execution order.
func RenderStepTable(steps []*store.StepRecord) string {
	if len(steps) == 0 {
		return "No steps recorded for this run.\n"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-4s %-16s %-8s %s\n", "#", "Step", "Status", "Detail"))
	sb.WriteString(strings.Repeat("─", 72))
	sb.WriteString("\n")

	for _, step := range steps {
		sb.WriteString(fmt.Sprintf("%-4d %-16s %-8s %s\n",
			step.Seq,
			step.Name,
			outcomeCell(step.Status == "ok"),
			step.Detail,
		))
	}
	return sb.String()
}

// SlotInfo describes one occupied rotation slot for display.
type SlotInfo struct {
	Generation int
	Path       string
	SizeBytes  int64
	ModTime    time.Time
}

// RenderSlotTable renders the occupied backup slots of one base path.
func RenderSlotTable(basePath string, slots []SlotInfo) string {
	var sb strings.Builder
	sb.WriteString(basePath)
	sb.WriteString("\n")

	if len(slots) == 0 {
		sb.WriteString("  no archived generations\n")
		return sb.String()
	}

	for _, slot := range slots {
		sb.WriteString(fmt.Sprintf("  %02d  %-10s %-16s %s\n",
			slot.Generation,
			humanize.Bytes(uint64(slot.SizeBytes)),
			humanize.Time(slot.ModTime),
			colorize(slot.Path, colorGray),
		))
	}
	return sb.String()
}

// ServiceInfo describes one service's configured startup mode for display.
type ServiceInfo struct {
	Name string
	Mode winsvc.StartupMode
}

// RenderServiceTable renders the configured services and their startup modes.
func RenderServiceTable(services []ServiceInfo) string {
	if len(services) == 0 {
		return "No services configured.\n"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-16s %s\n", "Service", "Startup Mode"))
	sb.WriteString(strings.Repeat("─", 36))
	sb.WriteString("\n")

	for _, svc := range services {
		mode := string(svc.Mode)
		if svc.Mode == winsvc.ModeUnknown {
			mode = colorize(mode, colorRed)
		}
		sb.WriteString(fmt.Sprintf("%-16s %s\n", svc.Name, mode))
	}
	return sb.String()
}
