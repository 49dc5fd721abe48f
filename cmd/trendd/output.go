package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/HatiCode/hostpulse/pkg/report"
)

// renderReport serializes a report in the requested format.
func renderReport(format string, rep report.Report) (string, error) {
	switch format {
	case "json":
		data, err := json.MarshalIndent(rep, "", "  ")
		if err != nil {
			return "", fmt.Errorf("encode report: %w", err)
		}
		return string(data) + "\n", nil
	case "text":
		return rep.Render(), nil
	default:
		return "", fmt.Errorf("unknown format %q", format)
	}
}

// writeReport renders the report and replaces the file at path atomically,
// so readers never observe a half-written report.
func writeReport(path, format string, rep report.Report) error {
	rendered, err := renderReport(format, rep)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".report_*.tmp")
	if err != nil {
		return fmt.Errorf("create temp report: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(rendered); err != nil {
		tmp.Close()
		return fmt.Errorf("write report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close report: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename report: %w", err)
	}
	return nil
}
