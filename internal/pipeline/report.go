// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/wpconvert/pkg/types"
)

// WriteReport saves the run report to path. The extension selects the
// format: .json for JSON, .yaml or .yml for YAML.
func WriteReport(path string, report types.Report) error {
	var (
		data []byte
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		data, err = json.MarshalIndent(report, "", "  ")
		if err == nil {
			data = append(data, '\n')
		}
	case ".yaml", ".yml":
		data, err = yaml.Marshal(&report)
	default:
		return fmt.Errorf("unsupported report format %q: use .yaml, .yml or .json", ext)
	}
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report %s: %w", path, err)
	}
	return nil
}

// ReadReport loads a report written by WriteReport.
func ReadReport(path string) (types.Report, error) {
	var report types.Report
	data, err := os.ReadFile(path)
	if err != nil {
		return report, fmt.Errorf("reading report %s: %w", path, err)
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &report)
	} else {
		err = yaml.Unmarshal(data, &report)
	}
	if err != nil {
		return report, fmt.Errorf("parsing report %s: %w", path, err)
	}
	return report, nil
}
