package clientcli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Output formats accepted by NewFormatter.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// Formatter formats results for output.
type Formatter interface {
	FormatDownload(w io.Writer, result *DownloadResult) error
	FormatHistory(w io.Writer, result *HistoryResult) error
	FormatError(w io.Writer, err error) error
}

// NewFormatter returns the formatter for the named output format.
func NewFormatter(format string, quiet bool) (Formatter, error) {
	switch format {
	case "", FormatTable:
		return &HumanFormatter{Quiet: quiet}, nil
	case FormatJSON:
		return &JSONFormatter{}, nil
	case FormatYAML:
		return &YAMLFormatter{}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q (valid formats: table, json, yaml)", format)
	}
}

// HumanFormatter outputs human-readable text.
type HumanFormatter struct {
	Quiet bool
}

// FormatDownload formats download result as human-readable text.
func (f *HumanFormatter) FormatDownload(w io.Writer, result *DownloadResult) error {
	if f.Quiet {
		return nil
	}
	if result.LocalPath == "-" {
		_, _ = fmt.Fprintf(w, "Downloaded: %s\n", result.Filename)
		return nil
	}
	_, _ = fmt.Fprintf(w, "Downloaded: %s -> %s (%s)\n", result.Token, result.LocalPath, formatSize(result.Size))
	return nil
}

// FormatHistory formats archive history as a table.
func (f *HumanFormatter) FormatHistory(w io.Writer, result *HistoryResult) error {
	if len(result.Items) == 0 {
		_, _ = fmt.Fprintln(w, "No archives found")
		return nil
	}

	maxTokenLen := 5 // "TOKEN"
	for i := range result.Items {
		maxTokenLen = max(maxTokenLen, len(result.Items[i].Token))
	}
	maxTokenLen = min(maxTokenLen, 40)

	_, _ = fmt.Fprintf(w, "%-19s  %-*s  %-9s  %-8s  %10s  %4s  %s\n",
		"STARTED", maxTokenLen, "TOKEN", "OUTCOME", "PRODUCER", "SENT", "EXIT", "DURATION")
	_, _ = fmt.Fprintf(w, "%s  %s  %s  %s  %s  %s  %s\n",
		strings.Repeat("-", 19), strings.Repeat("-", maxTokenLen), strings.Repeat("-", 9),
		strings.Repeat("-", 8), strings.Repeat("-", 10), strings.Repeat("-", 4), strings.Repeat("-", 8))

	for i := range result.Items {
		item := &result.Items[i]
		token := item.Token
		if len(token) > maxTokenLen {
			token = token[:maxTokenLen-3] + "..."
		}

		duration := "-"
		if item.FinishedAt != nil {
			duration = item.Duration().Round(time.Millisecond).String()
		}

		_, _ = fmt.Fprintf(w, "%-19s  %-*s  %-9s  %-8s  %10s  %4d  %s\n",
			item.StartedAt.Local().Format("2006-01-02 15:04:05"),
			maxTokenLen,
			token,
			item.Outcome,
			item.Producer,
			formatSize(item.BytesSent),
			item.ExitCode,
			duration,
		)
	}

	if !f.Quiet {
		_, _ = fmt.Fprintf(w, "\n%d archive(s) (%s sent)\n", len(result.Items), formatSize(result.TotalBytes()))
	}

	if result.NextCursor != "" {
		_, _ = fmt.Fprintf(w, "Next page: use --cursor %q\n", result.NextCursor)
	}

	return nil
}

// FormatError formats an error as human-readable text.
func (f *HumanFormatter) FormatError(w io.Writer, err error) error {
	_, _ = fmt.Fprintf(w, "Error: %v\n", err)
	return nil
}

// JSONFormatter outputs JSON.
type JSONFormatter struct{}

// FormatDownload formats download result as JSON.
func (f *JSONFormatter) FormatDownload(w io.Writer, result *DownloadResult) error {
	return writeJSON(w, result)
}

// FormatHistory formats archive history as JSON.
func (f *JSONFormatter) FormatHistory(w io.Writer, result *HistoryResult) error {
	return writeJSON(w, result)
}

// FormatError formats an error as JSON.
func (f *JSONFormatter) FormatError(w io.Writer, err error) error {
	return writeJSON(w, errorOutput{Error: err.Error()})
}

// YAMLFormatter outputs YAML.
type YAMLFormatter struct{}

func (f *YAMLFormatter) FormatDownload(w io.Writer, result *DownloadResult) error {
	return writeYAML(w, result)
}

func (f *YAMLFormatter) FormatHistory(w io.Writer, result *HistoryResult) error {
	return writeYAML(w, result)
}

func (f *YAMLFormatter) FormatError(w io.Writer, err error) error {
	return writeYAML(w, errorOutput{Error: err.Error()})
}

type errorOutput struct {
	Error string `json:"error" yaml:"error"`
}

// writeJSON writes a value as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// formatSize formats bytes as human-readable size.
func formatSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
		TB = GB * 1024
	)

	switch {
	case bytes < 0:
		return "unknown"
	case bytes >= TB:
		return fmt.Sprintf("%.1f TB", float64(bytes)/TB)
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
