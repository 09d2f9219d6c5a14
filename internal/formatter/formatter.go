// Package formatter renders configuration snapshots and banner records for the terminal and for export files (CSV, Markdown, plain text).
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/cinesync/internal/models"
	"github.com/desertthunder/cinesync/internal/settings"
)

// ConfigSource is the view of an edit session the exporters read.
type ConfigSource interface {
	Groups() []settings.Group
	Value(key string) string
	IsModified(key string) bool
}

// ConfigRow is one exported configuration entry.
type ConfigRow struct {
	Key      string
	Label    string
	Value    string
	Type     string
	Required bool
	Modified bool
	Note     string // locked, disabled or beta
}

// ConfigSection is one category of a [ConfigExport].
type ConfigSection struct {
	Info models.CategoryInfo
	Rows []ConfigRow
}

// ConfigExport is a point in time snapshot of the effective configuration, pending edits applied.
type ConfigExport struct {
	Sections []ConfigSection
	Exported time.Time
}

// NewConfigExport snapshots src. Sensitive values are masked unless reveal is set.
func NewConfigExport(src ConfigSource, reveal bool) *ConfigExport {
	export := &ConfigExport{Exported: time.Now()}

	for _, g := range src.Groups() {
		section := ConfigSection{Info: g.Info}
		for _, item := range g.Items {
			value := src.Value(item.Key)
			if !reveal {
				value = settings.MaskValue(item, value)
			}
			section.Rows = append(section.Rows, ConfigRow{
				Key:      item.Key,
				Label:    settings.FieldLabel(item.Key),
				Value:    value,
				Type:     settings.FieldKind(item),
				Required: item.Required,
				Modified: src.IsModified(item.Key),
				Note:     stateNote(settings.StateOf(item)),
			})
		}
		export.Sections = append(export.Sections, section)
	}

	return export
}

func stateNote(s settings.ItemState) string {
	switch {
	case s.Locked && s.LockedBy != "":
		return "locked by " + s.LockedBy
	case s.Locked:
		return "locked"
	case s.Disabled:
		return "disabled"
	case s.Beta:
		return "beta"
	}
	return ""
}

// Len returns the number of exported entries.
func (e *ConfigExport) Len() int {
	n := 0
	for _, s := range e.Sections {
		n += len(s.Rows)
	}
	return n
}

// ExportConfigToCSV converts a ConfigExport to CSV format with columns: Category, Key, Value, Type, Required, Modified, Note
func ExportConfigToCSV(export *ConfigExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Category", "Key", "Value", "Type", "Required", "Modified", "Note"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, section := range export.Sections {
		for _, row := range section.Rows {
			record := []string{
				section.Info.Category,
				row.Key,
				row.Value,
				row.Type,
				strconv.FormatBool(row.Required),
				strconv.FormatBool(row.Modified),
				row.Note,
			}
			if err := writer.Write(record); err != nil {
				return nil, fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportConfigToMarkdown converts a ConfigExport to Markdown with one table per category
func ExportConfigToMarkdown(export *ConfigExport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# CineSync Configuration\n\n")
	buf.WriteString(fmt.Sprintf("**Exported**: %s\n", export.Exported.Format(time.RFC3339)))
	buf.WriteString(fmt.Sprintf("**Settings**: %d\n\n", export.Len()))

	for _, section := range export.Sections {
		buf.WriteString(fmt.Sprintf("## %s\n\n", section.Info.Name))
		if section.Info.Description != "" {
			buf.WriteString(section.Info.Description + "\n\n")
		}

		buf.WriteString("| Key | Value | Type | Required | Note |\n")
		buf.WriteString("| --- | --- | --- | --- | --- |\n")
		for _, row := range section.Rows {
			key := "`" + row.Key + "`"
			if row.Modified {
				key += " *"
			}
			required := ""
			if row.Required {
				required = "yes"
			}
			buf.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s |\n",
				key, markdownCell(row.Value), row.Type, required, row.Note))
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

func markdownCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

// ExportConfigToText converts a ConfigExport to plain text format
func ExportConfigToText(export *ConfigExport) ([]byte, error) {
	var buf bytes.Buffer

	for i, section := range export.Sections {
		if i > 0 {
			buf.WriteString("\n")
		}
		buf.WriteString(fmt.Sprintf("[%s]\n", section.Info.Name))
		for _, row := range section.Rows {
			marker := " "
			if row.Modified {
				marker = "*"
			}
			buf.WriteString(fmt.Sprintf("%s %s = %s\n", marker, row.Key, row.Value))
		}
	}

	return buf.Bytes(), nil
}

// Format names an export file format.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
)

// ParseFormat accepts csv, md, markdown, txt and text.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "csv":
		return FormatCSV, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "txt", "text", "":
		return FormatText, nil
	}
	return "", fmt.Errorf("unknown export format %q", s)
}

func (f Format) extension() string {
	switch f {
	case FormatCSV:
		return ".csv"
	case FormatMarkdown:
		return ".md"
	}
	return ".txt"
}

// Render produces export in format f.
func (f Format) Render(export *ConfigExport) ([]byte, error) {
	switch f {
	case FormatCSV:
		return ExportConfigToCSV(export)
	case FormatMarkdown:
		return ExportConfigToMarkdown(export)
	}
	return ExportConfigToText(export)
}

// WriteConfigExport writes export to path, defaulting to cinesync_config{ext}.
func WriteConfigExport(export *ConfigExport, f Format, path string) (string, error) {
	if path == "" {
		path = "cinesync_config" + f.extension()
	}

	data, err := f.Render(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate %s: %w", f, err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	return path, nil
}
