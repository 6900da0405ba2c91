package formatters

import (
	"encoding/json"
	"fmt"
	"strings"

	"cvscreen/internal/types"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "ScreeningOutcome", &OutcomeTextFormatter{})
	registry.RegisterFormatter("markdown", "ScreeningOutcome", &OutcomeMarkdownFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	// Try specific formatter first
	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		// Fall back to generic formatter
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case types.ScreeningOutcome:
		return "ScreeningOutcome"
	default:
		return "any"
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

// OutcomeTextFormatter handles text formatting for screening outcomes
type OutcomeTextFormatter struct{}

func (otf *OutcomeTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.ScreeningOutcome)
	if !ok {
		return "", fmt.Errorf("expected ScreeningOutcome, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== SCREENING RESULT ===\n\n")
	output.WriteString(fmt.Sprintf("Application: %s\n", result.ApplicationID))
	if result.Score != nil {
		output.WriteString(fmt.Sprintf("Score: %d/100\n", *result.Score))
	} else {
		output.WriteString("Score: n/a (not screened)\n")
	}
	output.WriteString(fmt.Sprintf("Disposition: %s\n\n", result.Disposition))

	if len(result.Matched) > 0 {
		output.WriteString("Matched keywords:\n")
		for _, kw := range result.Matched {
			output.WriteString(fmt.Sprintf("- %s\n", kw))
		}
		output.WriteString("\n")
	}
	if len(result.Missing) > 0 {
		output.WriteString("Missing keywords:\n")
		for _, kw := range result.Missing {
			output.WriteString(fmt.Sprintf("- %s\n", kw))
		}
		output.WriteString("\n")
	}

	if result.Screened() {
		output.WriteString("=== DOCUMENT QUALITY ===\n")
		output.WriteString(fmt.Sprintf("Word count: %d\n", result.Quality.WordCount))
		for _, signal := range qualityChecklist(result.Quality) {
			output.WriteString(signal)
			output.WriteString("\n")
		}
		output.WriteString("\n")
	}

	output.WriteString("=== REASONING ===\n")
	output.WriteString(result.Reasoning)
	output.WriteString("\n")

	return output.String(), nil
}

func (otf *OutcomeTextFormatter) SupportedType() string {
	return "ScreeningOutcome"
}

// OutcomeMarkdownFormatter handles markdown formatting for screening outcomes
type OutcomeMarkdownFormatter struct{}

func (omf *OutcomeMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.ScreeningOutcome)
	if !ok {
		return "", fmt.Errorf("expected ScreeningOutcome, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Screening Result\n\n")
	output.WriteString(fmt.Sprintf("**Application:** %s\n\n", result.ApplicationID))
	if result.Score != nil {
		output.WriteString(fmt.Sprintf("**Score:** %d/100\n\n", *result.Score))
	} else {
		output.WriteString("**Score:** n/a (not screened)\n\n")
	}
	output.WriteString(fmt.Sprintf("**Disposition:** %s\n\n", result.Disposition))

	if len(result.Matched) > 0 {
		output.WriteString("## Matched Keywords\n\n")
		for _, kw := range result.Matched {
			output.WriteString(fmt.Sprintf("- %s\n", kw))
		}
		output.WriteString("\n")
	}
	if len(result.Missing) > 0 {
		output.WriteString("## Missing Keywords\n\n")
		for _, kw := range result.Missing {
			output.WriteString(fmt.Sprintf("- %s\n", kw))
		}
		output.WriteString("\n")
	}

	if result.Screened() {
		output.WriteString("## Document Quality\n\n")
		output.WriteString(fmt.Sprintf("**Word count:** %d\n\n", result.Quality.WordCount))
		for _, signal := range qualityChecklist(result.Quality) {
			output.WriteString(signal)
			output.WriteString("\n")
		}
		output.WriteString("\n")
	}

	output.WriteString("## Reasoning\n\n")
	output.WriteString(result.Reasoning)
	output.WriteString("\n")

	return output.String(), nil
}

func (omf *OutcomeMarkdownFormatter) SupportedType() string {
	return "ScreeningOutcome"
}

// qualityChecklist renders the boolean quality signals as checklist lines.
func qualityChecklist(q types.QualitySignals) []string {
	signals := []struct {
		label   string
		present bool
	}{
		{"Education section", q.HasEducation},
		{"Experience section", q.HasExperience},
		{"Skills section", q.HasSkills},
		{"Contact information", q.HasContact},
		{"Projects section", q.HasProjects},
		{"Certifications", q.HasCertifications},
		{"Bullet-point detail", q.HasBullets},
		{"Appropriate length", q.AppropriateLength},
	}

	lines := make([]string, 0, len(signals))
	for _, s := range signals {
		mark := "[ ]"
		if s.present {
			mark = "[x]"
		}
		lines = append(lines, fmt.Sprintf("- %s %s", mark, s.label))
	}
	return lines
}

// Global formatter registry
var GlobalRegistry = NewFormatterRegistry()
