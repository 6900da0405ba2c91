package common

import (
	"fmt"
	"slices"
)

// ValidateOutputFormat checks that an outcome rendering format is one of the
// configured supported formats (json, text, markdown by default).
func ValidateOutputFormat(format string, supportedFormats []string) error {
	if len(supportedFormats) == 0 {
		return nil // No restrictions configured
	}

	if slices.Contains(supportedFormats, format) {
		return nil
	}

	return fmt.Errorf("unsupported output format '%s'. Supported formats: %v",
		format, supportedFormats)
}

// GetSupportedFormats returns the configured format list for flag completion.
func GetSupportedFormats(supportedFormats []string) []string {
	return supportedFormats
}
