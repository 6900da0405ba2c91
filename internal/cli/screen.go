package cli

import (
	"fmt"
	"net/url"
	"strings"

	"cvscreen/internal/common"
	"cvscreen/internal/errors"
	"cvscreen/internal/types"
	"cvscreen/internal/utils"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var screenCmd = &cobra.Command{
	Use:   "screen [document]",
	Short: "Screen an application document against required keywords",
	Long: `Screen a candidate application document against a required keyword list.
The document argument may be a local PDF path, a file:// reference, or an
http(s) URL. The outcome includes the keyword match, document quality
signals, a 0-100 score and a screening disposition.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		// Apply default format if not specified
		if screenConfig.OutputFormat == "" {
			screenConfig.OutputFormat = cfg.App.DefaultFormat
		}
		// Validate format against supported formats
		return common.ValidateOutputFormat(screenConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runScreen,
}

var screenConfig common.CommandConfig

var (
	screenKeywords      string
	screenKeywordsFile  string
	screenApplicationID string
	screenSynonymsFile  string
	screenPassThreshold int
)

func init() {
	screenCmd.Flags().StringVarP(&screenConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	screenCmd.Flags().StringVar(&screenConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
	screenCmd.Flags().StringVarP(&screenKeywords, "keywords", "k", "", "Comma-separated required keywords")
	screenCmd.Flags().StringVar(&screenKeywordsFile, "keywords-file", "", "File with required keywords, one per line or comma-separated")
	screenCmd.Flags().StringVar(&screenApplicationID, "application-id", "", "Application identifier (default: generated)")
	screenCmd.Flags().StringVar(&screenSynonymsFile, "synonyms", "", "Synonyms YAML file merged over built-in entries")
	screenCmd.Flags().IntVar(&screenPassThreshold, "pass-threshold", 0, "Caller pass threshold recorded on the request (dispositions use fixed bands)")
	screenCmd.MarkFlagsOneRequired("keywords", "keywords-file")
	screenCmd.MarkFlagsMutuallyExclusive("keywords", "keywords-file")

	// Add completion for format flag
	_ = screenCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}

func runScreen(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())
	documentRef := args[0]

	keywords, err := loadKeywords(logger)
	if err != nil {
		return err
	}

	if screenSynonymsFile != "" {
		cfg.Screening.Synonyms.File = screenSynonymsFile
	}
	// A one-shot run has no use for hot reload.
	cfg.Screening.Synonyms.AutoReload = false

	warnNonDocument(logger, documentRef)

	svc, cleanup, err := buildScreeningService(cmd.Context(), cfg, nil, logger)
	if err != nil {
		return fmt.Errorf("failed to build screening pipeline: %w", err)
	}
	defer cleanup()

	applicationID := screenApplicationID
	if applicationID == "" {
		applicationID = uuid.NewString()
	}

	req := types.ScreeningRequest{
		ApplicationID:    applicationID,
		DocumentRef:      documentRef,
		RequiredKeywords: keywords,
		PassThreshold:    screenPassThreshold,
	}

	return common.RunScreeningCommand(cmd.Context(), logger, screenConfig, req, svc.Screen)
}

// loadKeywords resolves the required keyword list from either the --keywords
// flag or a --keywords-file. File entries may be one per line or
// comma-separated; blanks and duplicates are dropped.
func loadKeywords(logger *errors.Logger) ([]string, error) {
	raw := screenKeywords
	if screenKeywordsFile != "" {
		content, err := common.NewFileProcessor(logger).ReadFile(screenKeywordsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read keywords file: %w", err)
		}
		raw = strings.ReplaceAll(content, "\n", ",")
	}

	keywords := types.SplitKeywords(raw)
	if len(keywords) == 0 {
		return nil, fmt.Errorf("no usable keywords in %q", raw)
	}
	return keywords, nil
}

// warnNonDocument flags references that do not look like PDF documents.
// The pipeline will still attempt them; extraction decides.
func warnNonDocument(logger *errors.Logger, ref string) {
	parsed, err := url.Parse(ref)
	if err != nil {
		return
	}
	if parsed.Scheme == "http" || parsed.Scheme == "https" {
		return
	}
	if !utils.IsDocumentFile(ref) {
		logger.Warn("File may not be a PDF document", "document", ref)
	}
}
