package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mgpai22/danmaku/internal/danmaku"
	"github.com/mgpai22/danmaku/internal/translate"
)

var translateFlagKeys = map[string]string{
	"translate.provider":    "provider",
	"translate.model":       "model",
	"translate.api_key":     "api-key",
	"translate.batch_size":  "batch-size",
	"translate.concurrency": "concurrency",
}

var translateCmd = &cobra.Command{
	Use:   "translate [comments.xml]",
	Short: "Translate danmaku comment text using AI",
	Long: `Translate the text of every comment in a danmaku XML file using an LLM.

Only the comment content changes. Timing, type, size, colour and the other
packed attributes are written back untouched, so the result can be converted
like the original.

Examples:
  danmaku translate comments.xml --target-language english
  danmaku translate comments.xml -t ja --provider anthropic -o comments.ja.xml
  danmaku translate comments.xml -l chinese -t english --provider openai --batch-size 100`,
	Args: cobra.ExactArgs(1),
	RunE: runTranslate,
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().
		StringP("target-language", "t", "", "Target language for translation (required)")
	translateCmd.Flags().
		StringP("language", "l", "", "Language of the comments (detected when empty)")
	translateCmd.Flags().
		StringP("api-key", "k", "", "API key (or set GEMINI_API_KEY/OPENAI_API_KEY/ANTHROPIC_API_KEY env var)")
	translateCmd.Flags().
		String("model", "", "Model to use for translation (provider-specific, uses sensible defaults)")
	translateCmd.Flags().
		String("provider", string(translate.ProviderGemini), "Translation provider (gemini, openai, anthropic)")
	translateCmd.Flags().
		Int("concurrency", translate.DefaultConcurrency, "Number of parallel translation workers")
	translateCmd.Flags().
		Int("batch-size", translate.DefaultBatchSize, "Number of comments per API request")

	_ = translateCmd.MarkFlagRequired("target-language")
}

func runTranslate(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	ctx := cmd.Context()

	targetLang, _ := cmd.Flags().GetString("target-language")
	inputLang, _ := cmd.Flags().GetString("language")
	outputPath, _ := cmd.Flags().GetString("output")

	if err := requireFile(inputPath, "comment file"); err != nil {
		return err
	}

	if strings.TrimSpace(targetLang) == "" {
		return fmt.Errorf("target language is required")
	}
	if inputLang != "" &&
		strings.EqualFold(
			strings.TrimSpace(inputLang),
			strings.TrimSpace(targetLang),
		) {
		return fmt.Errorf(
			"input language %q and target language %q cannot be the same",
			inputLang,
			targetLang,
		)
	}

	cfg, err := loadConfig(cmd, translateFlagKeys)
	if err != nil {
		return err
	}
	settings := cfg.Translate
	provider := translate.Provider(settings.Provider)

	apiKey := settings.ResolveAPIKey(provider.KeyEnv())
	if apiKey == "" {
		return fmt.Errorf(
			"API key is required: use --api-key flag or set %s environment variable",
			provider.KeyEnv(),
		)
	}

	if outputPath == "" {
		outputPath = replaceExt(inputPath, "."+sanitizeLanguage(targetLang)+".xml")
	}

	f, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open comment file: %w", err)
	}
	comments, err := danmaku.ParseXML(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("failed to parse comment file: %w", err)
	}
	if len(comments) == 0 {
		return fmt.Errorf("comment file contains no comments")
	}

	logger.Infow("Starting comment translation",
		"input", inputPath,
		"output", outputPath,
		"comments", len(comments),
		"provider", provider,
		"target_language", targetLang,
		"input_language", inputLang,
		"concurrency", settings.Concurrency,
	)

	translator, err := translate.Factory(ctx, provider, apiKey, translate.Options{
		InputLanguage:  inputLang,
		TargetLanguage: targetLang,
		Model:          settings.Model,
		BatchSize:      settings.BatchSize,
		Concurrency:    settings.Concurrency,
	})
	if err != nil {
		return fmt.Errorf("failed to create translator: %w", err)
	}

	translated, err := translate.TranslateComments(ctx, translator, comments)
	if err != nil {
		return fmt.Errorf("translation failed: %w", err)
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := danmaku.WriteXML(out, translated); err != nil {
		out.Close()
		return fmt.Errorf("failed to write output file: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	absOutput, _ := filepath.Abs(outputPath)
	fmt.Fprintf(cmd.OutOrStdout(), "Comments translated successfully: %s\n", absOutput)
	fmt.Fprintf(cmd.OutOrStdout(), "  Comments: %d\n", len(translated))
	fmt.Fprintf(cmd.OutOrStdout(), "  Target language: %s\n", targetLang)
	return nil
}

// language name usable as a file name segment
func sanitizeLanguage(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	return strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == ' ' {
			return '-'
		}
		return r
	}, lang)
}
