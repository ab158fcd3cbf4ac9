package translate

import (
	"context"
	"os"
	"strings"
	"testing"
)

func TestFactoryReturnsProviderTranslators(t *testing.T) {
	ctx := context.Background()
	opts := Options{TargetLanguage: "English"}

	tests := []struct {
		provider Provider
		check    func(Translator) bool
	}{
		{ProviderGemini, func(tr Translator) bool { _, ok := tr.(*GeminiTranslator); return ok }},
		{ProviderOpenAI, func(tr Translator) bool { _, ok := tr.(*OpenAITranslator); return ok }},
		{ProviderAnthropic, func(tr Translator) bool { _, ok := tr.(*AnthropicTranslator); return ok }},
	}

	for _, tt := range tests {
		t.Run(string(tt.provider), func(t *testing.T) {
			translator, err := Factory(ctx, tt.provider, "fake-key", opts)
			if err != nil {
				t.Fatalf("Factory(%s) returned error: %v", tt.provider, err)
			}
			if !tt.check(translator) {
				t.Errorf("unexpected translator type %T", translator)
			}
		})
	}
}

func TestFactoryRequiresTargetLanguage(t *testing.T) {
	_, err := Factory(context.Background(), ProviderGemini, "fake-key", Options{})
	if err == nil {
		t.Error("expected error for missing target language")
	}
}

func TestFactoryRequiresAPIKey(t *testing.T) {
	for _, provider := range []Provider{ProviderGemini, ProviderOpenAI, ProviderAnthropic} {
		_, err := Factory(context.Background(), provider, "", Options{TargetLanguage: "English"})
		if err == nil {
			t.Errorf("%s: expected error for missing API key", provider)
		}
	}
}

func TestFactoryRejectsUnknownProvider(t *testing.T) {
	opts := Options{TargetLanguage: "French"}
	_, err := Factory(context.Background(), Provider("unknown"), "fake-key", opts)
	if err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestProviderKeyEnv(t *testing.T) {
	if got := ProviderAnthropic.KeyEnv(); got != "ANTHROPIC_API_KEY" {
		t.Errorf("KeyEnv() = %q", got)
	}
	if got := Provider("other").KeyEnv(); got != "API_KEY" {
		t.Errorf("KeyEnv() = %q", got)
	}
}

func TestBuildPrompt(t *testing.T) {
	opts := Options{
		InputLanguage:  "Chinese",
		TargetLanguage: "English",
		Prompt:         "keep memes",
	}
	items := []TranslationItem{
		{Index: 0, Text: "前方高能"},
		{Index: 1, Text: "2333"},
	}

	prompt := BuildPrompt(opts, items)

	for _, want := range []string{"following Chinese danmaku", "to English", "前方高能", `"index": 1`, "Additional instructions: keep memes"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt should contain %q", want)
		}
	}
}

func TestBuildPromptWithoutInputLanguage(t *testing.T) {
	prompt := BuildPrompt(Options{TargetLanguage: "Spanish"}, []TranslationItem{{Index: 0, Text: "hi"}})

	if !strings.Contains(prompt, "Translate the following danmaku") {
		t.Error("prompt should not name an input language when not specified")
	}
	if !strings.Contains(prompt, "to Spanish") {
		t.Error("prompt should contain target language")
	}
}

// Integration test: only runs if OPENAI_API_KEY is set
func TestOpenAITranslatorIntegration(t *testing.T) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		t.Skip("OPENAI_API_KEY not set; skipping integration test")
	}

	ctx := context.Background()
	translator, err := NewOpenAITranslator(ctx, apiKey, Options{TargetLanguage: "English"})
	if err != nil {
		t.Fatalf("NewOpenAITranslator error: %v", err)
	}

	items := []TranslationItem{
		{Index: 0, Text: "你好"},
		{Index: 1, Text: "再见"},
	}

	results, err := translator.Translate(ctx, items)
	if err != nil {
		t.Fatalf("Translate error: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("expected 2 results, got %d", len(results))
	}
	for _, r := range results {
		if r.Text == "" {
			t.Errorf("result index %d has empty text", r.Index)
		}
	}
}
