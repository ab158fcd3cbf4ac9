package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mgpai22/danmaku/internal/subtitle"
)

const commentsXML = `<?xml version="1.0" encoding="UTF-8"?>
<i>
<d p="1.0,1,25,16777215,1700000000,0,abc,1">first</d>
<d p="2.0,5,25,16711680,1700000001,0,def,2">pinned</d>
<d p="3.0,8,25,16777215,1700000002,0,ghi,3">code</d>
</i>
`

func writeComments(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "comments.xml")
	if err := os.WriteFile(path, []byte(commentsXML), 0o644); err != nil {
		t.Fatalf("failed to write comments: %v", err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.ExecuteContext(t.Context())
	return out.String(), err
}

func TestConvertCommandWritesASS(t *testing.T) {
	input := writeComments(t)
	output := filepath.Join(t.TempDir(), "out.ass")

	stdout, err := execute(t, "convert", input, "--duration", "10", "--title", "Episode 1", "-o", output)
	if err != nil {
		t.Fatalf("convert failed: %v", err)
	}
	if !strings.Contains(stdout, "successfully") {
		t.Errorf("unexpected output %q", stdout)
	}
	if !strings.Contains(stdout, "2 emitted, 1 blocked, 0 dropped") {
		t.Errorf("missing stats in %q", stdout)
	}

	script, err := subtitle.Open(output)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	if title := script.Info("Title"); title != "Episode 1" {
		t.Errorf("title = %q", title)
	}
	dialogues := script.Dialogues()
	if len(dialogues) != 2 {
		t.Fatalf("got %d dialogues, want 2", len(dialogues))
	}
	if !strings.HasSuffix(dialogues[1].Text, "pinned") {
		t.Errorf("second dialogue = %q", dialogues[1].Text)
	}
}

func TestConvertCommandStdout(t *testing.T) {
	input := writeComments(t)

	stdout, err := execute(t, "convert", input, "--duration", "10", "-o", "-")
	if err != nil {
		t.Fatalf("convert failed: %v", err)
	}
	if !strings.HasPrefix(stdout, "[Script Info]") {
		t.Errorf("stdout does not start with a script: %q", stdout)
	}
	if strings.Contains(stdout, "successfully") {
		t.Error("summary must not be mixed into the script")
	}
}

func TestConvertCommandErrors(t *testing.T) {
	input := writeComments(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing input", []string{"convert", filepath.Join(t.TempDir(), "none.xml"), "-d", "10"}, "not found"},
		{"bad policy", []string{"convert", input, "-d", "10", "--policy", "loose", "-o", "-"}, "policy"},
		{"bad block", []string{"convert", input, "-d", "10", "--policy", "strict", "--block", "x", "-o", "-"}, "block"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestTranslateCommandRequiresKey(t *testing.T) {
	input := writeComments(t)
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("DANMAKU_TRANSLATE_API_KEY", "")

	_, err := execute(t, "translate", input, "-t", "english", "--provider", "gemini")
	if err == nil || !strings.Contains(err.Error(), "GEMINI_API_KEY") {
		t.Errorf("got %v, want missing key error", err)
	}
}

func TestTranslateCommandSameLanguage(t *testing.T) {
	input := writeComments(t)

	_, err := execute(t, "translate", input, "-t", "English", "-l", " english ")
	if err == nil || !strings.Contains(err.Error(), "cannot be the same") {
		t.Errorf("got %v, want same language error", err)
	}
}

func TestLicenseCommand(t *testing.T) {
	stdout, err := execute(t, "license")
	if err != nil {
		t.Fatalf("license failed: %v", err)
	}
	if !strings.Contains(stdout, "MIT License") {
		t.Errorf("unexpected license text %q", stdout)
	}
}

func TestReplaceExt(t *testing.T) {
	tests := []struct {
		path, suffix, want string
	}{
		{"comments.xml", ".ass", "comments.ass"},
		{"dir/ep.01.xml", ".en.xml", "dir/ep.01.en.xml"},
		{"noext", ".ass", "noext.ass"},
	}
	for _, tt := range tests {
		if got := replaceExt(tt.path, tt.suffix); got != tt.want {
			t.Errorf("replaceExt(%q, %q) = %q, want %q", tt.path, tt.suffix, got, tt.want)
		}
	}
}

func TestSanitizeLanguage(t *testing.T) {
	if got := sanitizeLanguage(" Brazilian Portuguese "); got != "brazilian-portuguese" {
		t.Errorf("got %q", got)
	}
	if got := sanitizeLanguage("zh/TW"); got != "zh-tw" {
		t.Errorf("got %q", got)
	}
}
