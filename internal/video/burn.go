package video

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// ffmpeg arguments that render assPath onto videoPath, keeping the audio as is
func burnArgs(videoPath, assPath, outputPath string) []string {
	kwargs := ffmpeg.KwArgs{
		"vf":  "ass=" + escapeFilterPath(assPath),
		"c:a": "copy",
	}
	return ffmpeg.Input(videoPath).
		Output(outputPath, kwargs).
		OverWriteOutput().
		GetArgs()
}

// escapes a path for use as a filter option value
func escapeFilterPath(path string) string {
	if runtime.GOOS == "windows" {
		path = filepath.ToSlash(path)
	}
	r := strings.NewReplacer(
		`\`, `\\`,
		`:`, `\:`,
		`'`, `\'`,
		`,`, `\,`,
		`[`, `\[`,
		`]`, `\]`,
		`;`, `\;`,
	)
	return r.Replace(path)
}

func (p *DefaultProcessor) Burn(ctx context.Context, videoPath, assPath, outputPath string) error {
	if err := requireFile(videoPath); err != nil {
		return err
	}
	if err := requireFile(assPath); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	cmd := exec.CommandContext(ctx, p.ffmpegPath, burnArgs(videoPath, assPath, outputPath)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return newProcessingError("burn", videoPath, err, lastLines(stderr.String(), 5))
	}

	return nil
}

// ffmpeg prints its banner first; the cause is at the end
func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
