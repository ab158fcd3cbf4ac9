package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mgpai22/danmaku/internal/config"
	"github.com/mgpai22/danmaku/internal/danmaku"
	"github.com/mgpai22/danmaku/internal/ffmpeg"
	"github.com/mgpai22/danmaku/internal/fontmetrics"
	"github.com/mgpai22/danmaku/internal/video"
)

// config keys bound to the conversion flags shared by convert, burn and serve
var convertFlagKeys = map[string]string{
	"convert.duration":  "duration",
	"convert.width":     "width",
	"convert.height":    "height",
	"convert.title":     "title",
	"convert.font":      "font",
	"convert.font_file": "font-file",
	"convert.alpha":     "alpha",
	"convert.block":     "block",
	"convert.policy":    "policy",
	"convert.workers":   "workers",
}

func addConvertFlags(cmd *cobra.Command) {
	cmd.Flags().
		Float64P("duration", "d", 0, "Video duration in seconds (each comment stays on screen this long)")
	cmd.Flags().Int("width", 1920, "Video width in pixels")
	cmd.Flags().Int("height", 1080, "Video height in pixels")
	cmd.Flags().String("title", danmaku.DefaultTitle, "Script title")
	cmd.Flags().String("font", danmaku.DefaultFont, "Font family written to the styles")
	cmd.Flags().String("font-file", "", "TrueType/OpenType font used to measure comment text")
	cmd.Flags().Float64("alpha", 0, "Transparency percentage (0 opaque, 100 invisible)")
	cmd.Flags().StringSlice("block", nil, "Motion types to drop, e.g. 4,5 (7 and 8 are always dropped)")
	cmd.Flags().String("policy", danmaku.PolicyReference.String(), "Track overlap policy (reference, strict)")
	cmd.Flags().Int("workers", danmaku.DefaultWorkers, "Parallel text measurement workers")
}

// merges flags into the loader and loads the full configuration
func loadConfig(cmd *cobra.Command, keys ...map[string]string) (*config.Config, error) {
	for _, k := range keys {
		if err := loader.BindFlags(cmd.Flags(), k); err != nil {
			return nil, err
		}
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}

	ffmpeg.Configure(ffmpeg.BinaryPaths{
		FFmpeg:  cfg.FFmpeg.FFmpegPath,
		FFprobe: cfg.FFmpeg.FFprobePath,
	})
	return cfg, nil
}

func newMeasurer(settings config.ConvertConfig) (*fontmetrics.Measurer, error) {
	if settings.FontFile == "" {
		return fontmetrics.New()
	}
	m, err := fontmetrics.Load(settings.FontFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}
	return m, nil
}

// fills duration and resolution from a probed video; explicitly set flags win
func applyVideoInfo(cmd *cobra.Command, settings *config.ConvertConfig, info *video.Info) {
	if !cmd.Flags().Changed("duration") {
		settings.Duration = info.Duration.Seconds()
	}
	if info.Width > 0 && info.Height > 0 &&
		!cmd.Flags().Changed("width") && !cmd.Flags().Changed("height") {
		settings.Width = info.Width
		settings.Height = info.Height
	}
}

func probeVideo(ctx context.Context, videoPath string) (*video.Info, error) {
	processor, err := video.NewProcessor()
	if err != nil {
		return nil, err
	}
	info, err := processor.Probe(ctx, videoPath)
	if err != nil {
		return nil, fmt.Errorf("failed to probe video: %w", err)
	}
	logger.Debugw("Probed video",
		"path", videoPath,
		"duration", info.Duration,
		"width", info.Width,
		"height", info.Height,
	)
	return info, nil
}

// reads, lays out and encodes one comment file
func convertFile(ctx context.Context, inputPath string, settings config.ConvertConfig) (*danmaku.Document, error) {
	cfg, err := settings.Danmaku()
	if err != nil {
		return nil, err
	}

	measurer, err := newMeasurer(settings)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open comment file: %w", err)
	}
	defer f.Close()

	start := time.Now()
	doc, err := danmaku.ConvertXML(ctx, f, cfg, measurer)
	if err != nil {
		return nil, fmt.Errorf("conversion failed: %w", err)
	}

	logger.Infow("Converted comments",
		"input", doc.Stats.Input,
		"emitted", doc.Stats.Emitted,
		"blocked", doc.Stats.Blocked,
		"dropped", doc.Stats.Dropped,
		"font", measurer.Name(),
		"elapsed", time.Since(start),
	)
	if doc.Stats.Dropped > 0 {
		logger.Warnw("Some comments found no free track and were dropped",
			"dropped", doc.Stats.Dropped,
		)
	}
	return doc, nil
}

func writeDocument(path string, doc *danmaku.Document) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if _, err := doc.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return f.Close()
}

func requireFile(path, kind string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("%s not found: %s", kind, path)
	}
	return nil
}

// input path with its extension replaced by suffix
func replaceExt(path, suffix string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + suffix
}
