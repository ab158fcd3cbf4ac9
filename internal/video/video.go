package video

import (
	"context"
	"fmt"
	"os"
	"time"

	ffmpegbin "github.com/mgpai22/danmaku/internal/ffmpeg"
)

// video file information
type Info struct {
	Path      string
	Duration  time.Duration
	Width     int
	Height    int
	FrameRate float64
	Codec     string
	HasAudio  bool
}

// video operations the burn pipeline depends on
type Processor interface {
	// reads duration and resolution with ffprobe
	Probe(ctx context.Context, videoPath string) (*Info, error)

	// renders an ASS script onto the video with the ffmpeg ass filter
	Burn(ctx context.Context, videoPath, assPath, outputPath string) error
}

// default implementation using ffmpeg and ffprobe
type DefaultProcessor struct {
	ffmpegPath  string
	ffprobePath string
}

// processor with binaries resolved through the ffmpeg package
func NewProcessor() (*DefaultProcessor, error) {
	paths, err := ffmpegbin.Ensure()
	if err != nil {
		return nil, fmt.Errorf("failed to locate ffmpeg: %w", err)
	}
	return NewProcessorWithPaths(paths.FFmpeg, paths.FFprobe), nil
}

func NewProcessorWithPaths(ffmpegPath, ffprobePath string) *DefaultProcessor {
	return &DefaultProcessor{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
	}
}

func requireFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("file not found: %s", path)
	}
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return nil
}
