package video

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// JSON output from ffprobe
type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType    string `json:"codec_type"`
		CodecName    string `json:"codec_name"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		AvgFrameRate string `json:"avg_frame_rate"`
		RFrameRate   string `json:"r_frame_rate"`
		Duration     string `json:"duration"`
	} `json:"streams"`
}

func (p *DefaultProcessor) Probe(ctx context.Context, videoPath string) (*Info, error) {
	if err := requireFile(videoPath); err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, p.ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		videoPath,
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, newProcessingError("probe", videoPath, err, stderr.String())
	}

	return parseProbeOutput(stdout.Bytes(), videoPath)
}

func parseProbeOutput(data []byte, videoPath string) (*Info, error) {
	var output ffprobeOutput
	if err := json.Unmarshal(data, &output); err != nil {
		return nil, newProcessingError("probe_parse", videoPath, err, "")
	}

	info := &Info{Path: videoPath}
	seconds := parseSeconds(output.Format.Duration)
	foundVideo := false

	for _, stream := range output.Streams {
		switch stream.CodecType {
		case "video":
			if foundVideo {
				continue
			}
			foundVideo = true
			info.Width = stream.Width
			info.Height = stream.Height
			info.Codec = stream.CodecName
			info.FrameRate = parseFrameRate(stream.AvgFrameRate)
			if info.FrameRate == 0 {
				info.FrameRate = parseFrameRate(stream.RFrameRate)
			}
			// format duration wins; some containers only report it per stream
			if seconds == 0 {
				seconds = parseSeconds(stream.Duration)
			}
		case "audio":
			info.HasAudio = true
		}
	}

	if !foundVideo {
		return nil, newProcessingError("probe_parse", videoPath, ErrNoVideoStream, "")
	}
	if seconds <= 0 {
		return nil, newProcessingError("probe_parse", videoPath, fmt.Errorf("could not determine video duration"), "")
	}

	info.Duration = time.Duration(seconds * float64(time.Second))
	return info, nil
}

func parseSeconds(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// "30000/1001" style rational, 0 when unknown
func parseFrameRate(s string) float64 {
	num, den, found := strings.Cut(s, "/")
	if !found {
		return parseSeconds(s)
	}
	n := parseSeconds(num)
	d := parseSeconds(den)
	if d == 0 {
		return 0
	}
	return n / d
}
