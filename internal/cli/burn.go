package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mgpai22/danmaku/internal/video"
)

var burnCmd = &cobra.Command{
	Use:   "burn [video_file] [comments.xml]",
	Short: "Render danmaku comments into a video",
	Long: `Probe the video, convert the comments to ASS at the video's duration and
resolution, and render them onto the frames with ffmpeg. Audio is copied.

ffmpeg and ffprobe are taken from the config file, DANMAKU_FFMPEG_PATH /
DANMAKU_FFPROBE_PATH, PATH, or downloaded into the user cache directory.

Examples:
  danmaku burn episode.mp4 comments.xml
  danmaku burn episode.mp4 comments.xml -o episode.danmaku.mp4 --alpha 30`,
	Args: cobra.ExactArgs(2),
	RunE: runBurn,
}

func init() {
	rootCmd.AddCommand(burnCmd)

	addConvertFlags(burnCmd)
	burnCmd.Flags().Bool("keep-ass", false, "Also write the intermediate ASS script next to the output")
}

func runBurn(cmd *cobra.Command, args []string) error {
	videoPath, inputPath := args[0], args[1]
	ctx := cmd.Context()

	outputPath, _ := cmd.Flags().GetString("output")
	keepASS, _ := cmd.Flags().GetBool("keep-ass")

	if err := requireFile(videoPath, "video file"); err != nil {
		return err
	}
	if err := requireFile(inputPath, "comment file"); err != nil {
		return err
	}

	cfg, err := loadConfig(cmd, convertFlagKeys)
	if err != nil {
		return err
	}
	settings := cfg.Convert

	if outputPath == "" {
		outputPath = replaceExt(videoPath, ".danmaku"+filepath.Ext(videoPath))
	}

	processor, err := video.NewProcessor()
	if err != nil {
		return err
	}

	logger.Infow("Probing video", "input", videoPath)
	info, err := processor.Probe(ctx, videoPath)
	if err != nil {
		return fmt.Errorf("failed to probe video: %w", err)
	}
	applyVideoInfo(cmd, &settings, info)

	doc, err := convertFile(ctx, inputPath, settings)
	if err != nil {
		return err
	}

	tempDir, err := os.MkdirTemp("", "danmaku-*")
	if err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	assPath := filepath.Join(tempDir, "comments.ass")
	if keepASS {
		assPath = replaceExt(outputPath, ".ass")
	}
	if err := writeDocument(assPath, doc); err != nil {
		return err
	}

	logger.Infow("Burning comments into video",
		"output", outputPath,
		"duration", info.Duration,
		"resolution", fmt.Sprintf("%dx%d", settings.Width, settings.Height),
	)
	if err := processor.Burn(ctx, videoPath, assPath, outputPath); err != nil {
		return err
	}

	absOutput, _ := filepath.Abs(outputPath)
	fmt.Fprintf(cmd.OutOrStdout(), "Video rendered successfully: %s\n", absOutput)
	fmt.Fprintf(cmd.OutOrStdout(), "  Comments: %d emitted, %d dropped\n",
		doc.Stats.Emitted, doc.Stats.Dropped)
	return nil
}
