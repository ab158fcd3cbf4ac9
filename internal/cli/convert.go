package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

var convertCmd = &cobra.Command{
	Use:   "convert [comments.xml]",
	Short: "Convert a danmaku XML file into an ASS subtitle script",
	Long: `Convert danmaku comments into an ASS script.

Scrolling comments are placed on horizontal tracks so that comments sharing a
track do not overlap while crossing the screen. Top and bottom comments are
pinned to the centre. Comments with no free track are dropped and counted.

The duration and resolution can be read from a video with --video; explicit
flags take precedence.

Examples:
  danmaku convert comments.xml --duration 1440
  danmaku convert comments.xml --video episode.mp4 -o episode.ass
  danmaku convert comments.xml -d 600 --block 4,5 --alpha 20 -o -`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	addConvertFlags(convertCmd)
	convertCmd.Flags().String("video", "", "Video to probe for duration and resolution")
}

func runConvert(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	ctx := cmd.Context()

	videoPath, _ := cmd.Flags().GetString("video")
	outputPath, _ := cmd.Flags().GetString("output")

	if err := requireFile(inputPath, "comment file"); err != nil {
		return err
	}

	cfg, err := loadConfig(cmd, convertFlagKeys)
	if err != nil {
		return err
	}
	settings := cfg.Convert

	if videoPath != "" {
		info, err := probeVideo(ctx, videoPath)
		if err != nil {
			return err
		}
		applyVideoInfo(cmd, &settings, info)
	}

	if outputPath == "" {
		outputPath = replaceExt(inputPath, ".ass")
	}

	logger.Infow("Starting conversion",
		"input", inputPath,
		"output", outputPath,
		"duration", settings.Duration,
		"resolution", fmt.Sprintf("%dx%d", settings.Width, settings.Height),
		"policy", settings.Policy,
	)

	doc, err := convertFile(ctx, inputPath, settings)
	if err != nil {
		return err
	}

	if outputPath == "-" {
		_, err := doc.WriteTo(cmd.OutOrStdout())
		return err
	}

	if err := writeDocument(outputPath, doc); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	absOutput, _ := filepath.Abs(outputPath)
	fmt.Fprintf(out, "Subtitles generated successfully: %s\n", absOutput)
	fmt.Fprintf(out, "  Comments: %d emitted, %d blocked, %d dropped\n",
		doc.Stats.Emitted, doc.Stats.Blocked, doc.Stats.Dropped)
	return nil
}
