package videogenerator

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

func ffmpegArgs(framesFolder string, outputPath string, plan framePlan) []string {
	return []string{
		"-framerate", fmt.Sprintf("%d", plan.fps),
		"-i", filepath.Join(framesFolder, framePattern),
		"-preset", "veryfast",
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-tune", "animation",
		"-y",
		"-t", fmt.Sprintf("%f", plan.total().Seconds()),
		outputPath,
	}
}

func createVideoFromFrames(ctx context.Context, framesFolder string, outputPath string, plan framePlan) error {
	cmdArgs := ffmpegArgs(framesFolder, outputPath, plan)
	cmd := exec.CommandContext(ctx, "ffmpeg", cmdArgs...)

	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("error executing FFmpeg command: ffmpeg %s; %w: %s",
			strings.Join(cmdArgs, " "), err, lastLine(out))
	}
	return nil
}

func lastLine(out []byte) string {
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	return lines[len(lines)-1]
}
