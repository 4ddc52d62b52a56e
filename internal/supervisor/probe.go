package supervisor

import (
	"context"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// ProbeDuration decodes the clip's container duration in whole seconds.
// A file ffprobe cannot parse yields zero, not an error: a truncated clip
// is still a clip.
func (s *Supervisor) ProbeDuration(ctx context.Context, path string) (int, error) {
	cmd := exec.CommandContext(ctx, s.cfg.FFprobePath,
		"-v", "quiet",
		"-show_entries", "format=duration",
		"-of", "csv=p=0",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("probe duration: %w", err)
	}

	raw := strings.TrimSpace(string(out))
	if raw == "" {
		return 0, nil
	}
	secs, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, nil
	}
	return int(math.Round(secs)), nil
}

// CaptureThumbnail grabs a single frame from the live stream after a short
// settle delay. Best-effort: callers run this in a goroutine and only log
// failures.
func (s *Supervisor) CaptureThumbnail(ctx context.Context, rtspURL, thumbPath string) error {
	select {
	case <-time.After(3 * time.Second):
	case <-ctx.Done():
		return ctx.Err()
	}

	cmd := exec.CommandContext(ctx, s.cfg.FFmpegPath,
		"-rtsp_transport", "tcp",
		"-i", rtspURL,
		"-frames:v", "1",
		"-y", thumbPath,
	)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("capture thumbnail: %w", err)
	}
	return nil
}
