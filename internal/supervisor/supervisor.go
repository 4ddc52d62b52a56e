package supervisor

import (
	"context"
	"fmt"
	"log"
	"os/exec"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"
)

// SpawnSpec describes one encoder launch.
type SpawnSpec struct {
	CameraID    uuid.UUID
	RecordingID uuid.UUID
	RTSPURL     string
	OutputPath  string
	MaxDuration time.Duration // 0 means unbounded
}

// ExitHandler is invoked when a spawned encoder exits on its own (for
// example when MaxDuration elapses), so the lifecycle controller can
// finalize the recording row.
type ExitHandler func(cameraID, recordingID uuid.UUID)

// Config tunes the supervisor's external tooling and kill behavior.
type Config struct {
	FFmpegPath  string
	FFprobePath string
	GracePeriod time.Duration
}

// Supervisor owns the lifetime of one encoder process per active
// recording. Markers live in the redis Registry, so termination works
// from a request other than the one that spawned the process.
type Supervisor struct {
	cfg Config
	reg *Registry

	mu     sync.Mutex
	onExit ExitHandler
}

func New(cfg Config, reg *Registry) *Supervisor {
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = "ffmpeg"
	}
	if cfg.FFprobePath == "" {
		cfg.FFprobePath = "ffprobe"
	}
	if cfg.GracePeriod == 0 {
		cfg.GracePeriod = time.Second
	}
	return &Supervisor{cfg: cfg, reg: reg}
}

// SetExitHandler registers the exit callback. Set once during wiring,
// before any Spawn.
func (s *Supervisor) SetExitHandler(h ExitHandler) {
	s.mu.Lock()
	s.onExit = h
	s.mu.Unlock()
}

// Spawn launches the encoder detached from the calling request and
// persists its marker. The returned pid is informational; Terminate
// works from the marker alone.
func (s *Supervisor) Spawn(ctx context.Context, spec SpawnSpec) (int, error) {
	args := []string{"-rtsp_transport", "tcp", "-i", spec.RTSPURL}
	if spec.MaxDuration > 0 {
		args = append(args, "-t", strconv.Itoa(int(spec.MaxDuration.Seconds())))
	}
	args = append(args,
		"-c:v", "copy",
		"-c:a", "aac",
		"-movflags", "+faststart",
		"-y", spec.OutputPath,
	)

	cmd := exec.Command(s.cfg.FFmpegPath, args...)
	// Own process group: the encoder must outlive the HTTP request and
	// must not receive the server's terminal signals.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("start encoder: %w", err)
	}

	pid := cmd.Process.Pid
	if err := s.reg.Put(ctx, spec.CameraID, Marker{
		PID:         pid,
		RecordingID: spec.RecordingID,
		StartedAt:   time.Now().UTC(),
	}); err != nil {
		// No marker means no way to stop it later. Kill and fail the spawn.
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return 0, fmt.Errorf("persist process marker: %w", err)
	}

	go s.reap(cmd, spec)

	return pid, nil
}

// reap waits for the encoder to exit and, if its marker is still current,
// clears it and notifies the exit handler. A marker replaced by a newer
// recording is left alone.
func (s *Supervisor) reap(cmd *exec.Cmd, spec SpawnSpec) {
	err := cmd.Wait()
	if err != nil {
		log.Printf("[SUPERVISOR] encoder for camera %s exited: %v", spec.CameraID, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	m, regErr := s.reg.Get(ctx, spec.CameraID)
	if regErr != nil {
		log.Printf("[SUPERVISOR] marker lookup after exit failed for camera %s: %v", spec.CameraID, regErr)
		return
	}
	if m == nil || m.RecordingID != spec.RecordingID {
		return
	}
	if err := s.reg.Delete(ctx, spec.CameraID); err != nil {
		log.Printf("[SUPERVISOR] marker cleanup failed for camera %s: %v", spec.CameraID, err)
	}

	s.mu.Lock()
	h := s.onExit
	s.mu.Unlock()
	if h != nil {
		h(spec.CameraID, spec.RecordingID)
	}
}

// Terminate stops the camera's encoder: SIGTERM, a grace interval, then
// SIGKILL. A missing marker or an already-dead process is a no-op success;
// the marker is always removed.
func (s *Supervisor) Terminate(ctx context.Context, cameraID uuid.UUID) error {
	m, err := s.reg.Get(ctx, cameraID)
	if err != nil {
		return fmt.Errorf("marker lookup: %w", err)
	}
	if m == nil {
		return nil
	}
	defer func() {
		if err := s.reg.Delete(ctx, cameraID); err != nil {
			log.Printf("[SUPERVISOR] marker delete failed for camera %s: %v", cameraID, err)
		}
	}()

	if !processAlive(m.PID) {
		return nil
	}

	if err := unix.Kill(m.PID, unix.SIGTERM); err != nil {
		if err == unix.ESRCH {
			return nil
		}
		return fmt.Errorf("signal encoder: %w", err)
	}

	deadline := time.Now().Add(s.cfg.GracePeriod)
	for time.Now().Before(deadline) {
		if !processAlive(m.PID) {
			return nil
		}
		time.Sleep(50 * time.Millisecond)
	}

	if processAlive(m.PID) {
		if err := unix.Kill(m.PID, unix.SIGKILL); err != nil && err != unix.ESRCH {
			return fmt.Errorf("kill encoder: %w", err)
		}
	}
	return nil
}

// ActiveMarker exposes the camera's marker for status reporting.
func (s *Supervisor) ActiveMarker(ctx context.Context, cameraID uuid.UUID) (*Marker, error) {
	return s.reg.Get(ctx, cameraID)
}

// processAlive probes the pid with signal 0.
func processAlive(pid int) bool {
	return unix.Kill(pid, 0) == nil
}
