package capture

import (
	"os"
	"strings"
	"testing"
)

func TestStartFallbackWhenEncoderMissing(t *testing.T) {
	s := NewSupervisor("definitely-not-an-encoder-binary", t.TempDir(), "default", "pulse")

	h, err := s.Start("m1")
	if err != nil {
		t.Fatalf("Start() error = %v, want fallback recovery", err)
	}

	info, err := os.Stat(h.FilePath)
	if err != nil {
		t.Fatalf("fallback artifact missing: %v", err)
	}
	if info.Size() != FallbackSize {
		t.Errorf("fallback artifact size = %d, want %d", info.Size(), FallbackSize)
	}

	data, err := os.ReadFile(h.FilePath)
	if err != nil {
		t.Fatal(err)
	}
	for _, b := range data {
		if b != 0 {
			t.Fatal("fallback artifact is not all zero bytes")
		}
	}
}

func TestArtifactPathShape(t *testing.T) {
	dir := t.TempDir()
	s := NewSupervisor("missing-encoder", dir, "default", "pulse")

	h, err := s.Start("m1")
	if err != nil {
		t.Fatal(err)
	}

	base := h.FilePath[strings.LastIndex(h.FilePath, "/")+1:]
	if !strings.HasPrefix(base, "meeting_m1_") || !strings.HasSuffix(base, ".wav") {
		t.Errorf("artifact name %q does not match meeting_<id>_<epochMillis>.wav", base)
	}
	if !strings.HasPrefix(h.FilePath, dir) {
		t.Errorf("artifact %q not under temp dir %q", h.FilePath, dir)
	}
}

func TestStopIdempotent(t *testing.T) {
	s := NewSupervisor("missing-encoder", t.TempDir(), "default", "pulse")
	h, err := s.Start("m1")
	if err != nil {
		t.Fatal(err)
	}

	// Never panics, even without a live process and when called twice.
	s.Stop(h)
	s.Stop(h)
	s.Stop(nil)
}
