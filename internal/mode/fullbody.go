package mode

import (
	"time"

	"github.com/ayusman/carnival/internal/detector"
)

// FullBodyBanner is shown while the full-body mode runs.
const FullBodyBanner = "Full Body Mode Active"

// FullBodyMode is a placeholder that runs without landmarks.
type FullBodyMode struct {
	base
}

// NewFullBody creates the full-body placeholder.
func NewFullBody(env Env) *FullBodyMode {
	return &FullBodyMode{base: newBase(FullBody, env)}
}

func (m *FullBodyMode) NeedsSource() bool { return false }

func (m *FullBodyMode) Activate(h *Handles, _ time.Time) error {
	return m.activate(h)
}

func (m *FullBodyMode) OnFrame(detector.Frame, time.Time) {}

func (m *FullBodyMode) OnUtterance(string, time.Time) (Reply, bool) {
	return Reply{}, false
}

func (m *FullBodyMode) Update(time.Time) {}

func (m *FullBodyMode) Snapshot(time.Time) Snapshot {
	s := m.snapshot()
	if m.state == Running {
		s.Message = FullBodyBanner
	}
	return s
}

func (m *FullBodyMode) Cleanup() {
	m.release()
}
