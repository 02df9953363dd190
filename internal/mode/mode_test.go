package mode

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/ayusman/carnival/internal/audio"
	"github.com/ayusman/carnival/internal/capture"
	"github.com/ayusman/carnival/internal/detector"
	"github.com/ayusman/carnival/internal/store"
	"github.com/ayusman/carnival/internal/tracking"
	"github.com/rs/zerolog"
)

var t0 = time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)

const tick = time.Second / 60

type fakeBoard struct {
	submitted []store.Entry
	err       error
}

func (b *fakeBoard) Submit(e store.Entry) ([]store.Entry, error) {
	if b.err != nil {
		return nil, b.err
	}
	b.submitted = append(b.submitted, e)
	return store.Insert(nil, e), nil
}

type fakeRounds struct {
	rounds []store.Round
}

func (r *fakeRounds) Record(rd *store.Round) error {
	r.rounds = append(r.rounds, *rd)
	return nil
}

func testEnv() Env {
	return Env{
		Source:     tracking.NewManual(),
		Log:        zerolog.Nop(),
		Rand:       rand.New(rand.NewPCG(1, 2)),
		Canvas:     Size{W: 640, H: 480},
		GameLength: DefaultGameLength,
		Player:     "Tester",
		SoundOn:    true,
	}
}

// start runs a mode through Begin and Activate with rec as its voice.
func start(t *testing.T, m Mode, rec *audio.Recorder, now time.Time) {
	t.Helper()
	m.Begin()
	if m.State() != Initializing {
		t.Fatalf("state after Begin = %s, want initializing", m.State())
	}
	if err := m.Activate(&Handles{Engine: rec}, now); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if m.State() != Running {
		t.Fatalf("state after Activate = %s, want running", m.State())
	}
}

func TestParseName(t *testing.T) {
	for _, n := range Names() {
		got, ok := ParseName(string(n))
		if !ok || got != n {
			t.Errorf("ParseName(%q) = %q, %v", n, got, ok)
		}
		m, ok := New(n, testEnv())
		if !ok || m.Name() != n {
			t.Errorf("New(%q) = %v, %v", n, m, ok)
		}
	}
	if _, ok := ParseName("karaoke"); ok {
		t.Error("karaoke should not parse")
	}
	if _, ok := New("karaoke", testEnv()); ok {
		t.Error("New should reject unknown modes")
	}
}

func TestState_String(t *testing.T) {
	tests := map[State]string{
		Uninitialized: "uninitialized",
		Initializing:  "initializing",
		Running:       "running",
		Ended:         "ended",
		Failed:        "failed",
		State(42):     "unknown",
	}
	for s, want := range tests {
		if s.String() != want {
			t.Errorf("State(%d).String() = %q, want %q", int(s), s.String(), want)
		}
	}
}

func TestState_Text(t *testing.T) {
	for _, s := range []State{Uninitialized, Initializing, Running, Ended, Failed} {
		b, _ := s.MarshalText()
		var got State
		if err := got.UnmarshalText(b); err != nil || got != s {
			t.Errorf("UnmarshalText(%q) = %v, %v; want %v", b, got, err, s)
		}
	}
	var s State
	if err := s.UnmarshalText([]byte("paused")); err == nil {
		t.Error("unknown state name should be rejected")
	}
}

func TestSetup(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		env := testEnv()
		rec := audio.NewRecorder()
		env.Audio = func() (audio.Engine, error) { return rec, nil }

		h, err := Setup(context.Background(), env, true)
		if err != nil {
			t.Fatalf("Setup: %v", err)
		}
		if h.Engine != rec || h.Degraded {
			t.Errorf("handles = %+v, want recorder engine", h)
		}
		if env.Source.(*tracking.Manual).Opens() != 1 {
			t.Error("source should be opened once")
		}
	})

	t.Run("permission denied", func(t *testing.T) {
		env := testEnv()
		env.Source.(*tracking.Manual).SetOpenError(capture.ErrPermissionDenied)

		_, err := Setup(context.Background(), env, true)
		var se *SetupError
		if !errors.As(err, &se) {
			t.Fatalf("expected *SetupError, got %v", err)
		}
		if se.Kind != PermissionDenied {
			t.Errorf("Kind = %s, want %s", se.Kind, PermissionDenied)
		}
		if !errors.Is(err, capture.ErrPermissionDenied) {
			t.Error("setup error should wrap ErrPermissionDenied")
		}
	})

	t.Run("model load", func(t *testing.T) {
		env := testEnv()
		env.Source.(*tracking.Manual).SetOpenError(errors.New("wasm fetch failed"))

		_, err := Setup(context.Background(), env, true)
		var se *SetupError
		if !errors.As(err, &se) || se.Kind != ModelLoadFailure {
			t.Fatalf("expected model load failure, got %v", err)
		}
		if !errors.Is(err, detector.ErrModelLoad) {
			t.Error("setup error should wrap ErrModelLoad")
		}
	})

	t.Run("audio failure degrades to silence", func(t *testing.T) {
		env := testEnv()
		env.Audio = func() (audio.Engine, error) { return nil, audio.ErrAudioInit }

		h, err := Setup(context.Background(), env, true)
		if err != nil {
			t.Fatalf("audio failure must not fail setup: %v", err)
		}
		if !h.Degraded {
			t.Error("handles should be marked degraded")
		}
		if _, ok := h.Engine.(audio.Silent); !ok {
			t.Errorf("engine = %T, want audio.Silent", h.Engine)
		}
	})

	t.Run("source not needed", func(t *testing.T) {
		env := testEnv()
		env.Source.(*tracking.Manual).SetOpenError(capture.ErrPermissionDenied)

		if _, err := Setup(context.Background(), env, false); err != nil {
			t.Errorf("Setup without source: %v", err)
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := Setup(ctx, testEnv(), true); err == nil {
			t.Error("expected error for cancelled setup")
		}
	})
}

func TestLifecycle_FailAndCleanup(t *testing.T) {
	for _, n := range Names() {
		t.Run(string(n), func(t *testing.T) {
			m, _ := New(n, testEnv())
			m.Begin()
			m.Fail(&SetupError{Kind: PermissionDenied, Err: capture.ErrPermissionDenied})

			if m.State() != Failed {
				t.Fatalf("state = %s, want failed", m.State())
			}
			snap := m.Snapshot(t0)
			if snap.Error == nil || snap.Error.Kind != PermissionDenied || snap.Error.Message == "" {
				t.Errorf("snapshot error = %+v", snap.Error)
			}

			// A failed mode is never revived by a late setup result.
			if err := m.Activate(&Handles{Engine: audio.NewRecorder()}, t0); !errors.Is(err, ErrNotInitializing) {
				t.Errorf("Activate on failed mode = %v, want ErrNotInitializing", err)
			}

			m.Cleanup()
			if m.State() != Uninitialized {
				t.Errorf("state after Cleanup = %s, want uninitialized", m.State())
			}
			if m.Snapshot(t0).Error != nil {
				t.Error("Cleanup should clear the error")
			}
		})
	}
}

func TestCleanup_DisposesVoice(t *testing.T) {
	for _, n := range Names() {
		t.Run(string(n), func(t *testing.T) {
			m, _ := New(n, testEnv())
			rec := audio.NewRecorder()
			start(t, m, rec, t0)
			m.Cleanup()
			if !rec.Disposed() {
				t.Error("Cleanup should dispose the audio voice")
			}
			if m.State() != Uninitialized {
				t.Errorf("state = %s, want uninitialized", m.State())
			}
		})
	}
}

func TestFullBody(t *testing.T) {
	m := NewFullBody(testEnv())
	if m.NeedsSource() {
		t.Error("full body mode should not need landmarks")
	}
	start(t, m, audio.NewRecorder(), t0)
	m.OnFrame(detector.Frame{}, t0)
	m.Update(t0.Add(time.Hour))

	snap := m.Snapshot(t0)
	if snap.Message != FullBodyBanner || snap.State != Running {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestInstructions(t *testing.T) {
	for _, n := range Names() {
		if len(Instructions(n)) == 0 {
			t.Errorf("no instructions for %s", n)
		}
	}
	got := Instructions(Face)
	got[0] = "changed"
	if Instructions(Face)[0] == "changed" {
		t.Error("Instructions should return a copy")
	}
}
