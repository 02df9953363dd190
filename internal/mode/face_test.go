package mode

import (
	"errors"
	"testing"
	"time"

	"github.com/ayusman/carnival/internal/audio"
	"github.com/ayusman/carnival/internal/detector"
)

func faceFrame(x, y float64) detector.Frame {
	return detector.Frame{Faces: []detector.FaceLandmarks{detector.FaceAt(x, y)}}
}

// mirrorX returns the video x whose mirrored canvas position is cx on a
// 640 wide canvas over 640 wide video.
func mirrorX(cx float64) float64 {
	return 640 - cx
}

func TestWordGame_NoWordsFullRound(t *testing.T) {
	env := testEnv()
	board := &fakeBoard{}
	rounds := &fakeRounds{}
	env.Leaderboard = board
	env.Rounds = rounds

	cfg := DefaultWordConfig()
	cfg.MaxWords = 0
	g := NewWordGame(env, cfg)
	start(t, g, audio.NewRecorder(), t0)

	now := t0
	for now.Before(t0.Add(DefaultGameLength)) {
		g.OnFrame(faceFrame(320, 240), now)
		g.Update(now)
		if g.LiveWords() != 0 {
			t.Fatalf("words spawned with MaxWords = 0")
		}
		if g.State() != Running {
			t.Fatalf("round ended early at %v", now.Sub(t0))
		}
		now = now.Add(tick)
	}

	g.Update(t0.Add(DefaultGameLength))
	if g.State() != Ended {
		t.Fatalf("state = %s, want ended", g.State())
	}
	if g.Score() != 0 {
		t.Errorf("score = %d, want 0", g.Score())
	}
	if len(board.submitted) != 1 || board.submitted[0].Score != 0 || board.submitted[0].Name != "Tester" {
		t.Errorf("leaderboard submissions = %+v", board.submitted)
	}
	if len(rounds.rounds) != 1 || rounds.rounds[0].Mode != string(Face) {
		t.Errorf("rounds = %+v", rounds.rounds)
	}

	snap := g.Snapshot(t0.Add(DefaultGameLength))
	if snap.State != Ended || len(snap.Leaderboard) != 1 {
		t.Errorf("ended snapshot = %+v", snap)
	}

	// Ended is terminal until cleanup.
	g.Update(t0.Add(2 * DefaultGameLength))
	if g.State() != Ended || len(board.submitted) != 1 {
		t.Error("ended round should not be submitted twice")
	}
}

func TestWordGame_CooldownBetweenCatches(t *testing.T) {
	rec := audio.NewRecorder()
	g := NewWordGame(testEnv(), DefaultWordConfig())
	start(t, g, rec, t0)

	g.Inject(Word{Text: "ONE", X: 320, Y: 240, Size: 30})
	g.Inject(Word{Text: "TWO", X: 330, Y: 240, Size: 40})
	g.OnFrame(faceFrame(mirrorX(320), 240), t0)

	g.Update(t0)
	if g.Score() != 30 {
		t.Fatalf("score after first catch = %d, want 30", g.Score())
	}
	if g.LiveWords() != 1 {
		t.Fatalf("live words = %d, want 1", g.LiveWords())
	}

	g.Update(t0.Add(299 * time.Millisecond))
	if g.Score() != 30 {
		t.Errorf("second catch within cooldown registered: score = %d", g.Score())
	}

	g.Update(t0.Add(300 * time.Millisecond))
	if g.Score() != 70 {
		t.Errorf("score after cooldown = %d, want 70", g.Score())
	}

	notes := rec.Notes()
	if len(notes) != 2 || notes[0].Pitch != "C4" || notes[1].Pitch != "E4" {
		t.Errorf("notes = %+v, want C4 then E4", notes)
	}
	if notes[0].Duration != CatchNoteLength {
		t.Errorf("note length = %v, want %v", notes[0].Duration, CatchNoteLength)
	}
}

func TestWordGame_CatchAtMostOnce(t *testing.T) {
	g := NewWordGame(testEnv(), DefaultWordConfig())
	start(t, g, audio.NewRecorder(), t0)

	g.Inject(Word{Text: "SOLO", X: 320, Y: 240, Size: 25.7})
	g.OnFrame(faceFrame(mirrorX(320), 240), t0)

	for i := 0; i < 120; i++ {
		g.Update(t0.Add(time.Duration(i) * time.Second))
	}
	if g.Score() != 25 {
		t.Errorf("score = %d, want 25 (floor of size, once)", g.Score())
	}
	if g.LiveWords() != 0 {
		t.Errorf("caught word should be removed")
	}
}

func TestWordGame_CatchRadius(t *testing.T) {
	g := NewWordGame(testEnv(), DefaultWordConfig())
	start(t, g, audio.NewRecorder(), t0)

	g.Inject(Word{Text: "FAR", X: 370, Y: 240, Size: 30})
	g.OnFrame(faceFrame(mirrorX(320), 240), t0)
	g.Update(t0)
	if g.Score() != 0 {
		t.Errorf("word exactly at the radius should not be caught, score = %d", g.Score())
	}
}

func TestWordGame_NoFaceNoCatch(t *testing.T) {
	g := NewWordGame(testEnv(), DefaultWordConfig())
	start(t, g, audio.NewRecorder(), t0)

	g.Inject(Word{Text: "HERE", X: 320, Y: 240, Size: 30})
	g.OnFrame(faceFrame(mirrorX(320), 240), t0)
	g.OnFrame(detector.Frame{}, t0)
	g.Update(t0)
	if g.Score() != 0 {
		t.Error("a frame without faces should clear the anchor")
	}
	if g.Snapshot(t0).Anchor != nil {
		t.Error("snapshot should have no anchor")
	}
}

func TestWordGame_WordsLeaveBottom(t *testing.T) {
	g := NewWordGame(testEnv(), DefaultWordConfig())
	start(t, g, audio.NewRecorder(), t0)

	g.Inject(Word{Text: "DROP", X: 100, Y: 470, Speed: 20, Size: 30})
	g.Update(t0)
	if g.LiveWords() != 0 {
		t.Error("word past the bottom edge should be removed")
	}
	if g.Score() != 0 {
		t.Error("missed word should not score")
	}
}

func TestWordGame_Spawning(t *testing.T) {
	g := NewWordGame(testEnv(), DefaultWordConfig())
	start(t, g, audio.NewRecorder(), t0)

	for i := 1; i < 60; i++ {
		g.Update(t0.Add(time.Duration(i) * tick))
	}
	if g.LiveWords() != 0 {
		t.Fatalf("word spawned before 60 ticks")
	}
	g.Update(t0.Add(60 * tick))
	if g.LiveWords() != 1 {
		t.Fatalf("live words after 60 ticks = %d, want 1", g.LiveWords())
	}

	w := g.words[0]
	cfg := DefaultWordConfig()
	if w.X < cfg.Margin || w.X >= 640-cfg.Margin {
		t.Errorf("x = %v outside [%v, %v)", w.X, cfg.Margin, 640-cfg.Margin)
	}
	if w.Speed < cfg.MinSpeed || w.Speed >= cfg.MaxSpeed {
		t.Errorf("speed = %v outside [%v, %v)", w.Speed, cfg.MinSpeed, cfg.MaxSpeed)
	}
	if w.Size < cfg.MinSize || w.Size >= cfg.MaxSize {
		t.Errorf("size = %v outside [%v, %v)", w.Size, cfg.MinSize, cfg.MaxSize)
	}
	if w.Y != cfg.StartY+w.Speed {
		t.Errorf("y = %v, want start %v plus one step", w.Y, cfg.StartY)
	}
}

func TestWordGame_MaxWords(t *testing.T) {
	cfg := DefaultWordConfig()
	cfg.SpawnEvery = 1
	cfg.MaxWords = 3
	g := NewWordGame(testEnv(), cfg)
	start(t, g, audio.NewRecorder(), t0)

	for i := 1; i <= 10; i++ {
		g.Update(t0.Add(time.Duration(i) * tick))
	}
	if g.LiveWords() != 3 {
		t.Errorf("live words = %d, want cap of 3", g.LiveWords())
	}
}

func TestWordGame_AnchorMirrored(t *testing.T) {
	env := testEnv()
	env.Canvas = Size{W: 1280, H: 960}
	g := NewWordGame(env, DefaultWordConfig())
	start(t, g, audio.NewRecorder(), t0)

	g.OnFrame(faceFrame(100, 240), t0)
	a := g.Snapshot(t0).Anchor
	if a == nil {
		t.Fatal("expected an anchor")
	}
	if a.X != 1080 || a.Y != 480 {
		t.Errorf("anchor = %+v, want (1080, 480)", *a)
	}
}

func TestWordGame_Bonus(t *testing.T) {
	env := testEnv()
	board := &fakeBoard{}
	env.Leaderboard = board
	g := NewWordGame(env, DefaultWordConfig())

	if err := g.ClaimBonus("jazz"); !errors.Is(err, ErrNotRunning) {
		t.Errorf("bonus before start = %v, want ErrNotRunning", err)
	}

	start(t, g, audio.NewRecorder(), t0)

	if err := g.ClaimBonus("   "); !errors.Is(err, ErrEmptyWord) {
		t.Errorf("blank bonus = %v, want ErrEmptyWord", err)
	}
	if !g.Snapshot(t0).Bonus {
		t.Error("bonus should be available")
	}
	if err := g.ClaimBonus("jazz"); err != nil {
		t.Fatalf("ClaimBonus: %v", err)
	}
	if err := g.ClaimBonus("blues"); !errors.Is(err, ErrBonusClaimed) {
		t.Errorf("second bonus = %v, want ErrBonusClaimed", err)
	}
	if g.Score() != BonusPoints {
		t.Errorf("score = %d, want %d", g.Score(), BonusPoints)
	}

	g.Update(t0.Add(DefaultGameLength))
	if len(board.submitted) != 1 || board.submitted[0].Name != "jazz" {
		t.Errorf("submissions = %+v, want name jazz", board.submitted)
	}
}

func TestWordGame_LeaderboardFailure(t *testing.T) {
	env := testEnv()
	env.Leaderboard = &fakeBoard{err: errors.New("disk full")}
	env.GameLength = time.Second
	g := NewWordGame(env, DefaultWordConfig())
	start(t, g, audio.NewRecorder(), t0)

	g.Update(t0.Add(time.Second))
	if g.State() != Ended {
		t.Fatalf("state = %s, want ended", g.State())
	}
	if len(g.Snapshot(t0).Leaderboard) != 1 {
		t.Error("round should still show its own score")
	}
}

func TestWordGame_Remaining(t *testing.T) {
	g := NewWordGame(testEnv(), DefaultWordConfig())
	start(t, g, audio.NewRecorder(), t0)

	if r := g.Snapshot(t0).Remaining; r != 60 {
		t.Errorf("remaining at start = %d, want 60", r)
	}
	if r := g.Snapshot(t0.Add(59500 * time.Millisecond)).Remaining; r != 1 {
		t.Errorf("remaining near the end = %d, want 1", r)
	}
}

func TestWordGame_SoundOff(t *testing.T) {
	rec := audio.NewRecorder()
	g := NewWordGame(testEnv(), DefaultWordConfig())
	start(t, g, rec, t0)
	g.SetSound(false)

	g.Inject(Word{Text: "QUIET", X: 320, Y: 240, Size: 30})
	g.OnFrame(faceFrame(mirrorX(320), 240), t0)
	g.Update(t0)

	if g.Score() != 30 {
		t.Errorf("score = %d, want 30", g.Score())
	}
	if len(rec.Notes()) != 0 {
		t.Error("no notes should play with sound off")
	}
}

func TestWordGame_CleanupResets(t *testing.T) {
	g := NewWordGame(testEnv(), DefaultWordConfig())
	start(t, g, audio.NewRecorder(), t0)
	g.Inject(Word{Text: "X", X: 1, Y: 1, Size: 20})
	g.ClaimBonus("x")
	g.Cleanup()

	if g.Score() != 0 || g.LiveWords() != 0 {
		t.Errorf("after Cleanup score = %d, words = %d", g.Score(), g.LiveWords())
	}

	start(t, g, audio.NewRecorder(), t0)
	if err := g.ClaimBonus("again"); err != nil {
		t.Errorf("bonus should be available in a new round: %v", err)
	}
}
