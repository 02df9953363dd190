package mode

import (
	"math"
	"strings"
	"time"

	"github.com/ayusman/carnival/internal/detector"
	"github.com/ayusman/carnival/internal/store"
	"github.com/lucasb-eyer/go-colorful"
)

// DefaultGameLength is the length of one word-catching round.
const DefaultGameLength = 60 * time.Second

// BonusPoints is awarded once per round for a favourite word.
const BonusPoints = 100

// CatchNoteLength is an eighth note at 120 bpm.
const CatchNoteLength = 250 * time.Millisecond

// CatchNotes is the ascending cycle played on successive catches.
var CatchNotes = []string{"C4", "E4", "G4", "B4", "A4", "D4"}

// Words is the vocabulary falling words are drawn from.
var Words = []string{
	"MUSIC", "SOUND", "RHYTHM", "MELODY", "HARMONY", "BEAT", "TEMPO",
	"SONG", "DANCE", "VOICE", "DRUM", "BASS", "PIANO", "SYNTH", "JAZZ",
	"ROCK", "POP", "FOLK", "BLUES", "OPERA", "SOUL", "FUNK", "DISCO",
	"CATCH", "JUMP", "PLAY", "FUN", "SCORE", "WIN", "MOVE", "SMILE", "HAPPY",
}

// WordConfig tunes the word game.
type WordConfig struct {
	// SpawnEvery is the number of ticks between new words.
	SpawnEvery int
	MaxWords   int
	StartY     float64
	MinSpeed   float64
	MaxSpeed   float64
	MinSize    float64
	MaxSize    float64
	// Margin keeps spawned words this far from the side edges.
	Margin      float64
	CatchRadius float64
	Cooldown    time.Duration
}

// DefaultWordConfig returns the standard round settings.
func DefaultWordConfig() WordConfig {
	return WordConfig{
		SpawnEvery:  60,
		MaxWords:    40,
		StartY:      -20,
		MinSpeed:    2,
		MaxSpeed:    6,
		MinSize:     20,
		MaxSize:     50,
		Margin:      50,
		CatchRadius: 50,
		Cooldown:    300 * time.Millisecond,
	}
}

// Word is a falling word. Caught is set at most once.
type Word struct {
	Text   string
	X, Y   float64
	Speed  float64
	Size   float64
	Color  colorful.Color
	Caught bool
}

// WordGame is the face-tracking mode: words fall from the top of the
// canvas and are caught by moving the point between the eyes onto them.
type WordGame struct {
	base
	cfg WordConfig

	words     []*Word
	ticks     int
	score     int
	caught    int
	endsAt    time.Time
	lastCatch time.Time
	note      int

	anchor    Point
	hasAnchor bool

	bonusWord string
	board     []store.Entry
}

// NewWordGame creates a word game.
func NewWordGame(env Env, cfg WordConfig) *WordGame {
	return &WordGame{base: newBase(Face, env), cfg: cfg}
}

func (g *WordGame) NeedsSource() bool { return true }

// Activate starts the round clock.
func (g *WordGame) Activate(h *Handles, now time.Time) error {
	if err := g.activate(h); err != nil {
		return err
	}
	g.endsAt = now.Add(g.env.GameLength)
	return nil
}

// OnFrame takes the anchor from the first face, scaled to the canvas and
// mirrored to match the mirrored video.
func (g *WordGame) OnFrame(f detector.Frame, now time.Time) {
	if g.state != Running {
		return
	}
	g.hasAnchor = false
	if len(f.Faces) == 0 {
		return
	}
	p, ok := f.Faces[0].Anchor()
	if !ok {
		return
	}
	vw, vh := f.VideoSize()
	g.anchor = Point{
		X: g.env.Canvas.W - p.X/vw*g.env.Canvas.W,
		Y: p.Y / vh * g.env.Canvas.H,
	}
	g.hasAnchor = true
}

func (g *WordGame) OnUtterance(string, time.Time) (Reply, bool) {
	return Reply{}, false
}

// Update spawns, moves and catches words, and ends the round when the
// clock runs out.
func (g *WordGame) Update(now time.Time) {
	if g.state != Running {
		return
	}
	if !now.Before(g.endsAt) {
		g.end(now)
		return
	}

	g.ticks++
	if g.cfg.SpawnEvery > 0 && g.ticks%g.cfg.SpawnEvery == 0 && len(g.words) < g.cfg.MaxWords {
		g.spawn()
	}

	live := g.words[:0]
	for _, w := range g.words {
		w.Y += w.Speed
		if w.Y > g.env.Canvas.H {
			continue
		}
		if g.hasAnchor && g.tryCatch(w, now) {
			continue
		}
		live = append(live, w)
	}
	clear(g.words[len(live):])
	g.words = live
}

func (g *WordGame) spawn() {
	r := g.env.Rand
	c := g.cfg
	w := &Word{
		Text:  Words[r.IntN(len(Words))],
		X:     c.Margin + r.Float64()*(g.env.Canvas.W-2*c.Margin),
		Y:     c.StartY,
		Speed: c.MinSpeed + r.Float64()*(c.MaxSpeed-c.MinSpeed),
		Size:  c.MinSize + r.Float64()*(c.MaxSize-c.MinSize),
		Color: WordColors[r.IntN(len(WordColors))],
	}
	g.words = append(g.words, w)
}

// Inject adds a word directly. Used for scripted rounds.
func (g *WordGame) Inject(w Word) {
	g.words = append(g.words, &w)
}

// tryCatch marks w caught if the anchor is within reach and the cooldown
// since the previous catch has elapsed.
func (g *WordGame) tryCatch(w *Word, now time.Time) bool {
	if w.Caught {
		return false
	}
	if !g.lastCatch.IsZero() && now.Sub(g.lastCatch) < g.cfg.Cooldown {
		return false
	}
	if math.Hypot(g.anchor.X-w.X, g.anchor.Y-w.Y) >= g.cfg.CatchRadius {
		return false
	}

	w.Caught = true
	g.score += int(math.Floor(w.Size))
	g.caught++
	g.lastCatch = now
	g.fire(CatchNotes[g.note%len(CatchNotes)], CatchNoteLength)
	g.note++
	return true
}

// ClaimBonus adds BonusPoints once per round. The word is used as the
// leaderboard name for the round.
func (g *WordGame) ClaimBonus(word string) error {
	if g.state != Running {
		return ErrNotRunning
	}
	if g.bonusWord != "" {
		return ErrBonusClaimed
	}
	word = strings.TrimSpace(word)
	if word == "" {
		return ErrEmptyWord
	}
	g.bonusWord = word
	g.score += BonusPoints
	g.log.Info().Str("word", word).Msg("bonus claimed")
	return nil
}

func (g *WordGame) end(now time.Time) {
	g.setState(Ended)
	clear(g.words)
	g.words = nil
	g.hasAnchor = false

	name := g.env.Player
	if g.bonusWord != "" {
		name = g.bonusWord
	}
	entry := store.Entry{Name: name, Score: g.score}

	if g.env.Leaderboard != nil {
		board, err := g.env.Leaderboard.Submit(entry)
		if err != nil {
			g.log.Error().Err(err).Msg("leaderboard submit failed")
			board = store.Insert(nil, entry)
		}
		g.board = board
	} else {
		g.board = store.Insert(nil, entry)
	}
	g.log.Debug().Str("player", name).Int("score", g.score).Msg("leaderboard updated")

	if g.env.Rounds != nil {
		rd := &store.Round{Player: name, Mode: string(Face), Score: g.score, WordsCaught: g.caught, PlayedAt: now}
		if err := g.env.Rounds.Record(rd); err != nil {
			g.log.Warn().Err(err).Msg("round not recorded")
		}
	}
}

// Score returns the current score.
func (g *WordGame) Score() int { return g.score }

// LiveWords returns the number of words on screen.
func (g *WordGame) LiveWords() int { return len(g.words) }

func (g *WordGame) Snapshot(now time.Time) Snapshot {
	s := g.snapshot()
	s.Score = g.score
	s.Bonus = g.state == Running && g.bonusWord == ""

	switch g.state {
	case Running:
		left := g.endsAt.Sub(now)
		s.Remaining = max(0, int(math.Ceil(left.Seconds())))
		if len(g.words) > 0 {
			s.Words = make([]WordView, len(g.words))
			for i, w := range g.words {
				s.Words[i] = WordView{Text: w.Text, X: w.X, Y: w.Y, Size: w.Size, Color: w.Color.Hex()}
			}
		}
		if g.hasAnchor {
			a := g.anchor
			s.Anchor = &a
		}
	case Ended:
		s.Message = "Game Over!"
		s.Leaderboard = append([]store.Entry(nil), g.board...)
	}
	return s
}

// Cleanup drops every word and resets the round.
func (g *WordGame) Cleanup() {
	g.release()
	clear(g.words)
	g.words = nil
	g.ticks = 0
	g.score = 0
	g.caught = 0
	g.note = 0
	g.endsAt = time.Time{}
	g.lastCatch = time.Time{}
	g.hasAnchor = false
	g.bonusWord = ""
	g.board = nil
}
