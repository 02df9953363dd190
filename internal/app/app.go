// Package app is the carnival controller. It owns the active mode, the
// landmark subscription and the voice bridge, and applies every change on
// a single goroutine.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ayusman/carnival/internal/audio"
	"github.com/ayusman/carnival/internal/detector"
	"github.com/ayusman/carnival/internal/mode"
	"github.com/ayusman/carnival/internal/store"
	"github.com/ayusman/carnival/internal/tracking"
	"github.com/ayusman/carnival/internal/voice"
	"github.com/rs/zerolog"
)

// TickRate is the default update rate.
const TickRate = time.Second / 60

var (
	ErrUnknownMode  = errors.New("unknown mode")
	ErrNoModeChosen = errors.New("no mode chosen")
	ErrNotPlaying   = errors.New("no game in progress")
	ErrWrongScreen  = errors.New("not available on this screen")
	ErrNoBonus      = errors.New("mode has no bonus")
	ErrEmptyName    = errors.New("player name is empty")
	ErrStopped      = errors.New("controller stopped")
)

// Config holds the controller's collaborators and defaults.
type Config struct {
	Source tracking.Source
	Audio  audio.Factory
	// Store is optional. When set, preferences and the leaderboard are
	// persisted and stored preferences override the defaults below.
	Store       *store.Store
	Recognizer  voice.Recognizer
	Synthesizer voice.Synthesizer
	Log         zerolog.Logger

	Canvas     mode.Size
	GameLength time.Duration
	Player     string
	Sound      bool
	Voice      bool

	TickRate time.Duration
	Now      func() time.Time
}

// Controller is the application context. Public methods may be called
// from any goroutine; they are queued onto the loop started by Run.
type Controller struct {
	cfg Config
	log zerolog.Logger
	now func() time.Time

	events     chan func()
	frameReady chan struct{}
	done       chan struct{}
	running    atomic.Bool

	frameMu sync.Mutex
	pending *detector.Frame

	published atomic.Pointer[State]
	version   uint64

	// Owned by the loop.
	ctx         context.Context
	screen      Screen
	selected    mode.Name
	current     mode.Mode
	lastState   mode.State
	unsubscribe func()
	cancelSetup context.CancelFunc
	gen         uint64

	sound   bool
	voiceOn bool
	player  string
	leaders []store.Entry
	best    *store.Entry

	bridge   *voice.Bridge
	settings *store.SettingsRepository
	board    *store.LeaderboardRepository
	rounds   *store.RoundRepository
}

// New creates a controller showing the menu.
func New(cfg Config) *Controller {
	if cfg.TickRate <= 0 {
		cfg.TickRate = TickRate
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Player == "" {
		cfg.Player = "Player"
	}

	c := &Controller{
		cfg:        cfg,
		log:        cfg.Log.With().Str("component", "controller").Logger(),
		now:        cfg.Now,
		events:     make(chan func()),
		frameReady: make(chan struct{}, 1),
		done:       make(chan struct{}),
		ctx:        context.Background(),
		screen:     ScreenMenu,
		sound:      cfg.Sound,
		voiceOn:    cfg.Voice,
		player:     cfg.Player,
	}

	if cfg.Store != nil {
		c.settings = cfg.Store.Settings()
		c.board = cfg.Store.Leaderboard()
		c.rounds = cfg.Store.Rounds()
		c.loadPreferences()
		c.refreshLeaders()
	}

	c.bridge = voice.NewBridge(voice.Options{
		Recognizer:  cfg.Recognizer,
		Synthesizer: cfg.Synthesizer,
		Actions:     voiceActions{c},
		Log:         cfg.Log,
	})
	c.bridge.SetFallback(c.modeUtterance)

	c.publish()
	return c
}

func (c *Controller) loadPreferences() {
	c.sound = c.settings.Bool(store.KeySoundEnabled, c.sound)
	c.voiceOn = c.settings.Bool(store.KeyVoiceEnabled, c.voiceOn)
	if name, err := c.settings.Get(store.KeyPlayerName); err == nil && name != "" {
		c.player = name
	} else if err != nil && !errors.Is(err, store.ErrNotFound) {
		c.log.Warn().Err(err).Msg("player name not loaded")
	}
}

func (c *Controller) refreshLeaders() {
	if c.board == nil {
		return
	}
	board, err := c.board.List()
	if err != nil {
		c.log.Warn().Err(err).Msg("leaderboard not loaded")
		return
	}
	c.leaders = board
}

// refreshBest looks up the personal best of whoever played the last
// recorded round.
func (c *Controller) refreshBest() {
	c.best = nil
	if c.rounds == nil {
		return
	}
	recent, err := c.rounds.Recent(1)
	if err != nil || len(recent) == 0 {
		if err != nil {
			c.log.Warn().Err(err).Msg("rounds not loaded")
		}
		return
	}
	name := recent[0].Player
	score, err := c.rounds.Best(name)
	if err != nil {
		c.log.Warn().Err(err).Str("player", name).Msg("personal best not loaded")
		return
	}
	c.best = &store.Entry{Name: name, Score: score}
}

// Run processes events until ctx is done, then tears down the active mode.
func (c *Controller) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return errors.New("controller already running")
	}
	defer close(c.done)

	c.ctx = ctx
	if c.voiceOn {
		if err := c.bridge.Enable(); err != nil {
			c.log.Info().Err(err).Msg("voice commands off")
		}
	}

	ticker := time.NewTicker(c.cfg.TickRate)
	defer ticker.Stop()

	c.log.Info().Dur("tick", c.cfg.TickRate).Msg("controller started")
	for {
		select {
		case <-ctx.Done():
			c.teardown()
			c.bridge.Disable()
			c.screen = ScreenMenu
			c.publish()
			c.log.Info().Msg("controller stopped")
			return nil
		case fn := <-c.events:
			fn()
			c.publish()
		case <-c.frameReady:
			c.deliverFrame()
		case <-ticker.C:
			c.tick(c.now())
		}
	}
}

// State returns the latest published state. It is never modified.
func (c *Controller) State() *State {
	return c.published.Load()
}

// do runs fn on the loop and waits for its result.
func (c *Controller) do(ctx context.Context, fn func() error) error {
	errc := make(chan error, 1)
	select {
	case c.events <- func() { errc <- fn() }:
	case <-c.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// post queues fn without waiting for it to run. If the loop has stopped,
// orElse runs instead.
func (c *Controller) post(fn, orElse func()) {
	select {
	case c.events <- fn:
	case <-c.done:
		if orElse != nil {
			orElse()
		}
	}
}

// onFrame is the landmark subscription. Only the newest frame is kept.
func (c *Controller) onFrame(f detector.Frame) {
	c.frameMu.Lock()
	c.pending = &f
	c.frameMu.Unlock()
	select {
	case c.frameReady <- struct{}{}:
	default:
	}
}

func (c *Controller) takeFrame() *detector.Frame {
	c.frameMu.Lock()
	defer c.frameMu.Unlock()
	f := c.pending
	c.pending = nil
	return f
}

func (c *Controller) deliverFrame() {
	f := c.takeFrame()
	if f == nil || c.current == nil || c.unsubscribe == nil {
		return
	}
	c.current.OnFrame(*f, c.now())
}

func (c *Controller) tick(now time.Time) {
	if c.current != nil {
		c.current.Update(now)
		st := c.current.State()
		if st == mode.Ended && c.lastState != mode.Ended {
			c.refreshLeaders()
			c.refreshBest()
		}
		c.lastState = st
	}
	c.publish()
}

func (c *Controller) env() mode.Env {
	env := mode.Env{
		Source:     c.cfg.Source,
		Audio:      c.cfg.Audio,
		Log:        c.cfg.Log,
		Canvas:     c.cfg.Canvas,
		GameLength: c.cfg.GameLength,
		Player:     c.player,
		SoundOn:    c.sound,
	}
	if c.board != nil {
		env.Leaderboard = c.board
	}
	if c.rounds != nil {
		env.Rounds = c.rounds
	}
	return env
}

// startSetup runs the mode's setup off the loop. The result is tagged
// with the current generation and discarded if the mode is gone by the
// time it arrives.
func (c *Controller) startSetup(m mode.Mode) {
	c.gen++
	gen := c.gen
	ctx, cancel := context.WithCancel(c.ctx)
	c.cancelSetup = cancel
	env := c.env()

	go func() {
		h, err := mode.Setup(ctx, env, m.NeedsSource())
		c.post(func() { c.setupDone(gen, m, h, err) }, h.Release)
	}()
}

func (c *Controller) setupDone(gen uint64, m mode.Mode, h *mode.Handles, err error) {
	if gen != c.gen || c.current != m {
		h.Release()
		c.log.Debug().Uint64("gen", gen).Msg("discarded stale setup result")
		if c.current == nil && m.NeedsSource() && err == nil {
			c.closeSource()
		}
		return
	}
	if c.cancelSetup != nil {
		c.cancelSetup()
		c.cancelSetup = nil
	}

	if err != nil {
		m.Fail(err)
		return
	}
	if err := m.Activate(h, c.now()); err != nil {
		h.Release()
		c.log.Warn().Err(err).Msg("mode not activated")
		return
	}
	if m.NeedsSource() && c.cfg.Source != nil {
		c.unsubscribe = c.cfg.Source.Subscribe(c.onFrame)
	}
	if h.Degraded {
		c.log.Warn().Str("mode", string(m.Name())).Msg("playing without sound")
	}
}

// teardown stops the active mode: no frame reaches it after this returns.
// Speech recognition is not stopped here. The voice bridge belongs to the
// controller and keeps serving the global commands on every screen; only
// utterances for the torn-down mode stop, since modeUtterance requires a
// running mode. Recognition stops when voice is turned off or Run returns.
func (c *Controller) teardown() {
	if c.cancelSetup != nil {
		c.cancelSetup()
		c.cancelSetup = nil
	}
	c.gen++

	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
	c.takeFrame()

	if c.current == nil {
		return
	}
	needsSource := c.current.NeedsSource()
	c.current.Cleanup()
	c.log.Debug().Str("mode", string(c.current.Name())).Msg("mode torn down")
	c.current = nil
	c.lastState = mode.Uninitialized
	c.best = nil
	if needsSource {
		c.closeSource()
	}
}

func (c *Controller) closeSource() {
	if c.cfg.Source == nil {
		return
	}
	if err := c.cfg.Source.Close(); err != nil {
		c.log.Warn().Err(err).Msg("landmark source close failed")
	}
}

func (c *Controller) chooseMode(name string) error {
	n, ok := mode.ParseName(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownMode, name)
	}
	c.teardown()
	c.selected = n
	c.screen = ScreenInstructions
	return nil
}

func (c *Controller) start() error {
	if c.selected == "" {
		return ErrNoModeChosen
	}
	if c.screen == ScreenMenu {
		return ErrWrongScreen
	}
	c.teardown()

	m, ok := mode.New(c.selected, c.env())
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownMode, c.selected)
	}
	c.current = m
	c.screen = ScreenPlaying
	m.Begin()
	c.lastState = m.State()
	c.startSetup(m)
	return nil
}

func (c *Controller) back() error {
	if c.screen == ScreenMenu {
		return ErrWrongScreen
	}
	c.teardown()
	c.screen = ScreenMenu
	c.selected = ""
	return nil
}

type bonusClaimer interface {
	ClaimBonus(word string) error
}

func (c *Controller) bonus(word string) error {
	if c.current == nil {
		return ErrNotPlaying
	}
	b, ok := c.current.(bonusClaimer)
	if !ok {
		return ErrNoBonus
	}
	return b.ClaimBonus(word)
}

func (c *Controller) setSound(on bool) error {
	c.sound = on
	if c.current != nil {
		c.current.SetSound(on)
	}
	return c.persistBool(store.KeySoundEnabled, on)
}

func (c *Controller) setVoice(on bool) error {
	c.voiceOn = on
	if err := c.persistBool(store.KeyVoiceEnabled, on); err != nil {
		return err
	}
	if on {
		return c.bridge.Enable()
	}
	c.bridge.Disable()
	return nil
}

func (c *Controller) adjustVolume(delta float64) error {
	if c.current == nil || c.current.State() != mode.Running {
		return ErrNotPlaying
	}
	c.current.AdjustVolume(delta)
	return nil
}

func (c *Controller) setPlayer(name string) error {
	if name == "" {
		return ErrEmptyName
	}
	c.player = name
	if c.settings == nil {
		return nil
	}
	if err := c.settings.Set(store.KeyPlayerName, name); err != nil {
		return fmt.Errorf("save player name: %w", err)
	}
	return nil
}

func (c *Controller) persistBool(key string, v bool) error {
	if c.settings == nil {
		return nil
	}
	if err := c.settings.SetBool(key, v); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// modeUtterance passes phrases the global table did not match to the
// running mode.
func (c *Controller) modeUtterance(text string) (string, bool) {
	if c.current == nil || c.current.State() != mode.Running {
		return "", false
	}
	r, ok := c.current.OnUtterance(text, c.now())
	if ok && r.Back {
		c.back()
	}
	return r.Speak, ok
}
