// Package server provides the HTTP server for the carnival: the JSON API,
// the session websocket, the preview stream and the static web client.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog"

	"github.com/ayusman/carnival/internal/app"
	"github.com/ayusman/carnival/internal/mode"
)

// Controller is the part of the application controller the server drives.
type Controller interface {
	State() *app.State
	ChooseMode(ctx context.Context, name string) error
	Start(ctx context.Context) error
	Back(ctx context.Context) error
	Bonus(ctx context.Context, word string) error
	SetSound(ctx context.Context, on bool) error
	SetVoice(ctx context.Context, on bool) error
	AdjustVolume(ctx context.Context, delta float64) error
	SetPlayer(ctx context.Context, name string) error
	Utterance(text string)
	SpeechEnded()
	SpeechFailed(err error)
	SpeechUnsupported()
}

// Config holds the server configuration. Every collaborator is optional;
// routes whose collaborator is missing are not registered.
type Config struct {
	StaticDir  string
	Controller Controller
	Hub        *Hub
	Preview    FrameSource
	Canvas     mode.Size
	Log        zerolog.Logger
}

// Server represents the HTTP server for the carnival.
type Server struct {
	config Config
	router *httprouter.Router
	log    zerolog.Logger
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		router: httprouter.New(),
		log:    config.Log.With().Str("component", "server").Logger(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/api/health", s.handleHealth)
	s.router.GET("/api/qr", s.handleQR)
	s.router.PanicHandler = func(w http.ResponseWriter, r *http.Request, v any) {
		s.log.Error().Interface("panic", v).Str("path", r.URL.Path).Msg("handler panic")
		writeError(w, http.StatusInternalServerError, "internal error")
	}

	if c := s.config.Controller; c != nil {
		api := &apiHandler{ctrl: c}
		s.router.GET("/api/modes", api.modes)
		s.router.GET("/api/state", api.state)
		s.router.GET("/api/leaderboard", api.leaderboard)
		s.router.POST("/api/modes/:name", api.choose)
		s.router.POST("/api/start", api.start)
		s.router.POST("/api/back", api.back)
		s.router.POST("/api/bonus", api.bonus)
		s.router.POST("/api/volume", api.volume)
		s.router.PUT("/api/player", api.player)
		s.router.PUT("/api/sound", api.sound)
		s.router.PUT("/api/voice", api.voice)
	}

	if s.config.Hub != nil {
		s.router.Handler(http.MethodGet, "/api/ws", s.config.Hub)
	}

	if s.config.Preview != nil {
		stream := NewStreamHandler(s.config.Preview, s.config.Controller, s.config.Canvas)
		s.router.Handler(http.MethodGet, "/api/stream", stream)
	}

	if s.config.StaticDir != "" {
		s.router.NotFound = http.FileServer(http.Dir(s.config.StaticDir))
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	response := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if s.config.Hub != nil {
		response["clients"] = s.config.Hub.Clients()
	}
	writeJSON(w, http.StatusOK, response)
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		IdleTimeout:       10 * time.Minute,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.log.Info().Msg("server stopped")
	return nil
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
