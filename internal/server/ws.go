package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/ayusman/carnival/internal/app"
	"github.com/ayusman/carnival/internal/detector"
	"github.com/ayusman/carnival/internal/tracking"
)

// PushRate is how often the hub checks for a new state to broadcast.
const PushRate = time.Second / 30

const (
	sendBuffer   = 32
	readLimit    = 1 << 20
	writeTimeout = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// inbound is a message from the browser.
type inbound struct {
	Type   string          `json:"type"`
	Frame  *detector.Frame `json:"frame,omitempty"`
	Text   string          `json:"text,omitempty"`
	Reason string          `json:"reason,omitempty"`
	Error  string          `json:"error,omitempty"`
}

type stateMessage struct {
	Type  string     `json:"type"`
	State *app.State `json:"state"`
}

type listenMessage struct {
	Type string `json:"type"`
	On   bool   `json:"on"`
}

type speakMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan any
}

// Hub is the session websocket. Browsers push landmarks and speech
// events through it and receive state, listen and speak messages.
//
// Hub also serves as the controller's speech recognizer and synthesizer:
// the browser does the actual listening and speaking.
type Hub struct {
	remote *tracking.Remote
	log    zerolog.Logger

	mu        sync.Mutex
	clients   map[string]*client
	ctrl      Controller
	listening bool
}

// NewHub creates a hub. remote may be nil when landmarks come from a
// local camera.
func NewHub(remote *tracking.Remote, log zerolog.Logger) *Hub {
	return &Hub{
		remote:  remote,
		log:     log.With().Str("component", "hub").Logger(),
		clients: make(map[string]*client),
	}
}

// Bind connects the hub to the controller. The controller is built with
// the hub as its recognizer, so binding happens after construction.
func (h *Hub) Bind(c Controller) {
	h.mu.Lock()
	h.ctrl = c
	h.mu.Unlock()
}

func (h *Hub) controller() Controller {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ctrl
}

// Start asks every browser to listen for speech.
func (h *Hub) Start() error {
	h.setListening(true)
	return nil
}

// Stop asks every browser to stop listening.
func (h *Hub) Stop() error {
	h.setListening(false)
	return nil
}

// Listening reports the last requested listen state.
func (h *Hub) Listening() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.listening
}

func (h *Hub) setListening(on bool) {
	h.mu.Lock()
	h.listening = on
	h.mu.Unlock()
	h.broadcast(listenMessage{Type: "listen", On: on})
}

// Speak asks every browser to say text.
func (h *Hub) Speak(text string) {
	h.broadcast(speakMessage{Type: "speak", Text: text})
}

// Clients returns the number of connected sessions.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Run pushes the controller state to every session whenever its version
// changes, until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(PushRate)
	defer ticker.Stop()

	var last uint64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		c := h.controller()
		if c == nil {
			continue
		}
		st := c.State()
		if st == nil || st.Version == last {
			continue
		}
		last = st.Version
		h.broadcast(stateMessage{Type: "state", State: st})
	}
}

// ServeHTTP upgrades the request and serves the session until the
// browser disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan any, sendBuffer),
	}
	h.register(c)
	go c.writePump()
	h.readPump(c)
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c.id] = c
	listening := h.listening
	ctrl := h.ctrl
	h.mu.Unlock()

	if ctrl != nil {
		if st := ctrl.State(); st != nil {
			c.send <- stateMessage{Type: "state", State: st}
		}
	}
	c.send <- listenMessage{Type: "listen", On: listening}

	if h.remote != nil {
		h.remote.Attach()
	}
	h.log.Debug().Str("client", c.id).Msg("session connected")
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c.id]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c.id)
	close(c.send)
	h.mu.Unlock()

	if h.remote != nil {
		h.remote.Detach()
	}
	h.log.Debug().Str("client", c.id).Msg("session disconnected")
}

// broadcast queues msg for every session. A session whose queue is full
// misses the message.
func (h *Hub) broadcast(msg any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.log.Debug().Str("client", c.id).Msg("send queue full, dropping message")
		}
	}
}

func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(readLimit)
	for {
		var msg inbound
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}
		h.dispatch(c, msg)
	}
}

func (h *Hub) dispatch(c *client, msg inbound) {
	switch msg.Type {
	case "landmarks":
		if h.remote != nil && msg.Frame != nil {
			h.remote.Push(*msg.Frame)
		}
	case "camera_denied":
		if h.remote != nil {
			h.remote.Deny(msg.Reason)
		}
	case "transcript", "speech_end", "speech_error", "speech_unsupported":
		ctrl := h.controller()
		if ctrl == nil {
			return
		}
		switch msg.Type {
		case "transcript":
			ctrl.Utterance(msg.Text)
		case "speech_end":
			ctrl.SpeechEnded()
		case "speech_error":
			ctrl.SpeechFailed(errors.New(msg.Error))
		case "speech_unsupported":
			ctrl.SpeechUnsupported()
		}
	default:
		h.log.Debug().Str("client", c.id).Str("type", msg.Type).Msg("unknown message")
	}
}

func (c *client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}
