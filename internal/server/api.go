package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"

	"github.com/ayusman/carnival/internal/app"
	"github.com/ayusman/carnival/internal/mode"
	"github.com/ayusman/carnival/internal/store"
)

const qrSize = 320

// maxBody bounds request bodies on the JSON endpoints.
const maxBody = 4 << 10

type apiHandler struct {
	ctrl Controller
}

type wordRequest struct {
	Word string `json:"word"`
}

type nameRequest struct {
	Name string `json:"name"`
}

type toggleRequest struct {
	On bool `json:"on"`
}

type volumeRequest struct {
	Delta float64 `json:"delta"`
}

type modesResponse struct {
	Modes []app.ModeInfo `json:"modes"`
}

type leaderboardResponse struct {
	Mode    mode.Name     `json:"mode"`
	Entries []store.Entry `json:"entries"`
}

func (a *apiHandler) modes(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, modesResponse{Modes: app.Modes()})
}

func (a *apiHandler) state(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, a.ctrl.State())
}

func (a *apiHandler) leaderboard(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	st := a.ctrl.State()
	writeJSON(w, http.StatusOK, leaderboardResponse{Mode: mode.Face, Entries: st.Leaderboard})
}

func (a *apiHandler) choose(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	a.reply(w, r, a.ctrl.ChooseMode(r.Context(), ps.ByName("name")))
}

func (a *apiHandler) start(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	a.reply(w, r, a.ctrl.Start(r.Context()))
}

func (a *apiHandler) back(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	a.reply(w, r, a.ctrl.Back(r.Context()))
}

func (a *apiHandler) bonus(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req wordRequest
	if !decode(w, r, &req) {
		return
	}
	a.reply(w, r, a.ctrl.Bonus(r.Context(), req.Word))
}

func (a *apiHandler) volume(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req volumeRequest
	if !decode(w, r, &req) {
		return
	}
	a.reply(w, r, a.ctrl.AdjustVolume(r.Context(), req.Delta))
}

func (a *apiHandler) player(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req nameRequest
	if !decode(w, r, &req) {
		return
	}
	a.reply(w, r, a.ctrl.SetPlayer(r.Context(), req.Name))
}

func (a *apiHandler) sound(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	a.toggle(w, r, a.ctrl.SetSound)
}

func (a *apiHandler) voice(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	a.toggle(w, r, a.ctrl.SetVoice)
}

func (a *apiHandler) toggle(w http.ResponseWriter, r *http.Request, set func(context.Context, bool) error) {
	var req toggleRequest
	if !decode(w, r, &req) {
		return
	}
	a.reply(w, r, set(r.Context(), req.On))
}

// reply writes the post-command state, or the error mapped to a status.
func (a *apiHandler) reply(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, a.ctrl.State())
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}
	return true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, app.ErrUnknownMode):
		return http.StatusNotFound
	case errors.Is(err, app.ErrEmptyName), errors.Is(err, mode.ErrEmptyWord):
		return http.StatusBadRequest
	case errors.Is(err, app.ErrNoModeChosen),
		errors.Is(err, app.ErrNotPlaying),
		errors.Is(err, app.ErrWrongScreen),
		errors.Is(err, app.ErrNoBonus),
		errors.Is(err, mode.ErrBonusClaimed),
		errors.Is(err, mode.ErrNotRunning):
		return http.StatusConflict
	case errors.Is(err, app.ErrStopped),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// handleQR returns a PNG QR code pointing at the web client, so a phone
// on the same network can join.
func (s *Server) handleQR(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	url := scheme + "://" + r.Host + "/"

	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "qr generation failed")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(png)
}
