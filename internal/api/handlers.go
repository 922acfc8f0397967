package api

import (
	"net/http"
	"strconv"

	"github.com/micro-nova/nowplaying/internal/models"
)

func (h *Handlers) getView(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ctrl.View())
}

func (h *Handlers) getPlayers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"players": h.ctrl.Players()})
}

func (h *Handlers) getArt(w http.ResponseWriter, r *http.Request) {
	img := h.ctrl.Art()
	if img == nil {
		writeError(w, models.ErrNotFound("no album art loaded"))
		return
	}
	w.Header().Set("Content-Type", img.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(img.Data)))
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img.Data)
}

func (h *Handlers) postIntent(w http.ResponseWriter, r *http.Request) {
	intent, err := pathParam(r, "intent")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.ctrl.Dispatch(r.Context(), models.Intent(intent)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.ctrl.View())
}

type volumeRequest struct {
	Volume *float64 `json:"volume"`
}

func (h *Handlers) putVolume(w http.ResponseWriter, r *http.Request) {
	var req volumeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Volume == nil {
		writeError(w, models.ErrBadRequest("volume is required"))
		return
	}
	if err := h.ctrl.SetVolume(r.Context(), *req.Volume); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.ctrl.View())
}

func (h *Handlers) postRefresh(w http.ResponseWriter, r *http.Request) {
	if err := h.ctrl.Refresh(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.ctrl.View())
}

type selectedRequest struct {
	Player *string `json:"player"` // null clears the selection
}

func (h *Handlers) putSelected(w http.ResponseWriter, r *http.Request) {
	var req selectedRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.ctrl.SelectPlayer(r.Context(), req.Player); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.ctrl.View())
}

type configPatch struct {
	AutoDetectNewPlayers *bool `json:"auto_detect_new_players"`
}

func (h *Handlers) patchConfig(w http.ResponseWriter, r *http.Request) {
	var req configPatch
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.AutoDetectNewPlayers == nil {
		writeError(w, models.ErrBadRequest("no recognised fields in patch"))
		return
	}
	if err := h.ctrl.SetAutoDetect(r.Context(), *req.AutoDetectNewPlayers); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.ctrl.View())
}

type enabledRequest struct {
	Enabled *bool `json:"enabled"`
}

func (h *Handlers) putPlayerEnabled(w http.ResponseWriter, r *http.Request) {
	identity, err := pathParam(r, "identity")
	if err != nil {
		writeError(w, err)
		return
	}
	var req enabledRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Enabled == nil {
		writeError(w, models.ErrBadRequest("enabled is required"))
		return
	}
	if err := h.ctrl.SetPlayerEnabled(r.Context(), identity, *req.Enabled); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.ctrl.View())
}
