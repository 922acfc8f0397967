// Package api implements the HTTP presentation layer for the now-playing
// daemon.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/micro-nova/nowplaying/internal/controller"
	"github.com/micro-nova/nowplaying/internal/models"
)

// Handlers holds dependencies for all HTTP handlers.
type Handlers struct {
	ctrl   Controller
	events EventBus
}

// Controller is the interface the handlers use to read and drive playback.
type Controller interface {
	View() models.View
	Art() *models.ArtImage
	Players() []models.DiscoveredPlayer
	Dispatch(ctx context.Context, intent models.Intent) error
	SetVolume(ctx context.Context, v float64) error
	Refresh(ctx context.Context) error
	SelectPlayer(ctx context.Context, identity *string) error
	SetAutoDetect(ctx context.Context, on bool) error
	SetPlayerEnabled(ctx context.Context, identity string, enabled bool) error
}

// EventBus is the interface for subscribing to View updates.
type EventBus interface {
	Subscribe(id string) <-chan models.View
	Unsubscribe(id string)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes err as a JSON AppError response.
func writeError(w http.ResponseWriter, err error) {
	var appErr *models.AppError
	switch {
	case errors.As(err, &appErr):
	case errors.Is(err, controller.ErrStopped),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		appErr = models.ErrUnavailable(err.Error())
	default:
		appErr = models.ErrInternal(err.Error())
	}
	writeJSON(w, appErr.Status, appErr)
}

// decodeBody decodes the JSON request body into v.
func decodeBody(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return models.ErrBadRequest("invalid JSON: " + err.Error())
	}
	return nil
}

// pathParam reads and unescapes a path parameter by name.
func pathParam(r *http.Request, name string) (string, error) {
	s, err := url.PathUnescape(chi.URLParam(r, name))
	if err != nil || s == "" {
		return "", models.ErrBadRequest("invalid " + name + " parameter")
	}
	return s, nil
}
