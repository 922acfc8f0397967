package mpris

import (
	"strings"

	"github.com/godbus/dbus/v5"
	"github.com/micro-nova/nowplaying/internal/models"
)

// stateFromProps converts a Properties.GetAll result for the Player
// interface into a State.
func stateFromProps(props map[string]dbus.Variant) State {
	st := State{Status: models.StatusStopped}

	if v, ok := props["PlaybackStatus"]; ok {
		st.Status = models.ParsePlaybackStatus(asString(v))
	}
	if v, ok := props["Volume"]; ok {
		if f, ok := asFloat(v); ok {
			st.Volume = &f
		}
	}

	meta, ok := props["Metadata"].Value().(map[string]dbus.Variant)
	if !ok {
		return st
	}

	// xesam:title
	if v, ok := meta["xesam:title"]; ok {
		if s, ok := v.Value().(string); ok && s != "" {
			st.Title = &s
		}
	}

	// xesam:artist is an array of strings
	if v, ok := meta["xesam:artist"]; ok {
		if artists := asStrings(v); len(artists) > 0 {
			st.Artists = artists
		}
	}

	// mpris:artUrl
	if v, ok := meta["mpris:artUrl"]; ok {
		st.ArtURL = strings.TrimSpace(asString(v))
	}

	return st
}

func asString(v dbus.Variant) string {
	switch val := v.Value().(type) {
	case string:
		return val
	case dbus.ObjectPath:
		return string(val)
	}
	return ""
}

func asFloat(v dbus.Variant) (float64, bool) {
	switch val := v.Value().(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	}
	return 0, false
}

func asStrings(v dbus.Variant) []string {
	var out []string
	switch val := v.Value().(type) {
	case []string:
		for _, s := range val {
			if s != "" {
				out = append(out, s)
			}
		}
	case []interface{}:
		for _, item := range val {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
	case string:
		// Some players send a bare string despite the MPRIS interface.
		if val != "" {
			out = append(out, val)
		}
	}
	return out
}

// identityFromBusName derives a fallback identity from a bus name such as
// "org.mpris.MediaPlayer2.vlc.instance1234".
func identityFromBusName(name string) string {
	id := strings.TrimPrefix(name, busNamePrefix)
	if i := strings.Index(id, ".instance"); i > 0 {
		id = id[:i]
	}
	return id
}
