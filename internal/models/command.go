package models

import (
	"fmt"
	"math"
)

// CommandKind names a transport command.
type CommandKind string

const (
	CmdPlayPause CommandKind = "play_pause"
	CmdNext      CommandKind = "next"
	CmdPrevious  CommandKind = "previous"
	CmdSetVolume CommandKind = "set_volume"
)

// Command is a transport command sent to a bound player.
// Volume is only meaningful for CmdSetVolume.
type Command struct {
	Kind   CommandKind
	Volume float64
}

func (c Command) String() string {
	if c.Kind == CmdSetVolume {
		return fmt.Sprintf("%s(%.2f)", c.Kind, c.Volume)
	}
	return string(c.Kind)
}

// ClampVolume bounds v to [0, 1].
func ClampVolume(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// Intent is a user gesture coming from a presentation layer.
type Intent string

const (
	IntentPlayPause   Intent = "play_pause"
	IntentNext        Intent = "next"
	IntentPrevious    Intent = "previous"
	IntentScrollUp    Intent = "scroll_up"
	IntentScrollDown  Intent = "scroll_down"
	IntentMiddleClick Intent = "middle_click"
)

// CommandFor maps an intent to the transport command it triggers.
func CommandFor(i Intent) (Command, bool) {
	switch i {
	case IntentPlayPause, IntentMiddleClick:
		return Command{Kind: CmdPlayPause}, true
	case IntentNext, IntentScrollUp:
		return Command{Kind: CmdNext}, true
	case IntentPrevious, IntentScrollDown:
		return Command{Kind: CmdPrevious}, true
	}
	return Command{}, false
}
