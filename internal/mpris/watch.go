package mpris

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/micro-nova/nowplaying/internal/models"
)

const (
	signalNameOwnerChanged  = dbusIface + ".NameOwnerChanged"
	signalPropertiesChanged = propsIface + ".PropertiesChanged"

	watchRetryDelay = 5 * time.Second
)

var watchRules = []string{
	"type='signal',interface='" + dbusIface + "',member='NameOwnerChanged',arg0namespace='" + rootIface + "'",
	"type='signal',interface='" + propsIface + "',member='PropertiesChanged',path='" + objectPath + "'",
}

// Watcher turns MPRIS bus signals into refresh requests. It uses its own
// connection so signal delivery never contends with adapter calls.
type Watcher struct {
	address  string
	onChange func()
}

// NewWatcher creates a watcher. onChange must not block.
func NewWatcher(address string, onChange func()) *Watcher {
	if address == "" {
		address = SessionBusAddress()
	}
	return &Watcher{address: address, onChange: onChange}
}

// Run watches the bus until ctx is cancelled, reconnecting after failures.
func (w *Watcher) Run(ctx context.Context) {
	for {
		err := w.watch(ctx)
		if ctx.Err() != nil {
			return
		}
		slog.Warn("mpris: signal watcher stopped, retrying", "err", err, "delay", watchRetryDelay)
		select {
		case <-ctx.Done():
			return
		case <-time.After(watchRetryDelay):
		}
	}
}

func (w *Watcher) watch(ctx context.Context) error {
	conn, err := dbus.Connect(w.address)
	if err != nil {
		return fmt.Errorf("%w: watcher connect: %v", models.ErrAdapterUnavailable, err)
	}
	defer conn.Close()

	for _, rule := range watchRules {
		if call := conn.BusObject().CallWithContext(ctx, methodAddMatch, 0, rule); call.Err != nil {
			return fmt.Errorf("mpris: add match %q: %w", rule, call.Err)
		}
	}

	ch := make(chan *dbus.Signal, 32)
	conn.Signal(ch)
	defer conn.RemoveSignal(ch)
	slog.Debug("mpris: signal watcher started", "address", w.address)

	for {
		select {
		case <-ctx.Done():
			return nil
		case sig, ok := <-ch:
			if !ok {
				return fmt.Errorf("%w: signal channel closed", models.ErrAdapterUnavailable)
			}
			if relevantSignal(sig) && w.onChange != nil {
				w.onChange()
			}
		}
	}
}

// relevantSignal reports whether sig affects the set of players or the state
// of one of them.
func relevantSignal(sig *dbus.Signal) bool {
	if sig == nil || len(sig.Body) == 0 {
		return false
	}
	switch sig.Name {
	case signalNameOwnerChanged:
		name, ok := sig.Body[0].(string)
		return ok && strings.HasPrefix(name, busNamePrefix)
	case signalPropertiesChanged:
		iface, ok := sig.Body[0].(string)
		return ok && sig.Path == objectPath && (iface == playerIface || iface == rootIface)
	}
	return false
}
