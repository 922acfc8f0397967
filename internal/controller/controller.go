// Package controller reconciles MPRIS players into one now-playing View.
//
// A single loop goroutine owns the bound player, the snapshot and the art
// state. The poll ticker, user commands, refresh requests and art results
// all run on that loop, one at a time. Readers get the last published View.
package controller

import (
	"context"
	"errors"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/micro-nova/nowplaying/internal/artwork"
	"github.com/micro-nova/nowplaying/internal/config"
	"github.com/micro-nova/nowplaying/internal/events"
	"github.com/micro-nova/nowplaying/internal/metrics"
	"github.com/micro-nova/nowplaying/internal/models"
	"github.com/micro-nova/nowplaying/internal/mpris"
)

const (
	DefaultPollInterval = 500 * time.Millisecond
	DefaultArtTimeout   = 10 * time.Second
)

// ErrStopped is returned by calls made after the loop has exited.
var ErrStopped = errors.New("controller: not running")

// Options configures a Controller. Zero values select defaults.
type Options struct {
	PollInterval time.Duration
	ArtTimeout   time.Duration
	ArtMaxEdge   int
	Fetcher      artwork.Fetcher
	Bus          *events.Bus
	Metrics      *metrics.Metrics
}

type request struct {
	fn   func(context.Context) error
	done chan error
}

type artResult struct {
	url string
	img *models.ArtImage
	err error
}

// Controller is the player reconciliation core.
type Controller struct {
	src  mpris.Source
	cfg  *config.Manager
	reg  *Registry
	opts Options

	requests   chan request
	refresh    chan struct{}
	reload     chan struct{}
	artResults chan artResult
	stopped    chan struct{}
	stopOnce   sync.Once

	// Owned by the loop goroutine.
	conn        *mpris.Conn
	snap        models.PlaybackSnapshot
	provisional bool
	art         *ArtCoordinator

	mu    sync.RWMutex
	view  models.View
	image *models.ArtImage
}

// New creates a controller over src and cfg. Nothing is polled until Run.
func New(src mpris.Source, cfg *config.Manager, opts Options) *Controller {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.ArtTimeout <= 0 {
		opts.ArtTimeout = DefaultArtTimeout
	}
	if opts.ArtMaxEdge <= 0 {
		opts.ArtMaxEdge = artwork.DefaultMaxEdge
	}
	if opts.Fetcher == nil {
		opts.Fetcher = artwork.NewHTTPFetcher(0, opts.ArtTimeout)
	}

	c := &Controller{
		src:        src,
		cfg:        cfg,
		reg:        NewRegistry(opts.Metrics),
		opts:       opts,
		requests:   make(chan request),
		refresh:    make(chan struct{}, 1),
		reload:     make(chan struct{}, 1),
		artResults: make(chan artResult, 4),
		stopped:    make(chan struct{}),
		snap:       models.DefaultSnapshot(),
		art:        NewArtCoordinator(),
	}
	c.view = c.buildView()
	return c
}

// Run polls immediately, then serves the loop until ctx is cancelled.
func (c *Controller) Run(ctx context.Context) {
	defer c.stopOnce.Do(func() { close(c.stopped) })

	ticker := time.NewTicker(c.opts.PollInterval)
	defer ticker.Stop()

	c.poll(ctx)
	c.publish()
	slog.Info("controller: started", "poll_interval", c.opts.PollInterval)

	for {
		select {
		case <-ctx.Done():
			slog.Info("controller: stopped")
			return
		case <-ticker.C:
			c.poll(ctx)
		case <-c.refresh:
			c.poll(ctx)
		case <-c.reload:
			c.reloadConfig(ctx)
		case req := <-c.requests:
			// Publish before replying so the caller sees its own effect.
			err := req.fn(ctx)
			c.publish()
			req.done <- err
			continue
		case res := <-c.artResults:
			c.deliverArt(res)
		}
		c.publish()
	}
}

// Do runs fn on the loop and waits for its result. fn receives the loop's
// context, so work continues even if the caller gives up waiting.
func (c *Controller) Do(ctx context.Context, fn func(context.Context) error) error {
	req := request{fn: fn, done: make(chan error, 1)}
	select {
	case c.requests <- req:
	case <-ctx.Done():
		return ctx.Err()
	case <-c.stopped:
		return ErrStopped
	}
	select {
	case err := <-req.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-c.stopped:
		return ErrStopped
	}
}

// RequestRefresh asks the loop for a poll without waiting. Requests made
// while one is pending are merged.
func (c *Controller) RequestRefresh() {
	select {
	case c.refresh <- struct{}{}:
	default:
	}
}

// RequestConfigReload asks the loop to re-read the persisted config and
// poll. It never blocks, so it is safe as a file watcher callback.
func (c *Controller) RequestConfigReload() {
	select {
	case c.reload <- struct{}{}:
	default:
	}
}

// View returns the last published View.
func (c *Controller) View() models.View {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v := c.view
	v.Players = append([]models.DiscoveredPlayer{}, c.view.Players...)
	v.Config = c.view.Config.DeepCopy()
	return v
}

// Art returns the decoded image for the current art URL, or nil.
// The image must not be modified.
func (c *Controller) Art() *models.ArtImage {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.image
}

// Players returns the players found by the last discovery.
func (c *Controller) Players() []models.DiscoveredPlayer {
	return c.reg.Players()
}

// poll runs one discovery, selection and snapshot pass.
func (c *Controller) poll(ctx context.Context) {
	c.opts.Metrics.IncPolls()

	c.reg.Discover(ctx, c.src, c.cfg)
	cfg := c.cfg.Config()

	current := ""
	if c.conn != nil {
		current = c.conn.Identity
	}
	conn, err := Select(ctx, c.src, c.reg.Entries(), cfg.SelectedPlayer, current)
	if err != nil {
		slog.Debug("controller: no player bound", "err", err)
		c.opts.Metrics.IncAdapterError("bind")
	}
	c.setConn(conn)

	snap, err := BuildSnapshot(ctx, c.src, conn)
	if err != nil {
		slog.Debug("controller: read failed, showing default", "identity", conn.Identity, "err", err)
		c.opts.Metrics.IncAdapterError("read")
	}
	c.snap = snap
	c.provisional = false

	if url := c.art.Observe(snap.ArtURL); url != "" {
		c.fetchArt(ctx, url)
	}
}

func (c *Controller) setConn(conn *mpris.Conn) {
	prev, next := "", ""
	if c.conn != nil {
		prev = c.conn.Identity
	}
	if conn != nil {
		next = conn.Identity
	}
	if prev != next {
		if next == "" {
			slog.Info("controller: player unbound", "was", prev)
		} else {
			slog.Info("controller: player bound", "identity", next, "bus_name", conn.BusName)
		}
	}
	c.conn = conn
	c.opts.Metrics.SetBound(conn != nil)
}

// fetchArt downloads and decodes url off the loop and posts the result back.
func (c *Controller) fetchArt(ctx context.Context, url string) {
	slog.Debug("controller: fetching album art", "url", url)
	go func() {
		fctx, cancel := context.WithTimeout(ctx, c.opts.ArtTimeout)
		defer cancel()

		raw, err := c.opts.Fetcher.Fetch(fctx, url)
		var img *models.ArtImage
		if err == nil {
			img, err = artwork.Decode(raw, c.opts.ArtMaxEdge)
		}
		select {
		case c.artResults <- artResult{url: url, img: img, err: err}:
		case <-ctx.Done():
		}
	}()
}

func (c *Controller) deliverArt(res artResult) {
	switch c.art.Deliver(res.url, res.img, res.err) {
	case ArtApplied:
		c.opts.Metrics.IncArtFetch(metrics.ArtLoaded)
		slog.Debug("controller: album art loaded", "url", res.url, "width", res.img.Width, "height", res.img.Height)
	case ArtFailed:
		c.opts.Metrics.IncArtFetch(metrics.ArtFailed)
		slog.Warn("controller: album art unavailable", "url", res.url, "err", res.err)
	case ArtStale:
		c.opts.Metrics.IncArtFetch(metrics.ArtDiscarded)
		slog.Debug("controller: discarded stale album art", "url", res.url)
	}
}

func (c *Controller) reloadConfig(ctx context.Context) {
	changed, err := c.cfg.Reload()
	if err != nil {
		slog.Warn("controller: config reload failed, keeping current", "err", err)
		return
	}
	if changed {
		c.poll(ctx)
	}
}

func (c *Controller) buildView() models.View {
	return models.View{
		Snapshot:    c.snap,
		Provisional: c.provisional,
		Art:         c.art.State().Info(),
		Players:     c.reg.Players(),
		Config:      c.cfg.Config(),
	}
}

// publish stores the current View and sends it to subscribers if it changed.
func (c *Controller) publish() {
	v := c.buildView()
	img := c.art.State().Image

	c.mu.Lock()
	changed := !reflect.DeepEqual(v, c.view)
	c.view = v
	c.image = img
	c.mu.Unlock()

	if changed && c.opts.Bus != nil {
		c.opts.Bus.Publish(v)
	}
}
