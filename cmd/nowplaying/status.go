package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/micro-nova/nowplaying/internal/config"
	"github.com/micro-nova/nowplaying/internal/controller"
	"github.com/micro-nova/nowplaying/internal/models"
)

var flagRemote string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print what is playing right now",
	Long: `Print one snapshot of the bound player. Without --remote the session
bus is read directly using the saved player config; with --remote the
running daemon at that URL is asked instead.`,
	Args: cobra.NoArgs,
	RunE: statusRun,
}

var playersCmd = &cobra.Command{
	Use:   "players",
	Short: "List the media players on the session bus",
	Args:  cobra.NoArgs,
	RunE:  playersRun,
}

func init() {
	for _, c := range []*cobra.Command{statusCmd, playersCmd} {
		c.Flags().StringVar(&flagRemote, "remote", "", "daemon base URL, e.g. http://127.0.0.1:7878")
		c.Flags().BoolVarP(&flagJSON, "json", "j", false, "print JSON")
	}
}

func statusRun(cmd *cobra.Command, args []string) error {
	view, err := currentView(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if flagJSON {
		return writeIndented(out, view)
	}
	printSnapshot(out, view.Snapshot)
	return nil
}

func playersRun(cmd *cobra.Command, args []string) error {
	view, err := currentView(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if flagJSON {
		return writeIndented(out, view.Players)
	}
	if len(view.Players) == 0 {
		fmt.Fprintln(out, "No players found.")
		return nil
	}
	for _, p := range view.Players {
		fmt.Fprintf(out, "%-32s %s\n", p.Identity, playerFlags(p, view))
	}
	return nil
}

// currentView builds a View from the daemon at --remote, or from one local
// discovery pass.
func currentView(ctx context.Context) (models.View, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if flagRemote != "" {
		return fetchView(ctx, &http.Client{Timeout: 5 * time.Second}, flagRemote, settings.APIKey)
	}
	return localView(ctx)
}

// localView runs discovery, selection and a snapshot once. The saved
// config is copied into memory so a one-shot run never rewrites it.
func localView(ctx context.Context) (models.View, error) {
	mem := config.NewMemStore()
	if store, err := config.NewJSONStore(settings.ConfigDir); err == nil {
		var rec models.AppConfig
		if err := store.Get(models.ConfigKey, &rec); err == nil {
			if err := mem.Set(models.ConfigKey, rec); err != nil {
				return models.View{}, err
			}
		}
	}
	cfg := config.NewManager(mem)

	src, closeSrc := openSource(settings)
	defer closeSrc()

	reg := controller.NewRegistry(nil)
	reg.Discover(ctx, src, cfg)
	players := reg.Players()

	conn, err := controller.Select(ctx, src, reg.Entries(), cfg.Config().SelectedPlayer, "")
	if err != nil {
		slog.Debug("no player bound", "err", err)
	}
	snap, _ := controller.BuildSnapshot(ctx, src, conn)
	return models.View{
		Snapshot: snap,
		Art:      models.ArtInfo{URL: snap.ArtURL},
		Players:  players,
		Config:   cfg.Config(),
	}, nil
}

// fetchView retrieves the current View from a running daemon.
func fetchView(ctx context.Context, client *http.Client, baseURL, apiKey string) (models.View, error) {
	var view models.View
	apiURL := strings.TrimRight(baseURL, "/") + "/api"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return view, fmt.Errorf("create request: %w", err)
	}
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return view, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var appErr models.AppError
		if json.NewDecoder(resp.Body).Decode(&appErr) == nil && appErr.Message != "" {
			return view, fmt.Errorf("API returned status %d: %s", resp.StatusCode, appErr.Message)
		}
		return view, fmt.Errorf("API returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		return view, fmt.Errorf("decode response: %w", err)
	}
	return view, nil
}

func printSnapshot(w io.Writer, s models.PlaybackSnapshot) {
	if s.Player == "" {
		fmt.Fprintln(w, "Player:  (none)")
	} else {
		fmt.Fprintf(w, "Player:  %s\n", s.Player)
	}
	fmt.Fprintf(w, "Status:  %s\n", s.Status)
	fmt.Fprintf(w, "Title:   %s\n", s.Title)
	if s.Artist != "" {
		fmt.Fprintf(w, "Artist:  %s\n", s.Artist)
	}
	fmt.Fprintf(w, "Volume:  %.0f%%\n", s.Volume*100)
	if s.ArtURL != "" {
		fmt.Fprintf(w, "Art:     %s\n", s.ArtURL)
	}
}

func playerFlags(p models.DiscoveredPlayer, view models.View) string {
	var flags []string
	if p.Identity == view.Snapshot.Player {
		flags = append(flags, "bound")
	}
	if sel := view.Config.SelectedPlayer; sel != nil && *sel == p.Identity {
		flags = append(flags, "selected")
	}
	if p.IsActive {
		flags = append(flags, "playing")
	}
	if p.Enabled {
		flags = append(flags, "enabled")
	} else {
		flags = append(flags, "disabled")
	}
	return strings.Join(flags, ", ")
}

func writeIndented(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
