package zeroconf_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/micro-nova/nowplaying/internal/zeroconf"
)

func TestNew_DefaultName(t *testing.T) {
	svc := zeroconf.New("", 7878, "dev", false)
	if !strings.HasPrefix(svc.Name(), "nowplaying on ") {
		t.Errorf("Name() = %q, want hostname-based default", svc.Name())
	}
	if got := zeroconf.New("den", 7878, "dev", false).Name(); got != "den" {
		t.Errorf("Name() = %q, want den", got)
	}
}

func TestTXT(t *testing.T) {
	txt := strings.Join(zeroconf.New("x", 7878, "1.2.0", true).TXT(), ",")
	for _, want := range []string{"app=nowplaying", "path=/api", "version=1.2.0", "auth=api-key"} {
		if !strings.Contains(txt, want) {
			t.Errorf("TXT %q missing %q", txt, want)
		}
	}
	if txt := strings.Join(zeroconf.New("x", 7878, "1.2.0", false).TXT(), ","); !strings.Contains(txt, "auth=none") {
		t.Errorf("open-mode TXT %q missing auth=none", txt)
	}
}

func TestStart_InvalidPort(t *testing.T) {
	if err := zeroconf.New("x", 0, "dev", false).Start(context.Background()); err == nil {
		t.Error("Start with port 0 should fail")
	}
}

// TestStart_Cancel starts the service and cancels the context within 1 second.
// It verifies that Start returns without blocking.
func TestStart_Cancel(t *testing.T) {
	svc := zeroconf.New("nowplaying-test", 18080, "dev", false)

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- svc.Start(ctx)
	}()

	select {
	case err := <-done:
		// mDNS may be unavailable in the test environment; returning is what matters.
		if err != nil {
			t.Logf("Start returned error (may be expected in CI): %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Start did not return within 3 seconds after context cancellation")
	}
}
