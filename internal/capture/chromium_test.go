package capture

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionsDefaults(t *testing.T) {
	_, err := Options{OutputPath: "x.png"}.withDefaults()
	assert.Error(t, err)
	_, err = Options{URL: "http://127.0.0.1/week"}.withDefaults()
	assert.Error(t, err)

	o, err := Options{URL: "http://127.0.0.1/week", OutputPath: "x.png"}.withDefaults()
	require.NoError(t, err)
	assert.Equal(t, DefaultWidth, o.Width)
	assert.Equal(t, DefaultHeight, o.Height)
	assert.Equal(t, DefaultTimeout, o.Timeout)
}

func TestWeekPNGRejectsBadOptions(t *testing.T) {
	assert.Error(t, WeekPNG(context.Background(), Options{}))
}

func TestWeekPNG(t *testing.T) {
	found := false
	for _, bin := range []string{"headless-shell", "chromium", "chromium-browser", "google-chrome"} {
		if _, err := exec.LookPath(bin); err == nil {
			found = true
			break
		}
	}
	if !found {
		t.Skip("no Chromium binary on PATH")
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><div data-ready="true">week</div></body></html>`))
	}))
	defer srv.Close()

	out := filepath.Join(t.TempDir(), "snap", "preview.png")
	require.NoError(t, WeekPNG(context.Background(), Options{URL: srv.URL, OutputPath: out, Width: 320, Height: 200}))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), data[:4])
}
