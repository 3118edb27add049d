package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docpublish/internal/config"
	"git.home.luguber.info/inful/docpublish/internal/pipeline"
)

type treeGenerator struct{}

func (treeGenerator) Generate(_ context.Context, sourceDir string) (string, error) {
	root := filepath.Join(sourceDir, "target", "doc")
	dir := filepath.Join(root, "lofire_broker")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return root, os.WriteFile(filepath.Join(dir, "index.html"), []byte("broker"), 0o644)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	tmp := t.TempDir()
	src := filepath.Join(tmp, "src")
	require.NoError(t, os.MkdirAll(src, 0o755))
	cfg, err := config.Parse([]byte(fmt.Sprintf(`
source:
  path: %s
workspace:
  base_dir: %s
publish:
  deploy:
    type: directory
    target: %s
daemon:
  listen: 127.0.0.1:0
  history_db: %s
`, src, filepath.Join(tmp, "work"), filepath.Join(tmp, "www"), filepath.Join(tmp, "history.db"))))
	require.NoError(t, err)
	return cfg
}

func TestDaemonServesManualRun(t *testing.T) {
	cfg := testConfig(t)
	d, err := New("", cfg, WithPipelineOptions(pipeline.WithGenerator(treeGenerator{})))
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	base := "http://" + ln.Addr().String()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Serve(ctx, ln) }()

	resp, err := http.Post(base+"/runs", "application/json", nil)
	require.NoError(t, err)
	var accepted map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&accepted))
	_ = resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	runID := accepted["run_id"]

	report, err := d.Coordinator().Wait(ctx)
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Equal(t, runID, report.Run.ID)
	assert.Equal(t, pipeline.StatusSuccess, report.Status, "run error: %v", report.Err)
	assert.FileExists(t, filepath.Join(cfg.Publish.Deploy.Target, "doc", "lofire_broker", "index.html"))

	resp, err = http.Get(base + "/runs/" + runID)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(base + "/metrics")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("daemon did not stop")
	}
}

func TestReloadConfigAppliesToWebhooks(t *testing.T) {
	cfg := testConfig(t)
	d, err := New("", cfg)
	require.NoError(t, err)
	t.Cleanup(d.close)

	next := *cfg
	next.Source.Branch = "release"
	next.Publish.Deploy.Target = filepath.Join(t.TempDir(), "www2")
	require.NoError(t, d.ReloadConfig(&next))

	assert.Equal(t, "release", d.Config().Source.Branch)
	assert.Equal(t, "directory", d.publisher.Deployer().Name())

	bad := next
	bad.Publish.Deploy.Type = "ftp"
	assert.Error(t, d.ReloadConfig(&bad))
	assert.Equal(t, "release", d.Config().Source.Branch, "failed reload keeps previous config")
}
