package host_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/projectbackup/pkg/config"
	"github.com/walteh/projectbackup/pkg/host"
	"github.com/walteh/projectbackup/pkg/project"
	"gitlab.com/tozd/go/errors"
)

type staticHost struct {
	root project.Node
}

func (h *staticHost) Name() string { return "static" }

func (h *staticHost) ActiveProject(ctx context.Context) (project.Node, error) {
	return h.root, nil
}

func (h *staticHost) Fetch(ctx context.Context, node project.Node, destPath string) error {
	return host.WriteNew(strings.NewReader(node.CloudRef()), destPath)
}

func TestRegistry(t *testing.T) {
	ctx := context.Background()

	host.Register("static", func(ctx context.Context, src config.Source) (host.Host, error) {
		return &staticHost{root: project.Folder(src.Path)}, nil
	})
	host.Register("broken", func(ctx context.Context, src config.Source) (host.Host, error) {
		return nil, errors.New("no credentials")
	})

	h, err := host.New(ctx, config.Source{Provider: "static", Path: "P"})
	require.NoError(t, err)
	root, err := h.ActiveProject(ctx)
	require.NoError(t, err)
	assert.Equal(t, "P", root.Name())

	_, err = host.New(ctx, config.Source{Provider: "broken"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "creating broken host: no credentials")

	_, err = host.New(ctx, config.Source{Provider: "ftp"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider ftp not found")
	assert.Contains(t, err.Error(), "static")
}

func TestWriteNewRefusesExisting(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "part.f3d")
	require.NoError(t, os.WriteFile(dest, []byte("keep"), 0o644))

	err := host.WriteNew(strings.NewReader("replace"), dest)
	require.Error(t, err)

	content, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "keep", string(content))
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.f3d")
	require.NoError(t, os.WriteFile(src, []byte("design"), 0o644))

	dest := filepath.Join(dir, "dest.f3d")
	require.NoError(t, host.CopyFile(src, dest))

	content, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "design", string(content))

	err = host.CopyFile(filepath.Join(dir, "missing"), filepath.Join(dir, "other"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "opening source file")
}

func TestDownloadTo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("downloaded"))
	}))
	defer server.Close()

	dir := t.TempDir()
	ctx := context.Background()

	dest := filepath.Join(dir, "ok.f3d")
	require.NoError(t, host.DownloadTo(ctx, server.Client(), server.URL+"/ok", dest))
	content, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "downloaded", string(content))

	err = host.DownloadTo(ctx, nil, server.URL+"/missing", filepath.Join(dir, "missing.f3d"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status code: 404")
	assert.NoFileExists(t, filepath.Join(dir, "missing.f3d"))
}
