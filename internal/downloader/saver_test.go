package downloader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/italolelis/debrid_console/internal/debrid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskSaver_Save(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/d/ABC/movie.mkv":
			w.Write([]byte("movie-bytes"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	t.Run("name taken from the link", func(t *testing.T) {
		dir := t.TempDir()
		saver := NewDiskSaver(dir, srv.Client(), nil)

		saved, err := saver.Save(context.Background(), srv.URL+"/d/ABC/movie.mkv", "")
		require.NoError(t, err)

		assert.Equal(t, filepath.Join(dir, "movie.mkv"), saved.Path)
		assert.Equal(t, int64(len("movie-bytes")), saved.Size)

		content, err := os.ReadFile(saved.Path)
		require.NoError(t, err)
		assert.Equal(t, "movie-bytes", string(content))
	})

	t.Run("filename reduced to its base name", func(t *testing.T) {
		dir := t.TempDir()
		saver := NewDiskSaver(dir, srv.Client(), nil)

		saved, err := saver.Save(context.Background(), srv.URL+"/d/ABC/movie.mkv", "../../etc/evil.mkv")
		require.NoError(t, err)

		assert.Equal(t, filepath.Join(dir, "evil.mkv"), saved.Path)
	})

	t.Run("remote failure leaves no file behind", func(t *testing.T) {
		dir := t.TempDir()
		saver := NewDiskSaver(dir, srv.Client(), nil)

		_, err := saver.Save(context.Background(), srv.URL+"/missing.mkv", "")

		var apiErr *debrid.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

func TestDiskSaver_Disabled(t *testing.T) {
	saver := NewDiskSaver("", nil, nil)

	assert.False(t, saver.Enabled())

	_, err := saver.Save(context.Background(), "https://dl.example/file.mkv", "")
	assert.ErrorIs(t, err, ErrSaveDisabled)
}

func TestTargetName(t *testing.T) {
	tests := []struct {
		name     string
		link     string
		filename string
		want     string
		wantErr  bool
	}{
		{name: "from link", link: "https://dl.example/a/b/file.zip", want: "file.zip"},
		{name: "explicit name", link: "https://dl.example/a/b/file.zip", filename: "other.zip", want: "other.zip"},
		{name: "path traversal", link: "https://dl.example/x", filename: "../../secret", want: "secret"},
		{name: "windows separators", link: "https://dl.example/x", filename: `C:\temp\movie.mkv`, want: "movie.mkv"},
		{name: "link without path", link: "https://dl.example", wantErr: true},
		{name: "dot dot only", link: "https://dl.example/x", filename: "..", wantErr: true},
		{name: "not http", link: "ftp://dl.example/file.zip", wantErr: true},
		{name: "garbage link", link: "::::", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := targetName(tt.link, tt.filename)
			if tt.wantErr {
				assert.ErrorIs(t, err, debrid.ErrInvalidInput)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestETA(t *testing.T) {
	tests := []struct {
		name     string
		written  int64
		total    int64
		elapsed  time.Duration
		expected string
	}{
		{name: "seconds", written: 50, total: 100, elapsed: 10 * time.Second, expected: "10s"},
		{name: "minutes", written: 100, total: 10000, elapsed: 10 * time.Second, expected: "16m"},
		{name: "nothing written yet", written: 0, total: 100, elapsed: time.Second, expected: "unknown"},
		{name: "already complete", written: 100, total: 100, elapsed: time.Second, expected: "0s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, eta(tt.written, tt.total, tt.elapsed))
		})
	}
}
