package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/italolelis/debrid_console/internal/debrid"
	"github.com/italolelis/debrid_console/internal/downloader/progress"
	"github.com/italolelis/debrid_console/internal/format"
	"github.com/italolelis/debrid_console/internal/logctx"
	"github.com/italolelis/debrid_console/internal/telemetry"
)

const (
	dirPerm  = 0755
	filePerm = 0644

	progressInterval = int64(100 * 1024 * 1024) // 100MB
	progressStep     = 10                       // percent

	saveOperation = "save_file"
)

// ErrSaveDisabled is returned when no save directory is configured.
var ErrSaveDisabled = errors.New("saving files is disabled")

// SavedFile describes a file written to local storage.
type SavedFile struct {
	Path     string        `json:"path"`
	Size     int64         `json:"size"`
	Duration time.Duration `json:"duration"`
}

// Saver stores the content behind a direct download link.
type Saver interface {
	Save(ctx context.Context, link, filename string) (*SavedFile, error)
}

// DiskSaver streams direct links into a directory. Files are written under a
// temporary name and renamed once complete, so a partial file never shows up
// under its final name.
type DiskSaver struct {
	dir       string
	client    *resty.Client
	telemetry *telemetry.Telemetry
}

var _ Saver = (*DiskSaver)(nil)

// NewDiskSaver creates a saver writing into dir. An empty dir yields a saver
// that refuses every request with ErrSaveDisabled.
func NewDiskSaver(dir string, httpClient *http.Client, tel *telemetry.Telemetry) *DiskSaver {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &DiskSaver{
		dir:       dir,
		client:    resty.NewWithClient(httpClient),
		telemetry: tel,
	}
}

// Enabled reports whether a save directory is configured.
func (s *DiskSaver) Enabled() bool {
	return s.dir != ""
}

// Save downloads link into the save directory. filename is reduced to its
// base name; when empty it is taken from the link path.
func (s *DiskSaver) Save(ctx context.Context, link, filename string) (*SavedFile, error) {
	if !s.Enabled() {
		return nil, ErrSaveDisabled
	}

	name, err := targetName(link, filename)
	if err != nil {
		return nil, err
	}

	targetPath := filepath.Join(s.dir, name)

	var saved *SavedFile

	err = s.telemetry.InstrumentSave(ctx, func(ctx context.Context) error {
		var err error
		saved, err = s.download(ctx, link, targetPath)

		return err
	})

	return saved, err
}

func (s *DiskSaver) download(ctx context.Context, link, targetPath string) (*SavedFile, error) {
	logger := logctx.LoggerFromContext(ctx).With("file_path", targetPath)
	start := time.Now()

	resp, err := s.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(link)
	if err != nil {
		return nil, &debrid.NetworkError{Operation: saveOperation, Err: err}
	}

	body := resp.RawBody()
	defer body.Close()

	if !resp.IsSuccess() {
		return nil, &debrid.APIError{Operation: saveOperation, StatusCode: resp.StatusCode()}
	}

	if err := ensureTargetDir(targetPath); err != nil {
		logger.ErrorContext(ctx, "failed to create target directory", "err", err)

		return nil, err
	}

	tmpPath := targetPath + ".part"

	out, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePerm)
	if err != nil {
		return nil, fmt.Errorf("failed to create target file: %w", err)
	}

	total := resp.RawResponse.ContentLength

	logger.InfoContext(ctx, "saving file", "file_size", format.Bytes(total))

	written, err := writeFile(ctx, out, body, total)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		os.Remove(tmpPath)

		return nil, err
	}

	if err := os.Rename(tmpPath, targetPath); err != nil {
		os.Remove(tmpPath)

		return nil, fmt.Errorf("failed to move file into place: %w", err)
	}

	elapsed := time.Since(start)

	logger.InfoContext(ctx, "saved file",
		"file_size", format.Bytes(written),
		"speed", format.Speed(bytesPerSecond(written, elapsed)),
	)

	return &SavedFile{Path: targetPath, Size: written, Duration: elapsed}, nil
}

func writeFile(ctx context.Context, out io.Writer, reader io.Reader, totalBytes int64) (int64, error) {
	logger := logctx.LoggerFromContext(ctx)
	start := time.Now()

	progressCb := func(written int64, total int64) {
		if total > 0 {
			logger.DebugContext(ctx, "save progress",
				"downloaded", format.Bytes(written),
				"total", format.Bytes(total),
				"percent", format.Percent(float64(written)*100/float64(total)),
				"eta", eta(written, total, time.Since(start)))
		} else {
			logger.DebugContext(ctx, "save progress", "downloaded", format.Bytes(written))
		}
	}

	pr := progress.NewReader(reader, totalBytes, progressInterval, progressStep, progressCb)

	written, err := io.Copy(out, pr)
	if err != nil {
		return written, fmt.Errorf("failed to copy file: %w", err)
	}

	return written, nil
}

func ensureTargetDir(targetPath string) error {
	dir := filepath.Dir(targetPath)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("failed to create target directory: %w", err)
	}

	return nil
}

// targetName picks a safe file name: only the base name of filename, or of
// the link path when filename is empty.
func targetName(link, filename string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: link must be an http(s) URL", debrid.ErrInvalidInput)
	}

	name := strings.TrimSpace(filename)
	if name == "" {
		name = path.Base(u.Path)
	}

	// accept both separators so names from any client collapse to a base name
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))

	switch name {
	case "", ".", "..", "/":
		return "", fmt.Errorf("%w: a file name is required", debrid.ErrInvalidInput)
	}

	return name, nil
}

func bytesPerSecond(n int64, d time.Duration) int64 {
	if d <= 0 {
		return n
	}

	return int64(float64(n) / d.Seconds())
}

// eta estimates the time left from the average rate so far.
func eta(written, total int64, elapsed time.Duration) string {
	rate := bytesPerSecond(written, elapsed)
	if rate <= 0 {
		return "unknown"
	}

	return format.TimeRemaining(max(total-written, 0) / rate)
}
