package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/italolelis/debrid_console/internal/console"
	"github.com/italolelis/debrid_console/internal/debrid"
	"github.com/italolelis/debrid_console/internal/downloader"
	"github.com/italolelis/debrid_console/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockClient implements debrid.Client for testing; methods not overridden
// panic through the nil embedded interface.
type mockClient struct {
	debrid.Client

	torrents       []debrid.Torrent
	lastOpts       debrid.ListOptions
	lastMagnet     string
	lastHost       string
	lastFilename   string
	lastContent    []byte
	lastUnrestrict debrid.UnrestrictRequest
	lastSelected   string
	deletedID      string
	transcode      debrid.TranscodeLinks
	availability   debrid.Availability
	lastHashes     []string
	err            error
}

func (m *mockClient) Torrents(_ context.Context, opts debrid.ListOptions) ([]debrid.Torrent, error) {
	m.lastOpts = opts

	return m.torrents, m.err
}

func (m *mockClient) InstantAvailability(_ context.Context, hashes ...string) (debrid.Availability, error) {
	m.lastHashes = hashes

	return m.availability, m.err
}

func (m *mockClient) TorrentInfo(_ context.Context, id string) (*debrid.TorrentInfo, error) {
	if m.err != nil {
		return nil, m.err
	}

	return &debrid.TorrentInfo{Torrent: debrid.Torrent{ID: id}}, nil
}

func (m *mockClient) AddMagnet(_ context.Context, magnet, host string) (*debrid.AddedTorrent, error) {
	m.lastMagnet = magnet
	m.lastHost = host

	if m.err != nil {
		return nil, m.err
	}

	return &debrid.AddedTorrent{ID: "T1"}, nil
}

func (m *mockClient) AddTorrentFile(_ context.Context, filename string, content []byte, host string) (*debrid.AddedTorrent, error) {
	m.lastFilename = filename
	m.lastContent = content
	m.lastHost = host

	if m.err != nil {
		return nil, m.err
	}

	return &debrid.AddedTorrent{ID: "T2"}, nil
}

func (m *mockClient) SelectFiles(_ context.Context, id, files string) error {
	m.deletedID = id
	m.lastSelected = files

	return m.err
}

func (m *mockClient) DeleteTorrent(_ context.Context, id string) error {
	m.deletedID = id

	return m.err
}

func (m *mockClient) UnrestrictLink(_ context.Context, req debrid.UnrestrictRequest) (*debrid.UnrestrictedLink, error) {
	m.lastUnrestrict = req

	if m.err != nil {
		return nil, m.err
	}

	return &debrid.UnrestrictedLink{ID: "D1", Filename: "movie.mkv", Download: "https://dl.example/D1"}, nil
}

func (m *mockClient) TranscodeLinks(_ context.Context, id string) (debrid.TranscodeLinks, error) {
	return m.transcode, m.err
}

func (m *mockClient) Traffic(_ context.Context) (debrid.Traffic, error) {
	return debrid.Traffic{"rapidgator.net": {Left: 10}}, m.err
}

type mockConsole struct {
	client     *mockClient
	configured bool
	lastToken  string
	cleared    bool
}

func (m *mockConsole) Client() (debrid.Client, error) {
	if !m.configured {
		return nil, debrid.ErrMissingCredential
	}

	return m.client, nil
}

func (m *mockConsole) HasCredential() bool { return m.configured }

func (m *mockConsole) SetCredential(_ context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return invalidInput("API key must not be empty")
	}

	m.lastToken = token
	m.configured = true

	return nil
}

func (m *mockConsole) ClearCredential(context.Context) error {
	m.cleared = true
	m.configured = false

	return nil
}

func (m *mockConsole) Dashboard(ctx context.Context) (*console.Dashboard, error) {
	if !m.configured {
		return nil, debrid.ErrMissingCredential
	}

	return &console.Dashboard{User: &debrid.User{Username: "alice"}, PremiumDays: 3}, nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
	sent     chan struct{}
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{sent: make(chan struct{}, 10)}
}

func (n *recordingNotifier) Notify(_ context.Context, content string) error {
	n.mu.Lock()
	n.messages = append(n.messages, content)
	n.mu.Unlock()

	n.sent <- struct{}{}

	return nil
}

func (n *recordingNotifier) wait(t *testing.T) string {
	t.Helper()

	select {
	case <-n.sent:
	case <-time.After(time.Second):
		t.Fatal("notification not sent")
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	return n.messages[len(n.messages)-1]
}

type fixture struct {
	console  *mockConsole
	client   *mockClient
	notifier *recordingNotifier
	handler  http.Handler
}

func newFixture(configured bool) *fixture {
	client := &mockClient{}
	c := &mockConsole{client: client, configured: configured}
	n := newRecordingNotifier()

	return &fixture{
		console:  c,
		client:   client,
		notifier: n,
		handler:  NewConsoleHandler(c, nil, n, nil, "", "").Routes(),
	}
}

func (f *fixture) do(method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	return rec
}

func (f *fixture) doJSON(method, target, body string) *httptest.ResponseRecorder {
	return f.do(method, target, strings.NewReader(body), "application/json")
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	return resp.Error
}

func TestCredentialRoutes(t *testing.T) {
	f := newFixture(false)

	rec := f.do(http.MethodGet, "/credential", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"configured":false}`, rec.Body.String())

	rec = f.doJSON(http.MethodPut, "/credential", `{"api_key":"   "}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec), "API key must not be empty")

	rec = f.doJSON(http.MethodPut, "/credential", `{"api_key":"secret"}`)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "secret", f.console.lastToken)

	rec = f.do(http.MethodGet, "/credential", nil, "")
	assert.JSONEq(t, `{"configured":true}`, rec.Body.String())

	rec = f.do(http.MethodDelete, "/credential", nil, "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, f.console.cleared)
}

func TestMissingCredential(t *testing.T) {
	f := newFixture(false)

	for _, target := range []string{"/dashboard", "/torrents", "/traffic", "/downloads", "/hosts"} {
		t.Run(target, func(t *testing.T) {
			rec := f.do(http.MethodGet, target, nil, "")

			require.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "Please configure your API key", decodeError(t, rec))
		})
	}
}

func TestListTorrents(t *testing.T) {
	t.Run("pagination is forwarded", func(t *testing.T) {
		f := newFixture(true)
		f.client.torrents = []debrid.Torrent{{ID: "A", Status: debrid.ParseStatus("downloading")}}

		rec := f.do(http.MethodGet, "/torrents?offset=10&limit=5", nil, "")
		require.Equal(t, http.StatusOK, rec.Code)

		assert.Equal(t, debrid.ListOptions{Offset: 10, Limit: 5}, f.client.lastOpts)

		var got []debrid.Torrent
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		require.Len(t, got, 1)
		assert.Equal(t, debrid.StatusDownloading, got[0].Status.Kind)
	})

	t.Run("status is classified", func(t *testing.T) {
		f := newFixture(true)
		f.client.torrents = []debrid.Torrent{
			{ID: "A", Status: debrid.ParseStatus("downloading")},
			{ID: "B", Status: debrid.ParseStatus("magnet_error")},
			{ID: "C", Status: debrid.ParseStatus("waiting_files_selection")},
			{ID: "D", Status: debrid.ParseStatus("frozen")},
		}

		rec := f.do(http.MethodGet, "/torrents", nil, "")
		require.Equal(t, http.StatusOK, rec.Code)

		var got []struct {
			ID             string `json:"id"`
			Status         string `json:"status"`
			StatusKnown    bool   `json:"status_known"`
			Active         bool   `json:"active"`
			Failed         bool   `json:"failed"`
			NeedsSelection bool   `json:"needs_selection"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		require.Len(t, got, 4)

		assert.True(t, got[0].Active)
		assert.False(t, got[0].Failed)
		assert.True(t, got[1].Failed)
		assert.True(t, got[2].NeedsSelection)
		assert.False(t, got[2].Active)
		assert.Equal(t, "frozen", got[3].Status)
		assert.False(t, got[3].StatusKnown)
		assert.True(t, got[0].StatusKnown)
	})

	t.Run("empty list", func(t *testing.T) {
		f := newFixture(true)

		rec := f.do(http.MethodGet, "/torrents", nil, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())
	})

	t.Run("invalid pagination", func(t *testing.T) {
		f := newFixture(true)

		rec := f.do(http.MethodGet, "/torrents?limit=abc", nil, "")
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decodeError(t, rec), "limit must be a non-negative integer")
	})
}

func TestAvailability(t *testing.T) {
	f := newFixture(true)
	f.client.availability = debrid.Availability{
		"aaa": json.RawMessage(`{"rd":[{"1":{"filename":"a.mkv","filesize":10}}]}`),
		"bbb": json.RawMessage(`[]`),
	}

	rec := f.do(http.MethodGet, "/torrents/availability?hash=AAA,bbb&hash=ccc", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, []string{"AAA", "bbb", "ccc"}, f.client.lastHashes)
	assert.JSONEq(t, `{
		"aaa": {"cached": true, "hosters": {"rd": [{"1": {"filename": "a.mkv", "filesize": 10}}]}},
		"bbb": {"cached": false, "hosters": {}},
		"ccc": {"cached": false, "hosters": {}}
	}`, rec.Body.String())
}

func TestServerErrorsAreCounted(t *testing.T) {
	ctx := context.Background()

	tel, err := telemetry.New(ctx, telemetry.Config{Enabled: true, ServiceName: "debrid-console-test", ServiceVersion: "test"})
	require.NoError(t, err)

	defer tel.Shutdown(ctx)

	client := &mockClient{err: &debrid.NetworkError{Operation: "list_torrents", Err: errors.New("connection refused")}}
	handler := NewConsoleHandler(&mockConsole{client: client, configured: true}, nil, nil, tel, "", "").Routes()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/torrents", nil))
	require.Equal(t, http.StatusBadGateway, rec.Code)

	// client errors stay out of the count
	client.err = &debrid.APIError{Operation: "torrent_info", StatusCode: http.StatusNotFound, Message: "unknown_ressource"}
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/torrents/GONE", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	metrics := httptest.NewRecorder()
	tel.Handler().ServeHTTP(metrics, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, metrics.Code)

	body := metrics.Body.String()
	assert.Contains(t, body, "system_errors_total")
	assert.Contains(t, body, `component="http"`)
	assert.Contains(t, body, `error_type="network"`)
	assert.NotContains(t, body, `error_type="remote"`)
}

func TestErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{
			name:       "remote authentication failure",
			err:        &debrid.AuthenticationError{Err: &debrid.APIError{StatusCode: 401, Message: "bad_token"}},
			wantStatus: http.StatusUnauthorized,
			wantError:  "bad_token",
		},
		{
			name:       "remote not found",
			err:        &debrid.APIError{StatusCode: 404, Message: "unknown_ressource"},
			wantStatus: http.StatusNotFound,
			wantError:  "unknown_ressource",
		},
		{
			name:       "remote failure without message",
			err:        &debrid.APIError{StatusCode: 503},
			wantStatus: http.StatusBadGateway,
			wantError:  "Failed to load torrent",
		},
		{
			name:       "transport failure",
			err:        &debrid.NetworkError{Operation: "torrent_info", Err: io.ErrUnexpectedEOF},
			wantStatus: http.StatusBadGateway,
			wantError:  "Failed to load torrent",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(true)
			f.client.err = tt.err

			rec := f.do(http.MethodGet, "/torrents/ABC", nil, "")

			require.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantError, decodeError(t, rec))
		})
	}
}

func TestAddMagnet(t *testing.T) {
	f := newFixture(true)

	magnet := "magnet:?xt=urn:btih:abc&dn=Ubuntu+24.04"

	rec := f.doJSON(http.MethodPost, "/torrents/magnet", `{"magnet":"`+magnet+`","host":"real-debrid.com"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"id":"T1","uri":""}`, rec.Body.String())

	assert.Equal(t, magnet, f.client.lastMagnet)
	assert.Equal(t, "real-debrid.com", f.client.lastHost)
	msg := f.notifier.wait(t)
	assert.True(t, strings.HasPrefix(msg, "🧲 New magnet added: **Ubuntu 24.04** (id T1) on "), msg)
}

func TestAddMagnet_InvalidBody(t *testing.T) {
	f := newFixture(true)

	rec := f.doJSON(http.MethodPost, "/torrents/magnet", `{not json`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid request body", decodeError(t, rec))
}

func TestAddTorrentFile(t *testing.T) {
	f := newFixture(true)

	var body bytes.Buffer

	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "ubuntu.torrent")
	require.NoError(t, err)
	_, err = part.Write([]byte("d4:infod4:name4:testee"))
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("host", "real-debrid.com"))
	require.NoError(t, mw.Close())

	rec := f.do(http.MethodPost, "/torrents/file", &body, mw.FormDataContentType())
	require.Equal(t, http.StatusCreated, rec.Code)

	assert.Equal(t, "ubuntu.torrent", f.client.lastFilename)
	assert.Equal(t, "d4:infod4:name4:testee", string(f.client.lastContent))
	assert.Equal(t, "real-debrid.com", f.client.lastHost)
	assert.Contains(t, f.notifier.wait(t), "ubuntu.torrent")
}

func TestAddTorrentFile_InvalidContent(t *testing.T) {
	f := newFixture(true)
	f.client.err = &debrid.InvalidContentError{Filename: "bad.torrent", Reason: "bencode root must be a dictionary"}

	var body bytes.Buffer

	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "bad.torrent")
	require.NoError(t, err)
	_, _ = part.Write([]byte("l4:infoe"))
	require.NoError(t, mw.Close())

	rec := f.do(http.MethodPost, "/torrents/file", &body, mw.FormDataContentType())

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "bencode root must be a dictionary", decodeError(t, rec))
}

func TestTorrentMutations(t *testing.T) {
	f := newFixture(true)

	rec := f.doJSON(http.MethodPost, "/torrents/T9/select", `{}`)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "T9", f.client.deletedID)
	assert.Equal(t, "all", f.client.lastSelected)

	rec = f.do(http.MethodDelete, "/torrents/T7", nil, "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "T7", f.client.deletedID)
}

func TestUnrestrict(t *testing.T) {
	f := newFixture(true)

	rec := f.doJSON(http.MethodPost, "/unrestrict", `{"link":" https://hoster.example/f ","password":"pw","remote":true}`)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, debrid.UnrestrictRequest{Link: "https://hoster.example/f", Password: "pw", Remote: true}, f.client.lastUnrestrict)
	assert.Contains(t, f.notifier.wait(t), "movie.mkv")
}

func TestStreamingPlaylist(t *testing.T) {
	t.Run("playlist available", func(t *testing.T) {
		f := newFixture(true)
		f.client.transcode = debrid.TranscodeLinks{"apple": {"full": "https://s/full.m3u8"}}

		rec := f.do(http.MethodGet, "/streaming/F1/playlist", nil, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"format":"apple","url":"https://s/full.m3u8"}`, rec.Body.String())
	})

	t.Run("no playlist is distinct from a failed request", func(t *testing.T) {
		f := newFixture(true)
		f.client.transcode = debrid.TranscodeLinks{}

		rec := f.do(http.MethodGet, "/streaming/F1/playlist", nil, "")
		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "no streaming playlist available", decodeError(t, rec))
	})
}

func TestSave_Disabled(t *testing.T) {
	f := newFixture(true)

	rec := f.doJSON(http.MethodPost, "/save", `{"link":"https://dl.example/D1/movie.mkv"}`)

	require.Equal(t, http.StatusNotImplemented, rec.Code)
	assert.Equal(t, downloader.ErrSaveDisabled.Error(), decodeError(t, rec))
}

func TestSave(t *testing.T) {
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("content"))
	}))
	defer remote.Close()

	client := &mockClient{}
	n := newRecordingNotifier()
	saver := downloader.NewDiskSaver(t.TempDir(), remote.Client(), nil)
	handler := NewConsoleHandler(&mockConsole{client: client, configured: true}, saver, n, nil, "", "").Routes()

	req := httptest.NewRequest(http.MethodPost, "/save", strings.NewReader(`{"link":"`+remote.URL+`/D1/movie.mkv"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var saved downloader.SavedFile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &saved))
	assert.Equal(t, int64(len("content")), saved.Size)
	assert.Contains(t, n.wait(t), "movie.mkv")
}

func TestDashboard(t *testing.T) {
	f := newFixture(true)

	rec := f.do(http.MethodGet, "/dashboard", nil, "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"alice"`)
	assert.Contains(t, rec.Body.String(), `"premium_days":3`)
}

func TestBasicAuth(t *testing.T) {
	c := &mockConsole{client: &mockClient{}, configured: true}
	handler := NewConsoleHandler(c, nil, nil, nil, "admin", "secret").Routes()

	tests := []struct {
		name       string
		user, pass string
		setAuth    bool
		wantStatus int
	}{
		{name: "no credentials", wantStatus: http.StatusUnauthorized},
		{name: "wrong password", user: "admin", pass: "nope", setAuth: true, wantStatus: http.StatusUnauthorized},
		{name: "valid credentials", user: "admin", pass: "secret", setAuth: true, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/credential", nil)
			if tt.setAuth {
				req.SetBasicAuth(tt.user, tt.pass)
			}

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestMagnetName(t *testing.T) {
	assert.Equal(t, "Ubuntu 24.04", magnetName("magnet:?xt=urn:btih:abc&dn=Ubuntu+24.04"))
	assert.Equal(t, "", magnetName("magnet:?xt=urn:btih:abc"))
	assert.Equal(t, "", magnetName("not a magnet"))
}

func TestQueryList(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/x?hash=a,b&hash=c&hash=", nil)

	assert.Equal(t, []string{"a", "b", "c"}, queryList(req, "hash"))
}
