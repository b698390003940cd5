package realdebrid

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/italolelis/debrid_console/internal/debrid"
)

// serverTimeLayout is the ISO 8601 form /time/iso answers with.
const serverTimeLayout = "2006-01-02T15:04:05-0700"

func (c *Client) User(ctx context.Context) (*debrid.User, error) {
	var user debrid.User
	if err := c.do(ctx, c.request(ctx), http.MethodGet, "/user", "user", &user); err != nil {
		return nil, err
	}

	return &user, nil
}

func (c *Client) Traffic(ctx context.Context) (debrid.Traffic, error) {
	traffic := debrid.Traffic{}
	if err := c.do(ctx, c.request(ctx), http.MethodGet, "/traffic", "traffic", &traffic); err != nil {
		return nil, err
	}

	return traffic, nil
}

// TrafficDetails returns per-day usage. start and end are YYYY-MM-DD dates
// and are omitted when empty, leaving the remote default window.
func (c *Client) TrafficDetails(ctx context.Context, start, end string) (debrid.TrafficDetails, error) {
	req := c.request(ctx)

	if start != "" {
		req.SetQueryParam("start", start)
	}

	if end != "" {
		req.SetQueryParam("end", end)
	}

	details := debrid.TrafficDetails{}
	if err := c.do(ctx, req, http.MethodGet, "/traffic/details", "traffic_details", &details); err != nil {
		return nil, err
	}

	return details, nil
}

func (c *Client) Settings(ctx context.Context) (*debrid.Settings, error) {
	var settings debrid.Settings
	if err := c.do(ctx, c.request(ctx), http.MethodGet, "/settings", "settings", &settings); err != nil {
		return nil, err
	}

	return &settings, nil
}

func (c *Client) UpdateSetting(ctx context.Context, name, value string) error {
	if err := requireValue("setting name", name); err != nil {
		return err
	}

	form := url.Values{}
	form.Set("setting_name", name)
	form.Set("setting_value", value)

	req := c.request(ctx).SetFormDataFromValues(form)

	return c.do(ctx, req, http.MethodPost, "/settings/update", "update_setting", nil)
}

func (c *Client) UploadAvatar(ctx context.Context, filename string, r io.Reader) error {
	if err := requireValue("avatar filename", filename); err != nil {
		return err
	}

	req := c.request(ctx).SetFileReader("file", filename, r)

	return c.do(ctx, req, http.MethodPut, "/settings/avatarFile", "upload_avatar", nil)
}

func (c *Client) DeleteAvatar(ctx context.Context) error {
	return c.do(ctx, c.request(ctx), http.MethodDelete, "/settings/avatarDelete", "delete_avatar", nil)
}

// ServerTime returns the remote clock, useful for checking skew against
// premium expirations.
func (c *Client) ServerTime(ctx context.Context) (time.Time, error) {
	resp, err := c.request(ctx).Get("/time/iso")
	if err != nil {
		return time.Time{}, &debrid.NetworkError{Operation: "server_time", Err: err}
	}

	if err := mapHTTPError("server_time", resp); err != nil {
		return time.Time{}, err
	}

	raw := strings.Trim(strings.TrimSpace(resp.String()), `"`)

	for _, layout := range []string{serverTimeLayout, time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("failed to parse server time %q", raw)
}
