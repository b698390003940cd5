package realdebrid

import (
	"context"
	"net/http"
	"net/url"

	"github.com/italolelis/debrid_console/internal/debrid"
)

// UnrestrictLink turns a hoster link into a direct download link. The form
// always carries link; password is sent only when non-empty and remote=1
// only when requested.
func (c *Client) UnrestrictLink(ctx context.Context, r debrid.UnrestrictRequest) (*debrid.UnrestrictedLink, error) {
	if err := requireValue("link", r.Link); err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("link", r.Link)

	if r.Password != "" {
		form.Set("password", r.Password)
	}

	if r.Remote {
		form.Set("remote", "1")
	}

	req := c.request(ctx).SetFormDataFromValues(form)

	var link debrid.UnrestrictedLink
	if err := c.do(ctx, req, http.MethodPost, "/unrestrict/link", "unrestrict_link", &link); err != nil {
		return nil, err
	}

	return &link, nil
}

func (c *Client) CheckLink(ctx context.Context, link, password string) (*debrid.LinkCheck, error) {
	if err := requireValue("link", link); err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("link", link)

	if password != "" {
		form.Set("password", password)
	}

	req := c.request(ctx).SetFormDataFromValues(form)

	var check debrid.LinkCheck
	if err := c.do(ctx, req, http.MethodPost, "/unrestrict/check", "check_link", &check); err != nil {
		return nil, err
	}

	return &check, nil
}

// UnrestrictFolder expands a hoster folder link into its file links.
func (c *Client) UnrestrictFolder(ctx context.Context, link string) ([]string, error) {
	if err := requireValue("link", link); err != nil {
		return nil, err
	}

	req := c.request(ctx).SetFormDataFromValues(url.Values{"link": {link}})

	links := []string{}
	if err := c.do(ctx, req, http.MethodPost, "/unrestrict/folder", "unrestrict_folder", &links); err != nil {
		return nil, err
	}

	return links, nil
}
