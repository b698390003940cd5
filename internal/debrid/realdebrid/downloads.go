package realdebrid

import (
	"context"
	"net/http"

	"github.com/italolelis/debrid_console/internal/debrid"
)

func (c *Client) Downloads(ctx context.Context, opts debrid.ListOptions) ([]debrid.Download, error) {
	downloads := []debrid.Download{}
	if err := c.do(ctx, c.request(ctx), http.MethodGet, listPath("/downloads", opts), "list_downloads", &downloads); err != nil {
		return nil, err
	}

	return downloads, nil
}

func (c *Client) DeleteDownload(ctx context.Context, id string) error {
	if err := requireValue("download id", id); err != nil {
		return err
	}

	req := c.request(ctx).SetPathParam("id", id)

	return c.do(ctx, req, http.MethodDelete, "/downloads/delete/{id}", "delete_download", nil)
}
