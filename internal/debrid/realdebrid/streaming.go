package realdebrid

import (
	"context"
	"net/http"

	"github.com/italolelis/debrid_console/internal/debrid"
)

// TranscodeLinks fetches the playlists for an unrestricted file. Use
// debrid.TranscodeLinks.Playlist to pick one.
func (c *Client) TranscodeLinks(ctx context.Context, id string) (debrid.TranscodeLinks, error) {
	if err := requireValue("file id", id); err != nil {
		return nil, err
	}

	req := c.request(ctx).SetPathParam("id", id)

	links := debrid.TranscodeLinks{}
	if err := c.do(ctx, req, http.MethodGet, "/streaming/transcode/{id}", "transcode_links", &links); err != nil {
		return nil, err
	}

	return links, nil
}

func (c *Client) MediaInfo(ctx context.Context, id string) (*debrid.MediaInfo, error) {
	if err := requireValue("file id", id); err != nil {
		return nil, err
	}

	req := c.request(ctx).SetPathParam("id", id)

	var info debrid.MediaInfo
	if err := c.do(ctx, req, http.MethodGet, "/streaming/mediaInfos/{id}", "media_info", &info); err != nil {
		return nil, err
	}

	return &info, nil
}
