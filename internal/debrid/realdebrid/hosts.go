package realdebrid

import (
	"context"
	"net/http"

	"github.com/italolelis/debrid_console/internal/debrid"
)

func (c *Client) Hosts(ctx context.Context) (map[string]debrid.Host, error) {
	hosts := map[string]debrid.Host{}
	if err := c.do(ctx, c.request(ctx), http.MethodGet, "/hosts", "hosts", &hosts); err != nil {
		return nil, err
	}

	return hosts, nil
}

func (c *Client) HostsStatus(ctx context.Context) (map[string]debrid.HostStatus, error) {
	statuses := map[string]debrid.HostStatus{}
	if err := c.do(ctx, c.request(ctx), http.MethodGet, "/hosts/status", "hosts_status", &statuses); err != nil {
		return nil, err
	}

	return statuses, nil
}

func (c *Client) HostsRegex(ctx context.Context) ([]string, error) {
	patterns := []string{}
	if err := c.do(ctx, c.request(ctx), http.MethodGet, "/hosts/regex", "hosts_regex", &patterns); err != nil {
		return nil, err
	}

	return patterns, nil
}

func (c *Client) HostsDomains(ctx context.Context) ([]string, error) {
	domains := []string{}
	if err := c.do(ctx, c.request(ctx), http.MethodGet, "/hosts/domains", "hosts_domains", &domains); err != nil {
		return nil, err
	}

	return domains, nil
}
