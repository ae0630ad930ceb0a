package bluesky

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/blackmichael/skygazer/internal/lexicon"
)

const (
	queryLabelsLimit = 250

	// maxLabelPages bounds label pagination for a single subject.
	maxLabelPages = 4
)

func (c *Client) QueryLabels(ctx context.Context, uriPatterns, sources []string) ([]lexicon.Label, error) {
	params := url.Values{
		"uriPatterns": uriPatterns,
		"limit":       {strconv.Itoa(queryLabelsLimit)},
	}
	if len(sources) > 0 {
		params["sources"] = sources
	}

	var labels []lexicon.Label
	for range maxLabelPages {
		var out lexicon.QueryLabelsOutput
		if err := c.get(ctx, nsidQueryLabels, params, &out); err != nil {
			return nil, fmt.Errorf("query labels: %w", err)
		}
		labels = append(labels, out.Labels...)
		if out.Cursor == nil || *out.Cursor == "" || len(out.Labels) == 0 {
			break
		}
		params.Set("cursor", *out.Cursor)
	}
	return labels, nil
}

func (c *Client) GetLabelerServices(ctx context.Context, dids []string, detailed bool) ([]lexicon.LabelerServiceView, error) {
	params := url.Values{
		"dids":     dids,
		"detailed": {strconv.FormatBool(detailed)},
	}

	var out lexicon.GetServicesOutput
	if err := c.get(ctx, nsidGetServices, params, &out); err != nil {
		return nil, fmt.Errorf("get labeler services: %w", err)
	}
	return out.Views, nil
}
