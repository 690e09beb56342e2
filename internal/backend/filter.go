package backend

import (
	"context"
	"net/http"
	"net/url"

	"hydratutor/internal/constants"
	"hydratutor/internal/protocol"
)

// FilterPost evaluates filter against input.
func (c *Client) FilterPost(ctx context.Context, input, filter, filterType string) (*protocol.FilterResult, error) {
	body, err := c.do(ctx, http.MethodPost, constants.EndpointFilterPost, url.Values{
		"input":      {input},
		"filter":     {filter},
		"filtertype": {filterType},
	})
	if err != nil {
		return nil, err
	}
	var result protocol.FilterResult
	if err := decode(constants.EndpointFilterPost, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// FilterReset drops the server-side filter state for this identity.
func (c *Client) FilterReset(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, constants.EndpointFilterReset, nil)
	return err
}
