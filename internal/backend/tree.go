package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"hydratutor/internal/constants"
	"hydratutor/internal/protocol"
)

func (c *Client) treeCall(ctx context.Context, endpoint, input, configuration string) ([]protocol.TreeNode, error) {
	body, err := c.do(ctx, http.MethodGet, endpoint, url.Values{
		"inputText":     {input},
		"configuration": {configuration},
	})
	if err != nil {
		return nil, err
	}
	var nodes []protocol.TreeNode
	if err := decode(endpoint, body, &nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}

func (c *Client) Build(ctx context.Context, input, configuration string) ([]protocol.TreeNode, error) {
	return c.treeCall(ctx, constants.EndpointTreeBuild, input, configuration)
}

func (c *Client) Step(ctx context.Context, input, configuration string) ([]protocol.TreeNode, error) {
	return c.treeCall(ctx, constants.EndpointTreeStep, input, configuration)
}

// Back unwinds one step. A fully unwound tree comes back empty.
func (c *Client) Back(ctx context.Context, input, configuration string) ([]protocol.TreeNode, error) {
	return c.treeCall(ctx, constants.EndpointTreeBack, input, configuration)
}

func (c *Client) Query(ctx context.Context, path, ops string) ([]protocol.Row, error) {
	body, err := c.do(ctx, http.MethodGet, constants.EndpointTreeQuery, url.Values{
		"path": {path},
		"ops":  {ops},
	})
	if err != nil {
		return nil, err
	}
	var rows []protocol.Row
	if err := decode(constants.EndpointTreeQuery, body, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// State fetches what the backend remembers for this identity.
func (c *Client) State(ctx context.Context) (*protocol.TreeState, error) {
	body, err := c.do(ctx, http.MethodGet, constants.EndpointTreeGetState, nil)
	if err != nil {
		return nil, err
	}
	var states []protocol.TreeState
	if err := decode(constants.EndpointTreeGetState, body, &states); err != nil {
		return nil, err
	}
	if len(states) == 0 {
		return nil, &Error{Endpoint: constants.EndpointTreeGetState, Status: http.StatusOK, Err: fmt.Errorf("empty state")}
	}
	return &states[0], nil
}

// NodeData fetches the attachments of the node at path.
func (c *Client) NodeData(ctx context.Context, path string) (*protocol.NodeData, error) {
	body, err := c.do(ctx, http.MethodGet, constants.EndpointTreeGetData, url.Values{
		"path": {path},
	})
	if err != nil {
		return nil, err
	}
	var attachments []protocol.NodeAttachments
	if err := decode(constants.EndpointTreeGetData, body, &attachments); err != nil {
		return nil, err
	}
	if len(attachments) == 0 {
		return &protocol.NodeData{None: true}, nil
	}
	nd, err := attachments[0].Decode()
	if err != nil {
		return nil, &Error{Endpoint: constants.EndpointTreeGetData, Status: http.StatusOK, Err: err}
	}
	return nd, nil
}

// UpdateStash overwrites the server copy of the stash. stash is the JSON
// encoding of the full list.
func (c *Client) UpdateStash(ctx context.Context, input, configuration, stash string) (string, error) {
	body, err := c.do(ctx, http.MethodGet, constants.EndpointTreeStash, url.Values{
		"inputText":     {input},
		"configuration": {configuration},
		"stash":         {stash},
	})
	if err != nil {
		return "", err
	}
	return text(constants.EndpointTreeStash, body)
}

func (c *Client) TreeReset(ctx context.Context) (string, error) {
	body, err := c.do(ctx, http.MethodGet, constants.EndpointTreeReset, nil)
	if err != nil {
		return "", err
	}
	return text(constants.EndpointTreeReset, body)
}
