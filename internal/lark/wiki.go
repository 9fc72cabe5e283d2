package lark

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// Node is one wiki node as returned by the listing API.
type Node struct {
	SpaceID         string `json:"space_id"`
	NodeToken       string `json:"node_token"`
	ObjToken        string `json:"obj_token"`
	ObjType         string `json:"obj_type"`
	ParentNodeToken string `json:"parent_node_token"`
	NodeType        string `json:"node_type"`
	OriginNodeToken string `json:"origin_node_token"`
	Title           string `json:"title"`
	HasChild        bool   `json:"has_child"`
}

// NodePage is one page of a node listing.
type NodePage struct {
	Items     []Node `json:"items"`
	PageToken string `json:"page_token"`
	HasMore   bool   `json:"has_more"`
}

// ListChildren returns one page of the children of parentToken in
// spaceID. An empty parentToken lists the top level of the space; an empty
// pageToken requests the first page.
func (c *Client) ListChildren(ctx context.Context, spaceID, parentToken, pageToken string) (*NodePage, error) {
	query := url.Values{}
	query.Set("page_size", strconv.Itoa(c.pageSize))
	if pageToken != "" {
		query.Set("page_token", pageToken)
	}
	if parentToken != "" {
		query.Set("parent_node_token", parentToken)
	}

	var page NodePage
	path := "/open-apis/wiki/v2/spaces/" + url.PathEscape(spaceID) + "/nodes"
	if err := c.call(ctx, "list space nodes", http.MethodGet, path, query, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}
