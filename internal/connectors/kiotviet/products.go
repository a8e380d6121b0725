package kiotviet

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/kiotviet-integration/kvsync/internal/core/domain"
)

// masterProductsRequest is the body of POST /branchs/{id}/masterproducts.
type masterProductsRequest struct {
	ID            int64    `json:"Id"`
	Skip          int      `json:"Skip"`
	Take          int      `json:"Take"`
	Includes      []string `json:"Includes"`
	ForSummaryRow bool     `json:"ForSummaryRow"`
	IsActive      bool     `json:"IsActive"`
	IsNewFilter   bool     `json:"IsNewFilter"`
}

type masterProductsResponse struct {
	Data         json.RawMessage `json:"Data"`
	TotalProduct json.RawMessage `json:"TotalProduct"`
}

// CountProducts returns the number of products in the branch catalog.
// A total that is not an integer is a configuration problem on the
// account, reported as domain.ErrConfiguration.
func (c *Client) CountProducts(ctx context.Context, header http.Header, branchID int64) (int, error) {
	resp, path, err := c.masterProducts(ctx, header, branchID, 0, 1)
	if err != nil {
		return 0, err
	}

	if len(resp.TotalProduct) == 0 {
		return 0, nil
	}
	var total int
	if err := json.Unmarshal(resp.TotalProduct, &total); err != nil {
		return 0, fmt.Errorf("%s: unexpected total product value %s: %w",
			path, resp.TotalProduct, domain.ErrConfiguration)
	}
	return total, nil
}

// ListProducts returns one page of the branch catalog.
func (c *Client) ListProducts(
	ctx context.Context,
	header http.Header,
	branchID int64,
	skip, take int,
) ([]domain.Product, error) {
	resp, path, err := c.masterProducts(ctx, header, branchID, skip, take)
	if err != nil {
		return nil, err
	}

	var products []domain.Product
	if err := decodeMember(resp.Data, &products); err != nil {
		return nil, payloadError(http.MethodPost, path, "product list", err)
	}
	return products, nil
}

func (c *Client) masterProducts(
	ctx context.Context,
	header http.Header,
	branchID int64,
	skip, take int,
) (*masterProductsResponse, string, error) {
	path := fmt.Sprintf("/branchs/%d/masterproducts", branchID)
	raw, err := c.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   path,
		Header: header,
		Query: url.Values{
			"format":        {"json"},
			"Includes":      {"ProductAttributes"},
			"ForSummaryRow": {"true"},
		},
		Body: masterProductsRequest{
			ID:            branchID,
			Skip:          skip,
			Take:          take,
			Includes:      []string{"ProductAttributes"},
			ForSummaryRow: true,
			IsActive:      true,
			IsNewFilter:   true,
		},
	})
	if err != nil {
		return nil, path, err
	}

	var resp masterProductsResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, path, payloadError(http.MethodPost, path, "master products", err)
	}
	return &resp, path, nil
}
