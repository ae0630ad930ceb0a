package bluesky

import (
	"context"
	"fmt"
	"strings"

	"github.com/blackmichael/skygazer/internal/domain"
	"github.com/blackmichael/skygazer/internal/lexicon"
)

// CreateRecord creates a record in the authenticated user's repo.
func (c *Client) CreateRecord(ctx context.Context, collection string, record any) (*lexicon.StrongRef, error) {
	did := c.DID()
	if did == "" {
		return nil, fmt.Errorf("create record: not authenticated: %w", domain.ErrAuth)
	}

	body := lexicon.CreateRecordInput{
		Repo:       did,
		Collection: collection,
		Record:     record,
	}

	var out lexicon.CreateRecordOutput
	if err := c.post(ctx, nsidCreateRecord, body, &out); err != nil {
		return nil, fmt.Errorf("create record: %w", err)
	}
	return &lexicon.StrongRef{URI: out.URI, CID: out.CID}, nil
}

// DeleteRecord deletes the record at uri.
func (c *Client) DeleteRecord(ctx context.Context, uri string) error {
	repo, collection, rkey, err := splitATURI(uri)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}

	body := lexicon.DeleteRecordInput{
		Repo:       repo,
		Collection: collection,
		RKey:       rkey,
	}
	if err := c.post(ctx, nsidDeleteRecord, body, nil); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	return nil
}

func (c *Client) CreateBookmark(ctx context.Context, uri, cid string) error {
	if err := c.post(ctx, nsidCreateBookmark, lexicon.CreateBookmarkInput{URI: uri, CID: cid}, nil); err != nil {
		return fmt.Errorf("create bookmark: %w", err)
	}
	return nil
}

func (c *Client) DeleteBookmark(ctx context.Context, uri string) error {
	if err := c.post(ctx, nsidDeleteBookmark, lexicon.DeleteBookmarkInput{URI: uri}, nil); err != nil {
		return fmt.Errorf("delete bookmark: %w", err)
	}
	return nil
}

// splitATURI splits at://repo/collection/rkey.
func splitATURI(uri string) (repo, collection, rkey string, err error) {
	rest, ok := strings.CutPrefix(uri, "at://")
	if !ok {
		return "", "", "", fmt.Errorf("invalid AT-URI %q", uri)
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", "", fmt.Errorf("invalid record AT-URI %q", uri)
	}
	return parts[0], parts[1], parts[2], nil
}
