package bluesky

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/blackmichael/skygazer/internal/domain"
)

const (
	nsidCreateSession   = "com.atproto.server.createSession"
	nsidRefreshSession  = "com.atproto.server.refreshSession"
	nsidResolveHandle   = "com.atproto.identity.resolveHandle"
	nsidCreateRecord    = "com.atproto.repo.createRecord"
	nsidDeleteRecord    = "com.atproto.repo.deleteRecord"
	nsidQueryLabels     = "com.atproto.label.queryLabels"
	nsidGetServices     = "app.bsky.labeler.getServices"
	nsidGetTimeline     = "app.bsky.feed.getTimeline"
	nsidGetFeed         = "app.bsky.feed.getFeed"
	nsidGetPosts        = "app.bsky.feed.getPosts"
	nsidGetGenerator    = "app.bsky.feed.getFeedGenerator"
	nsidGetProfile      = "app.bsky.actor.getProfile"
	nsidGetPreferences  = "app.bsky.actor.getPreferences"
	nsidPutPreferences  = "app.bsky.actor.putPreferences"
	nsidMuteActor       = "app.bsky.graph.muteActor"
	nsidUnmuteActor     = "app.bsky.graph.unmuteActor"
	nsidCreateBookmark  = "app.bsky.bookmark.createBookmark"
	nsidDeleteBookmark  = "app.bsky.bookmark.deleteBookmark"
	headerAcceptLabeler = "atproto-accept-labelers"
)

func (c *Client) get(ctx context.Context, nsid string, params url.Values, result any) error {
	return c.call(ctx, http.MethodGet, nsid, params, nil, result)
}

func (c *Client) post(ctx context.Context, nsid string, body any, result any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	return c.call(ctx, http.MethodPost, nsid, nil, payload, result)
}

// call sends an XRPC request with the session token, refreshing the token
// once if the server reports it expired.
func (c *Client) call(ctx context.Context, method, nsid string, params url.Values, payload []byte, result any) error {
	authed := nsid != nsidCreateSession
	if authed {
		if err := c.ensureFresh(ctx); err != nil {
			return err
		}
	}

	var s session
	if authed {
		s = c.tokens()
	}
	status, body, err := c.send(ctx, method, nsid, params, payload, s.accessJwt)
	if err != nil {
		return err
	}

	if authed && status == http.StatusBadRequest && decodeAPIError(status, body).Name == "ExpiredToken" {
		if err := c.refresh(ctx, s.refreshJwt, "expired"); err != nil {
			return err
		}
		status, body, err = c.send(ctx, method, nsid, params, payload, c.tokens().accessJwt)
		if err != nil {
			return err
		}
	}

	if status < 200 || status >= 300 {
		return decodeAPIError(status, body)
	}
	if result != nil && len(body) > 0 {
		return unmarshal(body, result)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, nsid string, params url.Values, payload []byte, token string) (int, []byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, nil, fmt.Errorf("wait for rate limiter: %w", err)
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.buildURL(nsid, params), reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if labelers := c.labelersHeader(); labelers != "" {
		req.Header.Set(headerAcceptLabeler, labelers)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		xrpcRequests.WithLabelValues(nsid, "error").Inc()
		return 0, nil, fmt.Errorf("send request: %w: %w", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	xrpcDuration.WithLabelValues(nsid).Observe(time.Since(start).Seconds())
	xrpcRequests.WithLabelValues(nsid, strconv.Itoa(resp.StatusCode)).Inc()
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w: %w", domain.ErrTransport, err)
	}
	return resp.StatusCode, respBody, nil
}

func (c *Client) buildURL(nsid string, params url.Values) string {
	u := c.pds + "/xrpc/" + nsid
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}

func unmarshal(body []byte, result any) error {
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("unmarshal response: %w: %w", domain.ErrUndecodable, err)
	}
	return nil
}
