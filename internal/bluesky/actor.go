package bluesky

import (
	"context"
	"fmt"
	"net/url"

	"github.com/blackmichael/skygazer/internal/lexicon"
)

func (c *Client) GetProfile(ctx context.Context, actor string) (*lexicon.ProfileViewDetailed, error) {
	var out lexicon.ProfileViewDetailed
	if err := c.get(ctx, nsidGetProfile, url.Values{"actor": {actor}}, &out); err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &out, nil
}

func (c *Client) ResolveHandle(ctx context.Context, handle string) (string, error) {
	var out lexicon.ResolveHandleOutput
	if err := c.get(ctx, nsidResolveHandle, url.Values{"handle": {handle}}, &out); err != nil {
		return "", fmt.Errorf("resolve handle: %w", err)
	}
	return out.DID, nil
}

func (c *Client) MuteActor(ctx context.Context, actor string) error {
	if err := c.post(ctx, nsidMuteActor, lexicon.ActorInput{Actor: actor}, nil); err != nil {
		return fmt.Errorf("mute actor: %w", err)
	}
	return nil
}

func (c *Client) UnmuteActor(ctx context.Context, actor string) error {
	if err := c.post(ctx, nsidUnmuteActor, lexicon.ActorInput{Actor: actor}, nil); err != nil {
		return fmt.Errorf("unmute actor: %w", err)
	}
	return nil
}

func (c *Client) GetPreferences(ctx context.Context) ([]lexicon.PreferenceItem, error) {
	var out lexicon.GetPreferencesOutput
	if err := c.get(ctx, nsidGetPreferences, nil, &out); err != nil {
		return nil, fmt.Errorf("get preferences: %w", err)
	}
	return out.Preferences, nil
}

// PutPreferences replaces the full preference list.
func (c *Client) PutPreferences(ctx context.Context, prefs []lexicon.PreferenceItem) error {
	if err := c.post(ctx, nsidPutPreferences, lexicon.PutPreferencesInput{Preferences: prefs}, nil); err != nil {
		return fmt.Errorf("put preferences: %w", err)
	}
	return nil
}
