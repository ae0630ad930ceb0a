package session

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/blackmichael/skygazer/internal/domain"
	"github.com/blackmichael/skygazer/internal/lexicon"
	"github.com/blackmichael/skygazer/internal/normalize"
)

// GetFullUser fetches a profile with its user labels and bio facets, and
// the pinned post when withPinned is set. Label, pinned post and mention
// resolution failures degrade to missing data.
func (s *Session) GetFullUser(ctx context.Context, actor string, withPinned bool) (*domain.User, error) {
	profile, err := s.client.GetProfile(ctx, actor)
	if err != nil {
		return nil, fmt.Errorf("get full user %s: %w", actor, err)
	}
	labelers := s.Preferences().Labelers

	var (
		userLabels []domain.UserLabel
		pinned     *domain.Post
		bioFacets  []domain.Facet
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		l, err := s.labels.ResolveLabels(gctx, profile.DID, labelers)
		if err != nil {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			s.logger.Warn("failed to resolve user labels", "did", profile.DID, "error", err)
			return nil
		}
		userLabels = l
		return nil
	})
	if withPinned && profile.PinnedPost != nil {
		g.Go(func() error {
			p, err := s.GetPostAtURI(gctx, profile.PinnedPost.URI)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				s.logger.Warn("failed to fetch pinned post", "uri", profile.PinnedPost.URI, "error", err)
				return nil
			}
			pinned = p
			return nil
		})
	}
	if profile.Description != nil {
		g.Go(func() error {
			f, err := s.detector.Detect(gctx, *profile.Description)
			if err != nil {
				return err
			}
			bioFacets = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	user := toUser(profile, userLabels)
	user.PinnedPost = pinned
	user.BioFacets = bioFacets
	return &user, nil
}

func toUser(p *lexicon.ProfileViewDetailed, userLabels []domain.UserLabel) domain.User {
	u := domain.User{
		Author:    normalize.Author(&p.ProfileViewBasic, userLabels),
		Followers: count(p.FollowersCount),
		Follows:   count(p.FollowsCount),
		Posts:     count(p.PostsCount),
	}
	if p.Description != nil {
		u.Bio = *p.Description
	}
	if p.Banner != nil {
		u.Banner = *p.Banner
	}
	if v := p.Viewer; v != nil && v.KnownFollowers != nil {
		u.KnownFollowers = v.KnownFollowers.Count
	}
	return u
}

func count(n *int64) int64 {
	if n == nil || *n < 0 {
		return 0
	}
	return *n
}
