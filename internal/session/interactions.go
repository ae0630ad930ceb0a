package session

import (
	"context"
	"fmt"
	"time"

	"github.com/blackmichael/skygazer/internal/domain"
	"github.com/blackmichael/skygazer/internal/lexicon"
	"github.com/blackmichael/skygazer/internal/normalize"
)

// PendingURI stands in for the record URI of a like or repost that has not
// been written yet.
const PendingURI = "pending"

// Reconciliation is the outcome of the background half of a toggle. On
// failure Post is the post as it was before the toggle and Err is set.
type Reconciliation struct {
	Post domain.Post
	Err  error
}

// Interaction is the result of ToggleLike or ToggleRepost. Projected is the
// local projection, available at once. Reconciled delivers exactly one
// value once the write and a re-fetch of the post have completed, and may
// overwrite any projected field. The two are eventually consistent.
//
// Err is set when the toggle was refused without writing anything; then
// Projected is the post unchanged and Reconciled carries the same error.
type Interaction struct {
	Projected  domain.Post
	Reconciled <-chan Reconciliation
	Err        error
}

type toggle struct {
	name       string
	collection string
	uri        func(v *domain.Viewer) *string
	count      func(c *domain.Counts) *int64
	record     func(subject lexicon.StrongRef, createdAt string) any
}

var likeToggle = toggle{
	name:       "like",
	collection: lexicon.TypeFeedLike,
	uri:        func(v *domain.Viewer) *string { return &v.LikeURI },
	count:      func(c *domain.Counts) *int64 { return &c.Likes },
	record: func(subject lexicon.StrongRef, createdAt string) any {
		return lexicon.LikeRecord{LexiconTypeID: lexicon.TypeFeedLike, Subject: subject, CreatedAt: createdAt}
	},
}

var repostToggle = toggle{
	name:       "repost",
	collection: lexicon.TypeFeedRepost,
	uri:        func(v *domain.Viewer) *string { return &v.RepostURI },
	count:      func(c *domain.Counts) *int64 { return &c.Reposts },
	record: func(subject lexicon.StrongRef, createdAt string) any {
		return lexicon.RepostRecord{LexiconTypeID: lexicon.TypeFeedRepost, Subject: subject, CreatedAt: createdAt}
	},
}

// ToggleLike likes post, or removes the viewer's like.
func (s *Session) ToggleLike(ctx context.Context, post domain.Post) Interaction {
	return s.toggle(ctx, post, likeToggle)
}

// ToggleRepost reposts post, or removes the viewer's repost.
func (s *Session) ToggleRepost(ctx context.Context, post domain.Post) Interaction {
	return s.toggle(ctx, post, repostToggle)
}

func (s *Session) toggle(ctx context.Context, post domain.Post, t toggle) Interaction {
	existing := *t.uri(&post.Viewer)
	if existing == PendingURI {
		// the record URI is not known until the previous write lands
		err := fmt.Errorf("%s %s: %w", t.name, post.URI, domain.ErrInteractionPending)
		ch := make(chan Reconciliation, 1)
		ch <- Reconciliation{Post: post, Err: err}
		close(ch)
		return Interaction{Projected: post, Reconciled: ch, Err: err}
	}

	projected := post
	n := t.count(&projected.Counts)
	if existing != "" {
		*t.uri(&projected.Viewer) = ""
		*n = max(*n-1, 0)
	} else {
		*t.uri(&projected.Viewer) = PendingURI
		*n++
	}
	s.pager.Replace(projected)

	ch := make(chan Reconciliation, 1)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(ch)

		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.reconcileTimeout)
		defer cancel()

		rec := s.reconcile(rctx, post, projected, existing, t)
		s.pager.Replace(rec.Post)
		ch <- rec
	}()

	return Interaction{Projected: projected, Reconciled: ch}
}

func (s *Session) reconcile(ctx context.Context, post, projected domain.Post, existing string, t toggle) Reconciliation {
	if existing != "" {
		if err := s.client.DeleteRecord(ctx, existing); err != nil {
			s.logger.Warn("failed to undo "+t.name, "uri", post.URI, "error", err)
			return Reconciliation{Post: post, Err: fmt.Errorf("un%s %s: %w", t.name, post.URI, err)}
		}
	} else {
		ref, err := s.client.CreateRecord(ctx, t.collection, t.record(
			lexicon.StrongRef{URI: post.URI, CID: post.CID},
			s.now().UTC().Format(time.RFC3339Nano),
		))
		if err != nil {
			s.logger.Warn("failed to "+t.name, "uri", post.URI, "error", err)
			return Reconciliation{Post: post, Err: fmt.Errorf("%s %s: %w", t.name, post.URI, err)}
		}
		*t.uri(&projected.Viewer) = ref.URI
	}

	fresh, err := s.refetch(ctx, post.URI)
	if err != nil {
		// the write landed; keep the projection with the real record URI
		s.logger.Warn("failed to re-fetch post after "+t.name, "uri", post.URI, "error", err)
		return Reconciliation{Post: projected}
	}
	return Reconciliation{Post: projected.Reconcile(*fresh)}
}

// refetch loads the server's current view of a post without resolving
// labels; only counters and viewer state are taken from it.
func (s *Session) refetch(ctx context.Context, uri string) (*domain.Post, error) {
	views, err := s.client.GetPosts(ctx, []string{uri})
	if err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return nil, fmt.Errorf("post %s not found", uri)
	}
	return normalize.Post(&views[0], nil)
}

// ToggleBookmark bookmarks post, or removes the bookmark.
func (s *Session) ToggleBookmark(ctx context.Context, post domain.Post) (domain.Post, error) {
	bookmarked := post.Viewer.Bookmarked != nil && *post.Viewer.Bookmarked
	if bookmarked {
		if err := s.client.DeleteBookmark(ctx, post.URI); err != nil {
			return post, err
		}
	} else {
		if err := s.client.CreateBookmark(ctx, post.URI, post.CID); err != nil {
			return post, err
		}
	}

	state := !bookmarked
	post.Viewer.Bookmarked = &state
	s.pager.Replace(post)
	return post, nil
}

// ToggleFollow follows author, or removes the viewer's follow.
func (s *Session) ToggleFollow(ctx context.Context, author domain.Author) (domain.Author, error) {
	if author.FollowingURI != "" {
		if err := s.client.DeleteRecord(ctx, author.FollowingURI); err != nil {
			return author, fmt.Errorf("unfollow %s: %w", author.DID, err)
		}
		author.FollowingURI = ""
		return author, nil
	}

	ref, err := s.client.CreateRecord(ctx, lexicon.TypeGraphFollow, lexicon.FollowRecord{
		LexiconTypeID: lexicon.TypeGraphFollow,
		Subject:       author.DID,
		CreatedAt:     s.now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return author, fmt.Errorf("follow %s: %w", author.DID, err)
	}
	author.FollowingURI = ref.URI
	return author, nil
}

// ToggleMute mutes author, or unmutes them.
func (s *Session) ToggleMute(ctx context.Context, author domain.Author) (domain.Author, error) {
	if author.Muted {
		if err := s.client.UnmuteActor(ctx, author.DID); err != nil {
			return author, err
		}
	} else {
		if err := s.client.MuteActor(ctx, author.DID); err != nil {
			return author, err
		}
	}
	author.Muted = !author.Muted
	return author, nil
}

// ToggleBlock blocks author, or removes the viewer's block.
func (s *Session) ToggleBlock(ctx context.Context, author domain.Author) (domain.Author, error) {
	if author.BlockingURI != "" {
		if err := s.client.DeleteRecord(ctx, author.BlockingURI); err != nil {
			return author, fmt.Errorf("unblock %s: %w", author.DID, err)
		}
		author.BlockingURI = ""
		return author, nil
	}

	ref, err := s.client.CreateRecord(ctx, lexicon.TypeGraphBlock, lexicon.BlockRecord{
		LexiconTypeID: lexicon.TypeGraphBlock,
		Subject:       author.DID,
		CreatedAt:     s.now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return author, fmt.Errorf("block %s: %w", author.DID, err)
	}
	author.BlockingURI = ref.URI
	return author, nil
}
