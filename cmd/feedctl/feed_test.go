package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/blackmichael/skygazer/internal/domain"
)

func TestWriteFeedPost(t *testing.T) {
	parent := &domain.Post{Author: domain.Author{Handle: "bob.test"}}
	fp := domain.FeedPost{
		Post: domain.Post{
			URI:       "at://did:plc:alice/app.bsky.feed.post/1",
			Author:    domain.Author{Handle: "alice.test", DisplayName: "Alice"},
			Text:      strings.Repeat("👍🏽", previewLength+5),
			CreatedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
			Counts:    domain.Counts{Likes: 7},
			Viewer:    domain.Viewer{LikeURI: "at://like"},
			Labels: domain.PostLabels{Moderation: []domain.ModLabel{
				{Name: "spam", Visibility: domain.VisibilityBlur},
				{Name: "fine", Visibility: domain.VisibilityShow},
			}},
		},
		Reason: domain.FeedReason{Kind: domain.ReasonReposted, By: "Carol"},
		Parent: &domain.RootPost{Found: true, Post: parent},
		Root:   &domain.RootPost{URI: "at://root", Found: true, Blocked: true},
	}

	var buf bytes.Buffer
	writeFeedPost(&buf, fp)
	out := buf.String()

	assert.Contains(t, out, "reposted by Carol")
	assert.Contains(t, out, "in thread a blocked post")
	assert.Contains(t, out, "reply to @bob.test")
	assert.Contains(t, out, "Alice @alice.test")
	assert.Contains(t, out, "7 likes  (liked)")
	assert.Contains(t, out, "label spam: blur")
	assert.NotContains(t, out, "label fine")
	assert.Contains(t, out, strings.Repeat("👍🏽", previewLength)+"…")
	assert.NotContains(t, out, strings.Repeat("👍🏽", previewLength+1))
}

func TestAncestorLabel(t *testing.T) {
	tests := []struct {
		name string
		rp   domain.RootPost
		want string
	}{
		{"blocked", domain.RootPost{Found: true, Blocked: true}, "a blocked post"},
		{"deleted", domain.RootPost{URI: "at://x"}, "a deleted post"},
		{"undecodable", domain.RootPost{URI: "at://x", Found: true}, "at://x"},
		{"found", domain.RootPost{Found: true, Post: &domain.Post{Author: domain.Author{Handle: "a.test"}}}, "@a.test"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ancestorLabel(&tt.rp))
		})
	}
}

func TestWriteUser(t *testing.T) {
	var buf bytes.Buffer
	writeUser(&buf, &domain.User{
		Author: domain.Author{
			DID:        "did:plc:alice",
			Handle:     "alice.test",
			FollowedBy: true,
			UserLabels: []domain.UserLabel{{Name: "Verified Artist", CreatorHandle: "mod.test"}},
		},
		Followers: 3,
		Bio:       "hello",
	})
	out := buf.String()

	assert.Contains(t, out, "@alice.test @alice.test")
	assert.Contains(t, out, "3 followers  0 following  0 posts")
	assert.Contains(t, out, "follows you")
	assert.Contains(t, out, "label Verified Artist (by @mod.test)")
	assert.NotContains(t, out, "pinned:")
}
