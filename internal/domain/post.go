package domain

import "time"

// Identity is the versioned identity of a record: the same URI with a
// different CID is an edited record.
type Identity struct {
	URI string
	CID string
}

// Author is the author of a post as seen by the viewer.
type Author struct {
	DID         string      `json:"did"`
	Handle      string      `json:"handle"`
	DisplayName string      `json:"displayName,omitempty"`
	Avatar      string      `json:"avatar,omitempty"`
	Labels      []ModLabel  `json:"labels,omitempty"`
	UserLabels  []UserLabel `json:"userLabels"`
	Verified    bool        `json:"verified,omitempty"`

	FollowedBy   bool   `json:"followedBy,omitempty"`
	FollowingURI string `json:"followingUri,omitempty"`
	BlockingURI  string `json:"blockingUri,omitempty"`
	BlockedBy    bool   `json:"blockedBy,omitempty"`
	Muted        bool   `json:"muted,omitempty"`
}

// Name returns the display name, falling back to "@handle".
func (a Author) Name() string {
	if a.DisplayName != "" {
		return a.DisplayName
	}
	return "@" + a.Handle
}

// Counts are the engagement counters of a post. Absent counters are zero.
type Counts struct {
	Replies int64 `json:"replies"`
	Reposts int64 `json:"reposts"`
	Quotes  int64 `json:"quotes"`
	Likes   int64 `json:"likes"`
}

// Viewer is the viewer's relationship to a post. A non-empty LikeURI or
// RepostURI means the viewer liked or reposted it; the URI is needed to undo.
// The flags are nil when they do not apply to the context the post came from.
type Viewer struct {
	LikeURI     string `json:"likeUri,omitempty"`
	RepostURI   string `json:"repostUri,omitempty"`
	Pinned      *bool  `json:"pinned,omitempty"`
	ThreadMuted *bool  `json:"threadMuted,omitempty"`
	Bookmarked  *bool  `json:"bookmarked,omitempty"`
}

type ReplyRef struct {
	Root   Identity `json:"root"`
	Parent Identity `json:"parent"`
}

// Post is a normalized post snapshot.
type Post struct {
	URI        string     `json:"uri"`
	CID        string     `json:"cid"`
	Author     Author     `json:"author"`
	Text       string     `json:"text"`
	Facets     []Facet    `json:"facets,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	Labels     PostLabels `json:"labels"`
	Langs      []string   `json:"langs,omitempty"`
	Tags       []string   `json:"tags,omitempty"`
	Reply      *ReplyRef  `json:"reply,omitempty"`
	Embed      *Embed     `json:"embed,omitempty"`
	Counts     Counts     `json:"counts"`
	Viewer     Viewer     `json:"viewer"`
	ThreadGate ThreadGate `json:"threadGate"`
}

func (p Post) Identity() Identity {
	return Identity{URI: p.URI, CID: p.CID}
}

// Reconcile splices the server-side counters and viewer interaction URIs of
// fresh into p. Everything else in p is kept.
func (p Post) Reconcile(fresh Post) Post {
	p.Counts = fresh.Counts
	p.Viewer.LikeURI = fresh.Viewer.LikeURI
	p.Viewer.RepostURI = fresh.Viewer.RepostURI
	return p
}

type ReasonKind string

const (
	ReasonNone     ReasonKind = ""
	ReasonPinned   ReasonKind = "pinned"
	ReasonReposted ReasonKind = "reposted"
)

// FeedReason says why a post appears in a feed. By is set for reposts.
type FeedReason struct {
	Kind ReasonKind `json:"kind,omitempty"`
	By   string     `json:"by,omitempty"`
}

// RootPost describes a reply ancestor. Post is set only when the ancestor was
// found, not blocked, and decodable.
type RootPost struct {
	URI     string `json:"uri"`
	Post    *Post  `json:"post,omitempty"`
	Found   bool   `json:"found"`
	Blocked bool   `json:"blocked"`
}

// Same reports whether both ancestors resolve to the same identity and state.
func (r *RootPost) Same(o *RootPost) bool {
	if r == nil || o == nil {
		return r == o
	}
	if r.Found != o.Found || r.Blocked != o.Blocked || r.URI != o.URI {
		return false
	}
	if r.Post == nil || o.Post == nil {
		return r.Post == o.Post
	}
	return r.Post.Identity() == o.Post.Identity()
}

// FeedPost is a post in the context of a feed page.
type FeedPost struct {
	Post
	Reason FeedReason `json:"reason"`
	Parent *RootPost  `json:"parent,omitempty"`
	Root   *RootPost  `json:"root,omitempty"`
}

// IsReply reports whether the post's record is a reply.
func (p Post) IsReply() bool {
	return p.Reply != nil
}

// Quotes reports whether the post embeds another post.
func (p Post) Quotes() bool {
	if p.Embed == nil {
		return false
	}
	_, ok := p.Embed.Record.(*QuotedPost)
	return ok
}

// AllowRule restricts who may reply to a thread.
type AllowRule struct {
	Kind    AllowRuleKind `json:"kind"`
	ListURI string        `json:"listUri,omitempty"`
}

type AllowRuleKind string

const (
	AllowMentioned AllowRuleKind = "mentioned"
	AllowFollowers AllowRuleKind = "followers"
	AllowFollowing AllowRuleKind = "following"
	AllowList      AllowRuleKind = "list"
)

// ThreadGate is the interaction policy of a post. AllowReplies with no
// rules means everyone may reply. ViewerCanReply is nil when unknown.
type ThreadGate struct {
	AllowQuotes    bool        `json:"allowQuotes"`
	AllowReplies   bool        `json:"allowReplies"`
	Rules          []AllowRule `json:"rules,omitempty"`
	ViewerCanReply *bool       `json:"viewerCanReply,omitempty"`
}

// Open reports whether anyone may reply and quote.
func (g ThreadGate) Open() bool {
	return g.AllowQuotes && g.AllowReplies && len(g.Rules) == 0
}
