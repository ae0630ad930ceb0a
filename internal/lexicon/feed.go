package lexicon

import (
	"encoding/json"
	"fmt"
)

const (
	TypeFeedPost        = "app.bsky.feed.post"
	TypeFeedLike        = "app.bsky.feed.like"
	TypeFeedRepost      = "app.bsky.feed.repost"
	TypeFeedThreadgate  = "app.bsky.feed.threadgate"
	TypeGraphFollow     = "app.bsky.graph.follow"
	TypeGraphBlock      = "app.bsky.graph.block"
	TypeFeedPostView    = "app.bsky.feed.defs#postView"
	TypeFeedNotFound    = "app.bsky.feed.defs#notFoundPost"
	TypeFeedBlocked     = "app.bsky.feed.defs#blockedPost"
	TypeReasonRepost    = "app.bsky.feed.defs#reasonRepost"
	TypeReasonPin       = "app.bsky.feed.defs#reasonPin"
	TypeFacetMention    = "app.bsky.richtext.facet#mention"
	TypeFacetLink       = "app.bsky.richtext.facet#link"
	TypeFacetTag        = "app.bsky.richtext.facet#tag"
	TypeMentionRule     = "app.bsky.feed.threadgate#mentionRule"
	TypeFollowerRule    = "app.bsky.feed.threadgate#followerRule"
	TypeFollowingRule   = "app.bsky.feed.threadgate#followingRule"
	TypeListRule        = "app.bsky.feed.threadgate#listRule"
	TypeGeneratorRecord = "app.bsky.feed.generator"
)

// FacetByteSlice addresses a facet by UTF-8 byte offsets, end exclusive.
type FacetByteSlice struct {
	ByteStart int64 `json:"byteStart"`
	ByteEnd   int64 `json:"byteEnd"`
}

type FacetMention struct {
	DID string `json:"did"`
}

type FacetLink struct {
	URI string `json:"uri"`
}

type FacetTag struct {
	Tag string `json:"tag"`
}

type FacetFeature struct {
	Mention *FacetMention
	Link    *FacetLink
	Tag     *FacetTag
	Unknown *Unknown
}

func (t *FacetFeature) UnmarshalJSON(b []byte) error {
	typ, err := TypeExtract(b)
	if err != nil {
		return err
	}

	switch typ {
	case TypeFacetMention:
		t.Mention, err = decodeVariant[FacetMention](b)
	case TypeFacetLink:
		t.Link, err = decodeVariant[FacetLink](b)
	case TypeFacetTag:
		t.Tag, err = decodeVariant[FacetTag](b)
	default:
		t.Unknown = newUnknown(typ, b)
	}
	return err
}

func (t FacetFeature) MarshalJSON() ([]byte, error) {
	switch {
	case t.Mention != nil:
		return marshalVariant(TypeFacetMention, t.Mention)
	case t.Link != nil:
		return marshalVariant(TypeFacetLink, t.Link)
	case t.Tag != nil:
		return marshalVariant(TypeFacetTag, t.Tag)
	case t.Unknown != nil:
		return t.Unknown.Raw, nil
	}
	return nil, fmt.Errorf("cannot marshal empty enum")
}

type Facet struct {
	Index    FacetByteSlice `json:"index"`
	Features []FacetFeature `json:"features"`
}

type PostReplyRef struct {
	Root   StrongRef `json:"root"`
	Parent StrongRef `json:"parent"`
}

// PostRecord is the app.bsky.feed.post record body.
type PostRecord struct {
	LexiconTypeID string          `json:"$type,omitempty"`
	Text          string          `json:"text"`
	Facets        []Facet         `json:"facets,omitempty"`
	Reply         *PostReplyRef   `json:"reply,omitempty"`
	Embed         json.RawMessage `json:"embed,omitempty"`
	Langs         []string        `json:"langs,omitempty"`
	Labels        *RecordLabels   `json:"labels,omitempty"`
	Tags          []string        `json:"tags,omitempty"`
	CreatedAt     string          `json:"createdAt"`
}

type PostViewerState struct {
	Repost            *string `json:"repost,omitempty"`
	Like              *string `json:"like,omitempty"`
	Bookmarked        *bool   `json:"bookmarked,omitempty"`
	ThreadMuted       *bool   `json:"threadMuted,omitempty"`
	ReplyDisabled     *bool   `json:"replyDisabled,omitempty"`
	EmbeddingDisabled *bool   `json:"embeddingDisabled,omitempty"`
	Pinned            *bool   `json:"pinned,omitempty"`
}

// PostView is app.bsky.feed.defs#postView. Record is left undecoded; the
// normalizer decides whether it is usable.
type PostView struct {
	URI         string            `json:"uri"`
	CID         string            `json:"cid"`
	Author      *ProfileViewBasic `json:"author"`
	Record      json.RawMessage   `json:"record"`
	Embed       *PostViewEmbed    `json:"embed,omitempty"`
	ReplyCount  *int64            `json:"replyCount,omitempty"`
	RepostCount *int64            `json:"repostCount,omitempty"`
	LikeCount   *int64            `json:"likeCount,omitempty"`
	QuoteCount  *int64            `json:"quoteCount,omitempty"`
	IndexedAt   string            `json:"indexedAt"`
	Viewer      *PostViewerState  `json:"viewer,omitempty"`
	Labels      []Label           `json:"labels,omitempty"`
	Threadgate  *ThreadgateView   `json:"threadgate,omitempty"`
}

type NotFoundPost struct {
	URI      string `json:"uri"`
	NotFound bool   `json:"notFound"`
}

type BlockedPost struct {
	URI     string         `json:"uri"`
	Blocked bool           `json:"blocked"`
	Author  *BlockedAuthor `json:"author"`
}

// ReplyRefPost is the parent/root union of a feed item's reply context.
type ReplyRefPost struct {
	PostView     *PostView
	NotFoundPost *NotFoundPost
	BlockedPost  *BlockedPost
	Unknown      *Unknown
}

func (t *ReplyRefPost) UnmarshalJSON(b []byte) error {
	typ, err := TypeExtract(b)
	if err != nil {
		return err
	}

	switch typ {
	case TypeFeedPostView:
		t.PostView, err = decodeVariant[PostView](b)
	case TypeFeedNotFound:
		t.NotFoundPost, err = decodeVariant[NotFoundPost](b)
	case TypeFeedBlocked:
		t.BlockedPost, err = decodeVariant[BlockedPost](b)
	default:
		t.Unknown = newUnknown(typ, b)
	}
	return err
}

type ReplyRef struct {
	Root              *ReplyRefPost     `json:"root"`
	Parent            *ReplyRefPost     `json:"parent"`
	GrandparentAuthor *ProfileViewBasic `json:"grandparentAuthor,omitempty"`
}

type ReasonRepost struct {
	By        *ProfileViewBasic `json:"by"`
	URI       *string           `json:"uri,omitempty"`
	CID       *string           `json:"cid,omitempty"`
	IndexedAt string            `json:"indexedAt"`
}

type ReasonPin struct{}

type FeedViewPostReason struct {
	ReasonRepost *ReasonRepost
	ReasonPin    *ReasonPin
	Unknown      *Unknown
}

func (t *FeedViewPostReason) UnmarshalJSON(b []byte) error {
	typ, err := TypeExtract(b)
	if err != nil {
		return err
	}

	switch typ {
	case TypeReasonRepost:
		t.ReasonRepost, err = decodeVariant[ReasonRepost](b)
	case TypeReasonPin:
		t.ReasonPin = &ReasonPin{}
	default:
		t.Unknown = newUnknown(typ, b)
	}
	return err
}

// FeedViewPost is one item of a timeline or custom feed page.
type FeedViewPost struct {
	Post        *PostView           `json:"post"`
	Reply       *ReplyRef           `json:"reply,omitempty"`
	Reason      *FeedViewPostReason `json:"reason,omitempty"`
	FeedContext *string             `json:"feedContext,omitempty"`
}

type ThreadgateView struct {
	URI    *string         `json:"uri,omitempty"`
	CID    *string         `json:"cid,omitempty"`
	Record json.RawMessage `json:"record,omitempty"`
	Lists  []ListViewBasic `json:"lists,omitempty"`
}

type ThreadgateListRule struct {
	List string `json:"list"`
}

// ThreadgateRule is one allow rule of a threadgate record.
type ThreadgateRule struct {
	MentionRule   *struct{}
	FollowerRule  *struct{}
	FollowingRule *struct{}
	ListRule      *ThreadgateListRule
	Unknown       *Unknown
}

func (t *ThreadgateRule) UnmarshalJSON(b []byte) error {
	typ, err := TypeExtract(b)
	if err != nil {
		return err
	}

	switch typ {
	case TypeMentionRule:
		t.MentionRule = &struct{}{}
	case TypeFollowerRule:
		t.FollowerRule = &struct{}{}
	case TypeFollowingRule:
		t.FollowingRule = &struct{}{}
	case TypeListRule:
		t.ListRule, err = decodeVariant[ThreadgateListRule](b)
	default:
		t.Unknown = newUnknown(typ, b)
	}
	return err
}

// ThreadgateRecord is the app.bsky.feed.threadgate record body. A nil Allow
// means anyone may reply; an empty Allow means nobody may.
type ThreadgateRecord struct {
	Post          string           `json:"post"`
	Allow         []ThreadgateRule `json:"allow,omitempty"`
	HiddenReplies []string         `json:"hiddenReplies,omitempty"`
	CreatedAt     string           `json:"createdAt"`
}

// FeedPage is the shared output of getTimeline and getFeed.
type FeedPage struct {
	Cursor *string        `json:"cursor,omitempty"`
	Feed   []FeedViewPost `json:"feed"`
}

type GetPostsOutput struct {
	Posts []PostView `json:"posts"`
}

type GetFeedGeneratorOutput struct {
	View     *GeneratorView `json:"view"`
	IsOnline bool           `json:"isOnline"`
	IsValid  bool           `json:"isValid"`
}
