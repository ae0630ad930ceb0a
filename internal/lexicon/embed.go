package lexicon

import "encoding/json"

const (
	TypeEmbedImagesView          = "app.bsky.embed.images#view"
	TypeEmbedVideoView           = "app.bsky.embed.video#view"
	TypeEmbedExternalView        = "app.bsky.embed.external#view"
	TypeEmbedRecordView          = "app.bsky.embed.record#view"
	TypeEmbedRecordWithMediaView = "app.bsky.embed.recordWithMedia#view"

	TypeEmbedRecordViewRecord   = "app.bsky.embed.record#viewRecord"
	TypeEmbedRecordViewNotFound = "app.bsky.embed.record#viewNotFound"
	TypeEmbedRecordViewBlocked  = "app.bsky.embed.record#viewBlocked"
	TypeEmbedRecordViewDetached = "app.bsky.embed.record#viewDetached"
	TypeGeneratorView           = "app.bsky.feed.defs#generatorView"
	TypeListView                = "app.bsky.graph.defs#listView"
	TypeStarterPackViewBasic    = "app.bsky.graph.defs#starterPackViewBasic"
)

type AspectRatio struct {
	Width  int64 `json:"width"`
	Height int64 `json:"height"`
}

type EmbedImagesViewImage struct {
	Thumb       string       `json:"thumb"`
	Fullsize    string       `json:"fullsize"`
	Alt         string       `json:"alt"`
	AspectRatio *AspectRatio `json:"aspectRatio,omitempty"`
}

type EmbedImagesView struct {
	Images []EmbedImagesViewImage `json:"images"`
}

type EmbedVideoView struct {
	CID         string       `json:"cid"`
	Playlist    string       `json:"playlist"`
	Thumbnail   *string      `json:"thumbnail,omitempty"`
	Alt         *string      `json:"alt,omitempty"`
	AspectRatio *AspectRatio `json:"aspectRatio,omitempty"`
}

type EmbedExternalViewExternal struct {
	URI         string  `json:"uri"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Thumb       *string `json:"thumb,omitempty"`
}

type EmbedExternalView struct {
	External *EmbedExternalViewExternal `json:"external"`
}

type EmbedRecordView struct {
	Record *EmbedRecordViewRecordUnion `json:"record"`
}

type EmbedRecordWithMediaView struct {
	Record *EmbedRecordView `json:"record"`
	Media  *MediaView       `json:"media"`
}

// PostViewEmbed is the embed union on a hydrated post view.
type PostViewEmbed struct {
	EmbedImagesView          *EmbedImagesView
	EmbedVideoView           *EmbedVideoView
	EmbedExternalView        *EmbedExternalView
	EmbedRecordView          *EmbedRecordView
	EmbedRecordWithMediaView *EmbedRecordWithMediaView
	Unknown                  *Unknown
}

func (t *PostViewEmbed) UnmarshalJSON(b []byte) error {
	typ, err := TypeExtract(b)
	if err != nil {
		return err
	}

	switch typ {
	case TypeEmbedImagesView:
		t.EmbedImagesView, err = decodeVariant[EmbedImagesView](b)
	case TypeEmbedVideoView:
		t.EmbedVideoView, err = decodeVariant[EmbedVideoView](b)
	case TypeEmbedExternalView:
		t.EmbedExternalView, err = decodeVariant[EmbedExternalView](b)
	case TypeEmbedRecordView:
		t.EmbedRecordView, err = decodeVariant[EmbedRecordView](b)
	case TypeEmbedRecordWithMediaView:
		t.EmbedRecordWithMediaView, err = decodeVariant[EmbedRecordWithMediaView](b)
	default:
		t.Unknown = newUnknown(typ, b)
	}
	return err
}

// MediaView is the media half of a record-with-media embed.
type MediaView struct {
	EmbedImagesView   *EmbedImagesView
	EmbedVideoView    *EmbedVideoView
	EmbedExternalView *EmbedExternalView
	Unknown           *Unknown
}

func (t *MediaView) UnmarshalJSON(b []byte) error {
	typ, err := TypeExtract(b)
	if err != nil {
		return err
	}

	switch typ {
	case TypeEmbedImagesView:
		t.EmbedImagesView, err = decodeVariant[EmbedImagesView](b)
	case TypeEmbedVideoView:
		t.EmbedVideoView, err = decodeVariant[EmbedVideoView](b)
	case TypeEmbedExternalView:
		t.EmbedExternalView, err = decodeVariant[EmbedExternalView](b)
	default:
		t.Unknown = newUnknown(typ, b)
	}
	return err
}

type EmbedRecordViewRecord struct {
	URI         string            `json:"uri"`
	CID         string            `json:"cid"`
	Author      *ProfileViewBasic `json:"author"`
	Value       json.RawMessage   `json:"value"`
	Labels      []Label           `json:"labels,omitempty"`
	ReplyCount  *int64            `json:"replyCount,omitempty"`
	RepostCount *int64            `json:"repostCount,omitempty"`
	LikeCount   *int64            `json:"likeCount,omitempty"`
	QuoteCount  *int64            `json:"quoteCount,omitempty"`
	Embeds      []PostViewEmbed   `json:"embeds,omitempty"`
	IndexedAt   string            `json:"indexedAt"`
}

type EmbedRecordViewNotFound struct {
	URI      string `json:"uri"`
	NotFound bool   `json:"notFound"`
}

type BlockedAuthor struct {
	DID    string            `json:"did"`
	Viewer *ActorViewerState `json:"viewer,omitempty"`
}

type EmbedRecordViewBlocked struct {
	URI     string         `json:"uri"`
	Blocked bool           `json:"blocked"`
	Author  *BlockedAuthor `json:"author"`
}

type EmbedRecordViewDetached struct {
	URI      string `json:"uri"`
	Detached bool   `json:"detached"`
}

type GeneratorViewerState struct {
	Like *string `json:"like,omitempty"`
}

type GeneratorView struct {
	URI                 string                `json:"uri"`
	CID                 string                `json:"cid"`
	DID                 string                `json:"did"`
	Creator             *ProfileView          `json:"creator"`
	DisplayName         string                `json:"displayName"`
	Description         *string               `json:"description,omitempty"`
	DescriptionFacets   []Facet               `json:"descriptionFacets,omitempty"`
	Avatar              *string               `json:"avatar,omitempty"`
	LikeCount           *int64                `json:"likeCount,omitempty"`
	AcceptsInteractions *bool                 `json:"acceptsInteractions,omitempty"`
	Labels              []Label               `json:"labels,omitempty"`
	Viewer              *GeneratorViewerState `json:"viewer,omitempty"`
	ContentMode         *string               `json:"contentMode,omitempty"`
	IndexedAt           string                `json:"indexedAt"`
}

type ListViewerState struct {
	Muted   *bool   `json:"muted,omitempty"`
	Blocked *string `json:"blocked,omitempty"`
}

type ListView struct {
	URI               string           `json:"uri"`
	CID               string           `json:"cid"`
	Creator           *ProfileView     `json:"creator"`
	Name              string           `json:"name"`
	Purpose           string           `json:"purpose"`
	Description       *string          `json:"description,omitempty"`
	DescriptionFacets []Facet          `json:"descriptionFacets,omitempty"`
	Avatar            *string          `json:"avatar,omitempty"`
	ListItemCount     *int64           `json:"listItemCount,omitempty"`
	Labels            []Label          `json:"labels,omitempty"`
	Viewer            *ListViewerState `json:"viewer,omitempty"`
	IndexedAt         string           `json:"indexedAt"`
}

type ListViewBasic struct {
	URI           string  `json:"uri"`
	CID           string  `json:"cid"`
	Name          string  `json:"name"`
	Purpose       string  `json:"purpose"`
	Avatar        *string `json:"avatar,omitempty"`
	ListItemCount *int64  `json:"listItemCount,omitempty"`
}

type StarterPackViewBasic struct {
	URI                string            `json:"uri"`
	CID                string            `json:"cid"`
	Record             json.RawMessage   `json:"record"`
	Creator            *ProfileViewBasic `json:"creator"`
	ListItemCount      *int64            `json:"listItemCount,omitempty"`
	JoinedWeekCount    *int64            `json:"joinedWeekCount,omitempty"`
	JoinedAllTimeCount *int64            `json:"joinedAllTimeCount,omitempty"`
	Labels             []Label           `json:"labels,omitempty"`
	IndexedAt          string            `json:"indexedAt"`
}

// StarterPackRecord is the app.bsky.graph.starterpack record body.
type StarterPackRecord struct {
	Name              string  `json:"name"`
	Description       *string `json:"description,omitempty"`
	DescriptionFacets []Facet `json:"descriptionFacets,omitempty"`
	List              string  `json:"list"`
	Feeds             []struct {
		URI string `json:"uri"`
	} `json:"feeds,omitempty"`
	CreatedAt string `json:"createdAt"`
}

// EmbedRecordViewRecordUnion is the record union inside app.bsky.embed.record#view.
type EmbedRecordViewRecordUnion struct {
	ViewRecord           *EmbedRecordViewRecord
	ViewNotFound         *EmbedRecordViewNotFound
	ViewBlocked          *EmbedRecordViewBlocked
	ViewDetached         *EmbedRecordViewDetached
	GeneratorView        *GeneratorView
	ListView             *ListView
	LabelerView          *LabelerView
	StarterPackViewBasic *StarterPackViewBasic
	Unknown              *Unknown
}

func (t *EmbedRecordViewRecordUnion) UnmarshalJSON(b []byte) error {
	typ, err := TypeExtract(b)
	if err != nil {
		return err
	}

	switch typ {
	case TypeEmbedRecordViewRecord:
		t.ViewRecord, err = decodeVariant[EmbedRecordViewRecord](b)
	case TypeEmbedRecordViewNotFound:
		t.ViewNotFound, err = decodeVariant[EmbedRecordViewNotFound](b)
	case TypeEmbedRecordViewBlocked:
		t.ViewBlocked, err = decodeVariant[EmbedRecordViewBlocked](b)
	case TypeEmbedRecordViewDetached:
		t.ViewDetached, err = decodeVariant[EmbedRecordViewDetached](b)
	case TypeGeneratorView:
		t.GeneratorView, err = decodeVariant[GeneratorView](b)
	case TypeListView:
		t.ListView, err = decodeVariant[ListView](b)
	case TypeLabelerView:
		t.LabelerView, err = decodeVariant[LabelerView](b)
	case TypeStarterPackViewBasic:
		t.StarterPackViewBasic, err = decodeVariant[StarterPackViewBasic](b)
	default:
		t.Unknown = newUnknown(typ, b)
	}
	return err
}
