package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

type AspectRatio struct {
	Width  int64 `json:"width"`
	Height int64 `json:"height"`
}

type Image struct {
	Thumb       string       `json:"thumb"`
	Fullsize    string       `json:"fullsize"`
	Alt         string       `json:"alt"`
	AspectRatio *AspectRatio `json:"aspectRatio,omitempty"`
}

type Video struct {
	Playlist    string       `json:"playlist"`
	Thumbnail   string       `json:"thumbnail,omitempty"`
	Alt         string       `json:"alt,omitempty"`
	AspectRatio *AspectRatio `json:"aspectRatio,omitempty"`
}

type External struct {
	URI         string `json:"uri"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Thumb       string `json:"thumb,omitempty"`
}

// Embed is everything attached to a post. Images and Video never both occur
// on the same post.
type Embed struct {
	Images   []Image        `json:"images,omitempty"`
	Video    *Video         `json:"video,omitempty"`
	External *External      `json:"external,omitempty"`
	Record   EmbeddedRecord `json:"-"`
}

// ReducedEmbed is the embed of a quoted post. It never holds a record, which
// bounds quote nesting to one level.
type ReducedEmbed struct {
	Images   []Image   `json:"images,omitempty"`
	Video    *Video    `json:"video,omitempty"`
	External *External `json:"external,omitempty"`
}

type RecordKind string

const (
	RecordQuotedPost  RecordKind = "post"
	RecordNotFound    RecordKind = "notFound"
	RecordBlocked     RecordKind = "blocked"
	RecordDetached    RecordKind = "detached"
	RecordGenerator   RecordKind = "generator"
	RecordList        RecordKind = "list"
	RecordLabeler     RecordKind = "labeler"
	RecordStarterPack RecordKind = "starterPack"
	RecordUnknown     RecordKind = "unknown"
)

// EmbeddedRecord is the closed set of records a post can embed. Only types in
// this package implement it.
type EmbeddedRecord interface {
	Kind() RecordKind
	embeddedRecord()
}

// QuotedPost is a post embedded in another post.
type QuotedPost struct {
	URI       string        `json:"uri"`
	CID       string        `json:"cid"`
	Author    Author        `json:"author"`
	Text      string        `json:"text"`
	Facets    []Facet       `json:"facets,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
	Langs     []string      `json:"langs,omitempty"`
	Tags      []string      `json:"tags,omitempty"`
	Labels    PostLabels    `json:"labels"`
	Counts    Counts        `json:"counts"`
	Embed     *ReducedEmbed `json:"embed,omitempty"`
}

type NotFoundRecord struct {
	URI string `json:"uri"`
}

type BlockedRecord struct {
	URI string `json:"uri"`
}

// DetachedRecord is a quote the quoted author removed.
type DetachedRecord struct {
	URI string `json:"uri"`
}

type FeedGenerator struct {
	URI                 string     `json:"uri"`
	CID                 string     `json:"cid"`
	DID                 string     `json:"did"`
	DisplayName         string     `json:"displayName"`
	Description         string     `json:"description,omitempty"`
	Avatar              string     `json:"avatar,omitempty"`
	Creator             *Author    `json:"creator,omitempty"`
	AcceptsInteractions bool       `json:"acceptsInteractions"`
	Labels              []ModLabel `json:"labels,omitempty"`
	Likes               int64      `json:"likes"`
	LikeURI             string     `json:"likeUri,omitempty"`
	VideoOnly           bool       `json:"videoOnly"`
}

type ListRecord struct {
	URI         string  `json:"uri"`
	CID         string  `json:"cid"`
	Name        string  `json:"name"`
	Purpose     string  `json:"purpose"`
	Description string  `json:"description,omitempty"`
	Avatar      string  `json:"avatar,omitempty"`
	Creator     *Author `json:"creator,omitempty"`
	Items       int64   `json:"items"`
	BlockURI    string  `json:"blockUri,omitempty"`
}

type LabelerRecord struct {
	URI     string     `json:"uri"`
	CID     string     `json:"cid"`
	Creator *Author    `json:"creator,omitempty"`
	Labels  []ModLabel `json:"labels,omitempty"`
	Likes   int64      `json:"likes"`
	LikeURI string     `json:"likeUri,omitempty"`
}

// StarterPack is set from the pack view; Name, Description, ListURI and
// FeedURIs are empty when the pack record could not be decoded.
type StarterPack struct {
	URI           string   `json:"uri"`
	CID           string   `json:"cid"`
	Name          string   `json:"name"`
	Description   string   `json:"description,omitempty"`
	Creator       *Author  `json:"creator,omitempty"`
	ListURI       string   `json:"listUri,omitempty"`
	FeedURIs      []string `json:"feedUris,omitempty"`
	Items         int64    `json:"items"`
	JoinedWeek    int64    `json:"joinedWeek"`
	JoinedAllTime int64    `json:"joinedAllTime"`
}

// UnknownRecord absorbs record types added to the protocol after this client.
type UnknownRecord struct {
	Type string `json:"type"`
}

func (*QuotedPost) Kind() RecordKind     { return RecordQuotedPost }
func (*NotFoundRecord) Kind() RecordKind { return RecordNotFound }
func (*BlockedRecord) Kind() RecordKind  { return RecordBlocked }
func (*DetachedRecord) Kind() RecordKind { return RecordDetached }
func (*FeedGenerator) Kind() RecordKind  { return RecordGenerator }
func (*ListRecord) Kind() RecordKind     { return RecordList }
func (*LabelerRecord) Kind() RecordKind  { return RecordLabeler }
func (*StarterPack) Kind() RecordKind    { return RecordStarterPack }
func (*UnknownRecord) Kind() RecordKind  { return RecordUnknown }

func (*QuotedPost) embeddedRecord()     {}
func (*NotFoundRecord) embeddedRecord() {}
func (*BlockedRecord) embeddedRecord()  {}
func (*DetachedRecord) embeddedRecord() {}
func (*FeedGenerator) embeddedRecord()  {}
func (*ListRecord) embeddedRecord()     {}
func (*LabelerRecord) embeddedRecord()  {}
func (*StarterPack) embeddedRecord()    {}
func (*UnknownRecord) embeddedRecord()  {}

type embedJSON struct {
	Images   []Image       `json:"images,omitempty"`
	Video    *Video        `json:"video,omitempty"`
	External *External     `json:"external,omitempty"`
	Record   *taggedRecord `json:"record,omitempty"`
}

type taggedRecord struct {
	Kind  RecordKind      `json:"kind"`
	Value json.RawMessage `json:"value"`
}

func (e Embed) MarshalJSON() ([]byte, error) {
	out := embedJSON{Images: e.Images, Video: e.Video, External: e.External}
	if e.Record != nil {
		value, err := json.Marshal(e.Record)
		if err != nil {
			return nil, fmt.Errorf("marshal %s record: %w", e.Record.Kind(), err)
		}
		out.Record = &taggedRecord{Kind: e.Record.Kind(), Value: value}
	}
	return json.Marshal(out)
}

func (e *Embed) UnmarshalJSON(b []byte) error {
	var in embedJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	e.Images, e.Video, e.External, e.Record = in.Images, in.Video, in.External, nil
	if in.Record == nil {
		return nil
	}

	var rec EmbeddedRecord
	switch in.Record.Kind {
	case RecordQuotedPost:
		rec = new(QuotedPost)
	case RecordNotFound:
		rec = new(NotFoundRecord)
	case RecordBlocked:
		rec = new(BlockedRecord)
	case RecordDetached:
		rec = new(DetachedRecord)
	case RecordGenerator:
		rec = new(FeedGenerator)
	case RecordList:
		rec = new(ListRecord)
	case RecordLabeler:
		rec = new(LabelerRecord)
	case RecordStarterPack:
		rec = new(StarterPack)
	default:
		rec = new(UnknownRecord)
	}
	if err := json.Unmarshal(in.Record.Value, rec); err != nil {
		return fmt.Errorf("unmarshal %s record: %w", in.Record.Kind, err)
	}
	e.Record = rec
	return nil
}
