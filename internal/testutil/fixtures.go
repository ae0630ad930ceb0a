package testutil

import (
	"encoding/json"
	"fmt"

	"github.com/blackmichael/skygazer/internal/lexicon"
)

const CreatedAt = "2025-01-02T03:04:05.000Z"

func Ptr[T any](v T) *T { return &v }

func Profile(did, handle string) *lexicon.ProfileViewBasic {
	return &lexicon.ProfileViewBasic{DID: did, Handle: handle}
}

// PostURI builds a post AT-URI for did with record key rkey.
func PostURI(did, rkey string) string {
	return fmt.Sprintf("at://%s/app.bsky.feed.post/%s", did, rkey)
}

// PostRecord encodes a post record body.
func PostRecord(rec lexicon.PostRecord) json.RawMessage {
	if rec.LexiconTypeID == "" {
		rec.LexiconTypeID = lexicon.TypeFeedPost
	}
	if rec.CreatedAt == "" {
		rec.CreatedAt = CreatedAt
	}
	b, err := json.Marshal(rec)
	if err != nil {
		panic(err)
	}
	return b
}

// PostView builds a hydrated post by author with the given text.
func PostView(uri, cid string, author *lexicon.ProfileViewBasic, text string) *lexicon.PostView {
	return &lexicon.PostView{
		URI:       uri,
		CID:       cid,
		Author:    author,
		Record:    PostRecord(lexicon.PostRecord{Text: text}),
		IndexedAt: CreatedAt,
	}
}

// ReplyView builds a reply whose record references parent and root.
func ReplyView(uri, cid string, author *lexicon.ProfileViewBasic, text string, parent, root *lexicon.PostView) *lexicon.PostView {
	v := PostView(uri, cid, author, text)
	v.Record = PostRecord(lexicon.PostRecord{
		Text: text,
		Reply: &lexicon.PostReplyRef{
			Root:   lexicon.StrongRef{URI: root.URI, CID: root.CID},
			Parent: lexicon.StrongRef{URI: parent.URI, CID: parent.CID},
		},
	})
	return v
}

func FoundRef(v *lexicon.PostView) *lexicon.ReplyRefPost {
	return &lexicon.ReplyRefPost{PostView: v}
}

func Label(src, uri, val string) lexicon.Label {
	return lexicon.Label{Src: src, URI: uri, Val: val, Cts: CreatedAt}
}

// Labeler builds a detailed labeler service view declaring defs.
func Labeler(did, handle string, defs ...lexicon.LabelValueDefinition) lexicon.LabelerServiceView {
	creator := &lexicon.ProfileView{ProfileViewBasic: lexicon.ProfileViewBasic{DID: did, Handle: handle}}
	values := make([]string, len(defs))
	for i, d := range defs {
		values[i] = d.Identifier
	}
	return lexicon.LabelerServiceView{LabelerViewDetailed: &lexicon.LabelerViewDetailed{
		URI:     fmt.Sprintf("at://%s/app.bsky.labeler.service/self", did),
		Creator: creator,
		Policies: &lexicon.LabelerPolicies{
			LabelValues:           values,
			LabelValueDefinitions: defs,
		},
	}}
}

// Definition builds a label value definition with one English locale.
func Definition(id, name, desc string) lexicon.LabelValueDefinition {
	return lexicon.LabelValueDefinition{
		Identifier: id,
		Severity:   "inform",
		Blurs:      "none",
		Locales:    []lexicon.LabelValueDefinitionStrings{{Lang: "en", Name: name, Description: desc}},
	}
}
