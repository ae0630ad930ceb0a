package lexicon

import (
	"encoding/json"
	"fmt"
)

const (
	TypeAdultContentPref            = "app.bsky.actor.defs#adultContentPref"
	TypeContentLabelPref            = "app.bsky.actor.defs#contentLabelPref"
	TypeSavedFeedsPrefV2            = "app.bsky.actor.defs#savedFeedsPrefV2"
	TypePersonalDetailsPref         = "app.bsky.actor.defs#personalDetailsPref"
	TypeFeedViewPref                = "app.bsky.actor.defs#feedViewPref"
	TypeThreadViewPref              = "app.bsky.actor.defs#threadViewPref"
	TypeInterestsPref               = "app.bsky.actor.defs#interestsPref"
	TypeMutedWordsPref              = "app.bsky.actor.defs#mutedWordsPref"
	TypeHiddenPostsPref             = "app.bsky.actor.defs#hiddenPostsPref"
	TypeLabelersPref                = "app.bsky.actor.defs#labelersPref"
	TypePostInteractionSettingsPref = "app.bsky.actor.defs#postInteractionSettingsPref"
	TypeVerificationPrefs           = "app.bsky.actor.defs#verificationPrefs"
)

type AdultContentPref struct {
	Enabled bool `json:"enabled"`
}

// ContentLabelPref sets the visibility of one label value. Labeler is nil for
// the global preference of a built-in label.
type ContentLabelPref struct {
	Labeler    *string `json:"labelerDid,omitempty"`
	Label      string  `json:"label"`
	Visibility string  `json:"visibility"`
}

type SavedFeed struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	Value  string `json:"value"`
	Pinned bool   `json:"pinned"`
}

type SavedFeedsPrefV2 struct {
	Items []SavedFeed `json:"items"`
}

type PersonalDetailsPref struct {
	BirthDate *string `json:"birthDate,omitempty"`
}

type FeedViewPref struct {
	Feed                    string `json:"feed"`
	HideReplies             *bool  `json:"hideReplies,omitempty"`
	HideRepliesByUnfollowed *bool  `json:"hideRepliesByUnfollowed,omitempty"`
	HideRepliesByLikeCount  *int64 `json:"hideRepliesByLikeCount,omitempty"`
	HideReposts             *bool  `json:"hideReposts,omitempty"`
	HideQuotePosts          *bool  `json:"hideQuotePosts,omitempty"`
}

type ThreadViewPref struct {
	Sort                    *string `json:"sort,omitempty"`
	PrioritizeFollowedUsers *bool   `json:"prioritizeFollowedUsers,omitempty"`
}

type InterestsPref struct {
	Tags []string `json:"tags"`
}

type MutedWord struct {
	ID          *string  `json:"id,omitempty"`
	Value       string   `json:"value"`
	Targets     []string `json:"targets"`
	ActorTarget *string  `json:"actorTarget,omitempty"`
	ExpiresAt   *string  `json:"expiresAt,omitempty"`
}

type MutedWordsPref struct {
	Items []MutedWord `json:"items"`
}

type HiddenPostsPref struct {
	Items []string `json:"items"`
}

type LabelerPrefItem struct {
	DID string `json:"did"`
}

type LabelersPref struct {
	Labelers []LabelerPrefItem `json:"labelers"`
}

// PostInteractionSettingsPref keeps the rule unions raw; they are only
// written back, never interpreted.
type PostInteractionSettingsPref struct {
	ThreadgateAllowRules   []json.RawMessage `json:"threadgateAllowRules,omitempty"`
	PostgateEmbeddingRules []json.RawMessage `json:"postgateEmbeddingRules,omitempty"`
}

type VerificationPrefs struct {
	HideBadges bool `json:"hideBadges"`
}

// PreferenceItem is one member of the app.bsky.actor.defs#preferences union.
type PreferenceItem struct {
	AdultContent            *AdultContentPref
	ContentLabel            *ContentLabelPref
	SavedFeedsV2            *SavedFeedsPrefV2
	PersonalDetails         *PersonalDetailsPref
	FeedView                *FeedViewPref
	ThreadView              *ThreadViewPref
	Interests               *InterestsPref
	MutedWords              *MutedWordsPref
	HiddenPosts             *HiddenPostsPref
	Labelers                *LabelersPref
	PostInteractionSettings *PostInteractionSettingsPref
	Verification            *VerificationPrefs
	Unknown                 *Unknown
}

func (t *PreferenceItem) UnmarshalJSON(b []byte) error {
	typ, err := TypeExtract(b)
	if err != nil {
		return err
	}

	switch typ {
	case TypeAdultContentPref:
		t.AdultContent, err = decodeVariant[AdultContentPref](b)
	case TypeContentLabelPref:
		t.ContentLabel, err = decodeVariant[ContentLabelPref](b)
	case TypeSavedFeedsPrefV2:
		t.SavedFeedsV2, err = decodeVariant[SavedFeedsPrefV2](b)
	case TypePersonalDetailsPref:
		t.PersonalDetails, err = decodeVariant[PersonalDetailsPref](b)
	case TypeFeedViewPref:
		t.FeedView, err = decodeVariant[FeedViewPref](b)
	case TypeThreadViewPref:
		t.ThreadView, err = decodeVariant[ThreadViewPref](b)
	case TypeInterestsPref:
		t.Interests, err = decodeVariant[InterestsPref](b)
	case TypeMutedWordsPref:
		t.MutedWords, err = decodeVariant[MutedWordsPref](b)
	case TypeHiddenPostsPref:
		t.HiddenPosts, err = decodeVariant[HiddenPostsPref](b)
	case TypeLabelersPref:
		t.Labelers, err = decodeVariant[LabelersPref](b)
	case TypePostInteractionSettingsPref:
		t.PostInteractionSettings, err = decodeVariant[PostInteractionSettingsPref](b)
	case TypeVerificationPrefs:
		t.Verification, err = decodeVariant[VerificationPrefs](b)
	default:
		t.Unknown = newUnknown(typ, b)
	}
	return err
}

func (t PreferenceItem) MarshalJSON() ([]byte, error) {
	switch {
	case t.AdultContent != nil:
		return marshalVariant(TypeAdultContentPref, t.AdultContent)
	case t.ContentLabel != nil:
		return marshalVariant(TypeContentLabelPref, t.ContentLabel)
	case t.SavedFeedsV2 != nil:
		return marshalVariant(TypeSavedFeedsPrefV2, t.SavedFeedsV2)
	case t.PersonalDetails != nil:
		return marshalVariant(TypePersonalDetailsPref, t.PersonalDetails)
	case t.FeedView != nil:
		return marshalVariant(TypeFeedViewPref, t.FeedView)
	case t.ThreadView != nil:
		return marshalVariant(TypeThreadViewPref, t.ThreadView)
	case t.Interests != nil:
		return marshalVariant(TypeInterestsPref, t.Interests)
	case t.MutedWords != nil:
		return marshalVariant(TypeMutedWordsPref, t.MutedWords)
	case t.HiddenPosts != nil:
		return marshalVariant(TypeHiddenPostsPref, t.HiddenPosts)
	case t.Labelers != nil:
		return marshalVariant(TypeLabelersPref, t.Labelers)
	case t.PostInteractionSettings != nil:
		return marshalVariant(TypePostInteractionSettingsPref, t.PostInteractionSettings)
	case t.Verification != nil:
		return marshalVariant(TypeVerificationPrefs, t.Verification)
	case t.Unknown != nil:
		return t.Unknown.Raw, nil
	}
	return nil, fmt.Errorf("cannot marshal empty enum")
}

type GetPreferencesOutput struct {
	Preferences []PreferenceItem `json:"preferences"`
}

type PutPreferencesInput struct {
	Preferences []PreferenceItem `json:"preferences"`
}
