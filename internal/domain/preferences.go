package domain

import "time"

// LabelPreference is the configured visibility of one label value. Labeler
// is empty for global preferences on built-in labels.
type LabelPreference struct {
	Labeler    string     `json:"labeler,omitempty"`
	Label      string     `json:"label"`
	Visibility Visibility `json:"visibility"`
}

type ContentPreferences struct {
	AdultContent bool              `json:"adultContent"`
	Labels       []LabelPreference `json:"labels,omitempty"`
}

// VisibilityFor returns the configured visibility for a label issued by
// labeler, or VisibilityShow when none is configured for that exact pair.
func (c ContentPreferences) VisibilityFor(labeler, label string) Visibility {
	for _, p := range c.Labels {
		if p.Labeler == labeler && p.Label == label {
			return p.Visibility
		}
	}
	return VisibilityShow
}

type MutedWord struct {
	Value     string     `json:"value"`
	Targets   []string   `json:"targets"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// Preferences are the account preferences the pipeline acts on.
type Preferences struct {
	Content ContentPreferences `json:"content"`
	Feeds   []SavedFeed        `json:"feeds"`

	// Labelers are the DIDs of the labeling services the user subscribed to.
	Labelers []string `json:"labelers"`

	BirthDate              *time.Time  `json:"birthDate,omitempty"`
	PrioritizeFollowed     bool        `json:"prioritizeFollowed"`
	ReplySort              string      `json:"replySort,omitempty"`
	InterestTags           []string    `json:"interestTags,omitempty"`
	MutedWords             []MutedWord `json:"mutedWords,omitempty"`
	HiddenPosts            []string    `json:"hiddenPosts,omitempty"`
	HideVerificationBadges bool        `json:"hideVerificationBadges"`
}

// SavedFeed returns the saved feed with the given URI.
func (p *Preferences) SavedFeed(uri string) (SavedFeed, bool) {
	for _, f := range p.Feeds {
		if f.URI == uri {
			return f, true
		}
	}
	return SavedFeed{}, false
}
