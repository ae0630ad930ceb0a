package domain

import "time"

// TimelineFeedURI identifies the home timeline among saved feeds.
const TimelineFeedURI = "following"

// SavedFeed is a feed the user saved, with its display preferences.
type SavedFeed struct {
	URI    string `json:"uri"`
	Pinned bool   `json:"pinned"`
	Name   string `json:"name"`

	HideReplies            bool  `json:"hideReplies"`
	HideReposts            bool  `json:"hideReposts"`
	HideQuotes             bool  `json:"hideQuotes"`
	HideRepliesByLikeCount int64 `json:"hideRepliesByLikeCount"`
	FollowedOnlyReplies    bool  `json:"followedOnlyReplies"`
}

// Merge takes identity fields from f and display preferences from pref.
func (f SavedFeed) Merge(pref SavedFeed) SavedFeed {
	return SavedFeed{
		URI:                    f.URI,
		Pinned:                 f.Pinned,
		Name:                   f.Name,
		HideReplies:            pref.HideReplies,
		HideReposts:            pref.HideReposts,
		HideQuotes:             pref.HideQuotes,
		HideRepliesByLikeCount: pref.HideRepliesByLikeCount,
		FollowedOnlyReplies:    pref.FollowedOnlyReplies,
	}
}

// MergeSavedFeeds merges the saved-feed list with feed view preferences by
// URI. The result follows the order of feeds; preferences for feeds that are
// not saved are dropped.
func MergeSavedFeeds(feeds, prefs []SavedFeed) []SavedFeed {
	byURI := make(map[string]SavedFeed, len(prefs))
	for _, p := range prefs {
		byURI[p.URI] = p
	}

	merged := make([]SavedFeed, len(feeds))
	for i, f := range feeds {
		if p, ok := byURI[f.URI]; ok {
			merged[i] = f.Merge(p)
		} else {
			merged[i] = f
		}
	}
	return merged
}

// FeedSnapshot is the pager state of one feed kept while another feed is
// active.
type FeedSnapshot struct {
	FeedURI   string     `json:"feedUri"`
	Cursor    string     `json:"cursor"`
	Anchor    string     `json:"anchor"`
	EndOfFeed bool       `json:"endOfFeed"`
	Posts     []FeedPost `json:"posts"`
	SavedAt   time.Time  `json:"savedAt"`
}
