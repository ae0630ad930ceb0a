package domain

import "time"

// User is a full profile.
type User struct {
	Author
	Followers      int64   `json:"followers"`
	Follows        int64   `json:"follows"`
	Posts          int64   `json:"posts"`
	Bio            string  `json:"bio"`
	BioFacets      []Facet `json:"bioFacets,omitempty"`
	Banner         string  `json:"banner,omitempty"`
	PinnedPost     *Post   `json:"pinnedPost,omitempty"`
	KnownFollowers int64   `json:"knownFollowers"`
}

// Account is a locally saved login.
type Account struct {
	Handle  string    `json:"handle"`
	PDS     string    `json:"pds,omitempty"`
	AddedAt time.Time `json:"addedAt"`
}

// Credentials are the secret half of an account.
type Credentials struct {
	Handle   string
	Password string
}
