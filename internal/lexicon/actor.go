package lexicon

type ActorViewerState struct {
	Muted          *bool           `json:"muted,omitempty"`
	BlockedBy      *bool           `json:"blockedBy,omitempty"`
	Blocking       *string         `json:"blocking,omitempty"`
	Following      *string         `json:"following,omitempty"`
	FollowedBy     *string         `json:"followedBy,omitempty"`
	KnownFollowers *KnownFollowers `json:"knownFollowers,omitempty"`
}

type KnownFollowers struct {
	Count     int64              `json:"count"`
	Followers []ProfileViewBasic `json:"followers"`
}

type VerificationState struct {
	VerifiedStatus        string `json:"verifiedStatus"`
	TrustedVerifierStatus string `json:"trustedVerifierStatus"`
}

// ProfileViewBasic is app.bsky.actor.defs#profileViewBasic.
type ProfileViewBasic struct {
	DID          string             `json:"did"`
	Handle       string             `json:"handle"`
	DisplayName  *string            `json:"displayName,omitempty"`
	Avatar       *string            `json:"avatar,omitempty"`
	Labels       []Label            `json:"labels,omitempty"`
	Viewer       *ActorViewerState  `json:"viewer,omitempty"`
	Verification *VerificationState `json:"verification,omitempty"`
	CreatedAt    *string            `json:"createdAt,omitempty"`
}

// ProfileView adds the profile description to the basic view.
type ProfileView struct {
	ProfileViewBasic
	Description *string `json:"description,omitempty"`
	IndexedAt   *string `json:"indexedAt,omitempty"`
}

type ProfileViewDetailed struct {
	ProfileView
	Banner         *string    `json:"banner,omitempty"`
	FollowersCount *int64     `json:"followersCount,omitempty"`
	FollowsCount   *int64     `json:"followsCount,omitempty"`
	PostsCount     *int64     `json:"postsCount,omitempty"`
	PinnedPost     *StrongRef `json:"pinnedPost,omitempty"`
}

type ResolveHandleOutput struct {
	DID string `json:"did"`
}
