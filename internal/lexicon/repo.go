package lexicon

// Record bodies written by the client. Each carries its $type so the PDS
// can validate it against the collection.

type LikeRecord struct {
	LexiconTypeID string    `json:"$type"`
	Subject       StrongRef `json:"subject"`
	CreatedAt     string    `json:"createdAt"`
}

type RepostRecord struct {
	LexiconTypeID string    `json:"$type"`
	Subject       StrongRef `json:"subject"`
	CreatedAt     string    `json:"createdAt"`
}

type FollowRecord struct {
	LexiconTypeID string `json:"$type"`
	Subject       string `json:"subject"`
	CreatedAt     string `json:"createdAt"`
}

type BlockRecord struct {
	LexiconTypeID string `json:"$type"`
	Subject       string `json:"subject"`
	CreatedAt     string `json:"createdAt"`
}

type CreateRecordInput struct {
	Repo       string  `json:"repo"`
	Collection string  `json:"collection"`
	RKey       *string `json:"rkey,omitempty"`
	Record     any     `json:"record"`
}

type CreateRecordOutput struct {
	URI string `json:"uri"`
	CID string `json:"cid"`
}

type DeleteRecordInput struct {
	Repo       string `json:"repo"`
	Collection string `json:"collection"`
	RKey       string `json:"rkey"`
}

type CreateBookmarkInput struct {
	URI string `json:"uri"`
	CID string `json:"cid"`
}

type DeleteBookmarkInput struct {
	URI string `json:"uri"`
}

type ActorInput struct {
	Actor string `json:"actor"`
}

type CreateSessionInput struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// SessionOutput is shared by createSession and refreshSession.
type SessionOutput struct {
	AccessJwt  string `json:"accessJwt"`
	RefreshJwt string `json:"refreshJwt"`
	Handle     string `json:"handle"`
	DID        string `json:"did"`
	Active     *bool  `json:"active,omitempty"`
}
