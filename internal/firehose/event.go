package firehose

import (
	"encoding/json"
	"fmt"

	"github.com/blackmichael/skygazer/internal/lexicon"
)

const (
	kindCommit = "commit"

	opCreate = "create"
	opDelete = "delete"
)

// jetstreamEvent is the raw JSON structure from Jetstream.
type jetstreamEvent struct {
	DID    string           `json:"did"`
	TimeUS int64            `json:"time_us"`
	Kind   string           `json:"kind"`
	Commit *jetstreamCommit `json:"commit,omitempty"`
}

// jetstreamCommit is the raw commit data from Jetstream. Record is only
// decoded for posts.
type jetstreamCommit struct {
	Rev        string              `json:"rev"`
	Operation  string              `json:"operation"`
	Collection string              `json:"collection"`
	RKey       string              `json:"rkey"`
	Record     *lexicon.PostRecord `json:"record,omitempty"`
	CID        string              `json:"cid"`
}

// URI returns the AT-URI of the committed record.
func (c *jetstreamCommit) URI(did string) string {
	return fmt.Sprintf("at://%s/%s/%s", did, c.Collection, c.RKey)
}

// optionsUpdate is the subscriber-sourced message that replaces the
// filters of a live Jetstream connection.
type optionsUpdate struct {
	Type    string         `json:"type"`
	Payload optionsPayload `json:"payload"`
}

type optionsPayload struct {
	WantedCollections []string `json:"wantedCollections"`
	WantedDIDs        []string `json:"wantedDids"`
}

func parseEvent(data []byte) (*jetstreamEvent, error) {
	var raw struct {
		DID    string          `json:"did"`
		TimeUS int64           `json:"time_us"`
		Kind   string          `json:"kind"`
		Commit json.RawMessage `json:"commit,omitempty"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal event: %w", err)
	}

	event := &jetstreamEvent{
		DID:    raw.DID,
		TimeUS: raw.TimeUS,
		Kind:   raw.Kind,
	}

	if raw.Kind == kindCommit && len(raw.Commit) > 0 {
		var rc struct {
			Rev        string          `json:"rev"`
			Operation  string          `json:"operation"`
			Collection string          `json:"collection"`
			RKey       string          `json:"rkey"`
			Record     json.RawMessage `json:"record,omitempty"`
			CID        string          `json:"cid"`
		}
		if err := json.Unmarshal(raw.Commit, &rc); err != nil {
			return nil, fmt.Errorf("unmarshal commit: %w", err)
		}

		commit := &jetstreamCommit{
			Rev:        rc.Rev,
			Operation:  rc.Operation,
			Collection: rc.Collection,
			RKey:       rc.RKey,
			CID:        rc.CID,
		}

		if len(rc.Record) > 0 && rc.Collection == lexicon.TypeFeedPost {
			var record lexicon.PostRecord
			if err := json.Unmarshal(rc.Record, &record); err != nil {
				return nil, fmt.Errorf("unmarshal post record: %w", err)
			}
			commit.Record = &record
		}

		event.Commit = commit
	}

	return event, nil
}
