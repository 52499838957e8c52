// Package webhook receives push notifications from code hosting
// platforms and turns the ones that match a pipeline's triggers into
// runs.
package webhook

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/phaser-svc/phaser/pkg/pipeline"
)

// Event is a normalized push notification.
type Event struct {
	// Delivery is the platform's unique delivery id.
	Delivery string

	// Ref is the full git ref, e.g. "refs/heads/main".
	Ref string

	// Branch is the short branch name.
	Branch string

	// Commit is the head SHA after the push. Empty for deletions.
	Commit string

	// Deleted marks a branch deletion push.
	Deleted bool

	// Repository information
	Repo     string
	FullName string
	Private  bool

	// Pusher is the account that pushed.
	Pusher string

	// Raw payload for debugging
	RawPayload json.RawMessage

	// When the event was received
	Timestamp time.Time
}

// MaxPayloadSize caps how much of a delivery body is read and stored.
const MaxPayloadSize = 10 * 1024 * 1024

const branchRefPrefix = "refs/heads/"

// PushEvent converts the delivery into the trigger model.
func (e *Event) PushEvent() pipeline.PushEvent {
	return pipeline.PushEvent{
		Ref:     e.Ref,
		Branch:  e.Branch,
		Commit:  e.Commit,
		Deleted: e.Deleted,
	}
}

// GitHubPush is the GitHub push event payload, reduced to the fields
// the server reads.
type GitHubPush struct {
	// Ref is the full ref that was pushed, e.g. "refs/heads/main".
	Ref string `json:"ref"`

	// Before and After are the head SHAs around the push.
	Before string `json:"before"`
	After  string `json:"after"`

	// Created and Deleted mark ref lifecycle pushes.
	Created bool `json:"created"`
	Deleted bool `json:"deleted"`

	// Repository contains repo details
	Repository struct {
		Name     string `json:"name"`
		FullName string `json:"full_name"`
		Private  bool   `json:"private"`
		Owner    struct {
			Login string `json:"login"`
		} `json:"owner"`
	} `json:"repository"`

	// Pusher is the account that performed the push
	Pusher struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"pusher"`

	// HeadCommit describes the new head, absent for deletions
	HeadCommit *struct {
		ID        string `json:"id"`
		Message   string `json:"message"`
		Timestamp string `json:"timestamp"`
	} `json:"head_commit"`

	// Sender is the user associated with the delivery
	Sender struct {
		Login string `json:"login"`
	} `json:"sender"`
}

// ParseGitHubEvent parses one GitHub delivery. Deliveries that are not
// branch pushes (pings, tag pushes, other event types) return a nil
// event and no error.
func ParseGitHubEvent(data []byte, eventType string) (*Event, error) {
	// Ping is GitHub's endpoint check, nothing to run.
	if eventType == "ping" {
		return nil, nil
	}
	if eventType != "push" {
		return nil, nil
	}

	var payload GitHubPush
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse GitHub payload: %w", err)
	}

	branch, ok := strings.CutPrefix(payload.Ref, branchRefPrefix)
	if !ok || branch == "" {
		// Tag pushes and other refs never start pipelines.
		return nil, nil
	}

	commit := payload.After
	if commit == "" && payload.HeadCommit != nil {
		commit = payload.HeadCommit.ID
	}
	// A deletion push reports an all-zero "after" SHA.
	if strings.Trim(commit, "0") == "" {
		commit = ""
	}
	if commit == "" && !payload.Deleted {
		return nil, fmt.Errorf("push payload for %s has no head commit", payload.Ref)
	}

	rawPayload := data
	if len(data) > MaxPayloadSize {
		rawPayload = data[:MaxPayloadSize]
	}

	event := &Event{
		Ref:        payload.Ref,
		Branch:     branch,
		Commit:     commit,
		Deleted:    payload.Deleted,
		Repo:       payload.Repository.Name,
		FullName:   nonEmptyString(payload.Repository.FullName, "unknown"),
		Private:    payload.Repository.Private,
		Pusher:     nonEmptyString(payload.Pusher.Name, payload.Sender.Login),
		RawPayload: rawPayload,
		Timestamp:  time.Now(),
	}
	return event, nil
}

// nonEmptyString returns the string if non-empty, otherwise returns the default value
func nonEmptyString(s, defaultValue string) string {
	if s == "" {
		return defaultValue
	}
	return s
}
