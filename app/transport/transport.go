// Package transport defines the messaging-protocol port the synchronization
// engine drives, and an HTTP client for the MTProto gateway sidecar that
// implements it. The engine never talks to the chat protocol directly.
package transport

import (
	"context"
	"time"

	"github.com/lysyi3m/tg-sentinel/app/message"
)

// Item is one message as seen by the transport.
type Item struct {
	ID              string
	GroupID         string // shared album identifier, empty for singles
	Date            time.Time
	EditDate        *time.Time
	Text            string
	RawAnnotations  string
	Media           string // media kind, empty for plain text
	FileName        string
	Protected       bool
	ReplyToID       string
	WebPreview      bool
	HasCaption      bool
	ForwardFrom     string // original author, set when the message is itself a forward
	ForwardFromChat string
}

// Media is one entry of a media-group send.
type Media struct {
	Kind        string // photo or video
	Path        string
	Caption     string
	Annotations []message.Annotation
}

// Transport is the capability interface over the chat protocol.
type Transport interface {
	// FetchHistory returns up to limit messages of a channel, most recent
	// first. Also used after a publish to learn the ids the target channel
	// assigned.
	FetchHistory(ctx context.Context, channel string, limit int) ([]Item, error)

	// GetMessage resolves a single message by id
	GetMessage(ctx context.Context, channel, id string) (*Item, error)

	// Forward invokes the protocol's native forward primitive. Fails for
	// protected-content sources.
	Forward(ctx context.Context, targetChannel, sourceChannel string, ids []string) error

	// Download fetches a message's media into destDir and returns the local path
	Download(ctx context.Context, channel, id, destDir string) (string, error)

	SendText(ctx context.Context, channel, text string, annotations []message.Annotation) error
	SendMediaGroup(ctx context.Context, channel string, media []Media) error
	SendDocument(ctx context.Context, channel, path, caption string, annotations []message.Annotation) error

	EditText(ctx context.Context, channel, id, text string, annotations []message.Annotation) error
	EditCaption(ctx context.Context, channel, id, caption string, annotations []message.Annotation) error

	Delete(ctx context.Context, channel string, ids []string) error
}
