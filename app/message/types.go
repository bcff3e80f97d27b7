package message

import (
	"time"
)

// Status of a content unit in the synchronization pipeline. Filtered is
// terminal for one edit generation: either the unit was suppressed or it was
// successfully delivered, no further action is needed this cycle.
type Status string

const (
	StatusNew      Status = "new"
	StatusEdited   Status = "edited"
	StatusFiltered Status = "filtered"
)

// AnnotationKind identifies a formatting entity on a text span.
type AnnotationKind string

const (
	KindBold          AnnotationKind = "bold"
	KindItalic        AnnotationKind = "italic"
	KindStrikethrough AnnotationKind = "strikethrough"
	KindCode          AnnotationKind = "code"
	KindPre           AnnotationKind = "pre"
	KindTextLink      AnnotationKind = "text_link"
	KindURL           AnnotationKind = "url"
	KindCustomEmoji   AnnotationKind = "custom_emoji"
	KindMention       AnnotationKind = "mention"
	KindHashtag       AnnotationKind = "hashtag"
	KindUnknown       AnnotationKind = "unknown"
)

// Annotation is one formatting entity. Offset and Length are measured in
// UTF-16 code units, the protocol's native text measurement, not in runes.
type Annotation struct {
	Kind          AnnotationKind
	Offset        int
	Length        int
	URL           string
	Language      string
	CustomEmojiID string
	Raw           string // original type string, kept when Kind is unknown
}

// RawItem is one message as fetched from the transport, before grouping.
type RawItem struct {
	ID              string
	GroupID         string // shared album identifier, empty for single messages
	Channel         string
	Media           string // media kind descriptor, empty for plain text
	Date            time.Time
	EditDate        *time.Time
	ReplyToID       string
	RawAnnotations  string // serialized annotations as received
	Text            string
	Protected       bool
	WebPreview      bool
	ForwardFrom     string
	ForwardFromChat string
}

// ContentUnit is one logical item to synchronize: a single message or a
// whole album merged into one record.
type ContentUnit struct {
	UnitKey         string   // group id for albums, else the single item id
	PartIDs         []string // ordered member ids
	GroupID         string   // album id, empty for single messages
	OwnerID         string
	Channel         string
	Media           []string // one descriptor per part, may contain empties
	CreatedAt       time.Time
	EditedAt        *time.Time
	EditSignature   string // recorded edit-date signature, see editdiff.go
	RawAnnotations  string
	Text            string
	Status          Status
	Protected       bool
	ReplyToID       string
	ForwardFrom     string
	ForwardFromChat string
}

// Key returns the grouping key of a raw item: the shared album identifier
// when present, else the item's own id.
func (i RawItem) Key() string {
	if i.GroupID != "" {
		return i.GroupID
	}
	return i.ID
}
