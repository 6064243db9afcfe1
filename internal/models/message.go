package models

// Status tracks the attachment lifecycle for a message. The zero value means
// the message is merely sent; only messages carrying an attachment ever move
// to downloaded or deleted.
type Status string

const (
	StatusSent       Status = "" // default, omitted from JSON
	StatusDownloaded Status = "downloaded"
	StatusDeleted    Status = "deleted"
)

// Message represents one entry in the relay between the two participants.
// The JSON field names are the wire format the frontend polls, so they are
// part of the contract: `attached` is null when there is no file, and
// `status` is absent until a lifecycle transition happens.
type Message struct {
	ID        int64    `json:"id"`
	Message   string   `json:"message"`
	Sender    string   `json:"sender"`
	Receiver  string   `json:"receiver"`
	Timestamp string   `json:"timestamp"`
	Attached  []string `json:"attached"`
	Status    Status   `json:"status,omitempty"`
}

// HasAttachment reports whether the message still references a blob.
func (m Message) HasAttachment() bool {
	return len(m.Attached) > 0
}
