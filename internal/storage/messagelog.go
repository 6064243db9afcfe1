package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/bennyh960/stupid-chat-app/internal/models"
	"github.com/bennyh960/stupid-chat-app/pkg/logger"
)

// MessageLog is the ordered, durable collection of chat messages. The whole
// log is one JSON array document rewritten on every mutation, so every
// read-modify-write cycle holds a single mutex; two racing mutations can
// never lose each other's update. Writes go through a temp file and rename,
// which keeps concurrent readers from ever seeing a partial document.
type MessageLog struct {
	path string

	mu     sync.Mutex // serializes all read-modify-write cycles
	lastID int64      // highest id issued so far, guarded by mu
}

// NewMessageLog returns a log backed by the JSON document at path. The
// document must already exist; Init seeds it.
func NewMessageLog(path string) *MessageLog {
	return &MessageLog{path: path}
}

// Append stores msg with a freshly generated id and timestamp and returns
// the stored record.
func (l *MessageLog) Append(msg models.Message) (models.Message, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	msgs, err := l.read()
	if err != nil {
		return models.Message{}, err
	}

	msg.ID = l.nextID(msgs)
	msg.Timestamp = time.Now().UTC().Format("2006-01-02T15:04:05.000Z07:00")
	msgs = append(msgs, msg)

	if err := l.write(msgs); err != nil {
		return models.Message{}, err
	}
	return msg, nil
}

// List returns every message in insertion order. It reads the document
// directly without taking the write lock: the rename-based write means a
// reader always sees either the old or the new document, never a mix.
func (l *MessageLog) List() ([]models.Message, error) {
	return l.read()
}

// UpdateStatus sets the status of the message with the given id, clearing
// its attachment reference when clearAttachment is true. A missing id is a
// no-op, not an error: the message may have been cleared by a concurrent
// reset. Such no-ops are logged for visibility.
func (l *MessageLog) UpdateStatus(id int64, status models.Status, clearAttachment bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	msgs, err := l.read()
	if err != nil {
		return err
	}

	found := false
	for i := range msgs {
		if msgs[i].ID != id {
			continue
		}
		msgs[i].Status = status
		if clearAttachment {
			msgs[i].Attached = nil
		}
		found = true
	}

	if !found {
		logger.Warn().Int64("messageId", id).Str("status", string(status)).
			Msg("Status update for unknown message id ignored")
		return nil
	}
	return l.write(msgs)
}

// RemoveAttachmentReference marks the message deleted and drops its
// attachment reference. Used by the explicit delete path.
func (l *MessageLog) RemoveAttachmentReference(id int64) error {
	return l.UpdateStatus(id, models.StatusDeleted, true)
}

// MarkAttachmentDownloaded flips every message referencing filename to
// downloaded. The reference itself is kept so consumers can still render the
// record. Messages already deleted stay deleted; status never moves backward.
func (l *MessageLog) MarkAttachmentDownloaded(filename string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	msgs, err := l.read()
	if err != nil {
		return err
	}

	changed := false
	for i := range msgs {
		if msgs[i].Status == models.StatusDeleted {
			continue
		}
		if slices.Contains(msgs[i].Attached, filename) {
			msgs[i].Status = models.StatusDownloaded
			changed = true
		}
	}

	if !changed {
		return nil
	}
	return l.write(msgs)
}

// Reset replaces the whole log with an empty sequence.
func (l *MessageLog) Reset() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.write([]models.Message{})
}

// nextID issues a unix-millisecond id, bumped past the last issued id and
// past the tail of the log so concurrent appends inside one millisecond
// (or a clock stepping backwards) still get strictly increasing ids.
// Caller must hold mu.
func (l *MessageLog) nextID(msgs []models.Message) int64 {
	id := time.Now().UnixMilli()
	if id <= l.lastID {
		id = l.lastID + 1
	}
	if n := len(msgs); n > 0 && id <= msgs[n-1].ID {
		id = msgs[n-1].ID + 1
	}
	l.lastID = id
	return id
}

func (l *MessageLog) read() ([]models.Message, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading message log: %v", ErrStorageUnavailable, err)
	}
	var msgs []models.Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil, fmt.Errorf("%w: decoding message log: %v", ErrStorageUnavailable, err)
	}
	return msgs, nil
}

// write replaces the document atomically: marshal, write a sibling temp
// file, rename over the original.
func (l *MessageLog) write(msgs []models.Message) error {
	if msgs == nil {
		msgs = []models.Message{}
	}
	data, err := json.MarshalIndent(msgs, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encoding message log: %v", ErrStorageUnavailable, err)
	}

	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("%w: writing message log: %v", ErrStorageUnavailable, err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		return fmt.Errorf("%w: replacing message log: %v", ErrStorageUnavailable, err)
	}
	return nil
}
