package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bennyh960/stupid-chat-app/internal/models"
	"github.com/bennyh960/stupid-chat-app/pkg/logger"
)

// messagesFile is the name of the log document inside the data directory.
const messagesFile = "messages.json"

// Options configures Init.
type Options struct {
	// DataDir holds the message log document. Created if absent.
	DataDir string
	// FilesDir holds the attachment blobs. Created if absent.
	FilesDir string
	// GracePeriod is how long a downloaded blob survives before the
	// background sweep reclaims it. Zero means delete on the next tick.
	GracePeriod time.Duration
}

// Attachment is an inbound file carried on an append.
type Attachment struct {
	Name string // original client filename
	Data io.Reader
}

// Store coordinates the message log and the blob store and drives the
// attachment lifecycle: pending on append, downloaded on retrieve, and
// physically reclaimed after the grace period (or immediately on an
// explicit delete).
type Store struct {
	Log   *MessageLog
	Blobs *BlobStore

	grace time.Duration

	// pending download-then-delete timers, keyed by filename. Stopping a
	// timer on explicit delete is an optimization; the deferred delete is
	// idempotent either way.
	timersMu sync.Mutex
	timers   map[string]*time.Timer

	notifyMu sync.RWMutex
	notify   func(models.Message)
}

// Init prepares the storage locations (create-if-absent for the data
// directory, the message document and the blob directory) and returns the
// wired store handle.
func Init(opts Options) (*Store, error) {
	if err := os.MkdirAll(opts.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	if err := os.MkdirAll(opts.FilesDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating files dir: %w", err)
	}

	logPath := filepath.Join(opts.DataDir, messagesFile)
	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		if err := os.WriteFile(logPath, []byte("[]"), 0o644); err != nil {
			return nil, fmt.Errorf("seeding message log: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("checking message log: %w", err)
	}

	return &Store{
		Log:    NewMessageLog(logPath),
		Blobs:  NewBlobStore(opts.FilesDir),
		grace:  opts.GracePeriod,
		timers: make(map[string]*time.Timer),
	}, nil
}

// SetNotifier installs a fire-and-forget hook invoked after every
// successful append. The hook runs on its own goroutine; the store never
// blocks on it, and delivery is not proof of persistence (consumers
// reconcile by polling).
func (s *Store) SetNotifier(fn func(models.Message)) {
	s.notifyMu.Lock()
	s.notify = fn
	s.notifyMu.Unlock()
}

// AppendMessage stores a new message, writing the attachment blob first so
// the log never references a blob that failed to land. att may be nil for
// text-only messages.
func (s *Store) AppendMessage(sender, receiver, text string, att *Attachment) (models.Message, error) {
	msg := models.Message{
		Message:  text,
		Sender:   sender,
		Receiver: receiver,
	}

	var filename string
	if att != nil {
		filename = s.Blobs.GenerateFilename(sender, receiver, att.Name)
		if err := s.Blobs.Put(filename, att.Data); err != nil {
			return models.Message{}, err
		}
		msg.Attached = []string{filename}
	}

	stored, err := s.Log.Append(msg)
	if err != nil {
		// Don't leave an orphaned blob behind a failed append.
		if filename != "" {
			if derr := s.Blobs.Delete(filename); derr != nil {
				logger.Warn().Err(derr).Str("file", filename).Msg("Failed to clean up blob after append failure")
			}
		}
		return models.Message{}, err
	}

	s.notifyMu.RLock()
	notify := s.notify
	s.notifyMu.RUnlock()
	if notify != nil {
		go notify(stored)
	}

	return stored, nil
}

// ListMessages returns the full ordered log.
func (s *Store) ListMessages() ([]models.Message, error) {
	return s.Log.List()
}

// Retrieve hands back the blob bytes, marks every message referencing the
// filename as downloaded, and schedules the blob for deletion once the
// grace period elapses. The grace window exists so a slow or retried
// transfer of the returned bytes is not cut off by an immediate delete.
// An absent blob returns ErrNotFound with the log untouched.
func (s *Store) Retrieve(filename string) ([]byte, error) {
	data, err := s.Blobs.Get(filename)
	if err != nil {
		return nil, err
	}

	if err := s.Log.MarkAttachmentDownloaded(filename); err != nil {
		return nil, err
	}

	s.scheduleDelete(filename)
	return data, nil
}

// ExplicitDelete removes the blob immediately and marks the message record
// deleted with its attachment reference cleared. Safe to call repeatedly:
// deleting an absent blob and re-marking a deleted record both settle on
// the same end state.
func (s *Store) ExplicitDelete(messageID int64, filename string) error {
	s.cancelDelete(filename)

	if err := s.Blobs.Delete(filename); err != nil {
		return err
	}
	return s.Log.RemoveAttachmentReference(messageID)
}

// ResetAll clears the message log, then the blob store. Log-first on
// purpose: a crash mid-reset leaves an empty log rather than records
// pointing at a half-cleared store.
func (s *Store) ResetAll() error {
	s.timersMu.Lock()
	for filename, t := range s.timers {
		t.Stop()
		delete(s.timers, filename)
	}
	s.timersMu.Unlock()

	if err := s.Log.Reset(); err != nil {
		return err
	}
	return s.Blobs.Clear()
}

// scheduleDelete arms (or re-arms) the deferred reclaim of a downloaded
// blob. The delete itself is best-effort; by the time it fires the blob may
// already be gone, which is the expected case after an explicit delete.
func (s *Store) scheduleDelete(filename string) {
	s.timersMu.Lock()
	defer s.timersMu.Unlock()

	if t, ok := s.timers[filename]; ok {
		t.Stop()
	}
	s.timers[filename] = time.AfterFunc(s.grace, func() {
		s.timersMu.Lock()
		delete(s.timers, filename)
		s.timersMu.Unlock()

		if err := s.Blobs.Delete(filename); err != nil {
			logger.Warn().Err(err).Str("file", filename).Msg("Deferred blob delete failed")
		}
	})
}

func (s *Store) cancelDelete(filename string) {
	s.timersMu.Lock()
	defer s.timersMu.Unlock()
	if t, ok := s.timers[filename]; ok {
		t.Stop()
		delete(s.timers, filename)
	}
}
