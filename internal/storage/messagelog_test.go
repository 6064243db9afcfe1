package storage

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bennyh960/stupid-chat-app/internal/models"
	"github.com/bennyh960/stupid-chat-app/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.Init("production")
	os.Exit(m.Run())
}

func newTestLog(t *testing.T) *MessageLog {
	t.Helper()
	path := filepath.Join(t.TempDir(), "messages.json")
	require.NoError(t, os.WriteFile(path, []byte("[]"), 0o644))
	return NewMessageLog(path)
}

func TestAppendAndListOrder(t *testing.T) {
	log := newTestLog(t)

	texts := []string{"first", "second", "third"}
	for _, text := range texts {
		_, err := log.Append(models.Message{Message: text, Sender: "A", Receiver: "B"})
		require.NoError(t, err)
	}

	msgs, err := log.List()
	require.NoError(t, err)
	require.Len(t, msgs, 3)

	for i, msg := range msgs {
		assert.Equal(t, texts[i], msg.Message)
		assert.Equal(t, "A", msg.Sender)
		assert.Equal(t, "B", msg.Receiver)
		assert.NotEmpty(t, msg.Timestamp)
		assert.Equal(t, models.StatusSent, msg.Status)
		if i > 0 {
			assert.Greater(t, msg.ID, msgs[i-1].ID, "ids must be strictly increasing")
		}
	}
}

func TestConcurrentAppendsLoseNothing(t *testing.T) {
	log := newTestLog(t)

	const writers = 50
	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func() {
			defer wg.Done()
			_, err := log.Append(models.Message{Message: "hi", Sender: "A", Receiver: "B"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	msgs, err := log.List()
	require.NoError(t, err)
	require.Len(t, msgs, writers)

	seen := make(map[int64]bool, writers)
	for i, msg := range msgs {
		assert.False(t, seen[msg.ID], "duplicate id %d", msg.ID)
		seen[msg.ID] = true
		if i > 0 {
			assert.Greater(t, msg.ID, msgs[i-1].ID)
		}
	}
}

func TestUpdateStatus(t *testing.T) {
	log := newTestLog(t)

	msg, err := log.Append(models.Message{
		Message:  "",
		Sender:   "A",
		Receiver: "B",
		Attached: []string{"A_to_B_1_photo.png"},
	})
	require.NoError(t, err)

	require.NoError(t, log.UpdateStatus(msg.ID, models.StatusDownloaded, false))

	msgs, err := log.List()
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, models.StatusDownloaded, msgs[0].Status)
	assert.Equal(t, []string{"A_to_B_1_photo.png"}, msgs[0].Attached, "reference kept on download")

	require.NoError(t, log.RemoveAttachmentReference(msg.ID))

	msgs, err = log.List()
	require.NoError(t, err)
	assert.Equal(t, models.StatusDeleted, msgs[0].Status)
	assert.Nil(t, msgs[0].Attached)
}

func TestUpdateStatusUnknownIDIsNoop(t *testing.T) {
	log := newTestLog(t)

	_, err := log.Append(models.Message{Message: "hi", Sender: "A", Receiver: "B"})
	require.NoError(t, err)

	// A concurrently cleared message id is tolerated, not an error
	assert.NoError(t, log.UpdateStatus(999999, models.StatusDeleted, true))

	msgs, err := log.List()
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, models.StatusSent, msgs[0].Status)
}

func TestDownloadDoesNotResurrectDeleted(t *testing.T) {
	log := newTestLog(t)

	msg, err := log.Append(models.Message{
		Sender:   "A",
		Receiver: "B",
		Attached: []string{"A_to_B_1_doc.pdf"},
	})
	require.NoError(t, err)

	require.NoError(t, log.UpdateStatus(msg.ID, models.StatusDeleted, false))
	require.NoError(t, log.MarkAttachmentDownloaded("A_to_B_1_doc.pdf"))

	msgs, err := log.List()
	require.NoError(t, err)
	assert.Equal(t, models.StatusDeleted, msgs[0].Status, "status never moves backward")
}

func TestReset(t *testing.T) {
	log := newTestLog(t)

	for i := 0; i < 3; i++ {
		_, err := log.Append(models.Message{Message: "hi", Sender: "A", Receiver: "B"})
		require.NoError(t, err)
	}

	require.NoError(t, log.Reset())

	msgs, err := log.List()
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestCorruptDocumentIsStorageUnavailable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	log := NewMessageLog(path)

	_, err := log.List()
	assert.ErrorIs(t, err, ErrStorageUnavailable)

	_, err = log.Append(models.Message{Message: "hi"})
	assert.ErrorIs(t, err, ErrStorageUnavailable)
}

func TestMissingDocumentIsStorageUnavailable(t *testing.T) {
	log := NewMessageLog(filepath.Join(t.TempDir(), "nope", "messages.json"))

	_, err := log.List()
	assert.ErrorIs(t, err, ErrStorageUnavailable)
}
