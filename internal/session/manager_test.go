package session

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spam-detector/webui/internal/models"
	"github.com/spam-detector/webui/internal/storage"
)

func strPtr(s string) *string { return &s }

func uploadState(fileID string, ready int) *models.UploadState {
	return &models.UploadState{FileID: fileID, FileName: fileID + ".csv", TotalRows: ready, ReadyCount: ready}
}

func TestManager_CreateGetDelete(t *testing.T) {
	m := NewManager(storage.NewMemoryStore(0), nil)

	s := m.Create()
	require.NotEmpty(t, s.ID)
	assert.Equal(t, 1, m.Count())

	got, ok := m.Get(s.ID)
	require.True(t, ok)
	assert.Same(t, s, got)

	same, created := m.GetOrCreate(s.ID)
	assert.False(t, created)
	assert.Same(t, s, same)

	fresh, created := m.GetOrCreate("unknown")
	assert.True(t, created)
	assert.NotEqual(t, s.ID, fresh.ID)

	assert.True(t, m.Delete(s.ID))
	assert.False(t, m.Delete(s.ID))
	_, ok = m.Get(s.ID)
	assert.False(t, ok)
}

func TestManager_DeleteReleasesUpload(t *testing.T) {
	store := storage.NewMemoryStore(0)
	m := NewManager(store, nil)

	info, err := store.Save("a.csv", strings.NewReader("text\nhi\n"))
	require.NoError(t, err)

	s := m.Create()
	s.AcceptUpload(uploadState(info.ID, 1))

	m.Delete(s.ID)
	_, err = store.Get(info.ID)
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}

func TestManager_CleanupOldSessions(t *testing.T) {
	store := storage.NewMemoryStore(0)
	m := NewManager(store, nil)

	old := m.Create()
	info, _ := store.Save("old.csv", strings.NewReader("text\nx\n"))
	old.AcceptUpload(uploadState(info.ID, 1))
	old.lastAccessed = time.Now().Add(-2 * time.Hour)

	busy := m.Create()
	require.NoError(t, busy.BeginPredict("hello", 5000))
	busy.lastAccessed = time.Now().Add(-2 * time.Hour)

	recent := m.Create()

	removed := m.CleanupOldSessions(30 * time.Minute)
	assert.Equal(t, 1, removed)

	_, ok := m.Get(old.ID)
	assert.False(t, ok)
	_, ok = m.Get(busy.ID)
	assert.True(t, ok, "sessions with a request in flight survive")
	_, ok = m.Get(recent.ID)
	assert.True(t, ok)

	_, err := store.Get(info.ID)
	assert.Error(t, err, "expired session's upload is deleted")
}

func TestManager_EvictsLeastRecentlyUsed(t *testing.T) {
	m := NewManager(nil, nil)
	m.max = 2

	first := m.Create()
	first.lastAccessed = time.Now().Add(-time.Hour)
	second := m.Create()

	third := m.Create()
	assert.Equal(t, 2, m.Count())

	_, ok := m.Get(first.ID)
	assert.False(t, ok)
	_, ok = m.Get(second.ID)
	assert.True(t, ok)
	_, ok = m.Get(third.ID)
	assert.True(t, ok)
}

func TestSession_PredictLifecycle(t *testing.T) {
	s := newSession("s")

	assert.ErrorIs(t, s.BeginPredict("   ", 5000), ErrInvalidInput)
	assert.ErrorIs(t, s.BeginPredict(strings.Repeat("a", 5001), 5000), ErrInvalidInput)

	require.NoError(t, s.BeginPredict("win money", 5000))
	assert.ErrorIs(t, s.BeginPredict("again", 5000), ErrInFlight)

	v := s.Snapshot()
	assert.True(t, v.Predict.Loading)
	assert.Equal(t, "win money", v.Predict.Input)

	p := 0.5
	s.FinishPredict(&models.Prediction{Label: models.LabelSpam, Probability: &p}, "")
	v = s.Snapshot()
	assert.False(t, v.Predict.Loading)
	require.NotNil(t, v.Predict.Result)
	assert.Equal(t, "win money", v.Predict.Input)
	assert.Same(t, v.Predict.Result, s.LastPrediction())
	assert.Empty(t, s.DrainNotices())

	// A failed follow-up clears the previous result and raises a notice.
	require.NoError(t, s.BeginPredict("second", 5000))
	assert.Nil(t, s.Snapshot().Predict.Result)
	s.FinishPredict(nil, "model unavailable")
	v = s.Snapshot()
	assert.Equal(t, "model unavailable", v.Predict.Err)
	assert.Nil(t, v.Predict.Result)

	notices := s.DrainNotices()
	require.Len(t, notices, 1)
	assert.Equal(t, "model unavailable", notices[0].Message)
	assert.Equal(t, models.NoticeError, notices[0].Level)
	assert.Empty(t, s.DrainNotices())

	s.ClearPredict()
	v = s.Snapshot()
	assert.Empty(t, v.Predict.Input)
	assert.Empty(t, v.Predict.Err)
	assert.Nil(t, v.Predict.Result)
}

func TestSession_ClearWhileLoadingKeepsLastResponse(t *testing.T) {
	s := newSession("s")
	require.NoError(t, s.BeginPredict("hello", 5000))

	s.ClearPredict()
	assert.True(t, s.Snapshot().Predict.Loading)

	s.FinishPredict(&models.Prediction{Label: models.LabelHam}, "")
	v := s.Snapshot()
	assert.False(t, v.Predict.Loading)
	require.NotNil(t, v.Predict.Result)
	assert.Equal(t, models.LabelHam, v.Predict.Result.Label)
}

func TestSession_BatchLifecycle(t *testing.T) {
	s := newSession("s")

	_, err := s.BeginBatch()
	assert.ErrorIs(t, err, ErrNoFile)

	assert.Empty(t, s.AcceptUpload(uploadState("empty", 0)))
	_, err = s.BeginBatch()
	assert.ErrorIs(t, err, ErrNothingReady)

	assert.Equal(t, "empty", s.AcceptUpload(uploadState("file-1", 3)))
	fileID, err := s.BeginBatch()
	require.NoError(t, err)
	assert.Equal(t, "file-1", fileID)
	assert.True(t, s.Snapshot().BatchInFlight)

	_, err = s.BeginBatch()
	assert.ErrorIs(t, err, ErrInFlight)

	results := []models.PredictionResult{{Row: 1, Text: "a", Label: strPtr("spam")}}
	assert.True(t, s.FinishBatch(fileID, results, nil))
	assert.Equal(t, results, s.Results())
	assert.False(t, s.Snapshot().BatchInFlight)

	// A failed submit keeps the previous results.
	_, err = s.BeginBatch()
	require.NoError(t, err)
	assert.False(t, s.FinishBatch(fileID, nil, errors.New("boom")))
	assert.Equal(t, results, s.Results())
}

func TestSession_BatchResultsForReplacedFileAreDropped(t *testing.T) {
	s := newSession("s")
	s.AcceptUpload(uploadState("file-1", 2))

	fileID, err := s.BeginBatch()
	require.NoError(t, err)

	s.AcceptUpload(uploadState("file-2", 5))
	committed := s.FinishBatch(fileID, []models.PredictionResult{{Row: 1}}, nil)

	assert.False(t, committed)
	assert.Empty(t, s.Results())
	assert.Equal(t, "file-2", s.HeldFileID())
}

func TestSession_AcceptUploadResetsResults(t *testing.T) {
	s := newSession("s")
	s.AcceptUpload(uploadState("file-1", 1))
	fileID, _ := s.BeginBatch()
	s.FinishBatch(fileID, []models.PredictionResult{{Row: 1}}, nil)
	require.Len(t, s.Results(), 1)

	s.AcceptUpload(uploadState("file-2", 1))
	assert.NotNil(t, s.Results())
	assert.Empty(t, s.Results())
}

func TestSession_NoticeQueueIsBounded(t *testing.T) {
	s := newSession("s")
	for i := 0; i < maxNotices+5; i++ {
		s.Notify("n")
	}
	s.NotifyLevel("last", models.NoticeInfo)

	notices := s.DrainNotices()
	assert.Len(t, notices, maxNotices)
	assert.Equal(t, "last", notices[len(notices)-1].Message)
	assert.Equal(t, models.NoticeInfo, notices[len(notices)-1].Level)
}
