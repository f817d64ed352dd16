package session

import (
	"errors"
	"sync"
	"time"

	"github.com/spam-detector/webui/internal/models"
)

var (
	// ErrInFlight rejects a submission while the same control's request is pending.
	ErrInFlight = errors.New("a request is already in progress")
	// ErrInvalidInput rejects text the submit control would not allow.
	ErrInvalidInput = errors.New("text is empty or too long")
	// ErrNoFile rejects a batch submit with no accepted upload.
	ErrNoFile = errors.New("no CSV file uploaded")
	// ErrNothingReady rejects a batch submit when no row passed validation.
	ErrNothingReady = errors.New("no rows ready to submit")
)

// maxNotices bounds the queue of undelivered notices.
const maxNotices = 20

// Session is one browser's view state: the single-text form and the batch
// upload. All methods are safe for concurrent use.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu            sync.Mutex
	lastAccessed  time.Time
	predict       models.PredictState
	batch         *models.UploadState
	batchInFlight bool
	notices       []models.Notice
}

// View is a consistent copy of a session's state for rendering.
type View struct {
	Predict       models.PredictState
	Batch         *models.UploadState
	BatchInFlight bool
}

func newSession(id string) *Session {
	now := time.Now()
	return &Session{
		ID:           id,
		CreatedAt:    now,
		lastAccessed: now,
	}
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastAccessed = time.Now()
	s.mu.Unlock()
}

// LastAccessed returns when the session was last used.
func (s *Session) LastAccessed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAccessed
}

func (s *Session) busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.predict.Loading || s.batchInFlight
}

// Snapshot returns the current state.
func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		Predict:       s.predict,
		BatchInFlight: s.batchInFlight,
	}
	if s.batch != nil {
		b := *s.batch
		v.Batch = &b
	}
	return v
}

// BeginPredict moves the single-text form to loading. The previous result
// and error are cleared; the input is kept.
func (s *Session) BeginPredict(text string, maxLen int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.predict.Loading {
		return ErrInFlight
	}
	if !models.CanSubmitText(text, maxLen, false) {
		return ErrInvalidInput
	}

	s.predict.Input = text
	s.predict.Result = nil
	s.predict.Err = ""
	s.predict.Loading = true
	return nil
}

// FinishPredict records the outcome of the request started by BeginPredict.
// A non-empty errMsg is shown inline and as a notice. The response is applied
// even if the form was cleared while it was pending.
func (s *Session) FinishPredict(result *models.Prediction, errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.predict.Loading = false
	if errMsg != "" {
		s.predict.Err = errMsg
		s.predict.Result = nil
		s.pushNotice(errMsg, models.NoticeError)
		return
	}
	s.predict.Result = result
	s.predict.Err = ""
}

// ClearPredict resets input, result and error together.
func (s *Session) ClearPredict() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.predict.Clear()
}

// KeepInput stores text as the form input without submitting it, so a
// rejected submission comes back with the text still in the form.
func (s *Session) KeepInput(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.predict.Input = text
}

// LastPrediction returns the last successful single-text result, or nil.
func (s *Session) LastPrediction() *models.Prediction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.predict.Result
}

// AcceptUpload replaces the held upload wholesale, including its results.
// It returns the ID of the file that was replaced, if any.
func (s *Session) AcceptUpload(state *models.UploadState) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var previous string
	if s.batch.HasFile() {
		previous = s.batch.FileID
	}
	if state.Results == nil {
		state.Results = []models.PredictionResult{}
	}
	s.batch = state
	return previous
}

// BeginBatch marks the batch submit as in flight and returns the file to send.
func (s *Session) BeginBatch() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case !s.batch.HasFile():
		return "", ErrNoFile
	case s.batchInFlight:
		return "", ErrInFlight
	case s.batch.ReadyCount == 0:
		return "", ErrNothingReady
	}

	s.batchInFlight = true
	return s.batch.FileID, nil
}

// FinishBatch ends the submit started by BeginBatch. On success the results
// replace the held ones if fileID is still the held upload. Failures leave
// the previous results in place. It reports whether results were committed.
func (s *Session) FinishBatch(fileID string, results []models.PredictionResult, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.batchInFlight = false
	if err != nil || s.batch == nil {
		return false
	}
	return s.batch.CommitResults(fileID, results)
}

// Results returns the held batch results.
func (s *Session) Results() []models.PredictionResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.batch == nil {
		return nil
	}
	return s.batch.Results
}

// HeldFileID returns the storage ID of the held upload, or "".
func (s *Session) HeldFileID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.batch.HasFile() {
		return ""
	}
	return s.batch.FileID
}

// Notify queues an error notice.
func (s *Session) Notify(message string) {
	s.NotifyLevel(message, models.NoticeError)
}

// NotifyLevel queues a notice with the given level.
func (s *Session) NotifyLevel(message string, level models.NoticeLevel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pushNotice(message, level)
}

// DrainNotices returns and clears the queued notices.
func (s *Session) DrainNotices() []models.Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.notices
	s.notices = nil
	return out
}

func (s *Session) pushNotice(message string, level models.NoticeLevel) {
	s.notices = append(s.notices, models.Notice{
		Message:   message,
		Level:     level,
		CreatedAt: time.Now(),
	})
	if len(s.notices) > maxNotices {
		s.notices = s.notices[len(s.notices)-maxNotices:]
	}
}
