package uploader

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"resumeview/internal/apiclient"
	"resumeview/internal/model"
)

var (
	// ErrNoFile is returned when submit is requested before a file was chosen.
	ErrNoFile = errors.New("no file selected")
	// ErrBusy is returned when submit is requested while an upload is in flight.
	ErrBusy = errors.New("upload already in progress")
)

// API is the backend call a submission makes.
type API interface {
	UploadResume(ctx context.Context, filename string, content io.Reader, onProgress apiclient.ProgressFunc) (*model.UploadResult, error)
}

// Outcome describes one finished submission.
type Outcome struct {
	File     *File
	Result   *model.UploadResult
	Err      error
	Message  string
	Duration time.Duration
}

// Recorder is told about every submission that reached the backend.
type Recorder interface {
	Record(ctx context.Context, o Outcome)
}

// Store holds one uploader State and is safe for concurrent readers; a progress poll may
// read State while Submit is running.
type Store struct {
	api      API
	recorder Recorder

	mu    sync.Mutex
	state State
	// gen changes whenever a new file is chosen or a submission starts, so results of a
	// superseded submission are dropped.
	gen uint64
}

// NewStore returns an Idle store. recorder may be nil.
func NewStore(api API, recorder Recorder) *Store {
	return &Store{api: api, recorder: recorder}
}

// State returns a snapshot of the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SelectFile stores f and returns the uploader to Idle, clearing any result or error.
func (s *Store) SelectFile(f *File) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.state = Reduce(s.state, FileSelected{File: f})
	return s.state
}

// Submit uploads the selected file and blocks until the backend answers or the transport
// fails. It makes exactly one backend call and never retries. The returned error is
// ErrNoFile, ErrBusy, or the upload failure; the returned state always reflects it.
func (s *Store) Submit(ctx context.Context) (State, error) {
	s.mu.Lock()
	if s.state.Phase == Submitting {
		st := s.state
		s.mu.Unlock()
		return st, ErrBusy
	}
	if s.state.File == nil {
		s.state = Reduce(s.state, SubmitRejected{Message: MsgNoFile})
		st := s.state
		s.mu.Unlock()
		return st, ErrNoFile
	}
	s.gen++
	gen := s.gen
	file := s.state.File
	s.state = Reduce(s.state, SubmitStarted{})
	s.mu.Unlock()

	start := time.Now()
	res, err := s.api.UploadResume(ctx, file.Name, bytes.NewReader(file.Data), func(pct int) {
		s.dispatch(gen, ProgressReported{Percent: pct})
	})
	elapsed := time.Since(start)

	var msg string
	if err != nil {
		msg = ErrorMessage(err)
		s.dispatch(gen, UploadFailed{Message: msg})
	} else {
		s.dispatch(gen, UploadSucceeded{Result: res})
		if res == nil {
			err = errors.New(MsgMissingResult)
			msg = MsgMissingResult
		}
	}

	if s.recorder != nil {
		s.recorder.Record(ctx, Outcome{File: file, Result: res, Err: err, Message: msg, Duration: elapsed})
	}

	// If a newer selection superseded this submission, the state belongs to it; err still
	// reports what this submission did.
	return s.State(), err
}

func (s *Store) dispatch(gen uint64, e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return
	}
	s.state = Reduce(s.state, e)
}

// ErrorMessage turns an upload error into the text shown to the user, preferring the
// server's detail string over the transport or status message.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var se *apiclient.ServerError
	if errors.As(err, &se) && se.Detail != "" {
		return se.Detail
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return MsgUploadFailed
}
