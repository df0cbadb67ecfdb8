// Package app composes the uploader and the history table into one per-browser shell
// with a tab switcher.
package app

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"resumeview/internal/history"
	"resumeview/internal/model"
	"resumeview/internal/uploader"
)

// Tab is the visible pane of the shell.
type Tab string

const (
	TabAnalyze Tab = "analyze"
	TabHistory Tab = "history"
)

// ParseTab maps a name to a Tab. Unknown names fall back to TabAnalyze.
func ParseTab(s string) (Tab, bool) {
	switch Tab(s) {
	case TabAnalyze:
		return TabAnalyze, true
	case TabHistory:
		return TabHistory, true
	}
	return TabAnalyze, false
}

// Backend is everything the shell needs from the analysis service.
type Backend interface {
	uploader.API
	history.API
}

// Shell is the state behind one browser session.
type Shell struct {
	uploads *uploader.Store
	history *history.Table

	// submitting is held for the whole select-and-submit sequence of one upload.
	submitting sync.Mutex

	mu     sync.Mutex
	tab    Tab
	latest *model.UploadResult
}

// NewShell starts on the Analyze tab with nothing selected. recorder may be nil.
func NewShell(api Backend, recorder uploader.Recorder, log *zap.Logger) *Shell {
	return &Shell{
		uploads: uploader.NewStore(api, recorder),
		history: history.NewTable(api, log),
		tab:     TabAnalyze,
	}
}

func (s *Shell) Tab() Tab {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tab
}

// SwitchTab shows tab. Switching to history mounts the table, which loads the list once;
// the load error, if any, is returned and also kept on the table.
func (s *Shell) SwitchTab(ctx context.Context, tab Tab) error {
	s.mu.Lock()
	s.tab = tab
	s.mu.Unlock()

	if tab != TabHistory {
		return nil
	}
	return s.history.Load(ctx)
}

// SelectFile replaces the chosen file and clears the result of the previous upload.
func (s *Shell) SelectFile(f *uploader.File) uploader.State {
	s.mu.Lock()
	s.latest = nil
	s.mu.Unlock()
	return s.uploads.SelectFile(f)
}

// Submit runs the uploader on the selected file and remembers the result when it succeeds.
// It returns uploader.ErrBusy while another upload of this shell is running.
func (s *Shell) Submit(ctx context.Context) (uploader.State, error) {
	if !s.submitting.TryLock() {
		return s.uploads.State(), uploader.ErrBusy
	}
	defer s.submitting.Unlock()
	return s.submit(ctx)
}

// Analyze selects f and submits it as one step. While another upload is running it returns
// uploader.ErrBusy and leaves that upload untouched.
func (s *Shell) Analyze(ctx context.Context, f *uploader.File) (uploader.State, error) {
	if !s.submitting.TryLock() {
		return s.uploads.State(), uploader.ErrBusy
	}
	defer s.submitting.Unlock()
	s.SelectFile(f)
	return s.submit(ctx)
}

func (s *Shell) submit(ctx context.Context) (uploader.State, error) {
	s.mu.Lock()
	s.latest = nil
	s.mu.Unlock()

	st, err := s.uploads.Submit(ctx)
	if err == nil && st.Phase == uploader.Success {
		s.mu.Lock()
		s.latest = st.Result
		s.mu.Unlock()
	}
	return st, err
}

// Upload returns the uploader snapshot.
func (s *Shell) Upload() uploader.State {
	return s.uploads.State()
}

// Latest is the result of the last upload when it succeeded, or nil.
func (s *Shell) Latest() *model.UploadResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

func (s *Shell) History() *history.Table {
	return s.history
}
