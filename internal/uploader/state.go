// Package uploader owns the resume upload lifecycle: file selection, submission,
// progress, and the success or failure that ends it.
//
// Transitions live in Reduce, a pure function over State; Store applies them and runs the
// single backend call a submission makes.
package uploader

import "resumeview/internal/model"

// Phase is the lifecycle position of an upload.
type Phase int

const (
	Idle Phase = iota
	Submitting
	Success
	Failed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Submitting:
		return "submitting"
	case Success:
		return "success"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// File is a chosen resume held in memory until it is submitted.
type File struct {
	Name string
	Data []byte
}

// Size returns the file length in bytes.
func (f *File) Size() int64 {
	return int64(len(f.Data))
}

// State is a snapshot of the uploader. Result is set only in Success, Err only in
// Failed or after a rejected submit. Progress is non-zero only while Submitting.
type State struct {
	Phase    Phase
	File     *File
	Result   *model.UploadResult
	Err      string
	Progress int
}

// Event is anything that moves the uploader between states.
type Event interface {
	isEvent()
}

type (
	FileSelected     struct{ File *File }
	SubmitRejected   struct{ Message string }
	SubmitStarted    struct{}
	ProgressReported struct{ Percent int }
	UploadSucceeded  struct{ Result *model.UploadResult }
	UploadFailed     struct{ Message string }
)

func (FileSelected) isEvent()     {}
func (SubmitRejected) isEvent()   {}
func (SubmitStarted) isEvent()    {}
func (ProgressReported) isEvent() {}
func (UploadSucceeded) isEvent()  {}
func (UploadFailed) isEvent()     {}

// Messages shown to the user.
const (
	MsgNoFile        = "Please choose a PDF file."
	MsgUploadFailed  = "Upload failed."
	MsgMissingResult = "The server returned no analysis."
)

// Reduce returns the state that follows s after e. It has no side effects.
func Reduce(s State, e Event) State {
	switch ev := e.(type) {
	case FileSelected:
		return State{Phase: Idle, File: ev.File}

	case SubmitRejected:
		if s.Phase == Submitting {
			return s
		}
		return State{Phase: Idle, File: s.File, Err: ev.Message}

	case SubmitStarted:
		return State{Phase: Submitting, File: s.File}

	case ProgressReported:
		if s.Phase != Submitting {
			return s
		}
		pct := clamp(ev.Percent)
		if pct > s.Progress {
			s.Progress = pct
		}
		return s

	case UploadSucceeded:
		if s.Phase != Submitting {
			return s
		}
		if ev.Result == nil {
			return State{Phase: Failed, File: s.File, Err: MsgMissingResult}
		}
		return State{Phase: Success, File: s.File, Result: ev.Result}

	case UploadFailed:
		if s.Phase != Submitting {
			return s
		}
		msg := ev.Message
		if msg == "" {
			msg = MsgUploadFailed
		}
		return State{Phase: Failed, File: s.File, Err: msg}
	}
	return s
}

func clamp(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
