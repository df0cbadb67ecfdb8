package handler

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"io"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"resumeview/internal/apiclient"
	"resumeview/internal/app"
	"resumeview/internal/http/middleware"
	"resumeview/internal/model"
	"resumeview/internal/service"
	"resumeview/internal/uploader"
	"resumeview/internal/viewer"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

const msgBusy = "An upload is already in progress."

// uploadView is the uploader state as the analyze page needs it.
type uploadView struct {
	Phase      string
	Progress   int
	Err        string
	Filename   string
	Submitting bool
}

// pageData feeds every page template. Only the fields of the rendered tab are set.
type pageData struct {
	Tab       app.Tab
	Title     string
	RequestID string

	Upload uploadView
	Result *viewer.View

	Rows      []model.ResumeSummary
	LoadErr   string
	Detail    *viewer.View
	DetailErr string

	Error *errorEnvelope
}

func render(c *fiber.Ctx, status int, name string, data pageData) error {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}
	c.Type("html", "utf-8")
	return c.Status(status).Send(buf.Bytes())
}

func shellOf(c *fiber.Ctx) (*app.Shell, error) {
	sh := middleware.GetShell(c)
	if sh == nil {
		return nil, errors.New("no session attached to request")
	}
	return sh, nil
}

func analyzePage(c *fiber.Ctx, sh *app.Shell, status int) error {
	st := sh.Upload()
	data := pageData{
		Tab:       app.TabAnalyze,
		Title:     "Analyze",
		RequestID: middleware.GetRequestID(c),
		Upload: uploadView{
			Phase:      st.Phase.String(),
			Progress:   st.Progress,
			Err:        st.Err,
			Submitting: st.Phase == uploader.Submitting,
		},
	}
	if st.File != nil {
		data.Upload.Filename = st.File.Name
	}
	if latest := sh.Latest(); latest != nil {
		v := viewer.FromUploadResult(latest)
		data.Result = &v
	}
	return render(c, status, "analyze", data)
}

// ShowAnalyze renders the upload form, the progress bar and the latest result.
func ShowAnalyze() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sh, err := shellOf(c)
		if err != nil {
			return err
		}
		if err := sh.SwitchTab(c.UserContext(), app.TabAnalyze); err != nil {
			return err
		}
		return analyzePage(c, sh, fiber.StatusOK)
	}
}

// Analyze selects the posted file and submits it, blocking until the backend answers.
// A missing file is a validation error (422); a concurrent submit is refused (409);
// a backend failure renders the error inline (502).
func Analyze(log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sh, err := shellOf(c)
		if err != nil {
			return err
		}
		_ = sh.SwitchTab(c.UserContext(), app.TabAnalyze)

		var file *uploader.File
		if fh, ferr := c.FormFile("file"); ferr == nil {
			f, err := fh.Open()
			if err != nil {
				return renderError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
			}
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				return renderError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot read uploaded file")
			}
			file = &uploader.File{Name: fh.Filename, Data: data}
		}

		st, err := sh.Analyze(c.UserContext(), file)
		switch {
		case err == nil:
			return analyzePage(c, sh, fiber.StatusOK)
		case errors.Is(err, uploader.ErrNoFile):
			return analyzePage(c, sh, fiber.StatusUnprocessableEntity)
		case errors.Is(err, uploader.ErrBusy):
			// The running upload keeps its file and progress.
			return render(c, fiber.StatusConflict, "analyze", pageData{
				Tab:       app.TabAnalyze,
				Title:     "Analyze",
				RequestID: middleware.GetRequestID(c),
				Upload:    uploadView{Phase: st.Phase.String(), Progress: st.Progress, Err: msgBusy, Submitting: true},
			})
		default:
			log.Warn("upload_failed",
				zap.String("request_id", middleware.GetRequestID(c)),
				zap.String("filename", file.Name),
				zap.Error(err),
			)
			return analyzePage(c, sh, fiber.StatusBadGateway)
		}
	}
}

// progressResponse is the uploader snapshot served to polling clients.
type progressResponse struct {
	Phase    string `json:"phase" example:"submitting"`
	Progress int    `json:"progress" example:"40"`
	Error    string `json:"error"`
}

// AnalyzeProgress reports the uploader phase and progress for polling.
//
// @Summary Upload progress
// @Description Phase (idle, submitting, success, failed), percent sent and error message of the session's upload.
// @Tags analyze
// @Produce json
// @Success 200 {object} progressResponse
// @Router /analyze/progress [get]
func AnalyzeProgress() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sh, err := shellOf(c)
		if err != nil {
			return err
		}
		st := sh.Upload()
		return c.JSON(progressResponse{
			Phase:    st.Phase.String(),
			Progress: st.Progress,
			Error:    st.Err,
		})
	}
}

func historyPage(c *fiber.Ctx, sh *app.Shell, status int, archiveURL string) error {
	snap := sh.History().Snapshot()
	data := pageData{
		Tab:       app.TabHistory,
		Title:     "History",
		RequestID: middleware.GetRequestID(c),
		Rows:      snap.Rows,
	}
	if snap.LoadErr != nil {
		data.LoadErr = uploader.ErrorMessage(errors.Unwrap(snap.LoadErr))
	}
	if snap.Detail != nil {
		v := viewer.FromDetail(snap.Detail)
		v.ArchiveURL = archiveURL
		data.Detail = &v
	}
	if snap.DetailErr != nil {
		data.DetailErr = uploader.ErrorMessage(errors.Unwrap(snap.DetailErr))
	}
	return render(c, status, "history", data)
}

// ShowHistory loads the resume list on every visit. A load failure is shown as a notice.
func ShowHistory() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sh, err := shellOf(c)
		if err != nil {
			return err
		}
		_ = sh.SwitchTab(c.UserContext(), app.TabHistory)
		return historyPage(c, sh, fiber.StatusOK, "")
	}
}

// ShowResume opens the detail overlay of one resume over the history table.
func ShowResume(svc service.SubmissionService, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.ParseInt(c.Params("id"), 10, 64)
		if err != nil || id <= 0 {
			return renderError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		sh, err := shellOf(c)
		if err != nil {
			return err
		}
		ctx := c.UserContext()
		_ = sh.SwitchTab(ctx, app.TabHistory)

		if err := sh.History().OpenDetail(ctx, id); err != nil {
			status := fiber.StatusBadGateway
			if errors.Is(err, apiclient.ErrNotFound) {
				status = fiber.StatusNotFound
			}
			return historyPage(c, sh, status, "")
		}

		var archiveURL string
		if svc != nil {
			archiveURL, err = svc.ArchiveURL(ctx, id)
			if err != nil {
				log.Warn("archive_link_failed", zap.Int64("resume_id", id), zap.Error(err))
			}
		}
		return historyPage(c, sh, fiber.StatusOK, archiveURL)
	}
}

// CloseResume dismisses the detail overlay.
func CloseResume() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sh, err := shellOf(c)
		if err != nil {
			return err
		}
		sh.History().Close()
		return c.Redirect("/history", fiber.StatusSeeOther)
	}
}
