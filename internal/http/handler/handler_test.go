package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"resumeview/internal/apiclient"
	apiMocks "resumeview/internal/apiclient/mocks"
	"resumeview/internal/app"
	"resumeview/internal/http/middleware"
	"resumeview/internal/model"
	"resumeview/internal/service"
	serviceMocks "resumeview/internal/service/mocks"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testServer struct {
	app     *fiber.App
	api     *apiMocks.MockClient
	svc     *serviceMocks.MockSubmissionService
	cookies []*http.Cookie
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	api := new(apiMocks.MockClient)
	svc := new(serviceMocks.MockSubmissionService)
	sessions := app.NewSessions(time.Hour, func() *app.Shell {
		return app.NewShell(api, svc, zap.NewNop())
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{Name: "resumeview_test_total", Help: "test"}))

	srv := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(zap.NewNop())})
	srv.Use(middleware.RequestID())
	RegisterRoutes(srv, Deps{
		Backend:     api,
		Submissions: svc,
		Sessions:    sessions,
		SessionIdle: time.Hour,
		Gatherer:    reg,
		Log:         zap.NewNop(),
	})
	return &testServer{app: srv, api: api, svc: svc}
}

// do sends req within the server's browser session, keeping the session cookie.
func (s *testServer) do(t *testing.T, req *http.Request) (*http.Response, string) {
	t.Helper()
	for _, c := range s.cookies {
		req.AddCookie(c)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	if cs := resp.Cookies(); len(cs) > 0 {
		s.cookies = cs
	}
	body, _ := io.ReadAll(resp.Body)
	return resp, string(body)
}

func multipartUpload(t *testing.T, filename string, content []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if filename != "" {
		part, err := writer.CreateFormFile("file", filename)
		require.NoError(t, err)
		part.Write(content)
	}
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/analyze", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "text/html")
	return req
}

func TestHealthCheck(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		s := newTestServer(t)
		s.api.On("Ping", mock.Anything).Return(nil).Once()
		s.svc.On("Ping", mock.Anything).Return(nil).Once()

		resp, body := s.do(t, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `{"status":"healthy"}`, body)
		assert.Empty(t, resp.Cookies(), "health routes do not start sessions")
	})

	t.Run("backend down", func(t *testing.T) {
		s := newTestServer(t)
		s.api.On("Ping", mock.Anything).Return(&apiclient.NetworkError{Op: "ping", Err: errors.New("connection refused")}).Once()

		resp, body := s.do(t, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		var res errorPayload
		require.NoError(t, json.Unmarshal([]byte(body), &res))
		assert.Equal(t, "SERVICE_UNAVAILABLE", res.Error.Code)
		assert.NotEmpty(t, res.RequestID)
		s.svc.AssertNotCalled(t, "Ping", mock.Anything)
	})

	t.Run("journal down", func(t *testing.T) {
		s := newTestServer(t)
		s.api.On("Ping", mock.Anything).Return(nil).Once()
		s.svc.On("Ping", mock.Anything).Return(errors.New("db error")).Once()

		resp, _ := s.do(t, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)

	resp, body := s.do(t, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "resumeview_test_total")
}

func TestListSubmissions(t *testing.T) {
	mockSvc := new(serviceMocks.MockSubmissionService)
	app := fiber.New()
	app.Get("/submissions", ListSubmissions(mockSvc))

	t.Run("success", func(t *testing.T) {
		rid := int64(7)
		expected := &service.SubmissionListResult{
			Items: []model.Submission{{ID: "a", Filename: "cv.pdf", Outcome: model.OutcomeSuccess, ResumeID: &rid}},
			Total: 1,
		}
		mockSvc.On("List", mock.Anything, 10, 0).Return(expected, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/submissions?limit=10&offset=0", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result service.SubmissionListResult
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Len(t, result.Items, 1)
		assert.Equal(t, 1, result.Total)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/submissions?limit=abc", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "INVALID_LIMIT", body.Error.Code)
	})

	t.Run("journal disabled", func(t *testing.T) {
		mockSvc.On("List", mock.Anything, 20, 0).Return(nil, service.ErrJournalDisabled).Once()

		req := httptest.NewRequest(http.MethodGet, "/submissions", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "JOURNAL_DISABLED", body.Error.Code)
	})

	t.Run("service error", func(t *testing.T) {
		mockSvc.On("List", mock.Anything, 20, 0).Return(nil, errors.New("db error")).Once()

		req := httptest.NewRequest(http.MethodGet, "/submissions", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestShowAnalyze(t *testing.T) {
	s := newTestServer(t)

	resp, body := s.do(t, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.Contains(t, body, "Upload a resume")
	assert.NotContains(t, body, "Extracted Data")
	require.Len(t, s.cookies, 1)
	assert.Equal(t, middleware.SessionCookie, s.cookies[0].Name)
}

func TestAnalyze(t *testing.T) {
	t.Run("no file", func(t *testing.T) {
		s := newTestServer(t)

		resp, body := s.do(t, multipartUpload(t, "", nil))

		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		assert.Contains(t, body, "Please choose a PDF file.")
		s.api.AssertNotCalled(t, "UploadResume", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		s.svc.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
	})

	t.Run("success", func(t *testing.T) {
		s := newTestServer(t)
		s.api.On("UploadResume", mock.Anything, "cv.pdf", mock.Anything, mock.Anything).Return(&model.UploadResult{
			ID:            7,
			Filename:      "cv.pdf",
			Name:          "Jane Doe",
			Email:         "jane@x.com",
			ExtractedData: json.RawMessage(`{"skills":["go","rust"]}`),
			LLMAnalysis:   json.RawMessage(`{}`),
		}, nil, []int{40, 100}).Once()
		s.svc.On("Record", mock.Anything, mock.Anything).Once()

		resp, body := s.do(t, multipartUpload(t, "cv.pdf", []byte("%PDF-1.4")))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, "Jane Doe")
		assert.Contains(t, body, "jane@x.com")
		assert.Contains(t, body, "Extracted Data")
		assert.Contains(t, body, "LLM Analysis")
		assert.Contains(t, body, "&#34;skills&#34;")
		s.api.AssertExpectations(t)
		s.svc.AssertExpectations(t)

		resp, body = s.do(t, httptest.NewRequest(http.MethodGet, "/analyze/progress", nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `{"phase":"success","progress":0,"error":""}`, body)

		_, body = s.do(t, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Contains(t, body, "Jane Doe", "the latest result stays on the analyze tab")
	})

	t.Run("backend failure", func(t *testing.T) {
		s := newTestServer(t)
		s.api.On("UploadResume", mock.Anything, "cv.pdf", mock.Anything, mock.Anything).
			Return(nil, &apiclient.ServerError{Status: http.StatusBadRequest, Detail: "Only PDF supported"}).Once()
		s.svc.On("Record", mock.Anything, mock.Anything).Once()

		resp, body := s.do(t, multipartUpload(t, "cv.pdf", []byte("not a pdf")))

		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
		assert.Contains(t, body, "Only PDF supported")
		assert.NotContains(t, body, "Extracted Data")

		_, body = s.do(t, httptest.NewRequest(http.MethodGet, "/analyze/progress", nil))
		assert.JSONEq(t, `{"phase":"failed","progress":0,"error":"Only PDF supported"}`, body)
	})

	t.Run("failure after success drops the previous result", func(t *testing.T) {
		s := newTestServer(t)
		s.api.On("UploadResume", mock.Anything, "cv.pdf", mock.Anything, mock.Anything).Return(&model.UploadResult{
			ID:            7,
			Filename:      "cv.pdf",
			Name:          "Jane Doe",
			ExtractedData: json.RawMessage(`{"skills":["go"]}`),
		}, nil).Once()
		s.api.On("UploadResume", mock.Anything, "next.pdf", mock.Anything, mock.Anything).
			Return(nil, &apiclient.NetworkError{Op: "upload", Err: errors.New("connection refused")}).Once()
		s.svc.On("Record", mock.Anything, mock.Anything).Twice()

		resp, body := s.do(t, multipartUpload(t, "cv.pdf", []byte("%PDF-1.4")))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Contains(t, body, "Jane Doe")

		resp, body = s.do(t, multipartUpload(t, "next.pdf", []byte("%PDF-1.4")))

		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
		assert.Contains(t, body, "connection refused")
		assert.NotContains(t, body, "Jane Doe")
		assert.NotContains(t, body, "Extracted Data")

		_, body = s.do(t, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.NotContains(t, body, "Jane Doe")
		s.api.AssertExpectations(t)
	})

	t.Run("concurrent submit is refused", func(t *testing.T) {
		s := newTestServer(t)
		started := make(chan struct{})
		release := make(chan struct{})
		s.api.On("UploadResume", mock.Anything, "first.pdf", mock.Anything, mock.Anything).
			Run(func(mock.Arguments) {
				close(started)
				<-release
			}).
			Return(&model.UploadResult{ID: 1, Filename: "first.pdf", Name: "Jane Doe"}, nil).Once()
		s.svc.On("Record", mock.Anything, mock.Anything).Once()

		// Establish the session so both uploads land on the same shell.
		s.do(t, httptest.NewRequest(http.MethodGet, "/", nil))
		require.NotEmpty(t, s.cookies)

		first := multipartUpload(t, "first.pdf", []byte("%PDF-1.4"))
		for _, c := range s.cookies {
			first.AddCookie(c)
		}
		firstStatus := make(chan int, 1)
		go func() {
			resp, err := s.app.Test(first, -1)
			if err != nil {
				firstStatus <- 0
				return
			}
			firstStatus <- resp.StatusCode
		}()
		<-started

		resp, body := s.do(t, multipartUpload(t, "second.pdf", []byte("%PDF-1.4")))

		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Contains(t, body, msgBusy)

		close(release)
		assert.Equal(t, http.StatusOK, <-firstStatus)

		_, body = s.do(t, httptest.NewRequest(http.MethodGet, "/analyze/progress", nil))
		assert.JSONEq(t, `{"phase":"success","progress":0,"error":""}`, body)
		s.api.AssertNotCalled(t, "UploadResume", mock.Anything, "second.pdf", mock.Anything, mock.Anything)
	})
}

func TestShowHistory(t *testing.T) {
	t.Run("rows", func(t *testing.T) {
		s := newTestServer(t)
		s.api.On("ListResumes", mock.Anything).Return([]model.ResumeSummary{
			{ID: 2, Filename: "b.pdf", Name: "Bob", Email: "b@x.com"},
			{ID: 1, Filename: "a.pdf", Name: "Ann"},
		}, nil).Once()

		resp, body := s.do(t, httptest.NewRequest(http.MethodGet, "/history", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, "b.pdf")
		assert.Contains(t, body, `href="/history/1"`)
		assert.NotContains(t, body, "Could not load")
	})

	t.Run("load error is shown", func(t *testing.T) {
		s := newTestServer(t)
		s.api.On("ListResumes", mock.Anything).Return(nil, &apiclient.NetworkError{Op: "list", Err: errors.New("connection refused")}).Once()

		resp, body := s.do(t, httptest.NewRequest(http.MethodGet, "/history", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, "Could not load the resume list: connection refused")
	})
}

func TestShowResume(t *testing.T) {
	detail := &model.ResumeDetail{
		ResumeSummary: model.ResumeSummary{ID: 7, Filename: "cv.pdf", Name: "Jane Doe", Email: "jane@x.com"},
		UploadedAt:    "2024-05-01T10:00:00",
		ExtractedData: json.RawMessage(`{"skills":["go"]}`),
		LLMAnalysis:   json.RawMessage(`{"resume_rating":8}`),
	}

	t.Run("overlay with archive link", func(t *testing.T) {
		s := newTestServer(t)
		s.api.On("ListResumes", mock.Anything).Return([]model.ResumeSummary{detail.ResumeSummary}, nil)
		s.api.On("GetResumeDetail", mock.Anything, int64(7)).Return(detail, nil).Once()
		s.svc.On("ArchiveURL", mock.Anything, int64(7)).Return("http://minio/resumes/7.pdf?sig=1", nil).Once()

		resp, body := s.do(t, httptest.NewRequest(http.MethodGet, "/history/7", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, `class="overlay"`)
		assert.Contains(t, body, "2024-05-01T10:00:00")
		assert.Contains(t, body, `action="/history/close"`)
		assert.Contains(t, body, "http://minio/resumes/7.pdf?sig=1")

		resp, _ = s.do(t, httptest.NewRequest(http.MethodPost, "/history/close", nil))
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "/history", resp.Header.Get("Location"))

		_, body = s.do(t, httptest.NewRequest(http.MethodGet, "/history", nil))
		assert.NotContains(t, body, `class="overlay"`)
	})

	t.Run("unknown id shows error and no overlay", func(t *testing.T) {
		s := newTestServer(t)
		s.api.On("ListResumes", mock.Anything).Return([]model.ResumeSummary{}, nil)
		s.api.On("GetResumeDetail", mock.Anything, int64(99)).
			Return(nil, &apiclient.ServerError{Status: http.StatusNotFound, Detail: "Resume not found"}).Once()

		resp, body := s.do(t, httptest.NewRequest(http.MethodGet, "/history/99", nil))

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Contains(t, body, "Resume not found")
		assert.NotContains(t, body, `class="overlay"`)
		s.svc.AssertNotCalled(t, "ArchiveURL", mock.Anything, mock.Anything)
	})

	t.Run("archive lookup failure still shows detail", func(t *testing.T) {
		s := newTestServer(t)
		s.api.On("ListResumes", mock.Anything).Return([]model.ResumeSummary{}, nil)
		s.api.On("GetResumeDetail", mock.Anything, int64(7)).Return(detail, nil).Once()
		s.svc.On("ArchiveURL", mock.Anything, int64(7)).Return("", errors.New("minio down")).Once()

		resp, body := s.do(t, httptest.NewRequest(http.MethodGet, "/history/7", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, `class="overlay"`)
		assert.NotContains(t, body, "Original PDF")
	})

	t.Run("invalid id", func(t *testing.T) {
		s := newTestServer(t)

		resp, body := s.do(t, httptest.NewRequest(http.MethodGet, "/history/abc", nil))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		require.NoError(t, json.Unmarshal([]byte(body), &res))
		assert.Equal(t, "INVALID_ID", res.Error.Code)

		req := httptest.NewRequest(http.MethodGet, "/history/abc", nil)
		req.Header.Set("Accept", "text/html")
		resp, body = s.do(t, req)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, body, "invalid id format")
		s.api.AssertNotCalled(t, "GetResumeDetail", mock.Anything, mock.Anything)
	})
}

func TestRouting(t *testing.T) {
	s := newTestServer(t)

	t.Run("not found route", func(t *testing.T) {
		resp, body := s.do(t, httptest.NewRequest(http.MethodGet, "/non-existent", nil))

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		var res errorPayload
		require.NoError(t, json.Unmarshal([]byte(body), &res))
		assert.Equal(t, "NOT_FOUND", res.Error.Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		resp, body := s.do(t, httptest.NewRequest(http.MethodPost, "/health", nil))

		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		var res errorPayload
		require.NoError(t, json.Unmarshal([]byte(body), &res))
		assert.Equal(t, "METHOD_NOT_ALLOWED", res.Error.Code)
	})

	t.Run("html error page", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/non-existent", nil)
		req.Header.Set("Accept", "text/html")
		resp, body := s.do(t, req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Contains(t, body, "resource not found")
	})
}
