package httpapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"talktrace/internal/projection"
	"talktrace/internal/session"
	"talktrace/internal/visuals"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// settleTimeout bounds ?wait=true requests.
const settleTimeout = 2 * time.Minute

// ParticipantRequest is the body of POST /api/participant.
type ParticipantRequest struct {
	Participant string `json:"participant" validate:"required,max=256"`
}

// StateResponse pairs the raw state with its projection.
type StateResponse struct {
	State session.State         `json:"state"`
	Chart projection.ChartModel `json:"chart"`
}

func errorJSON(c echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]string{"error": msg})
}

// storeError maps store failures onto HTTP statuses.
func storeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, session.ErrNoFile), errors.Is(err, session.ErrNoResult):
		return errorJSON(c, http.StatusConflict, err.Error())
	case errors.Is(err, session.ErrUnknownParticipant), errors.Is(err, session.ErrEmptyFileName):
		return errorJSON(c, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, session.ErrStopped):
		return errorJSON(c, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return errorJSON(c, http.StatusGatewayTimeout, err.Error())
	}
	log.Error().Err(err).Msg("Unexpected session error")
	return errorJSON(c, http.StatusInternalServerError, err.Error())
}

// respondState answers with the current state, or the settled one when ?wait=true.
func (s *Server) respondState(c echo.Context, status int) error {
	ctx := c.Request().Context()
	var (
		st  session.State
		err error
	)
	if wait, _ := strconv.ParseBool(c.QueryParam("wait")); wait {
		waitCtx, cancel := context.WithTimeout(ctx, settleTimeout)
		defer cancel()
		st, err = s.store.WaitSettled(waitCtx)
		status = http.StatusOK
	} else {
		st, err = s.store.Snapshot(ctx)
	}
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(status, StateResponse{State: st, Chart: projection.Project(st)})
}

// handleIndex serves the live HTML report.
// GET /
func (s *Server) handleIndex(c echo.Context) error {
	st, err := s.store.Snapshot(c.Request().Context())
	if err != nil {
		return storeError(c, err)
	}
	var buf bytes.Buffer
	if err := s.render(&buf, visuals.FormatHTML, projection.Project(st), visuals.Options{
		HTML: visuals.HTMLOptions{EventsURL: "/api/events", Sequence: st.LatestSequence},
	}); err != nil {
		return renderError(c, err)
	}
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}

// GET /health
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": s.version,
		"session": s.store.ID(),
	})
}

// handleSelectFile accepts a multipart transcript upload in field chatFile.
// POST /api/file
func (s *Server) handleSelectFile(c echo.Context) error {
	fh, err := c.FormFile("chatFile")
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "multipart field chatFile is required")
	}
	if err := session.CheckTranscriptName(fh.Filename); err != nil {
		return errorJSON(c, http.StatusUnsupportedMediaType, err.Error())
	}

	f, err := fh.Open()
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, fmt.Sprintf("failed to open upload: %v", err))
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, fmt.Sprintf("failed to read upload: %v", err))
	}
	if len(data) > maxUploadBytes {
		return errorJSON(c, http.StatusRequestEntityTooLarge, "chat file is too large")
	}

	log.Info().Str("file", fh.Filename).Int("bytes", len(data)).Msg("Chat file uploaded")
	if err := s.store.SelectFile(c.Request().Context(), session.ChatFile{Name: fh.Filename, Data: data}); err != nil {
		return storeError(c, err)
	}
	return s.respondState(c, http.StatusAccepted)
}

// POST /api/participant
func (s *Server) handleSelectParticipant(c echo.Context) error {
	var req ParticipantRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}
	if err := s.validate.Struct(req); err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}

	if err := s.store.SelectParticipant(c.Request().Context(), session.Participant(req.Participant)); err != nil {
		return storeError(c, err)
	}
	return s.respondState(c, http.StatusAccepted)
}

// GET /api/state
func (s *Server) handleState(c echo.Context) error {
	return s.respondState(c, http.StatusOK)
}

// GET /api/chart
func (s *Server) handleChart(c echo.Context) error {
	st, err := s.store.Snapshot(c.Request().Context())
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusOK, projection.Project(st))
}

// handleReport renders the current projection in ?format= (default html).
// GET /api/report
func (s *Server) handleReport(c echo.Context) error {
	format := visuals.FormatHTML
	if q := c.QueryParam("format"); q != "" {
		f, err := visuals.ParseFormat(q)
		if err != nil {
			return errorJSON(c, http.StatusBadRequest, err.Error())
		}
		format = f
	}

	st, err := s.store.Snapshot(c.Request().Context())
	if err != nil {
		return storeError(c, err)
	}

	contentType := map[visuals.Format]string{
		visuals.FormatTable:   echo.MIMETextPlainCharsetUTF8,
		visuals.FormatMermaid: "text/markdown; charset=UTF-8",
		visuals.FormatJSON:    echo.MIMEApplicationJSON,
		visuals.FormatHTML:    echo.MIMETextHTMLCharsetUTF8,
	}[format]
	var buf bytes.Buffer
	if err := s.render(&buf, format, projection.Project(st), visuals.Options{
		HTML: visuals.HTMLOptions{Sequence: st.LatestSequence},
	}); err != nil {
		return renderError(c, err)
	}
	return c.Blob(http.StatusOK, contentType, buf.Bytes())
}

func renderError(c echo.Context, err error) error {
	log.Error().Err(err).Str("uri", c.Request().RequestURI).Msg("Failed to render report")
	return errorJSON(c, http.StatusInternalServerError, "failed to render report")
}
