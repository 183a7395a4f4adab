package session

import (
	"context"
	"errors"

	"talktrace/internal/analysis"
)

//go:generate mockgen -destination=../mocks/mock_analyzer.go -package=mocks talktrace/internal/session Analyzer

// Analyzer performs one analysis round trip. *analysis.Client implements it.
type Analyzer interface {
	Analyze(ctx context.Context, up analysis.Upload) (*analysis.Report, error)
}

// dispatch sends req in the background and posts the outcome back to the
// loop, where the fence decides whether it still applies. Superseded
// requests are left to finish; their answers are dropped.
func (s *Store) dispatch(req Request) {
	ctx := s.runCtx
	go func() {
		if s.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.timeout)
			defer cancel()
		}

		report, err := s.analyzer.Analyze(ctx, analysis.Upload{
			Filename: req.File.Name,
			Data:     req.File.Data,
			User:     string(req.Participant),
		})

		var ev Event
		switch {
		case err != nil:
			ev = RequestFailed{Request: req, Err: asTransportError(err)}
		case report == nil:
			ev = RequestFailed{Request: req, Err: &analysis.MalformedResponse{Err: errors.New("empty report")}}
		default:
			ev = RequestSucceeded{Request: req, Report: report}
		}
		s.post(func() { _ = s.apply(ev) })
	}()
}

// asTransportError classifies errors from analyzers that do not already use
// the analysis error types. Deadline and cancellation count as no response.
func asTransportError(err error) error {
	var (
		ne *analysis.NetworkError
		se *analysis.ServerError
		me *analysis.MalformedResponse
	)
	if errors.As(err, &ne) || errors.As(err, &se) || errors.As(err, &me) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &analysis.NetworkError{Err: err}
	}
	return err
}
