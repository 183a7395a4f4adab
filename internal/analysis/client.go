package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
)

// maxBodyBytes bounds a response body; word cloud data URIs are the largest field.
const maxBodyBytes = 32 << 20

// Config holds the connection settings for the analysis service.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Upload is one analysis request: the transcript and the participant filter.
type Upload struct {
	Filename string
	Data     []byte
	User     string
}

// Client talks to the remote analysis service.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient creates a client for the service at cfg.BaseURL.
func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Analyze posts the transcript to /analyze and returns the validated report.
// Errors are *NetworkError, *ServerError or *MalformedResponse.
func (c *Client) Analyze(ctx context.Context, up Upload) (*Report, error) {
	body, contentType, err := encodeUpload(up)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}

	analyzeURL := strings.TrimSuffix(c.cfg.BaseURL, "/") + "/analyze"
	log.Debug().Str("url", analyzeURL).Str("file", up.Filename).Str("participant", up.User).Msg("Requesting chat analysis")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, analyzeURL, body)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &NetworkError{Err: fmt.Errorf("reading response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &ServerError{Status: resp.StatusCode, Message: errorField(raw)}
		log.Debug().Int("status", resp.StatusCode).Str("message", se.Message).Msg("Analysis service rejected request")
		return nil, se
	}

	report, err := decodeReport(raw)
	if err != nil {
		return nil, &MalformedResponse{Err: err}
	}
	if !report.HasParticipant(up.User) {
		return nil, &MalformedResponse{Err: fmt.Errorf("participant %q missing from user_list", up.User)}
	}
	return report, nil
}

// decodeReport validates the body against ReportSchema before binding it.
func decodeReport(raw []byte) (*Report, error) {
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("decoding body: %w", err)
	}
	if err := validateReport(generic); err != nil {
		return nil, err
	}

	var report Report
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil, fmt.Errorf("binding report: %w", err)
	}
	report.normalize()
	return &report, nil
}

// errorField extracts {"error": "..."} from a failure body, or "".
func errorField(raw []byte) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	return strings.TrimSpace(body.Error)
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func encodeUpload(up Upload) (io.Reader, string, error) {
	if up.Filename == "" {
		return nil, "", errors.New("upload has no file name")
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="chatFile"; filename="%s"`, quoteEscaper.Replace(up.Filename)))
	h.Set("Content-Type", mimetype.Detect(up.Data).String())
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(up.Data); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("user", up.User); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
