package backend

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
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tsawler/glimpse/model"
)

// DefaultBaseURL is used when neither WithBaseURL nor the GLIMPSE_API_URL
// environment variable is set.
const DefaultBaseURL = "http://localhost:8000/api/v1"

// EnvBaseURL names the environment variable holding the backend base URL.
const EnvBaseURL = "GLIMPSE_API_URL"

// uploadField is the multipart form field the backend reads the PDF from.
const uploadField = "pdf"

var (
	// ErrInvalidResponse is returned when the backend answers with a 2xx
	// status but the envelope is unsuccessful or carries no data.
	ErrInvalidResponse = errors.New("invalid response format from backend")

	// ErrNotPDF is returned by UploadFile for files without a PDF header.
	ErrNotPDF = errors.New("file is not a PDF")
)

// APIError is returned when the backend answers with a non-2xx status.
type APIError struct {
	Op         string // "upload", "ask", "document", "highlights"
	StatusCode int
	Status     string
	Message    string // error text from the response envelope, if any
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s failed: %s: %s", e.Op, e.Status, e.Message)
	}
	return fmt.Sprintf("%s failed: %s", e.Op, e.Status)
}

// Client talks to the document and question-answering backend.
// A Client is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     logrus.FieldLogger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets the backend base URL, e.g. "https://qa.example.com/api/v1".
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient sets the HTTP client used for requests. A nil client
// selects a default one.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc == nil {
			hc = &http.Client{}
		}
		c.httpClient = hc
	}
}

// WithTimeout sets a per-request timeout on a private copy of the HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		var hc http.Client
		if c.httpClient != nil {
			hc = *c.httpClient
		}
		hc.Timeout = d
		c.httpClient = &hc
	}
}

// WithLogger sets the logger. Requests are logged at Debug, failures at Warn.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// New creates a client. Options are applied in order.
func New(opts ...Option) *Client {
	base := os.Getenv(EnvBaseURL)
	if base == "" {
		base = DefaultBaseURL
	}

	c := &Client{
		baseURL:    strings.TrimRight(base, "/"),
		httpClient: &http.Client{},
		logger:     discardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend base URL the client sends requests to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// UploadPDF uploads a PDF read from r under the given file name and returns
// the processed document.
func (c *Client) UploadPDF(ctx context.Context, name string, r io.Reader) (*UploadResponse, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name=%q; filename=%q`, uploadField, filepath.Base(name)))
	header.Set("Content-Type", "application/pdf")
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("failed to create form part: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("failed to read PDF: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish form: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/documents/upload", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var resp UploadResponse
	if err := c.do(req, "upload", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UploadFile uploads the PDF at path. Files that do not start with a PDF
// header are rejected with ErrNotPDF before anything is sent.
func (c *Client) UploadFile(ctx context.Context, path string) (*UploadResponse, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	header := make([]byte, len(pdfMagic))
	if _, err := io.ReadFull(f, header); err != nil || !bytes.Equal(header, pdfMagic) {
		return nil, fmt.Errorf("%s: %w", path, ErrNotPDF)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind file: %w", err)
	}

	return c.UploadPDF(ctx, path, f)
}

var pdfMagic = []byte("%PDF-")

// AskQuestion asks a question about a document, optionally scoped to
// selected highlights.
func (c *Client) AskQuestion(ctx context.Context, ask AskRequest) (*AskResponse, error) {
	payload, err := json.Marshal(ask)
	if err != nil {
		return nil, fmt.Errorf("failed to encode question: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/questions/ask", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var resp AskResponse
	if err := c.do(req, "ask", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetDocument fetches a previously uploaded document.
func (c *Client) GetDocument(ctx context.Context, documentID string) (*UploadResponse, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/documents/"+url.PathEscape(documentID), nil)
	if err != nil {
		return nil, err
	}

	var resp UploadResponse
	if err := c.do(req, "document", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetHighlights fetches the highlights of a document.
func (c *Client) GetHighlights(ctx context.Context, documentID string) ([]model.Highlight, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/documents/"+url.PathEscape(documentID)+"/highlights", nil)
	if err != nil {
		return nil, err
	}

	var resp []model.Highlight
	if err := c.do(req, "highlights", &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// do sends req and decodes the data field of the response envelope into out.
func (c *Client) do(req *http.Request, op string, out any) error {
	log := c.logger.WithFields(logrus.Fields{
		"op":     op,
		"method": req.Method,
		"path":   req.URL.Path,
	})

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.WithError(err).Warn("backend request failed")
		return fmt.Errorf("%s failed: %w", op, err)
	}
	defer resp.Body.Close()

	log = log.WithFields(logrus.Fields{
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	})

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.WithError(err).Warn("failed to read backend response")
		return fmt.Errorf("%s failed: reading response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Message:    errorMessage(body),
		}
		log.Warn(apiErr.Error())
		return apiErr
	}

	log.Debug("backend request completed")
	if err := decodeEnvelope(body, out); err != nil {
		log.WithError(err).Warn("unexpected backend response")
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
