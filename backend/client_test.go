package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/tsawler/glimpse/model"
)

// newTestServer serves handler under the /api/v1 prefix and returns a client
// pointed at it.
func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	mux := http.NewServeMux()
	mux.Handle("/api/v1/", http.StripPrefix("/api/v1", handler))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return New(WithBaseURL(srv.URL + "/api/v1/"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

const uploadJSON = `{
	"success": true,
	"data": {
		"documentId": "doc-42",
		"name": "report.pdf",
		"url": "http://files/doc-42.pdf",
		"numPages": 2,
		"highlights": [
			{"id": "h1", "page": 1, "x": 10, "y": 20, "width": 30, "height": 40, "text": "alpha", "color": "#ff0000"}
		]
	}
}`

// ============================================================================
// Upload Tests
// ============================================================================

func TestUploadPDF(t *testing.T) {
	var gotName, gotContent, gotType string
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/documents/upload" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		file, header, err := r.FormFile("pdf")
		if err != nil {
			t.Errorf("FormFile(pdf) error = %v", err)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		gotName = header.Filename
		gotType = header.Header.Get("Content-Type")
		gotContent = string(data)
		io.WriteString(w, uploadJSON)
	})

	resp, err := c.UploadPDF(context.Background(), "/tmp/report.pdf", strings.NewReader("%PDF-1.7 body"))
	if err != nil {
		t.Fatalf("UploadPDF() error = %v", err)
	}

	if gotName != "report.pdf" {
		t.Errorf("uploaded filename = %q, want report.pdf", gotName)
	}
	if gotType != "application/pdf" {
		t.Errorf("part content type = %q, want application/pdf", gotType)
	}
	if gotContent != "%PDF-1.7 body" {
		t.Errorf("uploaded content = %q", gotContent)
	}

	want := &UploadResponse{
		DocumentID: "doc-42",
		Name:       "report.pdf",
		URL:        "http://files/doc-42.pdf",
		NumPages:   2,
		Highlights: []model.Highlight{
			{ID: "h1", Page: 1, X: 10, Y: 20, Width: 30, Height: 40, Text: "alpha", Color: "#ff0000"},
		},
	}
	if d := cmp.Diff(want, resp); d != "" {
		t.Errorf("UploadPDF() mismatch (-want +got):\n%s", d)
	}

	doc := resp.Document()
	if doc.ID != "doc-42" || doc.NumPages != 2 || len(doc.Highlights) != 1 {
		t.Errorf("Document() = %+v", doc)
	}
}

func TestUploadFileRejectsNonPDF(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for a non-PDF file")
	})

	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("just text"), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := c.UploadFile(context.Background(), path)
	if !errors.Is(err, ErrNotPDF) {
		t.Errorf("UploadFile() error = %v, want ErrNotPDF", err)
	}
}

func TestUploadFile(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		file, _, err := r.FormFile("pdf")
		if err != nil {
			t.Errorf("FormFile(pdf) error = %v", err)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if !strings.HasPrefix(string(data), "%PDF-") {
			t.Errorf("uploaded content lost its header: %q", data)
		}
		io.WriteString(w, uploadJSON)
	})

	path := filepath.Join(t.TempDir(), "report.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4\n%%EOF\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	resp, err := c.UploadFile(context.Background(), path)
	if err != nil {
		t.Fatalf("UploadFile() error = %v", err)
	}
	if resp.DocumentID != "doc-42" {
		t.Errorf("DocumentID = %q, want doc-42", resp.DocumentID)
	}
}

func TestUploadFailure(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "disk full"})
	})

	_, err := c.UploadPDF(context.Background(), "a.pdf", strings.NewReader("%PDF-"))

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("UploadPDF() error = %v, want *APIError", err)
	}
	if apiErr.Op != "upload" || apiErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("APIError = %+v", apiErr)
	}
	if apiErr.Message != "disk full" {
		t.Errorf("Message = %q, want disk full", apiErr.Message)
	}
	if !strings.Contains(apiErr.Error(), "upload failed") {
		t.Errorf("Error() = %q", apiErr.Error())
	}
}

// ============================================================================
// Question Tests
// ============================================================================

func TestAskQuestion(t *testing.T) {
	var got AskRequest
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/questions/ask" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data": map[string]any{
				"answer": "Forty-two.",
				"highlights": []map[string]any{
					{"id": "h9", "page": 2, "x": 1, "y": 2, "width": 3, "height": 4, "text": "the answer"},
				},
			},
		})
	})

	req := AskRequest{DocumentID: "doc-42", Question: "What is it?", HighlightIDs: []string{"h1"}}
	resp, err := c.AskQuestion(context.Background(), req)
	if err != nil {
		t.Fatalf("AskQuestion() error = %v", err)
	}

	if d := cmp.Diff(req, got); d != "" {
		t.Errorf("request mismatch (-want +got):\n%s", d)
	}
	if resp.Answer != "Forty-two." {
		t.Errorf("Answer = %q", resp.Answer)
	}
	if len(resp.Highlights) != 1 || resp.Highlights[0].ID != "h9" {
		t.Errorf("Highlights = %+v", resp.Highlights)
	}
}

func TestAskRequestOmitsEmptyHighlightIDs(t *testing.T) {
	data, err := json.Marshal(AskRequest{DocumentID: "d", Question: "q"})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "highlightIds") {
		t.Errorf("Marshal() = %s, want highlightIds omitted", data)
	}
}

// ============================================================================
// Document Tests
// ============================================================================

func TestGetDocument(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/documents/doc-42" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		io.WriteString(w, uploadJSON)
	})

	resp, err := c.GetDocument(context.Background(), "doc-42")
	if err != nil {
		t.Fatalf("GetDocument() error = %v", err)
	}
	if resp.Name != "report.pdf" {
		t.Errorf("Name = %q", resp.Name)
	}
}

func TestGetHighlights(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/documents/doc-42/highlights" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		io.WriteString(w, `{"success":true,"data":[{"id":"a","page":1,"x":0,"y":0,"width":1,"height":1,"text":"t"}]}`)
	})

	hs, err := c.GetHighlights(context.Background(), "doc-42")
	if err != nil {
		t.Fatalf("GetHighlights() error = %v", err)
	}
	if len(hs) != 1 || hs[0].ID != "a" {
		t.Errorf("GetHighlights() = %+v", hs)
	}
}

func TestInvalidEnvelope(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not successful", `{"success":false,"data":{"answer":"x"}}`},
		{"missing data", `{"success":true}`},
		{"null data", `{"success":true,"data":null}`},
		{"not json", `<html>oops</html>`},
		{"wrong data shape", `{"success":true,"data":"text"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, tt.body)
			})

			_, err := c.AskQuestion(context.Background(), AskRequest{DocumentID: "d", Question: "q"})
			if !errors.Is(err, ErrInvalidResponse) {
				t.Errorf("AskQuestion() error = %v, want ErrInvalidResponse", err)
			}
		})
	}
}

func TestContextCancel(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.GetDocument(ctx, "doc-42")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("GetDocument() error = %v, want context.DeadlineExceeded", err)
	}
}

// ============================================================================
// Configuration Tests
// ============================================================================

func TestBaseURLFromEnvironment(t *testing.T) {
	t.Setenv(EnvBaseURL, "https://qa.example.com/api/v2/")
	if got := New().BaseURL(); got != "https://qa.example.com/api/v2" {
		t.Errorf("BaseURL() = %q", got)
	}

	t.Setenv(EnvBaseURL, "")
	if got := New().BaseURL(); got != DefaultBaseURL {
		t.Errorf("BaseURL() = %q, want %q", got, DefaultBaseURL)
	}

	if got := New(WithBaseURL("http://other/")).BaseURL(); got != "http://other" {
		t.Errorf("WithBaseURL BaseURL() = %q", got)
	}
}

func TestWithTimeoutDoesNotMutateSharedClient(t *testing.T) {
	shared := &http.Client{}
	c := New(WithHTTPClient(shared), WithTimeout(time.Second))
	if shared.Timeout != 0 {
		t.Error("WithTimeout modified the caller's http.Client")
	}
	if c.httpClient.Timeout != time.Second {
		t.Errorf("Timeout = %v, want 1s", c.httpClient.Timeout)
	}
}

func TestNilHTTPClient(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
		want time.Duration
	}{
		{"nil client", []Option{WithHTTPClient(nil)}, 0},
		{"nil client with timeout", []Option{WithHTTPClient(nil), WithTimeout(5 * time.Second)}, 5 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(tt.opts...)
			if c.httpClient == nil {
				t.Fatal("httpClient is nil")
			}
			if c.httpClient.Timeout != tt.want {
				t.Errorf("Timeout = %v, want %v", c.httpClient.Timeout, tt.want)
			}
		})
	}
}
