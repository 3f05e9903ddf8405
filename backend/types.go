package backend

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tsawler/glimpse/model"
)

// UploadResponse is the processed document returned by upload and by
// document lookups.
type UploadResponse struct {
	DocumentID string            `json:"documentId"`
	Name       string            `json:"name"`
	URL        string            `json:"url"`
	NumPages   int               `json:"numPages"`
	Highlights []model.Highlight `json:"highlights"`
}

// Document converts the response into a model.Document.
func (r *UploadResponse) Document() *model.Document {
	return &model.Document{
		ID:         r.DocumentID,
		Name:       r.Name,
		URL:        r.URL,
		NumPages:   r.NumPages,
		Highlights: append([]model.Highlight(nil), r.Highlights...),
	}
}

// AskRequest is a question about a document. HighlightIDs scopes the
// question to selected highlights.
type AskRequest struct {
	DocumentID   string   `json:"documentId"`
	Question     string   `json:"question"`
	HighlightIDs []string `json:"highlightIds,omitempty"`
}

// AskResponse is the backend's answer.
type AskResponse struct {
	Answer     string            `json:"answer"`
	Highlights []model.Highlight `json:"highlights,omitempty"`
}

// envelope wraps every backend response.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
}

// decodeEnvelope unwraps body and decodes its data field into out.
func decodeEnvelope(body []byte, out any) error {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	data := bytes.TrimSpace(env.Data)
	if !env.Success || len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return ErrInvalidResponse
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}

// errorMessage extracts the error text of a failed response, if the body is
// an envelope that carries one.
func errorMessage(body []byte) string {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return ""
	}
	if env.Error != "" {
		return env.Error
	}
	return env.Message
}
