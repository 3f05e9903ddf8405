// Package backend is a client for the remote service that processes uploaded
// PDFs into highlights and answers questions about them.
//
// Every endpoint answers with an envelope:
//
//	{"success": true, "data": {...}}
//
// The client unwraps it and returns the data. Non-2xx statuses are reported
// as [*APIError]; a 2xx reply that is unsuccessful or empty is reported as
// [ErrInvalidResponse]. Requests are never retried.
//
// Basic usage:
//
//	c := backend.New(backend.WithBaseURL("http://localhost:8000/api/v1"))
//	doc, err := c.UploadFile(ctx, "report.pdf")
//	if err != nil {
//	    // handle error
//	}
//	ans, err := c.AskQuestion(ctx, backend.AskRequest{
//	    DocumentID: doc.DocumentID,
//	    Question:   "What is the conclusion?",
//	})
package backend
