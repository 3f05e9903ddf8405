//go:build !ocr

// Package ocr reads the text under a highlight from a rendered page.
//
// This is the stub used when the "ocr" build tag is not set; every
// recognition call returns ErrOCRNotEnabled. Rebuild with
//
//	go build -tags ocr
//
// to link Tesseract.
package ocr

import (
	"errors"
	"image"

	"github.com/tsawler/glimpse/geometry"
)

// ErrOCRNotEnabled is returned when OCR support was not compiled in.
var ErrOCRNotEnabled = errors.New("OCR support not enabled; rebuild with -tags ocr")

// PageSegMode mirrors the Tesseract page segmentation modes.
type PageSegMode int

// Page segmentation modes, numbered as in Tesseract.
const (
	PSM_AUTO         PageSegMode = 3
	PSM_SINGLE_BLOCK PageSegMode = 6
	PSM_SINGLE_LINE  PageSegMode = 7
	PSM_SINGLE_WORD  PageSegMode = 8
	PSM_SPARSE_TEXT  PageSegMode = 11
)

// Client is a stub that fails every operation.
type Client struct{}

// New returns ErrOCRNotEnabled.
func New() (*Client, error) {
	return nil, ErrOCRNotEnabled
}

// Close is a no-op. It is safe to call on a nil client.
func (c *Client) Close() error {
	return nil
}

// RecognizeImage returns ErrOCRNotEnabled.
func (c *Client) RecognizeImage(imageData []byte) (string, error) {
	return "", ErrOCRNotEnabled
}

// RecognizeRegion returns ErrOCRNotEnabled.
func (c *Client) RecognizeRegion(img image.Image, region geometry.Rect) (string, error) {
	return "", ErrOCRNotEnabled
}

// SetLanguage returns ErrOCRNotEnabled.
func (c *Client) SetLanguage(lang string) error {
	return ErrOCRNotEnabled
}

// SetPageSegMode returns ErrOCRNotEnabled.
func (c *Client) SetPageSegMode(mode PageSegMode) error {
	return ErrOCRNotEnabled
}
