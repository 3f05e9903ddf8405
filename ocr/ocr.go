//go:build ocr

// Package ocr reads the text under a highlight from a rendered page.
//
// This is the Tesseract implementation, built with the "ocr" tag. Tesseract
// must be installed on the system:
//
//	apt-get install tesseract-ocr libtesseract-dev
package ocr

import (
	"fmt"
	"image"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/tsawler/glimpse/geometry"
)

// PageSegMode controls how Tesseract analyses the layout of a crop.
type PageSegMode = gosseract.PageSegMode

// Page segmentation modes commonly used for highlight regions.
const (
	PSM_AUTO         = gosseract.PSM_AUTO
	PSM_SINGLE_BLOCK = gosseract.PSM_SINGLE_BLOCK
	PSM_SINGLE_LINE  = gosseract.PSM_SINGLE_LINE
	PSM_SINGLE_WORD  = gosseract.PSM_SINGLE_WORD
	PSM_SPARSE_TEXT  = gosseract.PSM_SPARSE_TEXT
)

// Client wraps a Tesseract instance. It is not safe for concurrent use.
type Client struct {
	client *gosseract.Client
}

// New creates a client. Close it to release the Tesseract instance.
func New() (*Client, error) {
	return &Client{client: gosseract.NewClient()}, nil
}

// Close releases OCR resources.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// RecognizeImage runs OCR on encoded image data (PNG, JPEG, TIFF).
func (c *Client) RecognizeImage(imageData []byte) (string, error) {
	if err := c.client.SetImageFromBytes(imageData); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := c.client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}

	return strings.TrimSpace(text), nil
}

// RecognizeRegion runs OCR on the part of img covered by region, which is in
// the image's pixel space. Pair it with a raster from render.RenderFit and a
// highlight's display rectangle.
func (c *Client) RecognizeRegion(img image.Image, region geometry.Rect) (string, error) {
	data, err := encodeRegion(img, region)
	if err != nil {
		return "", err
	}
	return c.RecognizeImage(data)
}

// SetLanguage sets the recognition language(s), "+" separated ("eng+deu").
func (c *Client) SetLanguage(lang string) error {
	return c.client.SetLanguage(lang)
}

// SetPageSegMode sets the page segmentation mode.
func (c *Client) SetPageSegMode(mode PageSegMode) error {
	return c.client.SetPageSegMode(mode)
}
