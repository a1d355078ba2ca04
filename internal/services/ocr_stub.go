//go:build windows || !cgo

package services

import (
	"errors"
)

// OCRService extracts text from receipt images (stub for Windows)
type OCRService struct{}

// OCRResult contains the OCR processing result
type OCRResult struct {
	Text       string
	Confidence int
}

// NewOCRService creates a new OCR service (not available on Windows)
func NewOCRService() (*OCRService, error) {
	return nil, errors.New("OCR service is not available on Windows - run in Docker container")
}

// ProcessImage extracts text from an in-memory image
func (s *OCRService) ProcessImage(imageBytes []byte) (*OCRResult, error) {
	return nil, errors.New("OCR service is not available on Windows")
}

// ProcessImageFromPath extracts text from an image on disk
func (s *OCRService) ProcessImageFromPath(imagePath string) (*OCRResult, error) {
	return nil, errors.New("OCR service is not available on Windows")
}

// Close releases OCR resources
func (s *OCRService) Close() error {
	return nil
}
