package services

import (
	"context"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// EvidenceService stores report evidence photos in Cloudinary and
// returns their URLs for attachment to the report document.
type EvidenceService struct {
	cld *cloudinary.Cloudinary
}

func NewEvidenceService(cloudName, apiKey, apiSecret string) (*EvidenceService, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}
	return &EvidenceService{cld: cld}, nil
}

// Upload stores one evidence file and returns its secure URL.
func (s *EvidenceService) Upload(ctx context.Context, r io.Reader) (string, error) {
	if s == nil || s.cld == nil {
		return "", fmt.Errorf("evidence storage not configured")
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read evidence file: %w", err)
	}

	result, err := s.cld.Upload.Upload(ctx, data, uploader.UploadParams{
		Folder:       "report-evidence",
		ResourceType: "auto",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload evidence: %w", err)
	}
	return result.SecureURL, nil
}
