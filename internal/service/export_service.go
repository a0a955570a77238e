package service

import (
	"context"
	"fmt"
	"time"

	"github.com/vastralabs/photoshoot/internal/models"
	"github.com/vastralabs/photoshoot/internal/transform"
)

// ExportProfile is a named, fixed set of resize/encode parameters for a
// target platform. The "original" profile takes its dimensions from the
// caller.
type ExportProfile struct {
	Width    int
	Height   int
	Fit      transform.FitPolicy
	Encoding transform.Encoding
	Quality  int
}

var exportProfiles = map[string]ExportProfile{
	"amazon":    {Width: 2000, Height: 2000, Fit: transform.FitCover, Encoding: transform.EncodingJPEG, Quality: 95},
	"instagram": {Width: 1080, Height: 1080, Fit: transform.FitCover, Encoding: transform.EncodingJPEG, Quality: 90},
	"meesho":    {Width: 1024, Height: 1024, Fit: transform.FitCover, Encoding: transform.EncodingJPEG, Quality: 85},
	"original":  {Fit: transform.FitCover, Encoding: transform.EncodingPNG},
}

// ExportService maps a generated image plus a profile name onto the image
// transform service. Stateless; no ledger interaction.
type ExportService struct {
	images ImageStore
}

type ExportResult struct {
	Data        []byte
	Filename    string
	ContentType string
	Width       int
	Height      int
}

func NewExportService(images ImageStore) *ExportService {
	return &ExportService{images: images}
}

// Export fetches the source image and transforms it with the profile's
// fixed parameters. width/height are honored only by the "original"
// profile.
func (s *ExportService) Export(ctx context.Context, imageRef, profileName string, width, height int) (*ExportResult, error) {
	profile, ok := exportProfiles[profileName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrUnknownProfile, profileName)
	}
	if profile.Width == 0 {
		if width <= 0 || height <= 0 {
			return nil, fmt.Errorf("profile %s requires explicit dimensions", profileName)
		}
		profile.Width, profile.Height = width, height
	}

	src, err := s.images.Fetch(ctx, imageRef)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrSourceUnavailable, err)
	}

	out, err := transform.Resize(src, profile.Width, profile.Height, profile.Fit, profile.Encoding, profile.Quality)
	if err != nil {
		return nil, fmt.Errorf("transform image: %w", err)
	}

	ext, contentType := ".jpg", "image/jpeg"
	if profile.Encoding == transform.EncodingPNG {
		ext, contentType = ".png", "image/png"
	}

	return &ExportResult{
		Data:        out,
		Filename:    fmt.Sprintf("%s-%d%s", profileName, time.Now().UnixMilli(), ext),
		ContentType: contentType,
		Width:       profile.Width,
		Height:      profile.Height,
	}, nil
}

// Profiles lists the available export profile names.
func Profiles() []string {
	names := make([]string, 0, len(exportProfiles))
	for name := range exportProfiles {
		names = append(names, name)
	}
	return names
}
