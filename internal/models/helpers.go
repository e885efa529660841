package models

import (
	"fmt"
	"net/url"

	"github.com/google/uuid"
)

// ValidateURL validates a gallery URL per the scheme/host rules that
// GalleryConfig.Validate applies.
func ValidateURL(urlStr string) error {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("URL must use http or https")
	}
	if parsed.Host == "" {
		return fmt.Errorf("URL must include a host")
	}
	return nil
}

// GenerateID returns a new run/session identifier.
func GenerateID() string {
	return uuid.New().String()
}
