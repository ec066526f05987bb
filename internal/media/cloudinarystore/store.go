// Package cloudinarystore stores attachment blobs on Cloudinary.
package cloudinarystore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"Inkwell/internal/core/media"
)

// destroyNotFound is the result Cloudinary reports for an unknown public id
const destroyNotFound = "not found"

// resourceTypes are the asset types an "auto" upload can produce.
// Destroy has to name the right one; the API defaults to image.
var resourceTypes = []string{"image", "video", "raw"}

// uploadAPI is the subset of the Cloudinary upload API the store uses
type uploadAPI interface {
	Upload(ctx context.Context, file interface{}, uploadParams uploader.UploadParams) (*uploader.UploadResult, error)
	Destroy(ctx context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error)
}

// Config holds Cloudinary credentials
type Config struct {
	CloudName string
	APIKey    string
	APISecret string
}

// Store implements media.Store on Cloudinary
type Store struct {
	api uploadAPI
}

// NewStore creates a Cloudinary-backed media store
func NewStore(cfg Config) (*Store, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, errors.New("cloudinary: cloud name, api key and api secret are required")
	}
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary: failed to create client: %w", err)
	}
	return &Store{api: &cld.Upload}, nil
}

// Upload streams data to Cloudinary with automatic resource type detection
func (s *Store) Upload(ctx context.Context, data []byte) (*media.Locator, error) {
	result, err := s.api.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		ResourceType: "auto",
	})
	if err != nil {
		return nil, &media.UploadError{Err: err}
	}
	if result == nil {
		return nil, &media.UploadError{Err: errors.New("cloudinary returned no result")}
	}
	if result.Error.Message != "" {
		return nil, &media.UploadError{Err: errors.New(result.Error.Message)}
	}
	if result.SecureURL == "" || result.PublicID == "" {
		return nil, &media.UploadError{Err: errors.New("cloudinary returned an incomplete locator")}
	}

	resourceType := result.ResourceType
	if resourceType == "" {
		resourceType = "image"
	}
	return &media.Locator{URL: result.SecureURL, PublicID: resourceType + "/" + result.PublicID}, nil
}

// splitPublicID separates the resource type stored in front of the Cloudinary id.
// Ids without a known prefix (derived from a URL) return no type.
func splitPublicID(publicID string) (resourceType, id string) {
	for _, rt := range resourceTypes {
		if rest, ok := strings.CutPrefix(publicID, rt+"/"); ok && rest != "" {
			return rt, rest
		}
	}
	return "", publicID
}

// Delete destroys the asset. An asset Cloudinary does not know counts as deleted.
// When the resource type is unknown every type is tried until one reports ok.
func (s *Store) Delete(ctx context.Context, publicID string) error {
	resourceType, id := splitPublicID(publicID)
	candidates := resourceTypes
	if resourceType != "" {
		candidates = []string{resourceType}
	}

	for _, rt := range candidates {
		found, err := s.destroy(ctx, rt, id)
		if err != nil {
			return &media.DeleteError{PublicID: publicID, Err: err}
		}
		if found {
			return nil
		}
	}
	return nil
}

// destroy reports whether Cloudinary held an asset of resourceType under id
func (s *Store) destroy(ctx context.Context, resourceType, id string) (bool, error) {
	result, err := s.api.Destroy(ctx, uploader.DestroyParams{PublicID: id, ResourceType: resourceType})
	if err != nil {
		return false, err
	}
	if result == nil {
		return false, errors.New("cloudinary returned no result")
	}
	if result.Error.Message != "" {
		return false, errors.New(result.Error.Message)
	}

	switch result.Result {
	case "ok":
		return true, nil
	case destroyNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("unexpected destroy result %q for %s asset", result.Result, resourceType)
	}
}
