package media

import (
	"context"
	"fmt"
	"mime"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	pkgerrors "github.com/ecomjrm/ecomjrm-backend/pkg/errors"
)

// Product imagery only; anything else is rejected before signing.
var allowedImageMimeTypes = []string{"image/png", "image/jpeg", "image/webp", "image/gif"}

type urlSigner interface {
	SignedURL(bucket, object, contentType string, expires time.Duration) (string, error)
	SignedReadURL(bucket, object string, expires time.Duration) (string, error)
}

// PresignInput models the payload required to request an upload URL.
type PresignInput struct {
	FileName  string `json:"file_name" validate:"required"`
	MimeType  string `json:"mime_type" validate:"required"`
	SizeBytes int64  `json:"size_bytes" validate:"required,gt=0"`
}

// PresignOutput contains the signed URLs returned to the admin client.
type PresignOutput struct {
	ObjectKey    string    `json:"object_key"`
	SignedPutURL string    `json:"signed_put_url"`
	SignedGetURL string    `json:"signed_get_url"`
	ContentType  string    `json:"content_type"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Service exposes presigned upload semantics for product imagery.
type Service interface {
	PresignUpload(ctx context.Context, actorUserID uuid.UUID, input PresignInput) (*PresignOutput, error)
}

type service struct {
	signer      urlSigner
	bucket      string
	uploadTTL   time.Duration
	downloadTTL time.Duration
	maxBytes    int64
	now         func() time.Time
}

// NewService constructs a media service backed by the provided GCS signer.
func NewService(signer urlSigner, bucket string, uploadTTL, downloadTTL time.Duration, maxUploadMB int) (Service, error) {
	if signer == nil {
		return nil, fmt.Errorf("gcs signer required")
	}
	if bucket == "" {
		return nil, fmt.Errorf("gcs bucket required")
	}
	if uploadTTL <= 0 || downloadTTL <= 0 {
		return nil, fmt.Errorf("signed url expiries must be positive")
	}
	if maxUploadMB <= 0 {
		return nil, fmt.Errorf("max upload size must be positive")
	}
	return &service{
		signer:      signer,
		bucket:      bucket,
		uploadTTL:   uploadTTL,
		downloadTTL: downloadTTL,
		maxBytes:    int64(maxUploadMB) * 1024 * 1024,
		now:         time.Now,
	}, nil
}

func (s *service) PresignUpload(ctx context.Context, actorUserID uuid.UUID, input PresignInput) (*PresignOutput, error) {
	if actorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user identity missing")
	}
	fileName := strings.TrimSpace(input.FileName)
	if fileName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file_name is required")
	}
	if input.SizeBytes <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "size_bytes must be positive")
	}
	if input.SizeBytes > s.maxBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("size_bytes must be at most %d bytes", s.maxBytes))
	}

	mimeType, err := sniffMimeType(input.MimeType)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse mime type")
	}
	if !isAllowedMime(mimeType) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "mime_type must be a product image type")
	}

	objectKey := buildObjectKey(uuid.New(), fileName)
	putURL, err := s.signer.SignedURL(s.bucket, objectKey, mimeType, s.uploadTTL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sign upload url")
	}
	getURL, err := s.signer.SignedReadURL(s.bucket, objectKey, s.downloadTTL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sign download url")
	}

	return &PresignOutput{
		ObjectKey:    objectKey,
		SignedPutURL: putURL,
		SignedGetURL: getURL,
		ContentType:  mimeType,
		ExpiresAt:    s.now().Add(s.uploadTTL),
	}, nil
}

func sniffMimeType(value string) (string, error) {
	clean := strings.TrimSpace(value)
	if clean == "" {
		return "", fmt.Errorf("mime type required")
	}
	mediaType, _, err := mime.ParseMediaType(clean)
	if err != nil {
		return "", fmt.Errorf("mime type invalid: %w", err)
	}
	return strings.ToLower(mediaType), nil
}

func isAllowedMime(mimeType string) bool {
	for _, candidate := range allowedImageMimeTypes {
		if candidate == mimeType {
			return true
		}
	}
	return false
}

func buildObjectKey(id uuid.UUID, fileName string) string {
	cleanName := sanitizeFileName(fileName)
	if cleanName == "" {
		cleanName = id.String()
	}
	return fmt.Sprintf("products/%s/%s", id.String(), cleanName)
}

func sanitizeFileName(name string) string {
	clean := path.Base(strings.TrimSpace(name))
	var b strings.Builder
	b.Grow(len(clean))
	for _, r := range clean {
		switch {
		case r == '/' || r == '\\' || unicode.IsControl(r):
			continue
		case unicode.IsSpace(r):
			b.WriteRune('-')
		default:
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "-_.")
}
