// Package media uploads gallery photos to Cloudinary.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"aguin/internal/log"
)

// ErrUploadsDisabled is returned by Disabled.Upload.
var ErrUploadsDisabled = errors.New("photo uploads are not configured")

// ErrUnsupportedFormat is returned for files that are not images.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// AllowedFormats lists accepted file extensions, without the dot.
var AllowedFormats = []string{"jpg", "jpeg", "png", "webp"}

// Uploader stores an image and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, filename string, r io.Reader) (string, error)
}

// Config holds Cloudinary credentials.
type Config struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

func (c Config) Validate() error {
	if c.CloudName == "" {
		return fmt.Errorf("cloudinary cloud name is required")
	}
	if c.APIKey == "" {
		return fmt.Errorf("cloudinary API key is required")
	}
	if c.APISecret == "" {
		return fmt.Errorf("cloudinary API secret is required")
	}
	return nil
}

// Cloudinary uploads images with unique file names into one folder.
type Cloudinary struct {
	cld    *cloudinary.Cloudinary
	folder string
	logger *log.Logger
}

func NewCloudinary(cfg Config, logger *log.Logger) (*Cloudinary, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid cloudinary config: %w", err)
	}
	if logger == nil {
		logger = log.Discard()
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("initialize cloudinary: %w", err)
	}
	cld.Config.URL.Secure = true

	return &Cloudinary{
		cld:    cld,
		folder: strings.Trim(cfg.Folder, "/"),
		logger: logger.WithComponent(log.ComponentMedia),
	}, nil
}

// CheckFormat rejects filenames whose extension is not in AllowedFormats.
func CheckFormat(filename string) error {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
	for _, f := range AllowedFormats {
		if ext == f {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, filename)
}

func (c *Cloudinary) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	if err := CheckFormat(filename); err != nil {
		return "", err
	}

	params := uploader.UploadParams{
		Folder:         c.folder,
		UniqueFilename: api.Bool(true),
		Overwrite:      api.Bool(false),
		ResourceType:   "image",
		AllowedFormats: AllowedFormats,
		Tags:           api.CldAPIArray{"galeria"},
	}

	result, err := c.cld.Upload.Upload(ctx, r, params)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", filename, err)
	}
	if result == nil || result.SecureURL == "" {
		msg := "empty response"
		if result != nil && result.Error.Message != "" {
			msg = result.Error.Message
		}
		return "", fmt.Errorf("upload %s: %s", filename, msg)
	}

	c.logger.InfoContext(ctx, "Uploaded gallery photo",
		"public_id", result.PublicID,
		"bytes", result.Bytes)
	return result.SecureURL, nil
}

// Disabled is the Uploader used when Cloudinary is not configured.
type Disabled struct{}

func (Disabled) Upload(context.Context, string, io.Reader) (string, error) {
	return "", ErrUploadsDisabled
}
