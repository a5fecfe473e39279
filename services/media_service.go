package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"handyconnect-server/config"
	"handyconnect-server/logger"
)

// MaxImageSize bounds uploaded worker photos.
const MaxImageSize = 5 * 1024 * 1024

// ErrUploadsDisabled is returned when no image host is configured.
var ErrUploadsDisabled = errors.New("image uploads are not configured")

// ImageFile is one uploaded image awaiting storage.
type ImageFile struct {
	Filename string
	Size     int64
	Content  io.Reader
}

// Validate checks size and extension.
func (f ImageFile) Validate() error {
	if f.Content == nil || f.Size <= 0 {
		return errors.New("file is empty")
	}
	if f.Size > MaxImageSize {
		return fmt.Errorf("file exceeds %d MB", MaxImageSize/(1024*1024))
	}
	switch strings.ToLower(filepath.Ext(f.Filename)) {
	case ".jpg", ".jpeg", ".png", ".webp":
		return nil
	default:
		return errors.New("only jpg, jpeg, png and webp images are allowed")
	}
}

// ImageUploader stores an image and returns its public URL.
type ImageUploader interface {
	Upload(ctx context.Context, file ImageFile, folder string) (string, error)
}

// CloudinaryUploader stores images on Cloudinary.
type CloudinaryUploader struct {
	cld    *cloudinary.Cloudinary
	folder string
}

// NewCloudinaryUploader returns nil with no error when credentials are absent,
// leaving uploads disabled.
func NewCloudinaryUploader(cfg config.CloudinaryConfig) (*CloudinaryUploader, error) {
	if !cfg.Enabled() {
		logger.Warn("⚠️  Cloudinary not configured, worker photo uploads disabled")
		return nil, nil
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}
	cld.Config.URL.Secure = true

	logger.Info("🔧 Cloudinary configured", zap.String("cloud_name", cfg.CloudName), zap.String("folder", cfg.Folder))
	return &CloudinaryUploader{cld: cld, folder: cfg.Folder}, nil
}

func (u *CloudinaryUploader) Upload(ctx context.Context, file ImageFile, folder string) (string, error) {
	if u == nil {
		return "", ErrUploadsDisabled
	}

	base := strings.TrimSuffix(filepath.Base(file.Filename), filepath.Ext(file.Filename))
	overwrite := false
	unique := true

	res, err := u.cld.Upload.Upload(ctx, file.Content, uploader.UploadParams{
		Folder:         strings.Trim(u.folder+"/"+folder, "/"),
		PublicID:       base + "_" + uuid.NewString()[:8],
		Overwrite:      &overwrite,
		UniqueFilename: &unique,
		ResourceType:   "image",
	})
	if err != nil {
		return "", err
	}
	if res.Error.Message != "" {
		return "", errors.New(res.Error.Message)
	}

	logger.Info("📸 Image uploaded", zap.String("url", res.SecureURL))
	return res.SecureURL, nil
}
