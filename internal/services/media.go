package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const inlineImagePrefix = "data:image/"

// UploadedImage is what an image host hands back after an upload.
type UploadedImage struct {
	URL    string `json:"url"`
	FileID string `json:"fileId"`
}

// ImageStore is the image hosting boundary. Implementations must report
// every failure; callers wrap them as upload errors.
type ImageStore interface {
	Upload(ctx context.Context, data []byte, name, folder string) (UploadedImage, error)
	Delete(ctx context.Context, fileID string) error
}

func IsInlineImage(value string) bool {
	return strings.HasPrefix(strings.TrimSpace(value), inlineImagePrefix)
}

// DecodeInlineImage turns a data:image/...;base64, payload into raw bytes.
func DecodeInlineImage(value string) ([]byte, error) {
	value = strings.TrimSpace(value)
	if !strings.HasPrefix(value, inlineImagePrefix) {
		return nil, ErrBadRequest("Image payload must be a data URI")
	}
	header, payload, ok := strings.Cut(value, ",")
	if !ok || !strings.HasSuffix(header, ";base64") {
		return nil, ErrBadRequest("Image payload must be base64 encoded")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, ErrBadRequest("Image payload is not valid base64")
	}
	if len(data) == 0 {
		return nil, ErrBadRequest("Image payload is empty")
	}
	return data, nil
}

// ImageProcessor checks uploads are images and caps their width.
type ImageProcessor struct {
	MaxWidth int
}

type PreparedImage struct {
	Data        []byte
	ContentType string
	Ext         string
}

var imageFormats = map[string]struct {
	ext    string
	format imaging.Format
}{
	"image/jpeg": {".jpg", imaging.JPEG},
	"image/png":  {".png", imaging.PNG},
	"image/gif":  {".gif", imaging.GIF},
}

func (p ImageProcessor) Prepare(data []byte) (PreparedImage, error) {
	contentType := http.DetectContentType(data)
	if contentType == "image/webp" {
		return PreparedImage{Data: data, ContentType: contentType, Ext: ".webp"}, nil
	}
	format, ok := imageFormats[contentType]
	if !ok {
		return PreparedImage{}, ErrBadRequest("Unsupported image type. Use JPEG, PNG, GIF or WebP")
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return PreparedImage{}, ErrBadRequest("Image could not be decoded")
	}
	if p.MaxWidth <= 0 || img.Bounds().Dx() <= p.MaxWidth {
		return PreparedImage{Data: data, ContentType: contentType, Ext: format.ext}, nil
	}
	resized := imaging.Resize(img, p.MaxWidth, 0, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, format.format, imaging.JPEGQuality(85)); err != nil {
		return PreparedImage{}, err
	}
	return PreparedImage{Data: buf.Bytes(), ContentType: contentType, Ext: format.ext}, nil
}

// Uploader runs Prepare before handing bytes to the configured store.
type Uploader struct {
	Store     ImageStore
	Processor ImageProcessor
}

func (u Uploader) Upload(ctx context.Context, data []byte, name, folder string) (UploadedImage, error) {
	prepared, err := u.Processor.Prepare(data)
	if err != nil {
		return UploadedImage{}, err
	}
	fileName := name
	if filepath.Ext(fileName) == "" {
		fileName += prepared.Ext
	}
	uploaded, err := u.Store.Upload(ctx, prepared.Data, fileName, folder)
	if err != nil {
		return UploadedImage{}, ErrUpload(err)
	}
	return uploaded, nil
}

func (u Uploader) Delete(ctx context.Context, fileID string) error {
	if fileID == "" {
		return nil
	}
	if err := u.Store.Delete(ctx, fileID); err != nil {
		return ErrUpload(err)
	}
	return nil
}

// UploadInline decodes a data URI and uploads it.
func (u Uploader) UploadInline(ctx context.Context, value, name, folder string) (UploadedImage, error) {
	data, err := DecodeInlineImage(value)
	if err != nil {
		return UploadedImage{}, err
	}
	return u.Upload(ctx, data, name, folder)
}

// LocalImageStore writes images under Dir and serves them from BaseURL.
type LocalImageStore struct {
	Dir     string
	BaseURL string
}

func (s LocalImageStore) Upload(_ context.Context, data []byte, name, folder string) (UploadedImage, error) {
	if len(data) == 0 {
		return UploadedImage{}, errors.New("empty file")
	}
	folder = strings.Trim(filepath.ToSlash(filepath.Clean("/"+folder)), "/")
	target := filepath.Join(s.Dir, filepath.FromSlash(folder))
	if err := os.MkdirAll(target, 0755); err != nil {
		return UploadedImage{}, err
	}
	sum := sha256.Sum256(data)
	ext := filepath.Ext(name)
	base := Slugify(strings.TrimSuffix(name, ext))
	fileName := fmt.Sprintf("%s-%s-%s%s", base, hex.EncodeToString(sum[:4]), uuid.NewString()[:8], ext)
	if err := os.WriteFile(filepath.Join(target, fileName), data, 0644); err != nil {
		return UploadedImage{}, err
	}
	fileID := fileName
	if folder != "" {
		fileID = folder + "/" + fileName
	}
	return UploadedImage{URL: strings.TrimRight(s.BaseURL, "/") + "/" + fileID, FileID: fileID}, nil
}

func (s LocalImageStore) Delete(_ context.Context, fileID string) error {
	clean := filepath.Clean("/" + fileID)
	if clean == "/" {
		return errors.New("invalid file id")
	}
	err := os.Remove(filepath.Join(s.Dir, filepath.FromSlash(clean)))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// ImageUploader is the upload surface used by the entity services.
type ImageUploader interface {
	InlineUploader
	Upload(ctx context.Context, data []byte, name, folder string) (UploadedImage, error)
}

// resolveInline uploads value when it is an inline payload and returns the
// hosted URL. Hosted URLs come back unchanged with no upload recorded.
func resolveInline(ctx context.Context, images InlineUploader, value, name, folder string) (string, []UploadedImage, error) {
	if !IsInlineImage(value) {
		return value, nil, nil
	}
	if images == nil {
		return "", nil, ErrUpload(errors.New("no image store configured"))
	}
	img, err := images.UploadInline(ctx, value, name, folder)
	if err != nil {
		return "", nil, err
	}
	return img.URL, []UploadedImage{img}, nil
}

func discardUploads(ctx context.Context, images InlineUploader, logger zerolog.Logger, uploaded []UploadedImage) {
	for _, img := range uploaded {
		if err := images.Delete(context.WithoutCancel(ctx), img.FileID); err != nil {
			logger.Error().Err(err).Str("file_id", img.FileID).Msg("orphaned image left on host")
		}
	}
}
