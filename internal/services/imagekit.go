package services

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/imagekit-developer/imagekit-go"
	"github.com/imagekit-developer/imagekit-go/api/uploader"
)

// imageKitAPI is the slice of the ImageKit SDK the store needs.
type imageKitAPI interface {
	Upload(ctx context.Context, file string, param uploader.UploadParam) (*uploader.UploadResponse, error)
	DeleteFile(ctx context.Context, fileID string) error
}

type imageKitClient struct {
	ik *imagekit.ImageKit
}

func (c imageKitClient) Upload(ctx context.Context, file string, param uploader.UploadParam) (*uploader.UploadResponse, error) {
	return c.ik.Uploader.Upload(ctx, file, param)
}

func (c imageKitClient) DeleteFile(ctx context.Context, fileID string) error {
	_, err := c.ik.Media.DeleteFile(ctx, fileID)
	return err
}

// ImageKitStore uploads into RootFolder/<folder> with unique file names.
type ImageKitStore struct {
	RootFolder string
	api        imageKitAPI
}

func NewImageKitStore(privateKey, publicKey, urlEndpoint, rootFolder string) *ImageKitStore {
	ik := imagekit.NewFromParams(imagekit.NewParams{
		PrivateKey:  privateKey,
		PublicKey:   publicKey,
		UrlEndpoint: urlEndpoint,
	})
	return &ImageKitStore{RootFolder: rootFolder, api: imageKitClient{ik: ik}}
}

func (s *ImageKitStore) Upload(ctx context.Context, data []byte, name, folder string) (UploadedImage, error) {
	unique := true
	resp, err := s.api.Upload(ctx, base64.StdEncoding.EncodeToString(data), uploader.UploadParam{
		FileName:          name,
		Folder:            s.folderPath(folder),
		UseUniqueFileName: &unique,
	})
	if err != nil {
		return UploadedImage{}, WrapError(err, "imagekit upload "+name)
	}
	if resp == nil || resp.Data.Url == "" || resp.Data.FileId == "" {
		return UploadedImage{}, errors.New("imagekit: upload response missing url or fileId")
	}
	return UploadedImage{URL: resp.Data.Url, FileID: resp.Data.FileId}, nil
}

func (s *ImageKitStore) Delete(ctx context.Context, fileID string) error {
	return WrapError(s.api.DeleteFile(ctx, fileID), "imagekit delete "+fileID)
}

func (s *ImageKitStore) folderPath(folder string) string {
	parts := []string{}
	for _, p := range []string{s.RootFolder, folder} {
		if trimmed := strings.Trim(p, "/"); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return "/" + strings.Join(parts, "/")
}
