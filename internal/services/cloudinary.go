package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// PictureFolder is where profile pictures are stored.
const PictureFolder = "gather/profiles"

// MaxPictureBytes bounds an uploaded profile picture.
const MaxPictureBytes = 5 << 20

var ErrNotImage = errors.New("uploaded file is not an image")

// PictureUploader stores a profile picture and returns its public URL.
type PictureUploader interface {
	UploadPicture(ctx context.Context, fileHeader *multipart.FileHeader, principal string) (string, error)
}

type CloudinaryService struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinaryService(cloudName, apiKey, apiSecret string) (*CloudinaryService, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}

	return &CloudinaryService{
		cld: cld,
	}, nil
}

// UploadPicture uploads an image, one public id per principal so a new
// picture replaces the old one.
func (s *CloudinaryService) UploadPicture(ctx context.Context, fileHeader *multipart.FileHeader, principal string) (string, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	fileBytes, err := io.ReadAll(io.LimitReader(file, MaxPictureBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	if len(fileBytes) > MaxPictureBytes {
		return "", fmt.Errorf("picture larger than %d bytes", MaxPictureBytes)
	}
	if !strings.HasPrefix(http.DetectContentType(fileBytes), "image/") {
		return "", ErrNotImage
	}

	overwrite := true
	uploadResult, err := s.cld.Upload.Upload(ctx, fileBytes, uploader.UploadParams{
		Folder:       PictureFolder,
		PublicID:     pictureID(principal),
		Overwrite:    &overwrite,
		ResourceType: "image",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to Cloudinary: %w", err)
	}

	return uploadResult.SecureURL, nil
}

func pictureID(principal string) string {
	return strings.NewReplacer("/", "_", ":", "_", " ", "_").Replace(principal)
}
