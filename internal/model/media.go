package model

import "errors"

const (
	DefaultMaxUploadBytes = 5 * 1024 * 1024
	AssetCacheControl     = "public, max-age=31536000" // 1 year
	AssetExt              = ".jpg"
	AssetJPEGQuality      = 85
)

const (
	ContentTypeJPEG = "image/jpeg"
	ContentTypePNG  = "image/png"
	ContentTypeGIF  = "image/gif"
	ContentTypeWebP = "image/webp"
)

var allowedImageTypes = map[string]struct{}{
	ContentTypeJPEG: {},
	ContentTypePNG:  {},
	ContentTypeGIF:  {},
	ContentTypeWebP: {},
}

// ImagePolicy describes how an upload is transformed for one use case.
// Crop policies fill the exact box; the others fit inside it.
type ImagePolicy struct {
	Name   string
	Folder string
	Width  int
	Height int
	Crop   bool
}

var (
	ProfileImagePolicy = ImagePolicy{Name: "profile", Folder: "profile_images", Width: 400, Height: 400, Crop: true}
	CoverImagePolicy   = ImagePolicy{Name: "cover", Folder: "profile_covers", Width: 1500, Height: 500, Crop: true}
	PostImagePolicy    = ImagePolicy{Name: "post", Folder: "post_images", Width: 1080, Height: 1080}
)

// Asset describes a stored image.
type Asset struct {
	URL    string `json:"url"`
	Key    string `json:"key"`
	Bytes  int    `json:"bytes"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Format string `json:"format"`
}

const (
	CodeFileTooLarge     = "FILE_TOO_LARGE"
	CodeInvalidImageType = "INVALID_IMAGE_TYPE"
	CodeUploadFailed     = "UPLOAD_FAILED"
)

var (
	ErrFileTooLarge     = errors.New("file too large")
	ErrInvalidImageType = errors.New("invalid image type")
	ErrUploadFailed     = errors.New("image upload failed")
)

func IsAllowedImageType(contentType string) bool {
	_, ok := allowedImageTypes[contentType]
	return ok
}
