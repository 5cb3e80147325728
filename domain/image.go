package domain

import (
	"context"
	"io"
)

const (
	// PostImagesDir is the blob namespace of post images.
	PostImagesDir = "posts"
	// MaxUploadSize determines the maximum filesize of an image to be uploaded.
	MaxUploadSize int64 = 5 << 20 // 5 Megabyte
)

// Upload is an image file submitted with a post form.
// File is usually a multipart.File.
type Upload struct {
	Filename    string
	File        io.ReadSeeker
	Extension   string
	ContentType string
}

// ImageService stores uploaded images and hands out opaque references to them.
// A reference looks like "posts/<name>" and is what Post.Image holds.
type ImageService interface {
	Save(ctx context.Context, up *Upload) (string, error)
	Delete(ctx context.Context, ref string) error
	Path(ref string) string
}
