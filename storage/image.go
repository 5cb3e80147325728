package storage

import (
	"context"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"blogFeed/domain"
	"blogFeed/errs"
)

// contentTypes maps accepted file extensions to the content type sniffed
// from their first bytes.
var contentTypes = map[string]string{
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
}

// ImageService stores post images on the local filesystem below a media root.
// It implements the domain.ImageService interface.
type ImageService struct {
	imageValidator
}

// imageValidator runs validations on uploaded images.
// On success, it passes the upload on to imageFS.
// Otherwise, it returns the error of the validation that has failed.
type imageValidator struct {
	imageFS
}

// imageFS reads and writes image files below root.
type imageFS struct {
	root string
}

// NewImageService returns an ImageService keeping its files below root.
func NewImageService(root string) *ImageService {
	return &ImageService{
		imageValidator{
			imageFS{
				root: root,
			},
		},
	}
}

var _ domain.ImageService = &ImageService{}

// Save validates an upload and writes it under a fresh name. It returns the
// reference to store on the post.
func (iv *imageValidator) Save(ctx context.Context, up *domain.Upload) (string, error) {
	err := runImageValFns(up,
		iv.extensionValid,
		iv.contentTypeValid,
		iv.contentTypeExtensionMatch,
		iv.belowMaxSize,
		iv.fileNameUnique,
	)
	if err != nil {
		return "", err
	}
	return iv.imageFS.Save(ctx, up)
}

type imageValFn func(up *domain.Upload) error

func runImageValFns(up *domain.Upload, fns ...imageValFn) error {
	for _, fn := range fns {
		if err := fn(up); err != nil {
			return err
		}
	}
	return nil
}

func (iv *imageValidator) belowMaxSize(up *domain.Upload) error {
	size, err := up.File.Seek(0, io.SeekEnd)
	if err != nil {
		return errors.Wrap(err, "measuring upload")
	}
	if err = resetReaderPosition(up); err != nil {
		return err
	}
	if size > domain.MaxUploadSize {
		return errs.Invalid("image", "Image %s exceeds upload size limit of %dMB.", up.Filename, domain.MaxUploadSize>>20)
	}
	return nil
}

func (iv *imageValidator) contentTypeValid(up *domain.Upload) error {
	buffer := make([]byte, 512)
	n, err := up.File.Read(buffer)
	if err != nil && err != io.EOF {
		return errors.Wrap(err, "reading upload")
	}
	if err = resetReaderPosition(up); err != nil {
		return err
	}
	contentType := http.DetectContentType(buffer[:n])
	switch contentType {
	case "image/jpeg", "image/png", "image/gif":
	default:
		return errs.Invalid("image", "Image %s is not a valid image. Upload a jpeg, png or gif file.", up.Filename)
	}
	up.ContentType = contentType
	return nil
}

func (iv *imageValidator) contentTypeExtensionMatch(up *domain.Upload) error {
	if contentTypes[up.Extension] != up.ContentType {
		return errs.Invalid("image", "Image %s content-type %s does not match extension %s.", up.Filename, up.ContentType, up.Extension)
	}
	return nil
}

func (iv *imageValidator) extensionValid(up *domain.Upload) error {
	ext := strings.ToLower(filepath.Ext(up.Filename))
	if ext == ".jpg" {
		ext = ".jpeg"
	}
	if _, ok := contentTypes[ext]; !ok {
		return errs.Invalid("image", "Image %s has an invalid extension, must be .jpeg, .png or .gif.", up.Filename)
	}
	up.Extension = ext
	return nil
}

func (iv *imageValidator) fileNameUnique(up *domain.Upload) error {
	up.Filename = uuid.NewString() + up.Extension
	return nil
}

// resetReaderPosition back to beginning of the file, so that subsequent reads will work.
func resetReaderPosition(up *domain.Upload) error {
	_, err := up.File.Seek(0, io.SeekStart)
	return errors.Wrap(err, "rewinding upload")
}

// Save copies the upload to <root>/posts/<filename>.
func (fs *imageFS) Save(ctx context.Context, up *domain.Upload) (string, error) {
	dir := filepath.Join(fs.root, domain.PostImagesDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.Wrap(err, "creating image directory")
	}
	name := filepath.Join(dir, up.Filename)
	dst, err := os.Create(name)
	if err != nil {
		return "", errors.Wrap(err, "creating image file")
	}
	if _, err = io.Copy(dst, up.File); err != nil {
		dst.Close()
		os.Remove(name)
		return "", errors.Wrap(err, "writing image file")
	}
	if err = dst.Close(); err != nil {
		os.Remove(name)
		return "", errors.Wrap(err, "closing image file")
	}
	return path.Join(domain.PostImagesDir, up.Filename), nil
}

// Delete removes the file behind ref. A file that is already gone is not an error.
func (fs *imageFS) Delete(ctx context.Context, ref string) error {
	err := os.Remove(fs.Path(ref))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "removing image file")
	}
	return nil
}

// Path maps ref to a file below root. References can never point outside of it.
func (fs *imageFS) Path(ref string) string {
	clean := path.Clean("/" + ref)
	return filepath.Join(fs.root, filepath.FromSlash(clean))
}
