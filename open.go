package gseaprep

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
)

const gsPrefix = "gs://"

// IsGoogleStoragePath reports whether p names a Google Storage object.
func IsGoogleStoragePath(p string) bool {
	return strings.HasPrefix(p, gsPrefix)
}

// SplitGoogleStoragePath splits gs://bucket/path/to/object into its bucket
// and object names.
func SplitGoogleStoragePath(p string) (bucket, object string, err error) {
	pathParts := strings.SplitN(strings.TrimPrefix(p, gsPrefix), "/", 2)
	if len(pathParts) != 2 || pathParts[0] == "" || pathParts[1] == "" {
		return "", "", fmt.Errorf("Tried to split your google storage path into 2 parts, but got %d: %v", len(pathParts), pathParts)
	}

	return pathParts[0], pathParts[1], nil
}

// Opener opens input files. A nil Client means gs:// paths cannot be read.
type Opener struct {
	Client *storage.Client
}

// Open returns a reader for a local path (with ~ expansion) or a gs:// object.
// Compressed content (gzip, zip, xz, bzip2, zlib) is decompressed
// transparently.
func (o Opener) Open(ctx context.Context, p string) (io.ReadCloser, error) {
	var rc io.ReadCloser

	if IsGoogleStoragePath(p) {
		if o.Client == nil {
			return nil, fmt.Errorf("%s: no Google Storage client is configured", p)
		}

		bucketName, objectName, err := SplitGoogleStoragePath(p)
		if err != nil {
			return nil, pfx.Err(err)
		}

		r, err := o.Client.Bucket(bucketName).Object(objectName).NewReader(ctx)
		if err != nil {
			return nil, pfx.Err(fmt.Errorf("%s: %w", p, err))
		}
		rc = r
	} else {
		f, err := os.Open(ExpandHome(p))
		if err != nil {
			return nil, pfx.Err(err)
		}
		rc = f
	}

	return MaybeDecompressReadCloser(rc)
}

// Base returns the final element of a local or gs:// path, without any
// compression suffix.
func Base(p string) string {
	if IsGoogleStoragePath(p) {
		p = strings.TrimPrefix(p, gsPrefix)
	}
	b := path.Base(p)
	for _, suffix := range []string{".gz", ".bz2", ".xz", ".zip", ".Z"} {
		if strings.HasSuffix(b, suffix) && len(b) > len(suffix) {
			return strings.TrimSuffix(b, suffix)
		}
	}
	return b
}

// Ext returns the lower-case extension of p, ignoring any compression suffix.
// The leading dot is removed.
func Ext(p string) string {
	return strings.TrimPrefix(strings.ToLower(path.Ext(Base(p))), ".")
}
