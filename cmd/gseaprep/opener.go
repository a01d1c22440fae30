package main

import (
	"context"
	"io"
	"sync"

	"cloud.google.com/go/storage"
	"github.com/carbocation/gseaprep"
	"github.com/carbocation/pfx"
)

// lazyOpener creates the Google Storage client the first time a gs:// path is
// opened, so local-only runs never need credentials.
type lazyOpener struct {
	once   sync.Once
	client *storage.Client
	err    error
}

func (o *lazyOpener) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	if gseaprep.IsGoogleStoragePath(path) {
		o.once.Do(func() {
			o.client, o.err = storage.NewClient(ctx)
		})
		if o.err != nil {
			return nil, pfx.Err(o.err)
		}
	}

	return gseaprep.Opener{Client: o.client}.Open(ctx, path)
}

func (o *lazyOpener) Close() error {
	if o.client == nil {
		return nil
	}
	return o.client.Close()
}
