package gseaprep

import (
	"bufio"
	"bytes"
	"compress/bzip2"
	"compress/zlib"
	"io"

	"github.com/carbocation/pfx"
	"github.com/klauspost/pgzip"
	"github.com/krolaw/zipstream"
	"github.com/xi2/xz"
)

type DataType byte

const (
	DataTypeInvalid DataType = iota
	DataTypeNoCompression
	DataTypeGzip
	DataTypeZip
	DataTypeXZ
	DataTypeZ
	DataTypeBZip2
)

func (dt DataType) String() string {
	switch dt {
	case DataTypeNoCompression:
		return "uncompressed"
	case DataTypeGzip:
		return "gzip"
	case DataTypeZip:
		return "zip"
	case DataTypeXZ:
		return "xz"
	case DataTypeZ:
		return "zlib"
	case DataTypeBZip2:
		return "bzip2"
	}
	return "invalid"
}

// Byte code signatures from https://stackoverflow.com/a/19127748/199475
var byteCodeSigs = map[DataType][]byte{
	DataTypeGzip:  {0x1f, 0x8b, 0x08},
	DataTypeZip:   {0x50, 0x4b, 0x03, 0x04},
	DataTypeXZ:    {0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00},
	DataTypeZ:     {0x1f, 0x9d},
	DataTypeBZip2: {0x42, 0x5a, 0x68},
}

// DetectDataType peeks at the head of a buffered stream and reports which
// known compression format, if any, it starts with. Nothing is consumed from
// br, so the caller can keep reading from the beginning.
func DetectDataType(br *bufio.Reader) (DataType, error) {
	head, err := br.Peek(6)
	if err != nil && err != io.EOF {
		return DataTypeInvalid, err
	}

	for dt, sig := range byteCodeSigs {
		if bytes.HasPrefix(head, sig) {
			return dt, nil
		}
	}

	return DataTypeNoCompression, nil
}

// MaybeDecompressReadCloser wraps rc with a decompressor when its content is
// compressed. Closing the returned value also closes rc.
func MaybeDecompressReadCloser(rc io.ReadCloser) (io.ReadCloser, error) {
	br := bufio.NewReader(rc)
	dt, err := DetectDataType(br)
	if err != nil {
		rc.Close()
		return nil, pfx.Err(err)
	}

	var r io.Reader
	switch dt {
	case DataTypeGzip:
		gz, err := pgzip.NewReader(br)
		if err != nil {
			rc.Close()
			return nil, pfx.Err(err)
		}
		return &chainCloser{Reader: gz, closers: []func() error{gz.Close, rc.Close}}, nil
	case DataTypeZ:
		zr, err := zlib.NewReader(br)
		if err != nil {
			rc.Close()
			return nil, pfx.Err(err)
		}
		return &chainCloser{Reader: zr, closers: []func() error{zr.Close, rc.Close}}, nil
	case DataTypeZip:
		// Only the first entry of an archive is read.
		zs := zipstream.NewReader(br)
		if _, err := zs.Next(); err != nil {
			rc.Close()
			return nil, pfx.Err(err)
		}
		r = zs
	case DataTypeBZip2:
		r = bzip2.NewReader(br)
	case DataTypeXZ:
		xr, err := xz.NewReader(br, 0)
		if err != nil {
			rc.Close()
			return nil, pfx.Err(err)
		}
		r = xr
	default:
		r = br
	}

	return &chainCloser{Reader: r, closers: []func() error{rc.Close}}, nil
}

// chainCloser runs every closer in order and reports the first error.
type chainCloser struct {
	io.Reader
	closers []func() error
}

func (c *chainCloser) Close() error {
	var first error
	for _, f := range c.closers {
		if err := f(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
