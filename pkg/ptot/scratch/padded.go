package scratch

import (
	"io"
)

// OpenPadded opens a blob for reading. Once the blob's content is used up
// the reader keeps returning zero bytes, so a short raster reads as if its
// missing pixels were black.
func OpenPadded(s Store, id string) (io.ReadCloser, error) {
	rc, err := s.Open(id)
	if err != nil {
		return nil, err
	}
	return &paddedReader{rc: rc}, nil
}

type paddedReader struct {
	rc  io.ReadCloser
	eof bool
}

func (p *paddedReader) Read(b []byte) (int, error) {
	if !p.eof {
		n, err := p.rc.Read(b)
		if err == io.EOF {
			p.eof = true
			err = nil
		}
		if n > 0 || err != nil {
			return n, err
		}
	}
	clear(b)
	return len(b), nil
}

func (p *paddedReader) Close() error {
	return p.rc.Close()
}
