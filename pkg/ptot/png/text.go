package png

import (
	"bytes"
	"fmt"
	"io"

	"github.com/provide-io/ptot/pkg/ptot/diag"
	perrors "github.com/provide-io/ptot/pkg/ptot/errors"
	"github.com/provide-io/ptot/pkg/ptot/raster"
	"github.com/provide-io/ptot/pkg/ptot/scratch"
)

// compressionDeflate is the only zTXt compression method.
const compressionDeflate = 0

// splitKeyword splits a text body at the NUL ending the keyword. ok is false
// when there is no NUL.
func splitKeyword(body []byte) (keyword string, rest []byte, ok bool) {
	i := bytes.IndexByte(body, 0)
	if i < 0 {
		return string(body), nil, false
	}
	return string(body[:i]), body[i+1:], true
}

// decodeText decodes tEXt. Keywords without a descriptor slot are copied.
func (d *Decoder) decodeText() error {
	body, err := d.cr.ReadRest()
	if err != nil {
		return err
	}
	name, value, _ := splitKeyword(body)
	kw, ok := raster.LookupKeyword(name)
	if !ok {
		return d.copyChunkWith(body)
	}

	d.setText(kw, value)
	return nil
}

// decodeCompressedText decodes zTXt, inflating the value through its own
// stream session.
func (d *Decoder) decodeCompressedText() error {
	body, err := d.cr.ReadRest()
	if err != nil {
		return err
	}
	name, rest, _ := splitKeyword(body)
	kw, ok := raster.LookupKeyword(name)
	if !ok {
		return d.copyChunkWith(body)
	}

	if len(rest) < 1 {
		return fmt.Errorf("%w: zTXt %q has no compression method", perrors.ErrBadFraming, name)
	}
	if rest[0] != compressionDeflate {
		return fmt.Errorf("%w: zTXt compression method %d", perrors.ErrBadFraming, rest[0])
	}

	value, err := d.inflateText(rest[1:])
	if err != nil {
		return err
	}
	d.setText(kw, value)
	return nil
}

// inflateText inflates a compressed text value into the text scratch blob
// and reads it back.
func (d *Decoder) inflateText(compressed []byte) ([]byte, error) {
	src := textSource{bytes.NewReader(compressed)}
	z, err := newZstream(src, d.inflater, d.reporter, TypeZTXT.String())
	if err != nil {
		return nil, err
	}

	w, err := d.store.Create(scratch.TextBlob)
	if err != nil {
		return nil, err
	}
	err = z.Run(func(p []byte) error {
		if _, err := w.Write(p); err != nil {
			return fmt.Errorf("%w: %v", perrors.ErrWrite, err)
		}
		return nil
	})
	if closeErr := w.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("%w: %v", perrors.ErrWrite, closeErr)
	}
	if err != nil {
		return nil, err
	}

	r, err := d.store.Open(scratch.TextBlob)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	value, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", perrors.ErrRead, err)
	}
	return value, nil
}

func (d *Decoder) setText(kw raster.Keyword, value []byte) {
	if len(value) > MaxTextLength {
		d.reporter.Warn(diag.WarnLongText, d.cr.Type().String(),
			fmt.Sprintf("%s is %d bytes", kw, len(value)))
		value = value[:MaxTextLength]
	}
	d.img.SetText(kw, string(value))
	d.logger.Debug("📝 Text", "keyword", kw.String(), "length", len(value))
}
