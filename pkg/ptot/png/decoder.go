package png

import (
	"bufio"
	"fmt"
	"io"

	"github.com/hashicorp/go-hclog"
	"github.com/provide-io/ptot/pkg/ptot/diag"
	perrors "github.com/provide-io/ptot/pkg/ptot/errors"
	"github.com/provide-io/ptot/pkg/ptot/inflate"
	"github.com/provide-io/ptot/pkg/ptot/raster"
	"github.com/provide-io/ptot/pkg/ptot/scratch"
)

// Config carries the collaborators a Decoder works with.
type Config struct {
	Store    scratch.Store
	Inflater inflate.Decompressor // nil selects inflate.DefaultName
	Reporter *diag.Reporter
	Logger   hclog.Logger
}

// Decoder reads one PNG stream. It is the conversion context shared by the
// chunk handlers and is not safe for concurrent use.
type Decoder struct {
	cr       *ChunkReader
	img      *raster.Descriptor
	store    scratch.Store
	inflater inflate.Decompressor
	reporter *diag.Reporter
	logger   hclog.Logger

	seenHeader bool
	seenImage  bool
	imageDone  bool

	extra      io.WriteCloser
	extraOut   *bufio.Writer
	extraBytes int64
}

// chunkHandler decodes the body of the current chunk.
type chunkHandler func(d *Decoder) error

// chunkHandlers routes chunk types to their decoders. Types missing here are
// copied when safe to copy and skipped otherwise.
var chunkHandlers = map[ChunkType]chunkHandler{
	TypeIHDR: (*Decoder).decodeHeader,
	TypePLTE: (*Decoder).decodePalette,
	TypeIDAT: (*Decoder).decodeImageData,
	TypeIEND: (*Decoder).skipChunk,
	TypeTRNS: (*Decoder).decodeTransparency,
	TypeGAMA: (*Decoder).decodeGamma,
	TypeCHRM: (*Decoder).decodeChromaticities,
	TypePHYS: (*Decoder).decodePhysical,
	TypeOFFS: (*Decoder).decodeOffset,
	TypeSCAL: (*Decoder).decodeScale,
	TypeTEXT: (*Decoder).decodeText,
	TypeZTXT: (*Decoder).decodeCompressedText,
	TypeTIME: (*Decoder).skipChunk,
	TypeHIST: (*Decoder).skipChunk,
	TypeBKGD: (*Decoder).skipChunk,
	TypeSBIT: (*Decoder).copyChunk,
}

// NewDecoder creates a Decoder reading from r.
func NewDecoder(r io.Reader, cfg Config) (*Decoder, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	reporter := cfg.Reporter
	if reporter == nil {
		reporter = diag.NewReporter(logger)
	}
	store := cfg.Store
	if store == nil {
		store = scratch.NewMemStore()
	}
	inflater := cfg.Inflater
	if inflater == nil {
		var err error
		if inflater, err = inflate.Get(""); err != nil {
			return nil, err
		}
	}

	return &Decoder{
		cr:       NewChunkReader(r, reporter, logger),
		img:      &raster.Descriptor{},
		store:    store,
		inflater: inflater,
		reporter: reporter,
		logger:   logger,
	}, nil
}

// Decode reads the whole stream up to IEND and returns the image
// descriptor. The reconstructed raster and any copied chunks are left in
// the scratch store under the ids the descriptor names.
func (d *Decoder) Decode() (*raster.Descriptor, error) {
	if err := d.cr.ReadSignature(); err != nil {
		return nil, err
	}

	for first := true; ; first = false {
		if err := d.cr.ReadHeader(); err != nil {
			d.closeExtra()
			return nil, err
		}
		if first && d.cr.Type() != TypeIHDR {
			d.reporter.Warn(diag.WarnHeaderNotFirst, d.cr.Type().String(), "")
		}

		if err := d.dispatch(); err != nil {
			d.closeExtra()
			return nil, err
		}

		if d.cr.Remaining() > 0 {
			d.reporter.Warn(diag.WarnExtraBytes, d.cr.Type().String(), fmt.Sprintf("%d bytes", d.cr.Remaining()))
			if err := d.cr.Skip(); err != nil {
				d.closeExtra()
				return nil, err
			}
		}
		if err := d.cr.VerifyCRC(); err != nil {
			d.closeExtra()
			return nil, err
		}

		if d.cr.Type() == TypeIEND {
			break
		}
	}

	if err := d.closeExtra(); err != nil {
		return nil, err
	}
	if !d.seenImage {
		return nil, perrors.ErrNoImageData
	}
	if !d.cr.AtEOF() {
		d.reporter.Warn(diag.WarnTrailingData, TypeIEND.String(), "")
	}

	if err := d.img.Validate(); err != nil {
		return nil, err
	}
	d.logger.Debug("✅ PNG decoded",
		"width", d.img.Width, "height", d.img.Height,
		"depth", d.img.BitDepth, "samples", d.img.SamplesPerPixel,
		"interlaced", d.img.Interlaced, "passthrough_bytes", d.img.ExtraBytes)
	return d.img, nil
}

func (d *Decoder) dispatch() error {
	if handler, ok := chunkHandlers[d.cr.Type()]; ok {
		return handler(d)
	}
	if d.cr.Type().IsSafeToCopy() {
		return d.copyChunk()
	}
	d.logger.Debug("Skipping unknown chunk", "type", d.cr.Type().String(), "critical", d.cr.Type().IsCritical())
	return d.skipChunk()
}

func (d *Decoder) skipChunk() error {
	return d.cr.Skip()
}

// decodeImageData inflates the pixel stream, which starts in this chunk and
// may continue through the IDAT chunks that follow.
func (d *Decoder) decodeImageData() error {
	if d.imageDone {
		d.reporter.Warn(diag.WarnExtraImageData, TypeIDAT.String(), "")
		return d.cr.Skip()
	}
	if !d.seenHeader || d.img.Width == 0 || d.img.Height == 0 {
		return fmt.Errorf("%w: image data without a usable header", perrors.ErrBadImage)
	}
	if d.img.IsPalette && d.img.PaletteSize() == 0 {
		d.reporter.Warn(diag.WarnMissingPalette, TypeIDAT.String(), "")
		d.img.IsPalette = false
		d.img.IsColor = false
	}
	if err := d.img.CheckLimits(); err != nil {
		return err
	}
	d.seenImage = true

	recon, err := NewReconstructor(d.img, d.store, d.reporter, d.logger)
	if err != nil {
		return err
	}

	src := &imageDataSource{cr: d.cr}
	z, err := newZstream(src, d.inflater, d.reporter, TypeIDAT.String())
	if err == nil {
		err = z.Run(func(p []byte) error {
			_, err := recon.Write(p)
			return err
		})
	}
	if err != nil {
		recon.closeOutputs()
		return err
	}
	d.imageDone = true

	d.logger.Debug("🔧 Pixel stream inflated", "bytes", z.Produced(), "inflater", d.inflater.Name())
	return recon.Finish()
}

// passthrough returns the writer for copied chunks, creating the blob on
// first use.
func (d *Decoder) passthrough() (*bufio.Writer, error) {
	if d.extraOut != nil {
		return d.extraOut, nil
	}
	w, err := d.store.Create(scratch.ExtraBlob)
	if err != nil {
		return nil, err
	}
	d.extra = w
	d.extraOut = bufio.NewWriter(w)
	return d.extraOut, nil
}

// copyChunk appends the current chunk to the passthrough blob.
func (d *Decoder) copyChunk() error {
	return d.copyChunkWith(nil)
}

// copyChunkWith appends the current chunk to the passthrough blob, where
// consumed holds body bytes already read. The copy gets a freshly computed
// CRC.
func (d *Decoder) copyChunkWith(consumed []byte) error {
	out, err := d.passthrough()
	if err != nil {
		return err
	}

	typ := d.cr.Type()
	length := uint32(len(consumed)) + d.cr.Remaining()
	w := newChunkWriter(out)
	if err := w.begin(length, typ); err != nil {
		return err
	}
	if _, err := w.Write(consumed); err != nil {
		return err
	}
	if _, err := io.Copy(w, d.cr); err != nil {
		return err
	}
	if err := w.end(); err != nil {
		return err
	}

	d.extraBytes += int64(length) + 12
	d.logger.Debug("📎 Chunk copied", "type", typ.String(), "length", length)
	return nil
}

func (d *Decoder) closeExtra() error {
	if d.extraOut == nil {
		return nil
	}
	flushErr := d.extraOut.Flush()
	closeErr := d.extra.Close()
	d.extraOut = nil
	if flushErr != nil {
		return fmt.Errorf("%w: %v", perrors.ErrWrite, flushErr)
	}
	if closeErr != nil {
		return fmt.Errorf("%w: %v", perrors.ErrWrite, closeErr)
	}

	d.img.ExtraBlob = scratch.ExtraBlob
	d.img.ExtraBytes = d.extraBytes
	return nil
}
