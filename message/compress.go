package message

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/c360/streamlink/errors"
)

// AlgorithmGzip is the only compression algorithm currently supported.
const AlgorithmGzip = "gzip"

// gzipMagic is the two-byte header every gzip stream starts with,
// used to tell compressed frames from plain JSON on the inbound path.
var gzipMagic = []byte{0x1f, 0x8b}

// Compression configures the optional payload compression layer.
// Frames at or above Threshold bytes are compressed before send;
// smaller frames go out as-is.
type Compression struct {
	Enabled   bool
	Threshold int
	Algorithm string
}

// Validate rejects configurations the codec cannot honor.
func (c Compression) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Algorithm != "" && c.Algorithm != AlgorithmGzip {
		return errors.WrapInvalid(
			fmt.Errorf("unsupported compression algorithm %q: %w", c.Algorithm, errors.ErrInvalidConfig),
			"Compression", "Validate", "config rejected")
	}
	if c.Threshold < 0 {
		return errors.WrapInvalid(
			fmt.Errorf("negative compression threshold %d: %w", c.Threshold, errors.ErrInvalidConfig),
			"Compression", "Validate", "config rejected")
	}
	return nil
}

// Apply compresses raw when compression is enabled and the frame meets
// the threshold. It returns the bytes to put on the wire and whether
// compression was applied.
func (c Compression) Apply(raw []byte) ([]byte, bool, error) {
	if !c.Enabled || len(raw) < c.Threshold {
		return raw, false, nil
	}

	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(raw); err != nil {
		w.Close()
		return nil, false, errors.Wrap(err, "Compression", "Apply", "compress frame failed")
	}
	if err := w.Close(); err != nil {
		return nil, false, errors.Wrap(err, "Compression", "Apply", "finalize gzip stream failed")
	}
	return buf.Bytes(), true, nil
}

// IsCompressed reports whether raw carries the gzip header. Compressed
// envelopes travel as binary frames, so the reader uses this to tell
// them apart from application binary payloads.
func IsCompressed(raw []byte) bool {
	return bytes.HasPrefix(raw, gzipMagic)
}

// Decompress inflates a gzip frame back to its JSON form. Frames that
// do not carry the gzip header pass through untouched, so the inbound
// path can call this unconditionally.
func Decompress(raw []byte) ([]byte, error) {
	if !bytes.HasPrefix(raw, gzipMagic) {
		return raw, nil
	}

	r, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, errors.WithKind(
			fmt.Errorf("open gzip frame: %w", err),
			errors.KindParseError, "Compression", "Decompress")
	}
	defer r.Close()

	inflated, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.WithKind(
			fmt.Errorf("inflate frame: %w", err),
			errors.KindParseError, "Compression", "Decompress")
	}
	return inflated, nil
}
