// Package npy reads and writes one-dimensional float64 arrays in the NumPy
// .npy format (version 1.0). Every score artifact the pipeline persists is a
// small .npy vector, byte-compatible with numpy.save, so the study's
// downstream analysis notebooks keep working unchanged.
package npy

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"

	"github.com/YuminosukeSato/brainage/pkg/errors"
)

var magic = []byte("\x93NUMPY")

var shapeRe = regexp.MustCompile(`'shape':\s*\((\d+),?\s*\)`)
var descrRe = regexp.MustCompile(`'descr':\s*'([^']+)'`)
var fortranRe = regexp.MustCompile(`'fortran_order':\s*(True|False)`)

// Write saves values to path in .npy format.
func Write(path string, values []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	defer f.Close()
	return WriteTo(f, values)
}

// WriteTo writes the .npy encoding of values to w.
func WriteTo(w io.Writer, values []float64) error {
	header := fmt.Sprintf("{'descr': '<f8', 'fortran_order': False, 'shape': (%d,), }", len(values))

	// Pad with spaces so that magic+version+length+header is a multiple of
	// 64 bytes, with a terminating newline, as numpy.save does.
	base := len(magic) + 2 + 2 // magic, version, header length field
	total := base + len(header) + 1
	pad := (64 - total%64) % 64
	padded := header + string(bytes.Repeat([]byte{' '}, pad)) + "\n"

	buf := new(bytes.Buffer)
	buf.Write(magic)
	buf.Write([]byte{1, 0})
	if err := binary.Write(buf, binary.LittleEndian, uint16(len(padded))); err != nil {
		return errors.WithStack(err)
	}
	buf.WriteString(padded)
	if err := binary.Write(buf, binary.LittleEndian, values); err != nil {
		return errors.WithStack(err)
	}

	_, err := w.Write(buf.Bytes())
	return errors.Wrap(err, "failed to write npy data")
}

// Read loads a one-dimensional float64 array from path.
func Read(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()
	values, err := ReadFrom(f)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	return values, nil
}

// ReadFrom decodes a one-dimensional float64 .npy array from r.
func ReadFrom(r io.Reader) ([]float64, error) {
	head := make([]byte, len(magic)+2)
	if _, err := io.ReadFull(r, head); err != nil {
		return nil, errors.Wrap(err, "short npy header")
	}
	if !bytes.Equal(head[:len(magic)], magic) {
		return nil, errors.New("not an npy file")
	}
	if head[len(magic)] != 1 {
		return nil, errors.Newf("unsupported npy version %d.%d", head[len(magic)], head[len(magic)+1])
	}

	var headerLen uint16
	if err := binary.Read(r, binary.LittleEndian, &headerLen); err != nil {
		return nil, errors.Wrap(err, "short npy header length")
	}
	headerBytes := make([]byte, headerLen)
	if _, err := io.ReadFull(r, headerBytes); err != nil {
		return nil, errors.Wrap(err, "short npy header dict")
	}
	header := string(headerBytes)

	if m := descrRe.FindStringSubmatch(header); m == nil || m[1] != "<f8" {
		return nil, errors.Newf("unsupported npy dtype in header %q", header)
	}
	if m := fortranRe.FindStringSubmatch(header); m == nil || m[1] != "False" {
		return nil, errors.Newf("unsupported npy memory order in header %q", header)
	}
	m := shapeRe.FindStringSubmatch(header)
	if m == nil {
		return nil, errors.Newf("npy array is not one-dimensional: %q", header)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return nil, errors.WithStack(err)
	}

	values := make([]float64, n)
	if err := binary.Read(r, binary.LittleEndian, values); err != nil {
		return nil, errors.Wrap(err, "short npy data")
	}
	return values, nil
}
