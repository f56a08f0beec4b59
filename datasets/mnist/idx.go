package mnist

import "bufio"
import "compress/gzip"
import "encoding/binary"
import "io"
import "os"

import "github.com/pkg/errors"

const imagesMagic = 0x00000803
const labelsMagic = 0x00000801

// maxCount bounds the example count of a header
const maxCount = 1 << 24

// Images is the decoded payload of an idx3 images file
type Images struct {
	Count int
	Rows  int
	Cols  int
	Data  []byte
}

// Image returns the raw pixels of the i-th image
func (m *Images) Image(i int) []byte {
	var size = m.Rows * m.Cols
	return m.Data[i*size : (i+1)*size]
}

// ReadImages decodes an uncompressed idx3 stream
func ReadImages(r io.Reader) (*Images, error) {
	var header [4]uint32
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, errors.Wrap(err, "reading images header")
	}
	if header[0] != imagesMagic {
		return nil, errors.Errorf("invalid magic number %d in MNIST image file", header[0])
	}
	var m = &Images{
		Count: int(header[1]),
		Rows:  int(header[2]),
		Cols:  int(header[3]),
	}
	if m.Rows == 0 || m.Cols == 0 {
		return nil, errors.Errorf("invalid image size %dx%d", m.Rows, m.Cols)
	}
	if header[1] > maxCount || header[2] > 1<<12 || header[3] > 1<<12 ||
		uint64(header[1])*uint64(header[2])*uint64(header[3]) > 1<<32 {
		return nil, errors.Errorf("%d images of %dx%d are too large", m.Count, m.Rows, m.Cols)
	}
	m.Data = make([]byte, m.Count*m.Rows*m.Cols)
	if _, err := io.ReadFull(r, m.Data); err != nil {
		return nil, errors.Wrapf(err, "reading %d images", m.Count)
	}
	return m, nil
}

// ReadLabels decodes an uncompressed idx1 stream
func ReadLabels(r io.Reader) ([]byte, error) {
	var header [2]uint32
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, errors.Wrap(err, "reading labels header")
	}
	if header[0] != labelsMagic {
		return nil, errors.Errorf("invalid magic number %d in MNIST label file", header[0])
	}
	if header[1] > maxCount {
		return nil, errors.Errorf("%d labels are too many", header[1])
	}
	var labels = make([]byte, header[1])
	if _, err := io.ReadFull(r, labels); err != nil {
		return nil, errors.Wrapf(err, "reading %d labels", header[1])
	}
	return labels, nil
}

// ReadImagesFile decodes a gzipped idx3 file
func ReadImagesFile(path string) (o *Images, err error) {
	err = withGzip(path, func(r io.Reader) (err error) {
		o, err = ReadImages(r)
		return
	})
	return
}

// ReadLabelsFile decodes a gzipped idx1 file
func ReadLabelsFile(path string) (o []byte, err error) {
	err = withGzip(path, func(r io.Reader) (err error) {
		o, err = ReadLabels(r)
		return
	})
	return
}

func withGzip(path string, fn func(r io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "cannot open file to ungzip file '%s'", path)
	}
	defer f.Close()
	gzipReader, err := gzip.NewReader(bufio.NewReader(f))
	if err != nil {
		return errors.Wrapf(err, "gzip file '%s'", path)
	}
	defer gzipReader.Close()
	return errors.Wrapf(fn(gzipReader), "parsing '%s'", path)
}
