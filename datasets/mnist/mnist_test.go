package mnist

import "bytes"
import "compress/gzip"
import "context"
import "crypto/sha256"
import "encoding/binary"
import "fmt"
import "net/http"
import "net/http/httptest"
import "os"
import "path/filepath"
import "strings"
import "sync/atomic"
import "testing"

func idxImages(count int) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, [4]uint32{imagesMagic, uint32(count), ImgSize, ImgSize})
	for i := 0; i < count; i++ {
		var img [Pixels]byte
		img[i%Pixels] = 255
		buf.Write(img[:])
	}
	return buf.Bytes()
}

func idxLabels(count int) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, [2]uint32{labelsMagic, uint32(count)})
	for i := 0; i < count; i++ {
		buf.WriteByte(byte(i % Classes))
	}
	return buf.Bytes()
}

func gzipped(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		t.Fatalf("gzip: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	return buf.Bytes()
}

func fakeArchives(t *testing.T, train, test int) map[string][]byte {
	return map[string][]byte{
		trainSetImg: gzipped(t, idxImages(train)),
		trainSetVal: gzipped(t, idxLabels(train)),
		inferSetImg: gzipped(t, idxImages(test)),
		inferSetVal: gzipped(t, idxLabels(test)),
	}
}

func serve(t *testing.T, files map[string][]byte, hits *atomic.Int32) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		data, ok := files[filepath.Base(r.URL.Path)]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write(data)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestReadDataSets(t *testing.T) {
	var hits atomic.Int32
	srv := serve(t, fakeArchives(t, 30, 12), &hits)
	dir := t.TempDir()

	sets, err := ReadDataSets(context.Background(), dir, Options{Source: srv.URL + "/", ValidationSize: 10})
	if err != nil {
		t.Fatalf("ReadDataSets: %v", err)
	}
	if sets.Train.Len() != 20 || sets.Validation.Len() != 10 || sets.Test.Len() != 12 {
		t.Fatalf("bad split sizes: %d %d %d", sets.Train.Len(), sets.Validation.Len(), sets.Test.Len())
	}
	if sets.Train.Dim != Pixels || sets.Train.Classes != Classes {
		t.Errorf("bad shape: dim=%d classes=%d", sets.Train.Dim, sets.Train.Classes)
	}
	img, label := sets.Validation.Example(3)
	if label != 3 || img[3] != 1 || img[2] != 0 {
		t.Errorf("example 3 decoded wrong: label=%d px=%v", label, img[:4])
	}
	if hits.Load() != 4 {
		t.Errorf("expected 4 downloads, got %d", hits.Load())
	}

	// second read uses the cached archives
	if _, err := ReadDataSets(context.Background(), dir, Options{Source: srv.URL, ValidationSize: -1}); err != nil {
		t.Fatalf("cached ReadDataSets: %v", err)
	}
	if hits.Load() != 4 {
		t.Errorf("archives downloaded again: %d requests", hits.Load())
	}
}

func TestReadDataSetsValidationTooLarge(t *testing.T) {
	var hits atomic.Int32
	srv := serve(t, fakeArchives(t, 5, 5), &hits)
	_, err := ReadDataSets(context.Background(), t.TempDir(), Options{Source: srv.URL, ValidationSize: 6})
	if err == nil {
		t.Fatal("expected error for oversize validation split")
	}
}

func TestDownloadNotFound(t *testing.T) {
	var hits atomic.Int32
	srv := serve(t, map[string][]byte{}, &hits)
	dir := t.TempDir()
	if _, err := Download(context.Background(), nil, srv.URL, dir, trainSetImg); err == nil {
		t.Fatal("expected error on 404")
	}
	if _, err := os.Stat(filepath.Join(dir, trainSetImg)); !os.IsNotExist(err) {
		t.Errorf("partial archive left behind: %v", err)
	}
}

func TestVerify(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f")
	if err := os.WriteFile(path, []byte("digits"), 0o644); err != nil {
		t.Fatal(err)
	}
	good := fmt.Sprintf("%x", sha256.Sum256([]byte("digits")))
	if err := Verify(path, good); err != nil {
		t.Errorf("Verify good digest: %v", err)
	}
	if err := Verify(path, trainDigImg); err == nil {
		t.Error("Verify accepted a wrong digest")
	}
}

func TestReadImagesErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"labels magic", idxLabels(3)},
		{"truncated", idxImages(3)[:100]},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ReadImages(bytes.NewReader(tc.data)); err == nil {
				t.Errorf("expected error")
			}
		})
	}
}

func TestReadLabelsErrors(t *testing.T) {
	if _, err := ReadLabels(bytes.NewReader(idxImages(1))); err == nil {
		t.Error("images accepted as labels")
	}
	if _, err := ReadLabels(bytes.NewReader(idxLabels(10)[:12])); err == nil {
		t.Error("truncated labels accepted")
	}
	var huge bytes.Buffer
	binary.Write(&huge, binary.BigEndian, [2]uint32{labelsMagic, 0xFFFFFFF0})
	huge.Write([]byte{1, 2, 3})
	if _, err := ReadLabels(&huge); err == nil || !strings.Contains(err.Error(), "too many") {
		t.Errorf("huge label count: %v", err)
	}
}

func TestDownscale(t *testing.T) {
	var img = make([]float64, Pixels)
	img[1+ImgSize] = 0.5
	img[ImgSize*ImgSize-2-ImgSize] = 1
	small := Downscale(img)
	if small[0] != 0.5 {
		t.Errorf("top left = %v", small[0])
	}
	if small[SmallImgSize*SmallImgSize-1] != 1 {
		t.Errorf("bottom right = %v", small[SmallImgSize*SmallImgSize-1])
	}
	if len(Ascii(small)) != SmallImgSize*(SmallImgSize+1) {
		t.Errorf("ascii has wrong size")
	}
}

// sanity check fuzz
func FuzzReadImages(f *testing.F) {
	f.Add(idxImages(1))
	f.Add([]byte{0, 0, 8, 3, 0, 0, 0, 1})
	f.Fuzz(func(t *testing.T, data []byte) {
		for i := 4; i+4 <= len(data) && i < 16; i += 4 {
			if binary.BigEndian.Uint32(data[i:]) > 1<<10 {
				return
			}
		}
		m, err := ReadImages(bytes.NewReader(data))
		if err != nil {
			return
		}
		if len(m.Data) != m.Count*m.Rows*m.Cols {
			t.Errorf("payload %d != %d*%d*%d", len(m.Data), m.Count, m.Rows, m.Cols)
		}
	})
}

func FuzzReadLabels(f *testing.F) {
	f.Add(idxLabels(3))
	f.Add([]byte{0, 0, 8, 1, 0xff, 0xff, 0xff, 0xf0, 1})
	f.Fuzz(func(t *testing.T, data []byte) {
		labels, err := ReadLabels(bytes.NewReader(data))
		if err != nil {
			return
		}
		if len(data) < 8 || len(labels) != int(binary.BigEndian.Uint32(data[4:])) {
			t.Errorf("%d labels from a %d byte stream", len(labels), len(data))
		}
	})
}
