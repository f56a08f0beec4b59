package checkpoint

import "os"
import "path/filepath"
import "testing"

import "github.com/neurlang/estimator/layer"
import "github.com/pkg/errors"
import "gonum.org/v1/gonum/mat"

func params(v float64) []*layer.Param {
	w := layer.NewParam("linear/kernel", 2, 3)
	b := layer.NewParam("linear/bias", 1, 3)
	w.Value.Set(1, 2, v)
	b.Value.Set(0, 0, -v)
	return []*layer.Param{w, b}
}

func TestLatestMissing(t *testing.T) {
	if _, err := Latest(t.TempDir()); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}

func TestSaveRestore(t *testing.T) {
	dir := t.TempDir()
	s, err := NewSaver(dir, 2)
	if err != nil {
		t.Fatal(err)
	}
	for step := int64(1); step <= 3; step++ {
		if _, err := s.Save(Meta{GlobalStep: step, Model: "linear", Optimizer: "Ftrl"}, params(float64(step))); err != nil {
			t.Fatalf("save %d: %v", step, err)
		}
	}

	prefix, err := Latest(dir)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(prefix) != "model.ckpt-3" {
		t.Errorf("latest = %s", prefix)
	}
	if _, err := os.Stat(filepath.Join(dir, "model.ckpt-1.json.lzw")); !os.IsNotExist(err) {
		t.Error("oldest checkpoint not pruned")
	}
	if _, err := os.Stat(filepath.Join(dir, "model.ckpt-2.meta.json")); err != nil {
		t.Errorf("checkpoint 2 should be kept: %v", err)
	}

	got := params(0)
	meta, err := Restore(prefix, got)
	if err != nil {
		t.Fatal(err)
	}
	if meta.GlobalStep != 3 || meta.Optimizer != "Ftrl" || len(meta.Layout) != 2 {
		t.Errorf("bad meta %+v", meta)
	}
	for i, p := range params(3) {
		if !mat.Equal(p.Value, got[i].Value) {
			t.Errorf("%s not restored", p.Name)
		}
	}
}

func TestSaverResumesIndex(t *testing.T) {
	dir := t.TempDir()
	s, _ := NewSaver(dir, 2)
	s.Save(Meta{GlobalStep: 10}, params(1))
	s.Save(Meta{GlobalStep: 20}, params(1))

	s2, err := NewSaver(dir, 2)
	if err != nil {
		t.Fatal(err)
	}
	s2.Save(Meta{GlobalStep: 30}, params(1))
	if _, err := os.Stat(filepath.Join(dir, "model.ckpt-10.json.lzw")); !os.IsNotExist(err) {
		t.Error("checkpoint from the earlier saver not pruned")
	}
	// saving the same step twice keeps one entry
	s2.Save(Meta{GlobalStep: 30}, params(2))
	if len(s2.kept) != 2 {
		t.Errorf("kept %v", s2.kept)
	}
}

func TestRestoreLayoutMismatch(t *testing.T) {
	dir := t.TempDir()
	s, _ := NewSaver(dir, 0)
	prefix, err := s.Save(Meta{GlobalStep: 1}, params(1))
	if err != nil {
		t.Fatal(err)
	}
	other := []*layer.Param{layer.NewParam("linear/kernel", 3, 3)}
	if _, err := Restore(prefix, other); err == nil {
		t.Error("layout mismatch accepted")
	}
}
