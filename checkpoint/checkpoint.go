// Package checkpoint saves and restores model weights and optimizer state in a model directory
package checkpoint

import "bufio"
import "encoding/json"
import "fmt"
import "os"
import "path/filepath"
import "strconv"
import "strings"
import "time"

import "github.com/neurlang/estimator/layer"
import "github.com/neurlang/estimator/net/feedforward"
import "github.com/pkg/errors"

// IndexFile names the file listing the checkpoints of a directory
const IndexFile = "checkpoint"

// DefaultMaxToKeep is how many recent checkpoints survive
const DefaultMaxToKeep = 5

const basename = "model.ckpt"

// Column describes one feature column of the saved model
type Column struct {
	Name      string `json:"name"`
	Dimension int    `json:"dimension"`
}

// Meta is stored next to the weights of every checkpoint
type Meta struct {
	GlobalStep  int64     `json:"global_step"`
	RunID       string    `json:"run_id"`
	Model       string    `json:"model"`
	HiddenUnits []int     `json:"hidden_units,omitempty"`
	Classes     int       `json:"n_classes"`
	Columns     []Column  `json:"feature_columns"`
	Optimizer   string    `json:"optimizer"`
	Layout      []string  `json:"layout"`
	SavedAt     time.Time `json:"saved_at"`
}

// Layout describes params as name:rowsxcols strings
func Layout(params []*layer.Param) []string {
	var o = make([]string, len(params))
	for i, p := range params {
		r, c := p.Value.Dims()
		o[i] = fmt.Sprintf("%s:%dx%d", p.Name, r, c)
	}
	return o
}

// Saver writes numbered checkpoints into Dir and keeps the newest MaxToKeep
type Saver struct {
	Dir       string
	MaxToKeep int
	kept      []string
}

// NewSaver creates dir if needed and picks up the checkpoints already listed there
func NewSaver(dir string, maxToKeep int) (*Saver, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating model directory '%s'", dir)
	}
	if maxToKeep <= 0 {
		maxToKeep = DefaultMaxToKeep
	}
	s := &Saver{Dir: dir, MaxToKeep: maxToKeep}
	_, all, err := readIndex(dir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	s.kept = all
	return s, nil
}

// Save writes weights and meta for meta.GlobalStep and returns the checkpoint prefix
func (s *Saver) Save(meta Meta, params []*layer.Param) (string, error) {
	var name = basename + "-" + strconv.FormatInt(meta.GlobalStep, 10)
	var prefix = filepath.Join(s.Dir, name)

	meta.Layout = Layout(params)
	if meta.SavedAt.IsZero() {
		meta.SavedAt = time.Now()
	}
	if err := feedforward.WriteParamsToFile(prefix+".json.lzw", params); err != nil {
		return "", errors.Wrapf(err, "writing weights of %s", name)
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "encoding checkpoint meta")
	}
	if err := os.WriteFile(prefix+".meta.json", data, 0o644); err != nil {
		return "", errors.Wrapf(err, "writing meta of %s", name)
	}

	var kept = make([]string, 0, len(s.kept)+1)
	for _, k := range s.kept {
		if k != name {
			kept = append(kept, k)
		}
	}
	kept = append(kept, name)
	for len(kept) > s.MaxToKeep {
		os.Remove(filepath.Join(s.Dir, kept[0]+".json.lzw"))
		os.Remove(filepath.Join(s.Dir, kept[0]+".meta.json"))
		kept = kept[1:]
	}
	s.kept = kept
	if err := writeIndex(s.Dir, kept); err != nil {
		return "", err
	}
	return prefix, nil
}

// Latest returns the prefix of the newest checkpoint in dir. The error wraps
// os.ErrNotExist when there is none.
func Latest(dir string) (string, error) {
	latest, _, err := readIndex(dir)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, latest), nil
}

// ReadMeta reads the meta of the checkpoint at prefix
func ReadMeta(prefix string) (meta Meta, err error) {
	data, err := os.ReadFile(prefix + ".meta.json")
	if err != nil {
		return meta, errors.Wrap(err, "reading checkpoint meta")
	}
	err = errors.Wrapf(json.Unmarshal(data, &meta), "decoding '%s.meta.json'", prefix)
	return
}

// Restore loads the checkpoint at prefix into params. The stored layout must
// match params exactly.
func Restore(prefix string, params []*layer.Param) (Meta, error) {
	meta, err := ReadMeta(prefix)
	if err != nil {
		return meta, err
	}
	var want = Layout(params)
	if strings.Join(meta.Layout, ",") != strings.Join(want, ",") {
		return meta, errors.Errorf("checkpoint %s has layout %v, model has %v", filepath.Base(prefix), meta.Layout, want)
	}
	if err := feedforward.ReadParamsFromFile(prefix+".json.lzw", params); err != nil {
		return meta, err
	}
	return meta, nil
}

func readIndex(dir string) (latest string, all []string, err error) {
	f, err := os.Open(filepath.Join(dir, IndexFile))
	if err != nil {
		return "", nil, errors.Wrapf(err, "no checkpoint found in '%s'", dir)
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), ":")
		if !ok {
			continue
		}
		name, err := strconv.Unquote(strings.TrimSpace(value))
		if err != nil {
			return "", nil, errors.Wrapf(err, "bad line in '%s'", filepath.Join(dir, IndexFile))
		}
		switch strings.TrimSpace(key) {
		case "model_checkpoint_path":
			latest = name
		case "all_model_checkpoint_paths":
			all = append(all, name)
		}
	}
	if err := scanner.Err(); err != nil {
		return "", nil, err
	}
	if latest == "" {
		return "", nil, errors.Wrapf(os.ErrNotExist, "empty checkpoint index in '%s'", dir)
	}
	return latest, all, nil
}

func writeIndex(dir string, all []string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "model_checkpoint_path: %q\n", all[len(all)-1])
	for _, name := range all {
		fmt.Fprintf(&b, "all_model_checkpoint_paths: %q\n", name)
	}
	var tmp = filepath.Join(dir, IndexFile+".tmp")
	if err := os.WriteFile(tmp, []byte(b.String()), 0o644); err != nil {
		return errors.Wrap(err, "writing checkpoint index")
	}
	return errors.Wrap(os.Rename(tmp, filepath.Join(dir, IndexFile)), "replacing checkpoint index")
}
