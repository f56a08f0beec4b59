package config

import "os"
import "path/filepath"
import "testing"
import "time"

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	if err := c.Validate(); err != nil {
		t.Fatal(err)
	}
	if c.NumSteps != 15000 || c.BatchSize != 40 || c.DataDir != "/tmp/MNIST_data" {
		t.Errorf("defaults %+v", c)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		edit func(*Config)
	}{
		{"no data dir", func(c *Config) { c.DataDir = "" }},
		{"no model dir", func(c *Config) { c.ModelDir = "" }},
		{"zero steps", func(c *Config) { c.NumSteps = 0 }},
		{"negative batch", func(c *Config) { c.BatchSize = -1 }},
		{"zero learning rate", func(c *Config) { c.LearningRate = 0 }},
		{"unknown classifier", func(c *Config) { c.Classifier = "svm" }},
		{"empty hidden layer", func(c *Config) { c.HiddenUnits = []int{10, 0} }},
		{"no source", func(c *Config) { c.SourceURL = "" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := Default()
			tc.edit(&c)
			if err := c.Validate(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestRunDir(t *testing.T) {
	base := filepath.Join(t.TempDir(), "models")
	now := time.Unix(1500000000, 0)
	first, err := RunDir(base, DeepPrefix, now)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(first) != "deep_1500000000" {
		t.Errorf("first run dir %s", first)
	}
	second, err := RunDir(base, DeepPrefix, now)
	if err != nil {
		t.Fatal(err)
	}
	if second == first || filepath.Base(second) != "deep_1500000000_1" {
		t.Errorf("second run dir %s", second)
	}
	for _, dir := range []string{first, second} {
		if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
			t.Errorf("%s not created: %v", dir, err)
		}
	}
}
