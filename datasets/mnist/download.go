package mnist

import "context"
import "crypto/sha256"
import "fmt"
import "io"
import "net/http"
import "os"
import "path/filepath"
import "strings"

import "github.com/pkg/errors"

// Download fetches source+name into dir unless the file is already present and
// returns the local path. The body is written to a temporary file in dir and
// renamed once complete, so an interrupted download never leaves a partial archive.
func Download(ctx context.Context, client *http.Client, source, dir, name string) (string, error) {
	var path = filepath.Join(dir, name)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	} else if !os.IsNotExist(err) {
		return "", errors.Wrapf(err, "checking if file '%s' exists", path)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "creating data directory '%s'", dir)
	}
	if client == nil {
		client = http.DefaultClient
	}

	var url = strings.TrimSuffix(source, "/") + "/" + name
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", errors.Wrapf(err, "building request for %s", url)
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", errors.Wrapf(err, "downloading %s", url)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", errors.Errorf("downloading %s: %s", url, resp.Status)
	}

	tmp, err := os.CreateTemp(dir, name+".*.tmp")
	if err != nil {
		return "", errors.Wrapf(err, "creating temporary file for '%s'", path)
	}
	n, err := io.Copy(tmp, resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return "", errors.Wrapf(err, "writing '%s'", path)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", errors.Wrapf(err, "renaming into '%s'", path)
	}
	fmt.Printf("Successfully downloaded %s %d bytes.\n", name, n)
	return path, nil
}

// Verify compares the SHA-256 digest of the file at path with the hex digest
func Verify(path, digest string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "cannot open file to check file '%s'", path)
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return errors.Wrapf(err, "cannot copy file to hash file '%s'", path)
	}
	if got := fmt.Sprintf("%x", h.Sum(nil)); got != digest {
		return errors.Errorf("file hash for file '%s' is incorrect: %s", path, got)
	}
	return nil
}
