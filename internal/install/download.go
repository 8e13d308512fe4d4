package install

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

// progressWriter reports the running byte count after every write
type progressWriter struct {
	n        int64
	total    int64
	progress ProgressFunc
}

func (w *progressWriter) Write(p []byte) (int, error) {
	w.n += int64(len(p))
	w.progress(Event{Kind: EventDownload, Bytes: w.n, Total: w.total})
	return len(p), nil
}

// download streams url to dest and returns the hex sha256 of the body and
// its length. The body goes to a temporary file next to dest that is
// renamed once complete.
func (i *Installer) download(ctx context.Context, url, dest string, size int64, progress ProgressFunc) (string, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", 0, err
	}
	if i.userAgent != "" {
		req.Header.Set("User-Agent", i.userAgent)
	}

	resp, err := i.client.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("unexpected status %d downloading %s", resp.StatusCode, url)
	}

	total := resp.ContentLength
	if total <= 0 {
		total = size
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".download-*")
	if err != nil {
		return "", 0, err
	}
	tmpName := tmp.Name()

	hash := sha256.New()
	counter := &progressWriter{total: total, progress: progress}
	n, err := io.Copy(io.MultiWriter(tmp, hash, counter), resp.Body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmpName)
		return "", 0, err
	}

	if err := os.Rename(tmpName, dest); err != nil {
		_ = os.Remove(tmpName)
		return "", 0, err
	}

	return hex.EncodeToString(hash.Sum(nil)), n, nil
}
