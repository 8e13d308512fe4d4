package updater

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	rerrors "github.com/Didstopia/ruffle-manager/internal/errors"
	"github.com/Didstopia/ruffle-manager/internal/filelock"
	"github.com/Didstopia/ruffle-manager/internal/platform"
)

// acquire takes the in-process and cross-process locks for a target. The
// returned function releases both.
func (u *Updater) acquire(target platform.Target) (func(), error) {
	u.locksMu.Lock()
	mu, ok := u.locks[target]
	if !ok {
		mu = &sync.Mutex{}
		u.locks[target] = mu
	}
	u.locksMu.Unlock()

	if !mu.TryLock() {
		return nil, fmt.Errorf("%s: %w", target, rerrors.ErrInstallInProgress)
	}

	if u.lockDir == "" {
		return mu.Unlock, nil
	}

	if err := os.MkdirAll(u.lockDir, 0700); err != nil {
		mu.Unlock()
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}
	fl := filelock.New(filepath.Join(u.lockDir, target.String()+".lock"))
	locked, err := fl.TryLock()
	if err != nil {
		mu.Unlock()
		return nil, fmt.Errorf("failed to lock %s: %w", target, err)
	}
	if !locked {
		mu.Unlock()
		return nil, fmt.Errorf("%s: %w", target, rerrors.ErrInstallInProgress)
	}

	return func() {
		_ = fl.Unlock()
		mu.Unlock()
	}, nil
}
