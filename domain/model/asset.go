package model

import (
	"sync"

	"github.com/spf13/afero"
)

// TempAsset is a downloaded source file living in a scoped temporary location.
// Whoever receives it owns it and must call Release on every exit path.
type TempAsset struct {
	Fs     afero.Fs
	Path   string
	Name   string
	Size   int64
	once   sync.Once
	relErr error
}

// Open returns a fresh reader over the asset contents.
func (a *TempAsset) Open() (afero.File, error) {
	return a.Fs.Open(a.Path)
}

// Release deletes the temporary file. Safe to call more than once.
func (a *TempAsset) Release() error {
	if a == nil {
		return nil
	}
	a.once.Do(func() {
		a.relErr = a.Fs.Remove(a.Path)
	})
	return a.relErr
}
