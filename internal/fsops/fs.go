package fsops

import (
	"fmt"
	"os"
)

// FS is the set of filesystem operations the orchestrator performs. OS is the
// real implementation; tests substitute recorders.
type FS interface {
	Exists(path string) (bool, error)
	EnsureDir(dir string) error
	Move(src, dst string) error
	Replace(src, dst string) error
	RemoveAll(path string) error
}

// OS implements FS on the host filesystem.
type OS struct{}

func (OS) Exists(path string) (bool, error) { return Exists(path) }
func (OS) EnsureDir(dir string) error       { return EnsureDir(dir) }
func (OS) Move(src, dst string) error       { return Move(src, dst) }
func (OS) Replace(src, dst string) error    { return Replace(src, dst) }

func (OS) RemoveAll(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}

var _ FS = OS{}
