package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
)

func loadFromFS(ctx context.Context, filesystem fs.FS, name string) ([]byte, error) {
	if filesystem == nil {
		return nil, errNoFilesystem
	}
	if name == "" {
		return nil, errors.New("fs path is required")
	}
	if !fs.ValidPath(name) {
		return nil, fmt.Errorf("fs path %q: %w", name, fs.ErrInvalid)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return fs.ReadFile(filesystem, name)
}
