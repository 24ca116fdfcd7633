package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/sediment/pkg/core"
)

// Archive writes processed notes into <Base>/<domain>/<date>/ and removes the source.
type Archive struct {
	Base  string
	Codec *FrontMatter
	// Perm is applied to written files. Defaults to 0644.
	Perm os.FileMode
}

// NewArchive creates an Archive rooted at base.
func NewArchive(base string, codec *FrontMatter) *Archive {
	if codec == nil {
		codec = NewFrontMatter()
	}
	return &Archive{Base: base, Codec: codec, Perm: 0644}
}

// Store implements core.Archive.
// The output becomes visible atomically; the source is removed afterwards, so
// a crash in between can leave both copies.
func (a *Archive) Store(ctx context.Context, note core.Note, dest core.Destination, body string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dir := dest.Dir(a.Base)
	out := filepath.Join(dir, note.Name())
	if samePath(out, note.Path) {
		return "", fmt.Errorf("destination %s is the source file", out)
	}

	data, err := a.Codec.Render(note, body)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}

	perm := a.Perm
	if perm == 0 {
		perm = 0644
	}
	if err := writeFileAtomic(out, data, perm); err != nil {
		return "", err
	}

	if err := os.Remove(note.Path); err != nil {
		return out, fmt.Errorf("failed to remove source %s: %w", note.Path, err)
	}
	return out, nil
}

func samePath(a, b string) bool {
	aa, err1 := filepath.Abs(a)
	bb, err2 := filepath.Abs(b)
	if err1 != nil || err2 != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return aa == bb
}

var _ core.Archive = (*Archive)(nil)
