package gen

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/syssam/sqlwith/compiler/load"
)

// writePackage writes the decoder file of p, or removes a previously
// generated one if p no longer has annotated structs. A file whose content
// is unchanged is not rewritten, so watchers do not see spurious events.
// Like removeStale, it never replaces a file lacking the generated header.
func (g *Generator) writePackage(p *load.Package, cs []*Container) error {
	path := filepath.Join(p.Dir, g.cfg.Output)
	if len(cs) == 0 {
		return g.removeStale(path)
	}
	src, err := g.Render(p, cs)
	if err != nil {
		return err
	}
	old, err := os.ReadFile(path)
	switch {
	case err == nil && bytes.Equal(old, src):
		g.log.Debug("decoder file unchanged", zap.String("file", path))
		return nil
	case err == nil && g.cfg.Header != "" && !g.generated(old):
		// With no header configured every existing file counts as ours.
		return NewGenerationError(PhaseWrite, path, "refusing to overwrite file without generated header", nil)
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		return NewGenerationError(PhaseWrite, path, "reading existing file", err)
	}
	if err := os.WriteFile(path, src, 0o644); err != nil {
		return NewGenerationError(PhaseWrite, path, "", err)
	}
	g.log.Info("decoder file written",
		zap.String("package", p.Path),
		zap.String("file", path),
		zap.Int("decoders", len(cs)),
	)
	return nil
}

// removeStale deletes path if it exists and carries the generated header.
// Files written by someone else are left in place.
func (g *Generator) removeStale(path string) error {
	src, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return NewGenerationError(PhaseWrite, path, "reading stale file", err)
	}
	if !g.generated(src) {
		g.log.Warn("not removing file without generated header", zap.String("file", path))
		return nil
	}
	if err := os.Remove(path); err != nil {
		return NewGenerationError(PhaseWrite, path, "removing stale file", err)
	}
	g.log.Info("stale decoder file removed", zap.String("file", path))
	return nil
}

func (g *Generator) generated(src []byte) bool {
	if g.cfg.Header == "" {
		return false
	}
	return bytes.HasPrefix(src, []byte("// "+g.cfg.Header))
}
