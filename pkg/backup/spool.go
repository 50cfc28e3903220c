package backup

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// UploadedSuffix marks spool files that were stored but kept on disk.
const UploadedSuffix = ".uploaded"

// SpoolProducer ingests dump files that an external dump tool wrote into a
// directory. Each regular file is one source.
type SpoolProducer struct {
	// Dir is the spool directory.
	Dir string

	// RemoveAfterUpload deletes stored files. Otherwise they are renamed
	// with UploadedSuffix and skipped by later runs.
	RemoveAfterUpload bool

	logger *slog.Logger
}

// NewSpoolProducer creates a producer reading from dir.
func NewSpoolProducer(dir string, removeAfterUpload bool) *SpoolProducer {
	return &SpoolProducer{
		Dir:               dir,
		RemoveAfterUpload: removeAfterUpload,
		logger:            slog.Default().With("component", "backup.spool"),
	}
}

// Sources lists the pending files in the spool directory, sorted by name.
// Hidden files and files already marked uploaded are skipped.
func (p *SpoolProducer) Sources(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(p.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read spool directory %s: %w", p.Dir, err)
	}

	var sources []string
	for _, entry := range entries {
		name := entry.Name()
		if !entry.Type().IsRegular() || strings.HasPrefix(name, ".") || strings.HasSuffix(name, UploadedSuffix) {
			continue
		}
		sources = append(sources, name)
	}
	sort.Strings(sources)
	return sources, nil
}

// Open opens a spool file. Files already named like generated artifacts
// keep their name; anything else is renamed after its modification time.
func (p *SpoolProducer) Open(ctx context.Context, source string) (*Dump, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := p.path(source)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open spool file: %w", err)
	}

	name := source
	if _, _, ok := parseArtifactName(source); !ok {
		info, err := f.Stat()
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to stat spool file: %w", err)
		}
		name = ArtifactName(strings.TrimSuffix(source, filepath.Ext(source)), info.ModTime())
	}

	return &Dump{Source: source, Name: name, Reader: f}, nil
}

// Done removes or marks the stored file.
func (p *SpoolProducer) Done(ctx context.Context, source string) error {
	path, err := p.path(source)
	if err != nil {
		return err
	}

	if p.RemoveAfterUpload {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to remove spool file: %w", err)
		}
		p.log().Debug("spool file removed", "source", source)
		return nil
	}

	if err := os.Rename(path, path+UploadedSuffix); err != nil {
		return fmt.Errorf("failed to mark spool file uploaded: %w", err)
	}
	p.log().Debug("spool file marked uploaded", "source", source)
	return nil
}

func (p *SpoolProducer) path(source string) (string, error) {
	if source == "" || source != filepath.Base(source) {
		return "", fmt.Errorf("invalid spool source %q", source)
	}
	return filepath.Join(p.Dir, source), nil
}

func (p *SpoolProducer) log() *slog.Logger {
	if p.logger == nil {
		return slog.Default().With("component", "backup.spool")
	}
	return p.logger
}
