package backup

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"
)

// artifactTimeLayout is the timestamp embedded in generated artifact names.
const artifactTimeLayout = "2006-01-02_15-04-05"

// Dump is one backup stream ready to be uploaded.
type Dump struct {
	// Source is the producer-specific name of what was dumped, such as a
	// database name.
	Source string

	// Name is the artifact name to store the dump under.
	Name string

	// Reader yields the dump content. The orchestrator closes it.
	Reader io.ReadCloser
}

// Producer supplies the dumps for a backup run.
type Producer interface {
	// Sources lists what should be backed up in this run.
	Sources(ctx context.Context) ([]string, error)

	// Open starts the dump for source.
	Open(ctx context.Context, source string) (*Dump, error)

	// Done is called after the dump for source was stored.
	Done(ctx context.Context, source string) error
}

// ArtifactName returns the artifact name for a dump of source taken at at,
// e.g. "inventory_2024-03-17_02-00-00.sql".
func ArtifactName(source string, at time.Time) string {
	return fmt.Sprintf("%s_%s.sql", source, at.UTC().Format(artifactTimeLayout))
}

// parseArtifactName reverses ArtifactName. The source part may itself
// contain underscores.
func parseArtifactName(name string) (string, time.Time, bool) {
	stem, ok := strings.CutSuffix(name, ".sql")
	if !ok || len(stem) < len(artifactTimeLayout)+2 {
		return "", time.Time{}, false
	}
	split := len(stem) - len(artifactTimeLayout)
	if stem[split-1] != '_' {
		return "", time.Time{}, false
	}
	at, err := time.Parse(artifactTimeLayout, stem[split:])
	if err != nil {
		return "", time.Time{}, false
	}
	return stem[:split-1], at, true
}
