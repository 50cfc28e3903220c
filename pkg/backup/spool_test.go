package backup

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func writeSpoolFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestSpoolProducer_Sources(t *testing.T) {
	dir := t.TempDir()
	writeSpoolFile(t, dir, "inventory.sql", "x")
	writeSpoolFile(t, dir, "billing.sql", "x")
	writeSpoolFile(t, dir, ".partial.sql", "x")
	writeSpoolFile(t, dir, "old.sql"+UploadedSuffix, "x")
	if err := os.Mkdir(filepath.Join(dir, "nested"), 0o755); err != nil {
		t.Fatal(err)
	}

	sources, err := NewSpoolProducer(dir, false).Sources(context.Background())
	if err != nil {
		t.Fatalf("Sources() failed: %v", err)
	}
	want := []string{"billing.sql", "inventory.sql"}
	if !reflect.DeepEqual(sources, want) {
		t.Errorf("Expected %v, got %v", want, sources)
	}
}

func TestSpoolProducer_SourcesMissingDir(t *testing.T) {
	p := NewSpoolProducer(filepath.Join(t.TempDir(), "missing"), false)
	if _, err := p.Sources(context.Background()); err == nil {
		t.Error("Expected error for missing spool directory")
	}
}

func TestSpoolProducer_Open(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := writeSpoolFile(t, dir, "inventory.dump", "-- dump")
	modTime := time.Date(2024, time.March, 17, 2, 30, 0, 0, time.UTC)
	if err := os.Chtimes(path, modTime, modTime); err != nil {
		t.Fatal(err)
	}
	writeSpoolFile(t, dir, "billing_2024-03-16_23-00-00.sql", "-- named")

	p := NewSpoolProducer(dir, false)

	tests := []struct {
		source   string
		wantName string
		wantBody string
	}{
		{"inventory.dump", "inventory_2024-03-17_02-30-00.sql", "-- dump"},
		{"billing_2024-03-16_23-00-00.sql", "billing_2024-03-16_23-00-00.sql", "-- named"},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			dump, err := p.Open(ctx, tt.source)
			if err != nil {
				t.Fatalf("Open() failed: %v", err)
			}
			defer dump.Reader.Close()

			if dump.Name != tt.wantName {
				t.Errorf("Expected name %q, got %q", tt.wantName, dump.Name)
			}
			body, err := io.ReadAll(dump.Reader)
			if err != nil || string(body) != tt.wantBody {
				t.Errorf("Expected body %q, got %q (%v)", tt.wantBody, body, err)
			}
		})
	}
}

func TestSpoolProducer_RejectsPaths(t *testing.T) {
	p := NewSpoolProducer(t.TempDir(), false)
	for _, source := range []string{"", "../etc/passwd", "a/b.sql"} {
		if _, err := p.Open(context.Background(), source); err == nil {
			t.Errorf("Expected error for source %q", source)
		}
	}
}

func TestSpoolProducer_Done(t *testing.T) {
	ctx := context.Background()

	t.Run("mark", func(t *testing.T) {
		dir := t.TempDir()
		path := writeSpoolFile(t, dir, "a.sql", "x")
		p := NewSpoolProducer(dir, false)

		if err := p.Done(ctx, "a.sql"); err != nil {
			t.Fatalf("Done() failed: %v", err)
		}
		if _, err := os.Stat(path + UploadedSuffix); err != nil {
			t.Errorf("Expected marked file: %v", err)
		}
		sources, _ := p.Sources(ctx)
		if len(sources) != 0 {
			t.Errorf("Expected marked file skipped, got %v", sources)
		}
	})

	t.Run("remove", func(t *testing.T) {
		dir := t.TempDir()
		path := writeSpoolFile(t, dir, "a.sql", "x")

		if err := NewSpoolProducer(dir, true).Done(ctx, "a.sql"); err != nil {
			t.Fatalf("Done() failed: %v", err)
		}
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Errorf("Expected file removed, stat returned %v", err)
		}
	})
}

func TestParseArtifactName(t *testing.T) {
	at := time.Date(2024, time.March, 17, 2, 0, 0, 0, time.UTC)

	source, got, ok := parseArtifactName(ArtifactName("app_db", at))
	if !ok || source != "app_db" || !got.Equal(at) {
		t.Errorf("Round trip failed: %q %s %v", source, got, ok)
	}

	for _, name := range []string{"db.sql", "db_2024-03-17.sql", "db_2024-13-17_02-00-00.sql", "db_2024-03-17_02-00-00.gz"} {
		if _, _, ok := parseArtifactName(name); ok {
			t.Errorf("Expected %q rejected", name)
		}
	}
}
