package credentials

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func TestMaterializeFromBlob(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "creds.json")
	blob := `{"type":"service_account","project_id":"p"}`
	got, err := Materialize(zerolog.Nop(), blob, "", dest)
	if err != nil { t.Fatalf("materialize: %v", err) }
	if got != dest {
		t.Fatalf("path = %q, want %q", got, dest)
	}
	b, err := os.ReadFile(dest)
	if err != nil { t.Fatalf("read back: %v", err) }
	if string(b) != blob {
		t.Fatalf("blob not written verbatim: %q", string(b))
	}
	fi, err := os.Stat(dest)
	if err != nil { t.Fatalf("stat: %v", err) }
	if fi.Mode().Perm() != 0o600 {
		t.Fatalf("mode = %v, want 0600", fi.Mode().Perm())
	}
}

func TestMaterializeBlobWriteError(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "missing-dir", "creds.json")
	if _, err := Materialize(zerolog.Nop(), "{}", "", dest); err == nil {
		t.Fatal("expected error for unwritable destination")
	}
}

func TestMaterializeExistingPath(t *testing.T) {
	p := filepath.Join(t.TempDir(), "existing.json")
	if err := os.WriteFile(p, []byte("{}"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := Materialize(zerolog.Nop(), "", p, "")
	if err != nil { t.Fatalf("materialize: %v", err) }
	if got != p {
		t.Fatalf("path = %q, want %q", got, p)
	}
}

func TestMaterializeAbsentIsSoft(t *testing.T) {
	got, err := Materialize(zerolog.Nop(), "", "", filepath.Join(t.TempDir(), "unused.json"))
	if err != nil {
		t.Fatalf("absent credentials must not fail startup: %v", err)
	}
	if got != "" {
		t.Fatalf("path = %q, want empty", got)
	}
}
