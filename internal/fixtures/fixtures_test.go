package fixtures

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

type request struct {
	BillingID string `yaml:"billingId"`
	UnitID    string `yaml:"unitId"`
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadJSONWithKey(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "audit.json", `{
  "validRequest": {"billingId": "B-100", "unitId": "U-7"},
  "otherRequest": {"billingId": "B-200"}
}`)

	var got request
	if err := Load(dir, "audit.json", "validRequest", &got); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.BillingID != "B-100" || got.UnitID != "U-7" {
		t.Errorf("unexpected fixture %+v", got)
	}
}

func TestLoadWholeFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "req.yaml", "billingId: B-1\nunitId: U-1\n")

	var got request
	if err := Load(dir, "req.yaml", "", &got); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.BillingID != "B-1" {
		t.Errorf("expected B-1, got %q", got.BillingID)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "audit.json", `{"validRequest": {}}`)
	writeFile(t, dir, "broken.json", `{"validRequest": `)

	var got request
	if err := Load(dir, "missing.json", "", &got); err == nil {
		t.Error("expected error for missing file")
	}
	if err := Load(dir, "audit.json", "nope", &got); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}
	if err := Load(dir, "broken.json", "validRequest", &got); err == nil {
		t.Error("expected parse error")
	}
}

func TestExpand(t *testing.T) {
	t.Setenv("APIPROBE_TEST_UNIT", "U-env")
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.FixedZone("X", 3600))
	vars := map[string]string{"billing": "B-9"}

	tests := []struct {
		input, want string
	}{
		{"{{billing}}", "B-9"},
		{"{{ billing }}/{{APIPROBE_TEST_UNIT}}", "B-9/U-env"},
		{"{{$timestamp}}", "1709290800"},
		{"{{$isoTimestamp}}", "2024-03-01T11:00:00Z"},
		{"{{unknown}}", "{{unknown}}"},
		{"no placeholders", "no placeholders"},
	}
	for _, tt := range tests {
		if got := Expand(tt.input, vars, now); got != tt.want {
			t.Errorf("Expand(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}

	id := Expand("{{$uuid}}", nil, now)
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("{{$uuid}} expanded to %q: %v", id, err)
	}
}

func TestLoadWithVars(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "audit.yaml", "req:\n  billingId: \"{{billing}}\"\n  unitId: \"{{$uuid}}\"\n")

	var got request
	if err := LoadWithVars(dir, "audit.yaml", "req", &got, map[string]string{"billing": "B-42"}); err != nil {
		t.Fatalf("LoadWithVars failed: %v", err)
	}
	if got.BillingID != "B-42" {
		t.Errorf("expected B-42, got %q", got.BillingID)
	}
	if strings.Contains(got.UnitID, "{{") || len(got.UnitID) != 36 {
		t.Errorf("expected a generated uuid, got %q", got.UnitID)
	}
}

func TestLoadWithVarsKeepsSpecialCharacters(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "audit.json", `{"req": {"billingId": "{{billing}}", "unitId": "unit {{unit}}"}}`)
	writeFile(t, dir, "audit.yaml", "req:\n  billingId: '{{billing}}'\n  unitId: unit-{{unit}}\n")

	vars := map[string]string{
		"billing": `B "quoted" \ C:\path`,
		"unit":    "a: b # not a comment",
	}
	for _, file := range []string{"audit.json", "audit.yaml"} {
		t.Run(file, func(t *testing.T) {
			var got request
			if err := LoadWithVars(dir, file, "req", &got, vars); err != nil {
				t.Fatalf("LoadWithVars failed: %v", err)
			}
			if got.BillingID != vars["billing"] {
				t.Errorf("billingId = %q, want %q", got.BillingID, vars["billing"])
			}
			if !strings.HasSuffix(got.UnitID, vars["unit"]) {
				t.Errorf("unitId = %q, want suffix %q", got.UnitID, vars["unit"])
			}
		})
	}
}

func TestLoadExpandedPlainScalarResolvesAgain(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "page.yaml", "page:\n  size: 1{{digit}}\n")

	var got struct {
		Size int `yaml:"size"`
	}
	if err := LoadWithVars(dir, "page.yaml", "page", &got, map[string]string{"digit": "5"}); err != nil {
		t.Fatalf("LoadWithVars failed: %v", err)
	}
	if got.Size != 15 {
		t.Errorf("size = %d, want 15", got.Size)
	}
}

func TestLoadEmptyFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "empty.yaml", "")

	var got request
	if err := Load(dir, "empty.yaml", "", &got); err != nil {
		t.Errorf("empty file without key: %v", err)
	}
	if err := Load(dir, "empty.yaml", "req", &got); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}
}
