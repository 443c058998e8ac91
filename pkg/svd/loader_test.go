package svd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeHWTree lays out a hardware description tree for one MCU and
// returns its root.
func writeHWTree(t *testing.T, mcu, manifest, svd string) string {
	t.Helper()
	root := t.TempDir()
	mcuDir := filepath.Join(root, "mcu", "arm", mcu)
	cacheDir := filepath.Join(mcuDir, ".cache")
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if manifest != "" {
		if err := os.WriteFile(filepath.Join(mcuDir, "cecrops.json"), []byte(manifest), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if svd != "" {
		if err := os.WriteFile(filepath.Join(cacheDir, "device.svd"), []byte(svd), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

const plainManifest = `{"schemaVersion": "0.1", "mcu": "stm32h750"}`

func TestLoaderLoads(t *testing.T) {
	root := writeHWTree(t, "stm32h750", plainManifest, sampleSVD)
	db, err := NewLoader(root).Load("stm32h750")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if db == nil {
		t.Fatal("Load returned no database")
	}
	if db.DeviceName() != "STM32H750" {
		t.Errorf("device = %q", db.DeviceName())
	}
}

func TestLoaderEnvFallback(t *testing.T) {
	root := writeHWTree(t, "rp2040", plainManifest, sampleSVD)
	t.Setenv("SBL_HW_PATH", root)
	db, err := NewLoader("").Load("rp2040")
	if err != nil || db == nil {
		t.Fatalf("Load via SBL_HW_PATH: db=%v err=%v", db, err)
	}
}

func TestLoaderUnavailable(t *testing.T) {
	// absence of any artifact is not an error
	cases := []struct {
		name string
		root func(t *testing.T) string
	}{
		{"no root", func(t *testing.T) string { return "" }},
		{"no mcu dir", func(t *testing.T) string { return t.TempDir() }},
		{"no manifest", func(t *testing.T) string { return writeHWTree(t, "stm32h750", "", sampleSVD) }},
		{"no svd cache", func(t *testing.T) string { return writeHWTree(t, "stm32h750", plainManifest, "") }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("SBL_HW_PATH", "")
			db, err := NewLoader(tc.root(t)).Load("stm32h750")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if db != nil {
				t.Fatal("expected no database")
			}
		})
	}
}

func TestLoaderBadSVDIsError(t *testing.T) {
	root := writeHWTree(t, "stm32h750", plainManifest, "<device><unclosed>")
	if _, err := NewLoader(root).Load("stm32h750"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoaderCaches(t *testing.T) {
	root := writeHWTree(t, "stm32h750", plainManifest, sampleSVD)
	l := NewLoader(root)
	db1, err := l.Load("stm32h750")
	if err != nil {
		t.Fatal(err)
	}
	// remove the tree; a cached database must still come back
	if err := os.RemoveAll(filepath.Join(root, "mcu")); err != nil {
		t.Fatal(err)
	}
	db2, err := l.Load("stm32h750")
	if err != nil {
		t.Fatal(err)
	}
	if db1 != db2 {
		t.Error("second load did not hit the cache")
	}
}

func TestManifestPatches(t *testing.T) {
	manifest := `{
		"schemaVersion": "0.1",
		"mcu": "stm32h750",
		"patches": {
			"GPIOA": {
				"description": "IDR is read-only and MODER doc is wrong upstream",
				"registers": {
					"IDR": {"delete": true},
					"MODER": {"description": "Port mode", "access": "write-only"}
				}
			}
		}
	}`
	root := writeHWTree(t, "stm32h750", manifest, sampleSVD)
	db, err := NewLoader(root).Load("stm32h750")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	p, err := db.Peripheral("GPIOA")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Register(p, "IDR"); err == nil {
		t.Error("deleted register still present")
	}
	moder, err := db.Register(p, "MODER")
	if err != nil {
		t.Fatal(err)
	}
	if moder.Description != "Port mode" || moder.Access != "write-only" {
		t.Errorf("overrides not applied: %q %q", moder.Description, moder.Access)
	}
}

func TestManifestStalePatchIsError(t *testing.T) {
	manifest := `{"schemaVersion": "0.1", "mcu": "x",
		"patches": {"GPIOA": {"registers": {"GONE": {"delete": true}}}}}`
	root := writeHWTree(t, "stm32h750", manifest, sampleSVD)
	_, err := NewLoader(root).Load("stm32h750")
	if err == nil || !strings.Contains(err.Error(), "GONE") {
		t.Fatalf("expected stale patch error, got %v", err)
	}
}
