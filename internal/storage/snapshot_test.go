package storage

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

type record struct {
	ID    string `json:"id"`
	Count int    `json:"count"`
}

func TestLoadMissingFile(t *testing.T) {
	var out map[string]record
	ok, err := Load(filepath.Join(t.TempDir(), "nope.json"), &out)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ok {
		t.Fatal("expected ok=false for missing file")
	}
}

func TestLoadEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	var out []record
	ok, err := Load(path, &out)
	if err != nil || ok {
		t.Fatalf("Load empty = (%v, %v), want (false, nil)", ok, err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "records.json")
	in := map[string]record{
		"a": {ID: "a", Count: 1},
		"b": {ID: "b", Count: 2},
	}
	if err := Save(path, in); err != nil {
		t.Fatalf("Save: %v", err)
	}
	var out map[string]record
	ok, err := Load(path, &out)
	if err != nil || !ok {
		t.Fatalf("Load = (%v, %v)", ok, err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("round trip mismatch: %+v != %+v", out, in)
	}
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "records.json")
	if err := Save(path, []record{{ID: "a"}}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Fatalf("temp file left behind: %s", e.Name())
		}
	}
}

func TestSaveRejectsUnencodable(t *testing.T) {
	if err := Save(filepath.Join(t.TempDir(), "x.json"), make(chan int)); err == nil {
		t.Fatal("expected encode error")
	}
}
