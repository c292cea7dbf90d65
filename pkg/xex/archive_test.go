package xex

import (
	"bytes"
	"path/filepath"
	"reflect"
	"testing"
)

func TestModuleName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"demo.dc", "demo.xexm"},
		{"scripts/demo.dc", "demo.xexm"},
		{"/abs/path/loop.decoy", "loop.xexm"},
		{"noext", "noext.xexm"},
		{"two.dots.dc", "two.dots.xexm"},
	}

	for _, tc := range tests {
		if got := ModuleName(tc.path); got != tc.want {
			t.Errorf("ModuleName(%q) = %q; want %q", tc.path, got, tc.want)
		}
	}
}

func TestArchiveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xex")

	modules := map[string][]byte{
		"first.xexm":  {0xff},
		"second.xexm": {0x00, 0x01, 0x00, 0x00, 0x00, 0x61, 0x02},
	}

	w, err := Create(path)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	for name, bytecode := range modules {
		if err := w.Add(name, bytecode); err != nil {
			t.Fatalf("Add(%q) returned error: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	a, err := Open(path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer a.Close()

	if got, want := a.Modules(), []string{"first.xexm", "second.xexm"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Modules() = %v; want %v", got, want)
	}

	for name, want := range modules {
		got, err := a.Read(name)
		if err != nil {
			t.Fatalf("Read(%q) returned error: %v", name, err)
		}
		if !bytes.Equal(got, want) {
			t.Errorf("Read(%q) = % x; want % x", name, got, want)
		}
	}

	if _, err := a.Read("missing.xexm"); err == nil {
		t.Error("Read of a missing module succeeded; want error")
	}
}

func TestAddRejectsEmptyBytecode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xex")

	w, err := Create(path)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	defer w.Close()

	if err := w.Add("empty.xexm", nil); err == nil {
		t.Error("Add with empty bytecode succeeded; want error")
	}
}
