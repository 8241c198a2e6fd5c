package fsutil

import (
	"errors"
	"io"
	"io/fs"
	"testing"
)

func TestOSFileSystem(t *testing.T) {
	fsys := OSFileSystem{}

	data, err := fsys.ReadFile("filesystem.go")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	info, err := fsys.Stat("filesystem.go")
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Size() != int64(len(data)) {
		t.Errorf("Stat size %d, ReadFile returned %d bytes", info.Size(), len(data))
	}
	if _, err := fsys.Open("nonexistent_file_xyz.go"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}

func TestMemoryFileSystem(t *testing.T) {
	mfs := NewMemoryFileSystem()
	src := []byte(`{"grid_width": 10}`)
	mfs.AddFile("config/./heatgrid.json", src)
	src[0] = 'X'

	data, err := mfs.ReadFile("config/heatgrid.json")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != `{"grid_width": 10}` {
		t.Errorf("unexpected contents %q", data)
	}

	info, err := mfs.Stat("config/heatgrid.json")
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Name() != "heatgrid.json" || info.Size() != 18 || info.IsDir() {
		t.Errorf("unexpected info: %s %d %v", info.Name(), info.Size(), info.IsDir())
	}

	f, err := mfs.Open("config/heatgrid.json")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()
	got, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(got) != string(data) {
		t.Errorf("Open contents %q, want %q", got, data)
	}

	for _, op := range []func(string) error{
		func(n string) error { _, err := mfs.Open(n); return err },
		func(n string) error { _, err := mfs.ReadFile(n); return err },
		func(n string) error { _, err := mfs.Stat(n); return err },
	} {
		if err := op("missing.json"); !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("expected ErrNotExist, got %v", err)
		}
	}
}

var _ FileSystem = OSFileSystem{}
var _ FileSystem = (*MemoryFileSystem)(nil)
