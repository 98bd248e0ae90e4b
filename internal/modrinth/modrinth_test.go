package modrinth

import "testing"

func TestCompatibleFiltersAndSortsByDate(t *testing.T) {
	versions := []Version{
		{ID: "old", Loaders: []string{"fabric"}, GameVersions: []string{"1.20.4"}, DatePublished: "2023-01-01"},
		{ID: "new", Loaders: []string{"fabric"}, GameVersions: []string{"1.20.4"}, DatePublished: "2024-01-01"},
		{ID: "wrong-loader", Loaders: []string{"forge"}, GameVersions: []string{"1.20.4"}, DatePublished: "2024-06-01"},
		{ID: "wrong-mc", Loaders: []string{"fabric"}, GameVersions: []string{"1.19.2"}, DatePublished: "2024-06-01"},
	}

	got := Compatible(versions, "fabric", "1.20.4")
	if len(got) != 2 {
		t.Fatalf("expected 2 compatible versions, got %d: %+v", len(got), got)
	}
	if got[0].ID != "new" || got[1].ID != "old" {
		t.Fatalf("expected descending date order, got %+v", got)
	}
}

func TestPrimaryFileSingleFile(t *testing.T) {
	v := Version{Files: []File{{Filename: "mod.jar"}}}
	f, err := PrimaryFile(v)
	if err != nil {
		t.Fatal(err)
	}
	if f.Filename != "mod.jar" {
		t.Fatalf("got %q", f.Filename)
	}
}

func TestPrimaryFilePicksFlaggedFile(t *testing.T) {
	v := Version{Files: []File{
		{Filename: "sources.jar"},
		{Filename: "mod.jar", Primary: true},
	}}
	f, err := PrimaryFile(v)
	if err != nil {
		t.Fatal(err)
	}
	if f.Filename != "mod.jar" {
		t.Fatalf("got %q", f.Filename)
	}
}

func TestPrimaryFileErrorsWithNoCandidate(t *testing.T) {
	v := Version{Files: []File{{Filename: "a.jar"}, {Filename: "b.jar"}}}
	if _, err := PrimaryFile(v); err == nil {
		t.Fatal("expected error when no file is flagged primary among multiple")
	}
}
