package command

import (
	"testing"

	"github.com/dmc31a42/WargameModInstaller/internal/paths"
)

func TestDefaultPriority(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindRemoveFile, 1},
		{KindReplaceImage, 2},
		{KindReplaceImageTile, 2},
		{KindReplaceImagePart, 2},
		{KindReplaceContent, 2},
		{KindAlterDictionary, 2},
		{KindCopyModFile, 3},
		{KindCopyGameFile, 4},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			if got := DefaultPriority(tt.kind); got != tt.want {
				t.Fatalf("DefaultPriority(%s) = %d, want %d", tt.kind, got, tt.want)
			}
		})
	}
}

func TestParseKind(t *testing.T) {
	for _, kind := range Kinds() {
		parsed, ok := ParseKind(kind.String())
		if !ok || parsed != kind {
			t.Fatalf("ParseKind(%q) = %v, %v", kind.String(), parsed, ok)
		}
	}
	if _, ok := ParseKind("ReplaceEverything"); ok {
		t.Fatalf("expected unknown kind to fail")
	}
}

func TestAssignIDs(t *testing.T) {
	cmds := []Command{
		&RemoveFile{Meta: NewMeta(1, true)},
		&CopyModFile{Meta: NewMeta(3, false)},
		&AlterDictionary{Meta: NewMeta(2, false)},
	}
	AssignIDs(cmds)
	for i, cmd := range cmds {
		if cmd.ID() != i {
			t.Fatalf("command %d got id %d", i, cmd.ID())
		}
	}
}

func TestCapabilities(t *testing.T) {
	cmds := []Command{
		&CopyModFile{},
		&CopyGameFile{},
		&RemoveFile{},
		&ReplaceImage{},
		&ReplaceImageTile{},
		&ReplaceImagePart{},
		&ReplaceContent{},
		&AlterDictionary{},
	}

	content := 0
	targeted := 0
	sourced := 0
	for _, cmd := range cmds {
		if _, ok := cmd.(ContentTargeted); ok {
			content++
		}
		if _, ok := cmd.(Targeted); ok {
			targeted++
		}
		if _, ok := cmd.(Sourced); ok {
			sourced++
		}
	}
	if content != 5 {
		t.Fatalf("expected 5 content-targeted kinds, got %d", content)
	}
	if targeted != 7 {
		t.Fatalf("expected 7 targeted kinds, got %d", targeted)
	}
	if sourced != 7 {
		t.Fatalf("expected 7 sourced kinds, got %d", sourced)
	}
}

func TestCommandsAcceptEmptyPaths(t *testing.T) {
	cmd := &ReplaceImage{
		Meta:              NewMeta(2, true),
		SourcePath:        paths.NewEntityPath(""),
		TargetPath:        paths.NewEntityPath(""),
		TargetContentPath: paths.ParseContentPath(""),
	}
	if !cmd.Source().IsEmpty() || !cmd.Target().IsEmpty() || !cmd.TargetContent().IsEmpty() {
		t.Fatalf("expected empty paths to be kept as-is")
	}
	if !cmd.IsCritical() {
		t.Fatalf("expected critical flag kept")
	}
}

func TestTileAddressed(t *testing.T) {
	column, row := 1, 2
	if (&ReplaceImageTile{Column: &column}).TileAddressed() {
		t.Fatalf("expected partial address to be unaddressed")
	}
	if !(&ReplaceImageTile{Column: &column, Row: &row}).TileAddressed() {
		t.Fatalf("expected full address")
	}
}
