package parser

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sample = `<?xml version="1.0" encoding="utf-8"?>
<WargameModInstallerConfig>
  <InstallCommands>
    <CopyModFile sourcePath="a.txt" targetPath="Data/a.txt" />
    <AlterDictionary targetPath="Data/ZZ_Win.dat">
      <Entry hash="0A1B">value text</Entry>
    </AlterDictionary>
  </InstallCommands>
</WargameModInstallerConfig>
`

func TestParse(t *testing.T) {
	t.Run("builds element tree", func(t *testing.T) {
		doc, err := Parse(strings.NewReader(sample))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if doc.Root.Name != "WargameModInstallerConfig" {
			t.Fatalf("expected root WargameModInstallerConfig, got %q", doc.Root.Name)
		}
		cmds := doc.Root.Find("WargameModInstallerConfig/InstallCommands")
		if cmds == nil {
			t.Fatalf("expected InstallCommands element")
		}
		if len(cmds.Children) != 2 {
			t.Fatalf("expected 2 commands, got %d", len(cmds.Children))
		}
		source, ok := cmds.Children[0].Attr("sourcePath")
		if !ok || source != "a.txt" {
			t.Fatalf("expected sourcePath a.txt, got %q (%v)", source, ok)
		}
		if _, ok := cmds.Children[0].Attr("isCritical"); ok {
			t.Fatalf("expected isCritical to be absent")
		}
	})

	t.Run("records lines and text", func(t *testing.T) {
		doc, err := Parse(strings.NewReader(sample))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		entry := doc.Root.Find("WargameModInstallerConfig/InstallCommands/AlterDictionary/Entry")
		if entry == nil {
			t.Fatalf("expected Entry element")
		}
		if entry.Line != 6 {
			t.Fatalf("expected entry on line 6, got %d", entry.Line)
		}
		if entry.Text != "value text" {
			t.Fatalf("expected text %q, got %q", "value text", entry.Text)
		}
	})

	t.Run("malformed xml", func(t *testing.T) {
		_, err := Parse(strings.NewReader("<Root><Open></Root>"))
		if !errors.Is(err, ErrInvalidXML) {
			t.Fatalf("expected ErrInvalidXML, got %v", err)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := Parse(strings.NewReader("  "))
		if !errors.Is(err, ErrEmptyDocument) {
			t.Fatalf("expected ErrEmptyDocument, got %v", err)
		}
	})

	t.Run("latin1 declaration", func(t *testing.T) {
		input := "<?xml version=\"1.0\" encoding=\"windows-1252\"?><Root name=\"caf\xe9\"/>"
		doc, err := Parse(strings.NewReader(input))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if name, _ := doc.Root.Attr("name"); name != "café" {
			t.Fatalf("expected decoded name café, got %q", name)
		}
	})
}

func TestFind(t *testing.T) {
	doc, err := Parse(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if doc.Root.Find("Other/InstallCommands") != nil {
		t.Fatalf("expected nil for wrong root name")
	}
	if doc.Root.Find("WargameModInstallerConfig/Missing") != nil {
		t.Fatalf("expected nil for missing child")
	}
	if doc.Root.Find("WargameModInstallerConfig") != doc.Root {
		t.Fatalf("expected root for single segment")
	}
}

func TestWalk(t *testing.T) {
	doc, err := Parse(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var names []string
	doc.Root.Walk(func(el *Element) bool {
		names = append(names, el.Name)
		return el.Name != "AlterDictionary"
	})
	expected := []string{"InstallCommands", "CopyModFile", "AlterDictionary"}
	if strings.Join(names, ",") != strings.Join(expected, ",") {
		t.Fatalf("expected %v, got %v", expected, names)
	}
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "install.xml")
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	doc, err := ParseFile(path)
	if err != nil {
		t.Fatalf("parse file: %v", err)
	}
	if doc.SourceFile != path {
		t.Fatalf("expected source file %q, got %q", path, doc.SourceFile)
	}

	if _, err := ParseFile(filepath.Join(dir, "missing.xml")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not exist error, got %v", err)
	}
}
