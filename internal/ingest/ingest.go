// Package ingest turns an install document into commands.
//
// Ingestion is lenient: a command element is always turned into a command,
// with missing attributes left empty and unparseable numbers replaced by the
// kind's default. Whether a broken command matters is decided later by its
// criticality, not here.
package ingest

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/dmc31a42/WargameModInstaller/internal/command"
	"github.com/dmc31a42/WargameModInstaller/internal/parser"
	"github.com/dmc31a42/WargameModInstaller/internal/paths"
	"github.com/dmc31a42/WargameModInstaller/internal/plan"
)

const installCommandsPath = "WargameModInstallerConfig/InstallCommands"

var ErrInvalidDocument = errors.New("invalid install document")

type Options struct {
	// DefaultCritical is used for commands without an isCritical attribute.
	DefaultCritical bool
	// Components restricts reading to the children of elements whose name
	// attribute matches one of these. Empty reads every top level command.
	Components []string
	Logger     *log.Logger
}

type Reader struct {
	opts   Options
	logger *log.Logger
}

func NewReader(opts Options) *Reader {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Reader{opts: opts, logger: logger}
}

func (r *Reader) ReadFile(path string) ([]command.Command, error) {
	doc, err := parser.ParseFile(path)
	if err != nil {
		if errors.Is(err, parser.ErrInvalidXML) || errors.Is(err, parser.ErrEmptyDocument) {
			return nil, fmt.Errorf("%w %s: %v", ErrInvalidDocument, path, err)
		}
		return nil, fmt.Errorf("reading install document: %w", err)
	}
	return r.fromDocument(doc), nil
}

func (r *Reader) Read(src io.Reader) ([]command.Command, error) {
	doc, err := parser.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return r.fromDocument(doc), nil
}

// Plan reads the document at path and groups its commands.
func Plan(path string, opts Options) ([]plan.Group, error) {
	cmds, err := NewReader(opts).ReadFile(path)
	if err != nil {
		return nil, err
	}
	return plan.Build(cmds), nil
}

func (r *Reader) fromDocument(doc *parser.Document) []command.Command {
	root := doc.Root.Find(installCommandsPath)
	if root == nil {
		r.logger.Warn("install document has no commands", "file", doc.SourceFile, "path", installCommandsPath)
		return nil
	}

	var cmds []command.Command
	for _, parent := range r.commandParents(root) {
		for _, el := range parent.Children {
			kind, ok := command.ParseKind(el.Name)
			if !ok {
				continue
			}
			cmds = append(cmds, r.readCommand(kind, el))
		}
	}

	command.AssignIDs(cmds)
	return cmds
}

// commandParents returns the elements whose direct children are commands.
func (r *Reader) commandParents(root *parser.Element) []*parser.Element {
	if len(r.opts.Components) == 0 {
		return []*parser.Element{root}
	}

	var parents []*parser.Element
	seen := make(map[string]struct{}, len(r.opts.Components))
	for _, name := range r.opts.Components {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}

		var found *parser.Element
		root.Walk(func(el *parser.Element) bool {
			if value, ok := el.Attr("name"); ok && value == name {
				found = el
				return false
			}
			return true
		})
		if found == nil {
			r.logger.Warn("component not found", "component", name)
			continue
		}
		parents = append(parents, found)
	}
	return parents
}

func (r *Reader) readCommand(kind command.Kind, el *parser.Element) command.Command {
	attrs := attributeReader{el: el, logger: r.logger}
	meta := command.NewMeta(
		attrs.number("priority", command.DefaultPriority(kind)),
		attrs.flag("isCritical", r.opts.DefaultCritical),
	)
	source := paths.NewEntityPath(attrs.text("sourcePath"))
	target := paths.NewEntityPath(attrs.text("targetPath"))
	content := paths.ParseContentPath(attrs.text("targetContentPath"))

	switch kind {
	case command.KindCopyModFile:
		return &command.CopyModFile{Meta: meta, SourcePath: source, TargetPath: target}
	case command.KindCopyGameFile:
		return &command.CopyGameFile{Meta: meta, SourcePath: source, TargetPath: target}
	case command.KindRemoveFile:
		return &command.RemoveFile{Meta: meta, SourcePath: source}
	case command.KindReplaceImage:
		return &command.ReplaceImage{Meta: meta, SourcePath: source, TargetPath: target, TargetContentPath: content}
	case command.KindReplaceImageTile:
		return &command.ReplaceImageTile{
			Meta:              meta,
			SourcePath:        source,
			TargetPath:        target,
			TargetContentPath: content,
			Column:            attrs.optionalNumber("column"),
			Row:               attrs.optionalNumber("row"),
			TileSize:          attrs.number("tileSize", command.DefaultTileSize),
		}
	case command.KindReplaceImagePart:
		return &command.ReplaceImagePart{
			Meta:              meta,
			SourcePath:        source,
			TargetPath:        target,
			TargetContentPath: content,
			XPosition:         attrs.number("xPos", 0),
			YPosition:         attrs.number("yPos", 0),
		}
	case command.KindReplaceContent:
		return &command.ReplaceContent{Meta: meta, SourcePath: source, TargetPath: target, TargetContentPath: content}
	default:
		return &command.AlterDictionary{
			Meta:              meta,
			TargetPath:        target,
			TargetContentPath: content,
			AlteredEntries:    r.readEntries(el),
		}
	}
}

func (r *Reader) readEntries(el *parser.Element) []command.DictionaryEntry {
	var entries []command.DictionaryEntry
	for _, child := range el.Children {
		if child.Name != "Entry" {
			continue
		}
		hash, ok := child.Attr("hash")
		if !ok || strings.TrimSpace(hash) == "" {
			r.logger.Warn("dictionary entry ignored", "line", child.Line, "reason", "missing hash")
			continue
		}
		value, ok := child.Attr("value")
		if !ok {
			value = child.Text
		}
		entries = append(entries, command.DictionaryEntry{Key: hash, Value: value})
	}
	return entries
}

type attributeReader struct {
	el     *parser.Element
	logger *log.Logger
}

func (a attributeReader) text(name string) string {
	value, _ := a.el.Attr(name)
	return value
}

func (a attributeReader) number(name string, fallback int) int {
	raw, ok := a.el.Attr(name)
	if !ok {
		return fallback
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		a.invalid(name, raw, fallback)
		return fallback
	}
	return value
}

func (a attributeReader) optionalNumber(name string) *int {
	raw, ok := a.el.Attr(name)
	if !ok {
		return nil
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		a.invalid(name, raw, nil)
		return nil
	}
	return &value
}

func (a attributeReader) flag(name string, fallback bool) bool {
	raw, ok := a.el.Attr(name)
	if !ok {
		return fallback
	}
	value, err := strconv.ParseBool(strings.ToLower(strings.TrimSpace(raw)))
	if err != nil {
		a.invalid(name, raw, fallback)
		return fallback
	}
	return value
}

func (a attributeReader) invalid(name, raw string, fallback any) {
	a.logger.Warn("invalid attribute value",
		"element", a.el.Name,
		"attribute", name,
		"value", raw,
		"line", a.el.Line,
		"using", fallback,
	)
}
