// Package command defines the install operations read from an install
// document. Commands are plain records: nothing is validated when they are
// built, so an empty or bogus path only surfaces when the command runs and its
// criticality decides whether the install aborts.
package command

import "github.com/dmc31a42/WargameModInstaller/internal/paths"

type Command interface {
	ID() int
	Kind() Kind
	Priority() int
	IsCritical() bool
}

// Sourced is implemented by commands that read from (or remove) a file.
type Sourced interface {
	Command
	Source() paths.EntityPath
}

// Targeted is implemented by commands that write to a target file.
type Targeted interface {
	Command
	Target() paths.EntityPath
}

// ContentTargeted is implemented by commands that modify a payload nested in
// their target archive.
type ContentTargeted interface {
	Targeted
	TargetContent() paths.ContentPath
}

// Meta carries the attributes every command shares.
type Meta struct {
	id       int
	priority int
	critical bool
}

func NewMeta(priority int, critical bool) Meta {
	return Meta{priority: priority, critical: critical}
}

func (m *Meta) ID() int          { return m.id }
func (m *Meta) Priority() int    { return m.priority }
func (m *Meta) IsCritical() bool { return m.critical }

func (m *Meta) setID(id int) { m.id = id }

type idAssigner interface {
	setID(id int)
}

// AssignIDs numbers cmds sequentially from zero in slice order. It is called
// once, after the whole document has been read.
func AssignIDs(cmds []Command) {
	for i, cmd := range cmds {
		if assigner, ok := cmd.(idAssigner); ok {
			assigner.setID(i)
		}
	}
}

type CopyModFile struct {
	Meta
	SourcePath paths.EntityPath
	TargetPath paths.EntityPath
}

func (c *CopyModFile) Kind() Kind               { return KindCopyModFile }
func (c *CopyModFile) Source() paths.EntityPath { return c.SourcePath }
func (c *CopyModFile) Target() paths.EntityPath { return c.TargetPath }

type CopyGameFile struct {
	Meta
	SourcePath paths.EntityPath
	TargetPath paths.EntityPath
}

func (c *CopyGameFile) Kind() Kind               { return KindCopyGameFile }
func (c *CopyGameFile) Source() paths.EntityPath { return c.SourcePath }
func (c *CopyGameFile) Target() paths.EntityPath { return c.TargetPath }

type RemoveFile struct {
	Meta
	SourcePath paths.EntityPath
}

func (c *RemoveFile) Kind() Kind               { return KindRemoveFile }
func (c *RemoveFile) Source() paths.EntityPath { return c.SourcePath }

type ReplaceImage struct {
	Meta
	SourcePath        paths.EntityPath
	TargetPath        paths.EntityPath
	TargetContentPath paths.ContentPath
}

func (c *ReplaceImage) Kind() Kind                       { return KindReplaceImage }
func (c *ReplaceImage) Source() paths.EntityPath         { return c.SourcePath }
func (c *ReplaceImage) Target() paths.EntityPath         { return c.TargetPath }
func (c *ReplaceImage) TargetContent() paths.ContentPath { return c.TargetContentPath }

// DefaultTileSize is the tile edge in pixels used when a tile command does not
// set one.
const DefaultTileSize = 256

// ReplaceImageTile replaces one tile of a tiled texture. Column and Row are
// nil when the tile is resolved by name only.
type ReplaceImageTile struct {
	Meta
	SourcePath        paths.EntityPath
	TargetPath        paths.EntityPath
	TargetContentPath paths.ContentPath
	Column            *int
	Row               *int
	TileSize          int
}

func (c *ReplaceImageTile) Kind() Kind                       { return KindReplaceImageTile }
func (c *ReplaceImageTile) Source() paths.EntityPath         { return c.SourcePath }
func (c *ReplaceImageTile) Target() paths.EntityPath         { return c.TargetPath }
func (c *ReplaceImageTile) TargetContent() paths.ContentPath { return c.TargetContentPath }

// TileAddressed reports whether both column and row are set.
func (c *ReplaceImageTile) TileAddressed() bool {
	return c.Column != nil && c.Row != nil
}

type ReplaceImagePart struct {
	Meta
	SourcePath        paths.EntityPath
	TargetPath        paths.EntityPath
	TargetContentPath paths.ContentPath
	XPosition         int
	YPosition         int
}

func (c *ReplaceImagePart) Kind() Kind                       { return KindReplaceImagePart }
func (c *ReplaceImagePart) Source() paths.EntityPath         { return c.SourcePath }
func (c *ReplaceImagePart) Target() paths.EntityPath         { return c.TargetPath }
func (c *ReplaceImagePart) TargetContent() paths.ContentPath { return c.TargetContentPath }

type ReplaceContent struct {
	Meta
	SourcePath        paths.EntityPath
	TargetPath        paths.EntityPath
	TargetContentPath paths.ContentPath
}

func (c *ReplaceContent) Kind() Kind                       { return KindReplaceContent }
func (c *ReplaceContent) Source() paths.EntityPath         { return c.SourcePath }
func (c *ReplaceContent) Target() paths.EntityPath         { return c.TargetPath }
func (c *ReplaceContent) TargetContent() paths.ContentPath { return c.TargetContentPath }

// DictionaryEntry is one key/value alteration. Key is the entry hash as
// written in the install document.
type DictionaryEntry struct {
	Key   string
	Value string
}

type AlterDictionary struct {
	Meta
	TargetPath        paths.EntityPath
	TargetContentPath paths.ContentPath
	AlteredEntries    []DictionaryEntry
}

func (c *AlterDictionary) Kind() Kind                       { return KindAlterDictionary }
func (c *AlterDictionary) Target() paths.EntityPath         { return c.TargetPath }
func (c *AlterDictionary) TargetContent() paths.ContentPath { return c.TargetContentPath }

var (
	_ Sourced         = (*CopyModFile)(nil)
	_ Targeted        = (*CopyModFile)(nil)
	_ Sourced         = (*CopyGameFile)(nil)
	_ Targeted        = (*CopyGameFile)(nil)
	_ Sourced         = (*RemoveFile)(nil)
	_ ContentTargeted = (*ReplaceImage)(nil)
	_ ContentTargeted = (*ReplaceImageTile)(nil)
	_ ContentTargeted = (*ReplaceImagePart)(nil)
	_ ContentTargeted = (*ReplaceContent)(nil)
	_ ContentTargeted = (*AlterDictionary)(nil)
)
