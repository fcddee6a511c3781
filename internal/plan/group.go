package plan

import (
	"github.com/dmc31a42/WargameModInstaller/internal/command"
	"github.com/dmc31a42/WargameModInstaller/internal/paths"
)

type GroupKind int

const (
	KindBasic GroupKind = iota + 1
	KindArchive
	KindNestedArchive
)

func (k GroupKind) String() string {
	switch k {
	case KindBasic:
		return "basic"
	case KindArchive:
		return "archive"
	case KindNestedArchive:
		return "nested-archive"
	default:
		return "unknown"
	}
}

// Group is a set of commands executed together. Commands are ordered by ID.
type Group interface {
	Kind() GroupKind
	Priority() int
	Commands() []command.Command
}

type groupBase struct {
	priority int
	commands []command.Command
}

func (g *groupBase) Priority() int { return g.priority }

func (g *groupBase) Commands() []command.Command {
	copied := make([]command.Command, len(g.commands))
	copy(copied, g.commands)
	return copied
}

// BasicGroup holds commands that share nothing but their priority.
type BasicGroup struct {
	groupBase
}

func (g *BasicGroup) Kind() GroupKind { return KindBasic }

// ArchiveGroup holds commands that modify content of the same archive and can
// share one open/modify/close pass over it.
type ArchiveGroup struct {
	groupBase
	target paths.EntityPath
}

func (g *ArchiveGroup) Kind() GroupKind          { return KindArchive }
func (g *ArchiveGroup) Target() paths.EntityPath { return g.target }

// NestedArchiveGroup holds commands that reach into the same sub-container of
// the same archive. The sub-container must be decoded and re-encoded once for
// all of them, or each re-encode would drop the others' writes.
type NestedArchiveGroup struct {
	groupBase
	target    paths.EntityPath
	container paths.ContentPath
}

func (g *NestedArchiveGroup) Kind() GroupKind              { return KindNestedArchive }
func (g *NestedArchiveGroup) Target() paths.EntityPath     { return g.target }
func (g *NestedArchiveGroup) Container() paths.ContentPath { return g.container }

// ArchiveTargeted is implemented by groups bound to one archive.
type ArchiveTargeted interface {
	Group
	Target() paths.EntityPath
}

var (
	_ Group           = (*BasicGroup)(nil)
	_ ArchiveTargeted = (*ArchiveGroup)(nil)
	_ ArchiveTargeted = (*NestedArchiveGroup)(nil)
)
