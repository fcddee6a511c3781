// Package plan partitions install commands into execution groups.
//
// Grouping is ordered rule elimination: a fixed table of production rules is
// applied from the most specific to the least, each rule claiming commands
// out of what the previous rules left behind. A command that qualifies for a
// nested-archive group can therefore never end up in an archive or basic
// group, and the basic rule at the end guarantees every command is grouped
// exactly once.
package plan

import (
	"sort"

	"github.com/dmc31a42/WargameModInstaller/internal/command"
	"github.com/dmc31a42/WargameModInstaller/internal/paths"
)

type groupKey struct {
	priority  int
	target    string
	container string
}

// Rule is one production rule: which commands it claims, how claimed
// commands are keyed, and how a keyed bucket becomes a group.
type Rule struct {
	name   string
	claims func(cmd command.Command) bool
	key    func(cmd command.Command) groupKey
	build  func(first command.Command, cmds []command.Command) Group
}

func (r Rule) Name() string { return r.name }

// Rules returns the production rules in evaluation order, highest priority
// first.
func Rules() []Rule {
	return []Rule{nestedArchiveRule, archiveRule, basicRule}
}

var nestedArchiveRule = Rule{
	name: "nested-archive",
	claims: func(cmd command.Command) bool {
		content, ok := cmd.(command.ContentTargeted)
		if !ok || content.TargetContent().Type() != paths.NestedInArchive {
			return false
		}
		_, hasParent := content.TargetContent().Parent()
		return hasParent
	},
	key: func(cmd command.Command) groupKey {
		content := cmd.(command.ContentTargeted)
		parent, _ := content.TargetContent().Parent()
		return groupKey{priority: cmd.Priority(), target: content.Target().Key(), container: parent.Key()}
	},
	build: func(first command.Command, cmds []command.Command) Group {
		content := first.(command.ContentTargeted)
		parent, _ := content.TargetContent().Parent()
		return &NestedArchiveGroup{
			groupBase: groupBase{priority: first.Priority(), commands: cmds},
			target:    content.Target(),
			container: parent,
		}
	},
}

var archiveRule = Rule{
	name: "archive",
	claims: func(cmd command.Command) bool {
		_, ok := cmd.(command.ContentTargeted)
		return ok
	},
	key: func(cmd command.Command) groupKey {
		return groupKey{priority: cmd.Priority(), target: cmd.(command.ContentTargeted).Target().Key()}
	},
	build: func(first command.Command, cmds []command.Command) Group {
		return &ArchiveGroup{
			groupBase: groupBase{priority: first.Priority(), commands: cmds},
			target:    first.(command.ContentTargeted).Target(),
		}
	},
}

var basicRule = Rule{
	name:   "basic",
	claims: func(command.Command) bool { return true },
	key: func(cmd command.Command) groupKey {
		return groupKey{priority: cmd.Priority()}
	},
	build: func(first command.Command, cmds []command.Command) Group {
		return &BasicGroup{groupBase: groupBase{priority: first.Priority(), commands: cmds}}
	},
}

// Apply runs the rule over remaining and returns the groups it produced and
// the commands it left unclaimed. remaining is not modified. Groups come out
// in the order their first command appears in remaining.
func (r Rule) Apply(remaining []command.Command) (groups []Group, rest []command.Command) {
	var order []groupKey
	buckets := make(map[groupKey][]command.Command)
	for _, cmd := range remaining {
		if !r.claims(cmd) {
			rest = append(rest, cmd)
			continue
		}
		key := r.key(cmd)
		if _, seen := buckets[key]; !seen {
			order = append(order, key)
		}
		buckets[key] = append(buckets[key], cmd)
	}

	for _, key := range order {
		cmds := buckets[key]
		groups = append(groups, r.build(cmds[0], cmds))
	}
	return groups, rest
}

// Build groups cmds. The result is ordered by group priority, lowest first;
// groups of equal priority keep rule order (nested archive, archive, basic)
// and then the order of their first command. Commands inside a group are
// ordered by ID. Build never fails and returns nil for no commands.
func Build(cmds []command.Command) []Group {
	remaining := uniqueByID(cmds)
	if len(remaining) == 0 {
		return nil
	}

	var groups []Group
	for _, rule := range Rules() {
		var produced []Group
		produced, remaining = rule.Apply(remaining)
		groups = append(groups, produced...)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Priority() < groups[j].Priority()
	})
	return groups
}

// uniqueByID returns a copy of cmds sorted by ID with repeated occurrences of
// the same command dropped.
func uniqueByID(cmds []command.Command) []command.Command {
	seen := make(map[command.Command]struct{}, len(cmds))
	unique := make([]command.Command, 0, len(cmds))
	for _, cmd := range cmds {
		if cmd == nil {
			continue
		}
		if _, dup := seen[cmd]; dup {
			continue
		}
		seen[cmd] = struct{}{}
		unique = append(unique, cmd)
	}
	sort.SliceStable(unique, func(i, j int) bool {
		return unique[i].ID() < unique[j].ID()
	})
	return unique
}

type Summary struct {
	Groups        int
	Commands      int
	Basic         int
	Archive       int
	NestedArchive int
}

func Summarize(groups []Group) Summary {
	var s Summary
	for _, group := range groups {
		s.Groups++
		s.Commands += len(group.Commands())
		switch group.Kind() {
		case KindBasic:
			s.Basic++
		case KindArchive:
			s.Archive++
		case KindNestedArchive:
			s.NestedArchive++
		}
	}
	return s
}
