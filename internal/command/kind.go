package command

import "fmt"

type Kind int

const (
	KindCopyModFile Kind = iota + 1
	KindCopyGameFile
	KindRemoveFile
	KindReplaceImage
	KindReplaceImageTile
	KindReplaceImagePart
	KindReplaceContent
	KindAlterDictionary
)

// Element names as they appear in the install document.
var kindNames = map[Kind]string{
	KindCopyModFile:      "CopyModFile",
	KindCopyGameFile:     "CopyGameFile",
	KindRemoveFile:       "RemoveFile",
	KindReplaceImage:     "ReplaceImage",
	KindReplaceImageTile: "ReplaceImageTile",
	KindReplaceImagePart: "ReplaceImagePart",
	KindReplaceContent:   "ReplaceContent",
	KindAlterDictionary:  "AlterDictionary",
}

var defaultPriorities = map[Kind]int{
	KindRemoveFile:       1,
	KindReplaceImage:     2,
	KindReplaceImageTile: 2,
	KindReplaceImagePart: 2,
	KindReplaceContent:   2,
	KindAlterDictionary:  2,
	KindCopyModFile:      3,
	KindCopyGameFile:     4,
}

// Kinds lists every command kind in declaration order.
func Kinds() []Kind {
	return []Kind{
		KindCopyModFile,
		KindCopyGameFile,
		KindRemoveFile,
		KindReplaceImage,
		KindReplaceImageTile,
		KindReplaceImagePart,
		KindReplaceContent,
		KindAlterDictionary,
	}
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func ParseKind(name string) (Kind, bool) {
	for kind, kindName := range kindNames {
		if kindName == name {
			return kind, true
		}
	}
	return 0, false
}

// DefaultPriority is the priority a command of kind gets when the install
// document does not set one. Lower values run first.
func DefaultPriority(kind Kind) int {
	return defaultPriorities[kind]
}
