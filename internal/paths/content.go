package paths

import "strings"

// ContainerSeparator splits the textual form of a content path into container
// levels: "pc/ndf/inner.dat|textures/unit.tgv" reaches unit.tgv through the
// inner.dat sub-archive.
const ContainerSeparator = "|"

type PathType int

const (
	// Direct means the last segment is addressed straight in the target archive.
	Direct PathType = iota
	// NestedInArchive means the segments before the last name a sub-container
	// that has to be opened first.
	NestedInArchive
)

func (t PathType) String() string {
	switch t {
	case Direct:
		return "direct"
	case NestedInArchive:
		return "nested"
	default:
		return "unknown"
	}
}

// ContentPath addresses a payload inside a target entity.
type ContentPath struct {
	segments []string
	pathType PathType
}

// ParseContentPath splits raw on ContainerSeparator. A single segment is
// Direct, more than one is NestedInArchive. Empty input yields an empty
// Direct path; nothing is rejected here.
func ParseContentPath(raw string) ContentPath {
	if strings.TrimSpace(raw) == "" {
		return ContentPath{pathType: Direct}
	}
	parts := strings.Split(raw, ContainerSeparator)
	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		segments = append(segments, strings.TrimSpace(part))
	}
	pathType := Direct
	if len(segments) > 1 {
		pathType = NestedInArchive
	}
	return ContentPath{segments: segments, pathType: pathType}
}

func NewContentPath(pathType PathType, segments ...string) ContentPath {
	copied := make([]string, len(segments))
	copy(copied, segments)
	return ContentPath{segments: copied, pathType: pathType}
}

func (p ContentPath) Type() PathType { return p.pathType }

func (p ContentPath) Segments() []string {
	copied := make([]string, len(p.segments))
	copy(copied, p.segments)
	return copied
}

func (p ContentPath) Len() int { return len(p.segments) }

func (p ContentPath) IsEmpty() bool {
	for _, segment := range p.segments {
		if segment != "" {
			return false
		}
	}
	return true
}

// Last returns the final segment, or "" for an empty path.
func (p ContentPath) Last() string {
	if len(p.segments) == 0 {
		return ""
	}
	return p.segments[len(p.segments)-1]
}

// Parent returns every segment but the last. ok is false when the path has
// fewer than two segments and therefore no enclosing container.
func (p ContentPath) Parent() (parent ContentPath, ok bool) {
	if len(p.segments) < 2 {
		return ContentPath{}, false
	}
	parentType := Direct
	if len(p.segments) > 2 {
		parentType = NestedInArchive
	}
	return NewContentPath(parentType, p.segments[:len(p.segments)-1]...), true
}

// Key normalizes every segment the way EntityPath does.
func (p ContentPath) Key() string {
	keys := make([]string, len(p.segments))
	for i, segment := range p.segments {
		keys[i] = normalize(segment)
	}
	return strings.Join(keys, ContainerSeparator)
}

func (p ContentPath) Equal(other ContentPath) bool { return p.Key() == other.Key() }

func (p ContentPath) String() string {
	return strings.Join(p.segments, ContainerSeparator)
}
