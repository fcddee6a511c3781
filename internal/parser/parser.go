// Package parser reads install documents into a small element tree that keeps
// the source line of every element, so callers can point users at the exact
// place a bad entry came from.
package parser

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
)

type Element struct {
	Name     string
	Attrs    []Attr
	Text     string
	Line     int
	Children []*Element
}

type Attr struct {
	Name  string
	Value string
}

type Document struct {
	Root       *Element
	SourceFile string
}

var (
	ErrInvalidXML    = errors.New("invalid XML")
	ErrEmptyDocument = errors.New("document has no root element")
)

func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	doc, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	doc.SourceFile = path
	return doc, nil
}

func Parse(r io.Reader) (*Document, error) {
	decoder := xml.NewDecoder(r)
	decoder.CharsetReader = charsetReader

	var root *Element
	var stack []*Element
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidXML, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			line, _ := decoder.InputPos()
			el := &Element{Name: t.Name.Local, Line: line}
			for _, attr := range t.Attr {
				el.Attrs = append(el.Attrs, Attr{Name: attr.Name.Local, Value: attr.Value})
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("%w: multiple root elements", ErrInvalidXML)
				}
				root = el
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, el)
			}
			stack = append(stack, el)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].Text += string(t)
			}
		}
	}

	if root == nil {
		return nil, ErrEmptyDocument
	}
	return &Document{Root: root}, nil
}

// charsetReader decodes documents saved with a non UTF-8 declaration, which
// editors on Windows commonly produce.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", label, err)
	}
	return enc.NewDecoder().Reader(input), nil
}

// Attr returns the value of the named attribute and whether it is present.
func (e *Element) Attr(name string) (string, bool) {
	for _, attr := range e.Attrs {
		if attr.Name == name {
			return attr.Value, true
		}
	}
	return "", false
}

// Find follows a slash separated path of child names starting at e. The first
// segment must name e itself.
func (e *Element) Find(path string) *Element {
	segments := strings.Split(path, "/")
	if e == nil || segments[0] != e.Name {
		return nil
	}
	current := e
	for _, name := range segments[1:] {
		current = current.Child(name)
		if current == nil {
			return nil
		}
	}
	return current
}

// Child returns the first direct child with the given name.
func (e *Element) Child(name string) *Element {
	for _, child := range e.Children {
		if child.Name == name {
			return child
		}
	}
	return nil
}

// Walk visits every element below e in document order. Returning false from
// fn stops the walk.
func (e *Element) Walk(fn func(*Element) bool) bool {
	for _, child := range e.Children {
		if !fn(child) {
			return false
		}
		if !child.Walk(fn) {
			return false
		}
	}
	return true
}
