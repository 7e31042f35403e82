package ttml

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
)

// RawElement is the parser record a Node is bound from. Its address is the
// node's raw identity.
type RawElement struct {
	Name   xml.Name
	Attr   []xml.Attr
	Offset int64
}

// Document is a parsed timed text document.
type Document struct {
	Path string
	Root *Node
}

// ParseFile reads and binds the document at path.
func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}
	doc, err := Parse(bytes.NewReader(data), path)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Parse binds the XML document read from r. file is used for locations only.
func Parse(r io.Reader, file string) (*Document, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = true

	var (
		root  *Node
		stack []*Node
	)
	for {
		line, col := dec.InputPos()
		offset := dec.InputOffset()
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", file, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			raw := &RawElement{Name: t.Name, Attr: append([]xml.Attr(nil), t.Attr...), Offset: offset}
			n := NewElement(QName{Space: t.Name.Space, Local: t.Name.Local})
			n.Raw = raw
			n.Location = Location{File: file, Line: line, Column: col}
			for _, a := range t.Attr {
				if isNamespaceDecl(a.Name) {
					continue
				}
				n.SetAttr(QName{Space: a.Name.Space, Local: a.Name.Local}, Text(a.Value))
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("parsing %s: multiple root elements", file)
				}
				root = n
			} else {
				stack[len(stack)-1].Append(n)
			}
			stack = append(stack, n)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			if len(stack) == 0 {
				continue
			}
			top := stack[len(stack)-1]
			if k := len(top.Children); k > 0 {
				if s, ok := top.Children[k-1].Text(); ok {
					top.Children[k-1] = TextContent(s + string(t))
					continue
				}
			}
			top.AppendText(string(t))
		}
	}
	if root == nil {
		return nil, fmt.Errorf("parsing %s: no root element", file)
	}
	return &Document{Path: file, Root: root}, nil
}

func isNamespaceDecl(n xml.Name) bool {
	return n.Space == "xmlns" || (n.Space == "" && n.Local == "xmlns")
}
