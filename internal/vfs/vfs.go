// Package vfs provides the read-only virtual file system that terminal
// nodes in content mode query. The tree is loaded from a JSON document
// mapping absolute file paths to contents; directories are derived.
package vfs

import (
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
)

const (
	KindFile = "file"
	KindDir  = "dir"
)

// Entry is the result of resolving a path.
type Entry struct {
	Kind     string   `json:"kind"`
	Content  string   `json:"content,omitempty"`
	Children []string `json:"children,omitempty"`
}

// Tree is an immutable file system keyed by absolute path.
type Tree struct {
	files map[string]string
	dirs  map[string][]string
}

// NewTree builds a tree from absolute file paths to contents. Paths are
// cleaned; relative paths are rooted at /.
func NewTree(files map[string]string) *Tree {
	t := &Tree{
		files: make(map[string]string, len(files)),
		dirs:  make(map[string][]string),
	}
	children := make(map[string]map[string]bool)

	for p, content := range files {
		p = clean(p)
		t.files[p] = content

		// Register the file and every ancestor directory.
		child := p
		for {
			parent := path.Dir(child)
			if children[parent] == nil {
				children[parent] = make(map[string]bool)
			}
			children[parent][path.Base(child)] = true
			if parent == "/" {
				break
			}
			child = parent
		}
	}

	for dir, names := range children {
		list := make([]string, 0, len(names))
		for name := range names {
			list = append(list, name)
		}
		sort.Strings(list)
		t.dirs[dir] = list
	}

	return t
}

// ParseTree decodes a {"files": {path: content}} document.
func ParseTree(data []byte) (*Tree, error) {
	var doc struct {
		Files map[string]string `json:"files"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse file system document: %w", err)
	}
	return NewTree(doc.Files), nil
}

// Resolve looks up an absolute path.
func (t *Tree) Resolve(p string) (Entry, error) {
	p = clean(p)
	if content, ok := t.files[p]; ok {
		return Entry{Kind: KindFile, Content: content}, nil
	}
	if names, ok := t.dirs[p]; ok {
		return Entry{Kind: KindDir, Children: append([]string(nil), names...)}, nil
	}
	return Entry{}, fmt.Errorf("no such path: %s", p)
}

// ResolveContent returns the content of a file, satisfying the
// runtime's terminal lookup dependency.
func (t *Tree) ResolveContent(p string) (string, error) {
	e, err := t.Resolve(p)
	if err != nil {
		return "", err
	}
	if e.Kind != KindFile {
		return "", fmt.Errorf("not a file: %s", p)
	}
	return e.Content, nil
}

func clean(p string) string {
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}
