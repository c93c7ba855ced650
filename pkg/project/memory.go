// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package project

import (
	"context"

	"gitlab.com/tozd/go/errors"
)

// 🧱 MemoryNode is an in-memory Node, used for snapshots decoded from
// manifests and in tests
type MemoryNode struct {
	name      string
	kind      Kind
	extension string
	ref       string
	children  []Node
	listErr   error
}

var _ Node = (*MemoryNode)(nil)

// 📁 Folder creates a folder node with the given children
func Folder(name string, children ...Node) *MemoryNode {
	return &MemoryNode{
		name:     name,
		kind:     KindFolder,
		children: children,
	}
}

// 📄 File creates a file node
func File(name, extension, ref string) *MemoryNode {
	return &MemoryNode{
		name:      name,
		kind:      KindFile,
		extension: extension,
		ref:       ref,
	}
}

// 🚫 UnlistableFolder creates a folder whose listing always fails with err
func UnlistableFolder(name string, err error) *MemoryNode {
	return &MemoryNode{
		name:    name,
		kind:    KindFolder,
		listErr: err,
	}
}

func (n *MemoryNode) Name() string      { return n.name }
func (n *MemoryNode) Kind() Kind        { return n.kind }
func (n *MemoryNode) Extension() string { return n.extension }
func (n *MemoryNode) CloudRef() string  { return n.ref }

// Children implements Node.Children
func (n *MemoryNode) Children(ctx context.Context) ([]Node, error) {
	if n.kind != KindFolder {
		return nil, errors.Errorf("listing %s: not a folder", n.name)
	}
	if n.listErr != nil {
		return nil, errors.Errorf("listing %s: %w", n.name, n.listErr)
	}
	return n.children, nil
}

// Add appends children to a folder node
func (n *MemoryNode) Add(children ...Node) *MemoryNode {
	n.children = append(n.children, children...)
	return n
}
