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
)

// 📂 Kind tells folders and files apart
type Kind int

const (
	KindUnknown Kind = iota
	KindFolder       // Has children, never exported itself
	KindFile         // Exportable content
)

// String returns a string representation of Kind
func (k Kind) String() string {
	switch k {
	case KindFolder:
		return "folder"
	case KindFile:
		return "file"
	default:
		return "unknown"
	}
}

// 🌳 Node is a folder or file in a hosted project tree.
//
// Hosts hand out nodes as a read-only snapshot; nothing in this module
// mutates them.
type Node interface {
	// Name returns the display name, without the extension for files
	Name() string
	// Kind returns whether this is a folder or a file
	Kind() Kind
	// Extension returns the file extension without the leading dot
	Extension() string
	// CloudRef returns the opaque handle used to request content, empty when
	// the host has none (an unsaved document, for example)
	CloudRef() string
	// Children lists the children of a folder in host order
	Children(ctx context.Context) ([]Node, error)
}

// FileName returns the name a file node is stored under locally
func FileName(n Node) string {
	if n.Extension() == "" {
		return n.Name()
	}
	return n.Name() + "." + n.Extension()
}
