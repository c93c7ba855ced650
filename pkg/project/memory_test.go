package project

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

func TestMemoryNode(t *testing.T) {
	ctx := context.Background()

	part := File("part", "f3d", "ref://part")
	notes := File("notes", "", "ref://notes")
	root := Folder("root", Folder("A", part), notes)

	children, err := root.Children(ctx)
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, KindFolder, children[0].Kind())
	assert.Equal(t, KindFile, children[1].Kind())

	assert.Equal(t, "part.f3d", FileName(part))
	assert.Equal(t, "notes", FileName(notes), "no trailing dot without an extension")

	_, err = part.Children(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a folder")

	broken := UnlistableFolder("locked", errors.New("access denied"))
	_, err = broken.Children(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listing locked: access denied")
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "folder", KindFolder.String())
	assert.Equal(t, "file", KindFile.String())
	assert.Equal(t, "unknown", KindUnknown.String())
}
