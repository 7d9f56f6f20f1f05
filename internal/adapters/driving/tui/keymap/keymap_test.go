package keymap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultKeyMap_Bindings(t *testing.T) {
	k := DefaultKeyMap()

	assert.True(t, Matches("q", k.Quit))
	assert.True(t, Matches("ctrl+c", k.Quit))
	assert.True(t, Matches("k", k.Up))
	assert.True(t, Matches("down", k.Down))
	assert.True(t, Matches("i", k.Insert))
	assert.True(t, Matches("K", k.MoveUp))
	assert.True(t, Matches("enter", k.Submit))
	assert.True(t, Matches("esc", k.Cancel))
	assert.False(t, Matches("x", k.Delete))
}

func TestKeyMap_Help(t *testing.T) {
	k := DefaultKeyMap()

	browse := k.BrowseHelp()
	assert.Len(t, browse, 9)
	assert.Equal(t, "insert", browse[2].Help().Desc)

	edit := k.EditHelp()
	assert.Len(t, edit, 2)
	assert.Equal(t, "enter", edit[0].Help().Key)
}
