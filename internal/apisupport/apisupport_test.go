package apisupport

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddFileDiffLatestWins(t *testing.T) {
	a := New()
	assert.Empty(t, a.FileDiff())

	a.AddFileDiff(`[]`)
	a.AddFileDiff(`[{"action":"add","path":"new.txt"}]`)
	assert.Equal(t, `[{"action":"add","path":"new.txt"}]`, a.FileDiff())
}
