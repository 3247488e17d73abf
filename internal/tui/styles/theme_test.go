package styles

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableStylesHeader(t *testing.T) {
	s := TableStyles()
	assert.True(t, s.Header.GetBold())
	assert.True(t, s.Header.GetBorderBottom())
	assert.Equal(t, Text, s.Header.GetForeground())
}

func TestErrorStyleRenders(t *testing.T) {
	assert.Contains(t, ErrorStyle.Render("Error: boom"), "Error: boom")
}
