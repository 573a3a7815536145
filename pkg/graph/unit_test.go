package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLabel_SourceToNodeLabel(t *testing.T) {
	assert.Equal(t, "SecondaryUnit", label("secondary"))
	assert.Equal(t, "PrimaryUnit", label("primary"))
	assert.Equal(t, "PrimaryUnit", label(""))
}
