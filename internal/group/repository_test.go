package group

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRandomCode(t *testing.T) {
	assert.Len(t, randomCode(6), 6)
	assert.Len(t, randomCode(10), 10)
	assert.NotEqual(t, randomCode(6), randomCode(6))
}
