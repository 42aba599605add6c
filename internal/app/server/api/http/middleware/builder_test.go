package middleware

import (
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/stretchr/testify/assert"
)

func TestContainer_GetAllAndClear(t *testing.T) {
	mw := func(ctx huma.Context, next func(huma.Context)) { next(ctx) }

	c := NewContainer()
	c.Add(mw, mw)
	c.Add(mw)

	got := c.GetAllAndClear()
	assert.Len(t, got, 3)
	assert.Empty(t, c.GetAllAndClear())
}
