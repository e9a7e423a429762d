package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRatio(t *testing.T) {
	assert.Equal(t, 1.0, Ratio("GT10S", "GT10S"))
	assert.Equal(t, 1.0, Ratio("", ""))
	assert.Equal(t, 0.0, Ratio("ABC", ""))
	assert.InDelta(t, 0.8, Ratio("GT1OS", "GT10S"), 1e-9)
	assert.Less(t, Ratio("XYZ999", "GT10S"), 0.8)
	assert.InDelta(t, Ratio("abc", "abd"), Ratio("abd", "abc"), 1e-9)
}

func TestPartialRatio(t *testing.T) {
	assert.Equal(t, 1.0, PartialRatio("分体", "儿童分体简易带扣"))
	assert.Equal(t, 1.0, PartialRatio("儿童分体简易带扣", "分体"))
	assert.Equal(t, 0.0, PartialRatio("", "abc"))
	assert.Less(t, PartialRatio("蛙鞋", "儿童分体简易带扣"), 0.7)
}

func TestTokenSetRatio(t *testing.T) {
	assert.Equal(t, 1.0, TokenSetRatio("儿童 泳镜", "泳镜 儿童 分体"))
	assert.Equal(t, 1.0, TokenSetRatio("a b", "b a"))
	assert.Equal(t, 0.0, TokenSetRatio("", "a"))
	assert.Less(t, TokenSetRatio("abc", "xyz"), 0.5)
}
