package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRenderTTL(t *testing.T) {
	tests := []struct {
		id  int
		ttl time.Duration
	}{
		{0, time.Hour},
		{1, 24 * time.Hour},
		{9999, 24 * time.Hour},
		{10000, time.Hour},
		{30000, 48 * time.Hour},
		{35000, 48 * time.Hour},
		{35001, time.Hour},
		{262144, 48 * time.Hour},
		{262145, time.Hour},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.ttl, RenderTTL(tt.id), "token %d", tt.id)
	}
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "traits:equipped:42", ContractKey("traits", "equipped", 42))
	assert.Equal(t, "7_custom_2-10-33", CustomKey(7, []string{"33", "2", "10"}))

	assert.True(t, keyMentionsToken("traits:equipped:42", 42))
	assert.True(t, keyMentionsToken("traits:balance:42:1", 42))
	assert.False(t, keyMentionsToken("traits:equipped:420", 42))
	assert.False(t, keyMentionsToken("traits:equipped:142", 42))

	id, ok := renderKeyToken("15_0123456789abcdef.png")
	assert.True(t, ok)
	assert.Equal(t, 15, id)
	_, ok = renderKeyToken("normal.png")
	assert.False(t, ok)

	assert.Equal(t, []int{3, 4}, contractKeyTokens("traits:pair:3:4"))
	assert.Nil(t, contractKeyTokens("traits:all"))

	a := RasterKey([]byte("<svg/>"), 1000)
	assert.Equal(t, a, RasterKey([]byte("<svg/>"), 1000))
	assert.NotEqual(t, a, RasterKey([]byte("<svg/>"), 500))
}
