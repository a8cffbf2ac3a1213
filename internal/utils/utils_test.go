package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePaging(t *testing.T) {
	tests := []struct {
		page, items         string
		wantPage, wantItems int
	}{
		{"", "", 1, DefaultPageItems},
		{"3", "20", 3, 20},
		{"-1", "0", 1, DefaultPageItems},
		{"abc", "500", 1, MaxPageItems},
	}
	for _, tt := range tests {
		page, items := ParsePaging(tt.page, tt.items)
		assert.Equal(t, tt.wantPage, page)
		assert.Equal(t, tt.wantItems, items)
	}
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, TotalPages(0, 10))
	assert.Equal(t, 1, TotalPages(10, 10))
	assert.Equal(t, 2, TotalPages(11, 10))
	assert.Equal(t, 0, TotalPages(5, 0))
}

func TestParseID(t *testing.T) {
	id, ok := ParseID("42")
	assert.True(t, ok)
	assert.EqualValues(t, 42, id)

	id, ok = ParseID("9223372036854775807")
	assert.True(t, ok)
	assert.EqualValues(t, uint64(9223372036854775807), id)

	for _, bad := range []string{"", "0", "-3", "1.5", "x", "9223372036854775808", "18446744073709551615"} {
		_, ok := ParseID(bad)
		assert.False(t, ok, bad)
	}
}

func TestRenderCommentSanitizes(t *testing.T) {
	out := RenderComment("<script>alert(1)</script>\n\n**bold** ~~gone~~")
	assert.NotContains(t, out, "<script")
	assert.Contains(t, out, "<strong>bold</strong>")
	assert.Contains(t, out, "<del>gone</del>")

	assert.Equal(t, "", RenderComment(""))
}

func TestRenderCommentLinks(t *testing.T) {
	long := "https://example.com/" + strings.Repeat("a", 100)
	out := RenderComment("see " + long)

	assert.Contains(t, out, `href="`+long+`"`)
	assert.Contains(t, out, "nofollow")
	assert.Contains(t, out, "…")
	assert.NotContains(t, out, ">"+long+"<")
}

func TestEnhanceCommentHTMLImages(t *testing.T) {
	out := EnhanceCommentHTML(`<p><img src="https://example.com/a.png"></p>`)
	assert.Contains(t, out, `loading="lazy"`)
	assert.Contains(t, out, `referrerpolicy="no-referrer"`)
}

func TestCache(t *testing.T) {
	c, err := NewCache(2)
	require.NoError(t, err)

	c.Set("a", 1, time.Minute)
	c.Set("b", 2, -time.Second)
	assert.Equal(t, 1, c.Get("a"))
	assert.Nil(t, c.Get("b"), "expired entries are dropped")

	c.Delete("a")
	assert.Nil(t, c.Get("a"))

	var empty *GlobalCache
	empty.Set("x", 1, time.Minute)
	assert.Nil(t, empty.Get("x"))
	assert.Equal(t, 0, empty.Len())
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("secret1")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", hash)
	assert.True(t, CheckPasswordHash("secret1", hash))
	assert.False(t, CheckPasswordHash("secret2", hash))
}

func TestGetRandomEmoji(t *testing.T) {
	assert.Contains(t, defaultAvatars, GetRandomEmoji())
}
