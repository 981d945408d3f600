package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderMarkdown_Sanitizes(t *testing.T) {
	out := string(RenderMarkdown("**bold** <script>alert(1)</script>"))
	assert.Contains(t, out, "<strong>bold</strong>")
	assert.NotContains(t, out, "<script>")
}

func TestRenderMarkdown_LazyImages(t *testing.T) {
	out := string(RenderMarkdown("![cat](https://example.com/cat.png)"))
	assert.Contains(t, out, `loading="lazy"`)
	assert.Contains(t, out, `referrerpolicy="no-referrer"`)
}

func TestRenderMarkdown_YouTubeEmbed(t *testing.T) {
	out := string(RenderMarkdown("https://youtu.be/abc123"))
	assert.Contains(t, out, "https://www.youtube.com/embed/abc123")
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "Hello world", Excerpt("# Hello\n\n*world*", 50))

	long := strings.Repeat("a", 20)
	assert.Equal(t, strings.Repeat("a", 5)+"...", Excerpt(long, 5))
}

func TestParseID(t *testing.T) {
	id, ok := ParseID("42")
	assert.True(t, ok)
	assert.EqualValues(t, 42, id)

	for _, bad := range []string{"", "0", "-1", "abc"} {
		_, ok := ParseID(bad)
		assert.False(t, ok, bad)
	}
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("secret1")
	require.NoError(t, err)
	assert.True(t, CheckPasswordHash("secret1", hash))
	assert.False(t, CheckPasswordHash("secret2", hash))
}

func TestJWTRoundTrip(t *testing.T) {
	secret := []byte("s3cret")
	token, err := IssueJWT(7, "admin", secret, time.Hour)
	require.NoError(t, err)

	id, claims, err := DecodeJWT(token, secret)
	require.NoError(t, err)
	assert.EqualValues(t, 7, id)
	assert.Equal(t, "admin", claims.Role)

	_, _, err = DecodeJWT(token, []byte("other"))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTExpired(t *testing.T) {
	secret := []byte("s3cret")
	token, err := IssueJWT(7, "user", secret, -time.Minute)
	require.NoError(t, err)

	_, _, err = DecodeJWT(token, secret)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestHotScore(t *testing.T) {
	now := time.Now()
	fresh := HotScore(now, now, 10, 0, 0, 0)
	old := HotScore(now.Add(-48*time.Hour), now, 10, 0, 0, 0)
	assert.Greater(t, fresh, old)

	assert.Zero(t, HotScore(now, now, 0, 10, 0, 0), "net negative engagement clamps to zero")
}
