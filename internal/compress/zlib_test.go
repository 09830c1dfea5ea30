package compress

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompressRoundTrip(t *testing.T) {
	t.Parallel()

	z := NewZlib(DefaultLevel)
	content := strings.Repeat("breaking news about the economy ", 50)

	data, err := z.Compress(content)
	require.NoError(t, err)
	require.Less(t, len(data), len(content), "repetitive text must shrink")

	got, err := z.Decompress(data)
	require.NoError(t, err)
	require.Equal(t, content, got)
}

func TestCompressIncompressibleReturnsRaw(t *testing.T) {
	t.Parallel()

	z := NewZlib(DefaultLevel)
	content := "x"

	data, err := z.Compress(content)
	require.NoError(t, err)
	require.Equal(t, []byte(content), data)

	got, err := z.Decompress(data)
	require.NoError(t, err)
	require.Equal(t, content, got)
}

func TestCompressEmpty(t *testing.T) {
	t.Parallel()

	z := NewZlib(DefaultLevel)
	data, err := z.Compress("")
	require.NoError(t, err)
	require.Empty(t, data)

	got, err := z.Decompress(nil)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestDecompressPassthroughForUncompressedBytes(t *testing.T) {
	t.Parallel()

	z := NewZlib(DefaultLevel)
	got, err := z.Decompress([]byte("plain text that was never compressed"))
	require.NoError(t, err)
	require.Equal(t, "plain text that was never compressed", got)
}

func TestNewZlibClampsLevel(t *testing.T) {
	t.Parallel()

	for _, level := range []int{-1, 0, 10, 99} {
		z := NewZlib(level)
		require.Equal(t, DefaultLevel, z.level)
	}
}
