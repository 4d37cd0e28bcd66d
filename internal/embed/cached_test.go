package embed_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libragen/libragen/internal/embed"
)

type countingEmbedder struct {
	calls int
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	c.calls++
	return embed.NewStaticEmbedder().Embed(ctx, text)
}

func (c *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	c.calls += len(texts)
	return embed.NewStaticEmbedder().EmbedBatch(ctx, texts)
}

func (c *countingEmbedder) Dimensions() int { return embed.StaticDimensions }
func (c *countingEmbedder) ModelID() string { return "counting" }

func TestCachedEmbedderReusesResultForRepeatedQuery(t *testing.T) {
	inner := &countingEmbedder{}
	cached := embed.NewCachedEmbedder(inner, 0)

	v1, err := cached.Embed(context.Background(), "hello world")
	require.NoError(t, err)
	v2, err := cached.Embed(context.Background(), "hello world")
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
	assert.Equal(t, 1, inner.calls)
}

func TestCachedEmbedderBatchSkipsCachedEntries(t *testing.T) {
	inner := &countingEmbedder{}
	cached := embed.NewCachedEmbedder(inner, 0)

	_, err := cached.Embed(context.Background(), "a")
	require.NoError(t, err)

	vecs, err := cached.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	assert.Equal(t, 1+2, inner.calls) // "a" cached, "b" and "c" miss
}

func TestCachedEmbedderPassesThroughDimensionsAndModelID(t *testing.T) {
	inner := embed.NewStaticEmbedder()
	cached := embed.NewCachedEmbedder(inner, 10)
	assert.Equal(t, inner.Dimensions(), cached.Dimensions())
	assert.Equal(t, inner.ModelID(), cached.ModelID())
}
