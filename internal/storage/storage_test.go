package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductImageKey(t *testing.T) {
	assert.Equal(t, "products/blue-mug/front.png", ProductImageKey("blue-mug", "front.png"))
	assert.Equal(t, "products/blue-mug/passwd", ProductImageKey("blue-mug", "../../etc/passwd"))
	assert.Equal(t, "products/blue-mug/my-photo-1-.jpg", ProductImageKey("blue-mug", "my photo (1).jpg"))
	assert.Equal(t, "products/blue-mug/shot.webp", ProductImageKey("blue-mug", `C:\Users\me\shot.webp`))
}

func TestAvatarKey(t *testing.T) {
	id := uuid.MustParse("6f1c2a3e-0000-4000-8000-000000000001")
	assert.Equal(t, "users/6f1c2a3e-0000-4000-8000-000000000001/avatar.png", AvatarKey(id, ".png"))
	assert.Equal(t, "users/6f1c2a3e-0000-4000-8000-000000000001/avatar.webp", AvatarKey(id, "webp"))
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "image", SanitizeFilename(""))
	assert.Equal(t, "image", SanitizeFilename("../"))
	assert.Equal(t, "a.b", SanitizeFilename(" a.b "))
}

func TestIsProductImageKey(t *testing.T) {
	assert.True(t, IsProductImageKey("products/mug/a.png"))
	assert.False(t, IsProductImageKey("users/1/avatar.png"))
	assert.False(t, IsProductImageKey("products/../users/1/avatar.png"))
	assert.False(t, IsProductImageKey("products/mug"))
	assert.False(t, IsProductImageKey("products/mug/nested/a.png"))
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore("http://localhost:8080/assets/")
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "products/mug/a.png", strings.NewReader("one"), 3, "image/png"))
	require.NoError(t, store.Put(ctx, "products/mug/a.png", strings.NewReader("two"), 3, "image/png"))

	obj, ok := store.Get("products/mug/a.png")
	require.True(t, ok)
	assert.Equal(t, "two", string(obj.Body))
	assert.Equal(t, 1, store.Len())
	assert.Equal(t, "http://localhost:8080/assets/products/mug/a.png", store.URL("products/mug/a.png"))

	require.NoError(t, store.Delete(ctx, "products/mug/a.png"))
	require.NoError(t, store.Delete(ctx, "products/mug/missing.png"))
	assert.Equal(t, 0, store.Len())
}

func TestNewR2RequiresBucket(t *testing.T) {
	_, err := NewR2(context.Background(), R2Config{})
	assert.Error(t, err)
}

func TestNewR2PublicURLFallsBackToEndpoint(t *testing.T) {
	r2, err := NewR2(context.Background(), R2Config{
		Endpoint:        "https://acct.r2.cloudflarestorage.com/",
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
		Bucket:          "assets",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://acct.r2.cloudflarestorage.com/assets/products/mug/a.png", r2.URL("products/mug/a.png"))
}
