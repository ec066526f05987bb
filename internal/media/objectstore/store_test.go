package objectstore

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Inkwell/internal/core/media"
)

type fakeClient struct {
	objects map[string][]byte
	types   map[string]string
	putErr  error
	delErr  error
}

func newFakeClient() *fakeClient {
	return &fakeClient{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeClient) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	body, _ := io.ReadAll(in.Body)
	f.objects[aws.ToString(in.Key)] = body
	f.types[aws.ToString(in.Key)] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeClient) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.delErr != nil {
		return nil, f.delErr
	}
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestStore_UploadThenDeleteByURL(t *testing.T) {
	client := newFakeClient()
	store := newStore(client, Config{Bucket: "blog", PublicURL: "https://media.example.com/", Prefix: "attachments"})

	png := []byte("\x89PNG\r\n\x1a\n0000")
	loc, err := store.Upload(context.Background(), png)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(loc.URL, "https://media.example.com/attachments/"))
	assert.Equal(t, loc.PublicID, media.PublicIDFromURL(loc.URL))
	assert.Equal(t, png, client.objects["attachments/"+loc.PublicID])
	assert.Equal(t, "image/png", client.types["attachments/"+loc.PublicID])

	require.NoError(t, media.DeleteByURL(context.Background(), store, loc.URL))
	assert.Empty(t, client.objects)
}

func TestStore_Errors(t *testing.T) {
	client := newFakeClient()
	client.putErr = errors.New("access denied")
	client.delErr = errors.New("access denied")
	store := newStore(client, Config{Bucket: "blog", PublicURL: "https://media.example.com"})

	_, err := store.Upload(context.Background(), []byte("x"))
	assert.True(t, media.IsUploadError(err))

	err = store.Delete(context.Background(), "abc")
	assert.True(t, media.IsDeleteError(err))
}

func TestNewStore_Validates(t *testing.T) {
	_, err := NewStore(Config{Bucket: "blog"})
	assert.Error(t, err)

	store, err := NewStore(Config{Bucket: "blog", PublicURL: "https://m.example.com", Endpoint: "https://acc.r2.cloudflarestorage.com"})
	require.NoError(t, err)
	assert.Equal(t, "blog", store.bucket)
}
