package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
)

type fakeS3 struct {
	puts    []*s3.PutObjectInput
	deletes []string
	body    string
	err     error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	raw, _ := io.ReadAll(in.Body)
	f.body = string(raw)
	f.puts = append(f.puts, in)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.deletes = append(f.deletes, *in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func newTestStore(api *fakeS3) *AvatarStore {
	return NewAvatarStore(&S3Store{client: api, bucket: "helpdesk", baseURL: "https://cdn.example.com"}, "avatars/")
}

func TestAvatarUpload(t *testing.T) {
	api := &fakeS3{}
	store := newTestStore(api)

	avatar, err := store.Upload(context.Background(), "user-1", AvatarUpload{
		Filename:    "me.PNG",
		ContentType: "image/png",
		Size:        4,
		Body:        strings.NewReader("\x89PNG"),
	})
	require.NoError(t, err)

	require.Len(t, api.puts, 1)
	assert.Equal(t, "helpdesk", *api.puts[0].Bucket)
	assert.Equal(t, "image/png", *api.puts[0].ContentType)
	assert.Equal(t, "\x89PNG", api.body)
	assert.True(t, strings.HasPrefix(avatar.PublicID, "avatars/user-1/"))
	assert.True(t, strings.HasSuffix(avatar.PublicID, ".png"))
	assert.Equal(t, "https://cdn.example.com/"+avatar.PublicID, avatar.URL)
}

func TestAvatarUploadRejects(t *testing.T) {
	store := newTestStore(&fakeS3{})

	_, err := store.Upload(context.Background(), "u", AvatarUpload{ContentType: "application/pdf", Size: 10, Body: strings.NewReader("x")})
	assert.ErrorIs(t, err, ErrUnsupportedImage)

	_, err = store.Upload(context.Background(), "u", AvatarUpload{ContentType: "image/jpeg", Size: MaxAvatarBytes + 1, Body: strings.NewReader("x")})
	assert.ErrorIs(t, err, ErrImageTooLarge)
}

func TestAvatarUploadPropagatesStoreErrors(t *testing.T) {
	store := newTestStore(&fakeS3{err: errors.New("bucket gone")})

	_, err := store.Upload(context.Background(), "u", AvatarUpload{ContentType: "image/jpeg", Size: 1, Body: strings.NewReader("x")})
	assert.ErrorContains(t, err, "bucket gone")
}

func TestAvatarDelete(t *testing.T) {
	api := &fakeS3{}
	store := newTestStore(api)

	require.NoError(t, store.Delete(context.Background(), domain.Avatar{}))
	assert.Empty(t, api.deletes)

	require.NoError(t, store.Delete(context.Background(), domain.Avatar{PublicID: "avatars/u/x.png"}))
	assert.Equal(t, []string{"avatars/u/x.png"}, api.deletes)
}

func TestPublicBaseURL(t *testing.T) {
	assert.Equal(t, "https://cdn.example.com", publicBaseURL(config.StorageConfig{PublicBaseURL: "https://cdn.example.com", Bucket: "b"}))
	assert.Equal(t, "http://minio:9000/b", publicBaseURL(config.StorageConfig{Endpoint: "http://minio:9000", Bucket: "b"}))
	assert.Equal(t, "https://b.s3.eu-west-1.amazonaws.com", publicBaseURL(config.StorageConfig{Bucket: "b", Region: "eu-west-1"}))
}

func TestNewS3StoreRequiresBucket(t *testing.T) {
	_, err := NewS3Store(context.Background(), config.StorageConfig{})
	assert.Error(t, err)
}
