package s3store

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	putErr    error
	deleteErr error

	lastPutInput    *s3.PutObjectInput
	lastDeleteInput *s3.DeleteObjectInput
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.lastPutInput = in
	return &s3.PutObjectOutput{}, f.putErr
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.lastDeleteInput = in
	return &s3.DeleteObjectOutput{}, f.deleteErr
}

func TestPut_HappyPath(t *testing.T) {
	api := &fakeS3{}
	c, err := New(api, "docs-bucket")
	require.NoError(t, err)

	require.NoError(t, c.Put(context.Background(), "resources/sil/res", []byte("contenido")))
	require.Equal(t, "docs-bucket", *api.lastPutInput.Bucket)
	require.Equal(t, "resources/sil/res", *api.lastPutInput.Key)

	body, err := io.ReadAll(api.lastPutInput.Body)
	require.NoError(t, err)
	require.Equal(t, "contenido", string(body))
}

func TestPut_Error(t *testing.T) {
	c, err := New(&fakeS3{putErr: errors.New("denied")}, "docs-bucket")
	require.NoError(t, err)
	require.Error(t, c.Put(context.Background(), "k", nil))
}

func TestDelete_HappyPath(t *testing.T) {
	api := &fakeS3{}
	c, err := New(api, "docs-bucket")
	require.NoError(t, err)

	require.NoError(t, c.Delete(context.Background(), "resources/sil/res"))
	require.Equal(t, "resources/sil/res", *api.lastDeleteInput.Key)
}

func TestPut_EmptyKey(t *testing.T) {
	c, err := New(&fakeS3{}, "docs-bucket")
	require.NoError(t, err)
	require.Error(t, c.Put(context.Background(), "", nil))
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, "b")
	require.Error(t, err)
	_, err = New(&fakeS3{}, "")
	require.Error(t, err)
}
