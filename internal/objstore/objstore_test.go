package objstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facilidevis/facilidevis/internal/common"
	"github.com/facilidevis/facilidevis/internal/config"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "quotes/7/abc.pdf", QuotePDFKey(7, "abc"))
	assert.Equal(t, "signatures/abc.png", SignatureKey("abc"))
}

func TestCleanKey(t *testing.T) {
	for _, bad := range []string{"", "../etc/passwd", "quotes/../../x", "quotes//x"} {
		_, err := cleanKey(bad)
		assert.Error(t, err, bad)
	}
	k, err := cleanKey("quotes/1/a.pdf")
	require.NoError(t, err)
	assert.Equal(t, "quotes/1/a.pdf", k)
}

func TestDisk_PutGet(t *testing.T) {
	dir := t.TempDir()
	d, err := NewDisk(dir)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, d.Put(ctx, "quotes/1/q.pdf", "application/pdf", []byte("%PDF-1.3 v1")))
	require.NoError(t, d.Put(ctx, "quotes/1/q.pdf", "application/pdf", []byte("%PDF-1.3 v2")))

	got, err := d.Get(ctx, "quotes/1/q.pdf")
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.3 v2"), got)

	_, err = os.Stat(filepath.Join(dir, "quotes", "1", "q.pdf"))
	assert.NoError(t, err)
}

func TestDisk_Missing(t *testing.T) {
	d, err := NewDisk(t.TempDir())
	require.NoError(t, err)
	_, err = d.Get(context.Background(), "quotes/1/none.pdf")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestDisk_RequiresRoot(t *testing.T) {
	_, err := NewDisk("")
	assert.ErrorIs(t, err, common.ErrConfigMissing)
}

type fakeS3 struct {
	objects map[string][]byte
	types   map[string]string
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[*in.Key] = data
	f.types[*in.Key] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[*in.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func TestS3_PutGet(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
	s := &S3{client: fake, bucket: "facilidevis"}
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "signatures/q1.png", "image/png", []byte{0x89, 'P', 'N', 'G'}))
	assert.Equal(t, "image/png", fake.types["signatures/q1.png"])

	got, err := s.Get(ctx, "signatures/q1.png")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, got)

	_, err = s.Get(ctx, "signatures/none.png")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestNewS3_UsesBaseEndpoint(t *testing.T) {
	origLoad, origNew := loadDefaultAWSConfig, newS3ClientFromConfig
	t.Cleanup(func() { loadDefaultAWSConfig, newS3ClientFromConfig = origLoad, origNew })

	loadDefaultAWSConfig = func(context.Context, ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{Region: "eu-west-3"}, nil
	}
	var opts s3.Options
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		for _, fn := range optFns {
			fn(&opts)
		}
		return s3.NewFromConfig(cfg, optFns...)
	}

	s, err := NewS3(context.Background(), config.StorageConfig{
		S3Bucket:       "facilidevis",
		S3Region:       "eu-west-3",
		S3BaseEndpoint: "http://127.0.0.1:9000/",
		S3AccessKey:    "minio",
		S3SecretKey:    "minio123",
	})
	require.NoError(t, err)
	assert.Equal(t, "facilidevis", s.bucket)
	assert.Equal(t, "http://127.0.0.1:9000/", aws.ToString(opts.BaseEndpoint))
	assert.True(t, opts.UsePathStyle)
}

func TestNewS3_ConfigError(t *testing.T) {
	origLoad := loadDefaultAWSConfig
	t.Cleanup(func() { loadDefaultAWSConfig = origLoad })
	loadDefaultAWSConfig = func(context.Context, ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no profile")
	}
	_, err := NewS3(context.Background(), config.StorageConfig{S3Bucket: "b"})
	assert.Error(t, err)
}

func TestNew_SelectsBackend(t *testing.T) {
	st, err := New(context.Background(), config.StorageConfig{Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &Disk{}, st)
}
