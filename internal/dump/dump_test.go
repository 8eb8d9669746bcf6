package dump

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/inboundkit/internal/model"
)

func TestNames(t *testing.T) {
	raw, cleaned := Names("abc-123")
	assert.Equal(t, "abc-123.raw.html", raw)
	assert.Equal(t, "abc-123.cleaned.html", cleaned)

	raw, _ = Names("../../etc/passwd")
	assert.NotContains(t, raw, "/")

	a, _ := Names("")
	b, _ := Names("")
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasSuffix(a, ".raw.html"))
}

func TestFileSink_Put(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "emails")
	sink := &FileSink{Dir: dir}

	loc, err := sink.Put(context.Background(), "x.raw.html", []byte("<p>hi</p>"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "x.raw.html"), loc)

	data, err := os.ReadFile(loc)
	require.NoError(t, err)
	assert.Equal(t, "<p>hi</p>", string(data))
}

type fakePutter struct {
	inputs []*s3.PutObjectInput
	bodies []string
}

func (f *fakePutter) PutObject(
	_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options),
) (*s3.PutObjectOutput, error) {
	body, _ := io.ReadAll(in.Body)
	f.inputs = append(f.inputs, in)
	f.bodies = append(f.bodies, string(body))
	return &s3.PutObjectOutput{}, nil
}

func TestS3Sink_Put(t *testing.T) {
	fake := &fakePutter{}
	sink := NewS3Sink(fake, "bucket", "dumps")

	loc, err := sink.Put(context.Background(), "x.cleaned.html", []byte("body"))
	require.NoError(t, err)
	assert.Equal(t, "s3://bucket/dumps/x.cleaned.html", loc)

	require.Len(t, fake.inputs, 1)
	assert.Equal(t, "bucket", aws.ToString(fake.inputs[0].Bucket))
	assert.Equal(t, "dumps/x.cleaned.html", aws.ToString(fake.inputs[0].Key))
	assert.Equal(t, "body", fake.bodies[0])
}

func TestNew(t *testing.T) {
	sink, err := New(context.Background(), model.DumpConfig{Type: "local", LocalDir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &FileSink{}, sink)

	_, err = New(context.Background(), model.DumpConfig{Type: "s3"})
	assert.Error(t, err)

	_, err = New(context.Background(), model.DumpConfig{Type: "ftp"})
	assert.Error(t, err)
}
