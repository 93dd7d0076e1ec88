package s3bucket

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBucket liefert eine Seite pro Aufruf mit höchstens pageSize Keys.
type fakeBucket struct {
	keys     []string
	bodies   map[string]string
	pageSize int
	buckets  []string
}

func (f *fakeBucket) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.buckets = append(f.buckets, aws.ToString(in.Bucket))
	var matching []string
	for _, k := range f.keys {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) && k > aws.ToString(in.ContinuationToken) {
			matching = append(matching, k)
		}
	}
	out := &s3.ListObjectsV2Output{}
	if len(matching) > f.pageSize {
		matching = matching[:f.pageSize]
		out.IsTruncated = aws.Bool(true)
		out.NextContinuationToken = aws.String(matching[len(matching)-1])
	}
	for _, k := range matching {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
	}
	return out, nil
}

func (f *fakeBucket) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	body, ok := f.bodies[aws.ToString(in.Key)]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func TestParseURI(t *testing.T) {
	bucket, key, err := ParseURI("s3://medline/baseline/pubmed25n0001.xml.gz")
	require.NoError(t, err)
	assert.Equal(t, "medline", bucket)
	assert.Equal(t, "baseline/pubmed25n0001.xml.gz", key)

	bucket, key, err = ParseURI("s3://medline")
	require.NoError(t, err)
	assert.Equal(t, "medline", bucket)
	assert.Empty(t, key)

	_, _, err = ParseURI("s3:///key")
	require.Error(t, err)
	_, _, err = ParseURI("/local/path")
	require.Error(t, err)
}

func TestListFollowsPages(t *testing.T) {
	client := &fakeBucket{
		keys: []string{
			"updates/pubmed25n1300.xml.gz",
			"updates/pubmed25n1300.xml.gz.md5",
			"updates/pubmed25n1301.xml.gz",
			"updates/pubmed25n1302.xml.gz",
			"baseline/pubmed25n0001.xml.gz",
		},
		pageSize: 2,
	}
	src := New(client, "default")

	files, err := src.List(context.Background(), "s3://medline/updates/")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"s3://medline/updates/pubmed25n1300.xml.gz",
		"s3://medline/updates/pubmed25n1301.xml.gz",
		"s3://medline/updates/pubmed25n1302.xml.gz",
	}, files)
	assert.Greater(t, len(client.buckets), 1)
	assert.Equal(t, "medline", client.buckets[0])
}

func TestOpenUsesDefaultBucket(t *testing.T) {
	client := &fakeBucket{bodies: map[string]string{"updates/a.xml": "<PubmedArticleSet/>"}, pageSize: 10}
	src := New(client, "medline")

	rc, err := src.Open(context.Background(), "updates/a.xml")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "<PubmedArticleSet/>", string(data))

	_, err = src.Open(context.Background(), "s3://medline/missing.xml")
	require.Error(t, err)

	_, err = New(client, "").Open(context.Background(), "updates/a.xml")
	require.Error(t, err)
}
