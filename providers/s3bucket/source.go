// Package s3bucket liest Dump-Dateien aus einem S3-kompatiblen Bucket.
package s3bucket

import (
	"context"
	"fmt"
	"io"
	"strings"

	"medline-loader/providers"
	"medline-loader/storage"
)

// Source implementiert providers.Source über storage.ObjectStore.
// Locations sind entweder s3://bucket/key oder ein Key im Standard-Bucket.
type Source struct {
	Client storage.ObjectStore
	Bucket string
}

func New(client storage.ObjectStore, bucket string) *Source {
	return &Source{Client: client, Bucket: bucket}
}

func (s *Source) Name() string { return "s3" }

// List listet alle Dump-Dateien unter dem Prefix. Zurückgegeben werden
// vollständige s3://-URIs.
func (s *Source) List(ctx context.Context, location string) ([]string, error) {
	bucket, prefix, err := s.split(location)
	if err != nil {
		return nil, err
	}
	keys, err := storage.ListKeys(ctx, s.Client, bucket, prefix)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, k := range keys {
		if providers.IsDumpFile(k) {
			out = append(out, "s3://"+bucket+"/"+k)
		}
	}
	return out, nil
}

func (s *Source) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	bucket, key, err := s.split(location)
	if err != nil {
		return nil, err
	}
	return storage.OpenObject(ctx, s.Client, bucket, key)
}

func (s *Source) split(location string) (string, string, error) {
	if !IsURI(location) {
		if s.Bucket == "" {
			return "", "", fmt.Errorf("no bucket for %q", location)
		}
		return s.Bucket, strings.TrimPrefix(location, "/"), nil
	}
	return ParseURI(location)
}

// IsURI meldet, ob location ein s3://-URI ist.
func IsURI(location string) bool {
	return strings.HasPrefix(location, "s3://")
}

// ParseURI zerlegt s3://bucket/key in Bucket und Key. Der Key darf leer sein.
func ParseURI(uri string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(uri, "s3://")
	if !ok {
		return "", "", fmt.Errorf("not an s3 uri: %q", uri)
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("missing bucket in %q", uri)
	}
	return bucket, key, nil
}
