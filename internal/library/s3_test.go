package library

import (
	"context"
	stderrors "errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vango-dev/querysync/internal/errors"
)

// fakeObjects serves objects from memory.
type fakeObjects struct {
	objects map[string]string
	gets    []string
}

func (f *fakeObjects) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	name := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	f.gets = append(f.gets, name)
	body, ok := f.objects[name]
	if !ok {
		return nil, stderrors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func TestParseS3URI(t *testing.T) {
	tests := []struct {
		in      string
		bucket  string
		key     string
		wantErr bool
	}{
		{in: "s3://datasets/libraries.json", bucket: "datasets", key: "libraries.json"},
		{in: "s3://datasets/moscow/526.json", bucket: "datasets", key: "moscow/526.json"},
		{in: "s3://datasets", wantErr: true},
		{in: "s3://datasets/", wantErr: true},
		{in: "https://datasets/libraries.json", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			bucket, key, err := ParseS3URI(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseS3URI() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if !errors.IsCode(err, "Q032") {
					t.Errorf("error = %v, want Q032", err)
				}
				return
			}
			if bucket != tt.bucket || key != tt.key {
				t.Errorf("ParseS3URI() = %q, %q; want %q, %q", bucket, key, tt.bucket, tt.key)
			}
		})
	}
}

func TestLoadS3Fixture(t *testing.T) {
	client := &fakeObjects{objects: map[string]string{
		"datasets/rows.json": `[{"Number": 1, "global_id": 5, "Cells": {"FullName": "Remote Library"}}]`,
		"datasets/bad.json":  `{`,
	}}
	ctx := context.Background()

	rows, err := LoadS3Fixture(ctx, client, "s3://datasets/rows.json")
	if err != nil {
		t.Fatalf("LoadS3Fixture() error = %v", err)
	}
	if len(rows) != 1 || rows[0].Cells.FullName != "Remote Library" {
		t.Errorf("rows = %+v", rows)
	}

	for _, loc := range []string{"s3://datasets/bad.json", "s3://datasets/missing.json", "s3://datasets"} {
		if _, err := LoadS3Fixture(ctx, client, loc); !errors.IsCode(err, "Q032") {
			t.Errorf("LoadS3Fixture(%s) error = %v, want Q032", loc, err)
		}
	}
	if len(client.gets) != 3 {
		t.Errorf("GetObject calls = %v, want 3", client.gets)
	}
}

func TestNewS3Client(t *testing.T) {
	c := NewS3Client(S3Options{Endpoint: "http://localhost:9000"})
	opts := c.Options()
	if opts.Region != "us-east-1" {
		t.Errorf("Region = %q, want us-east-1", opts.Region)
	}
	if aws.ToString(opts.BaseEndpoint) != "http://localhost:9000" || !opts.UsePathStyle {
		t.Errorf("endpoint options = %q, path style %v", aws.ToString(opts.BaseEndpoint), opts.UsePathStyle)
	}
	if !IsS3URI("s3://a/b") || IsS3URI("rows.json") {
		t.Error("IsS3URI misclassified a location")
	}
}
