package library

import (
	"context"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vango-dev/querysync/internal/errors"
)

// ObjectGetter is the part of *s3.Client used to read datasets.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Options configures NewS3Client.
type S3Options struct {
	// Region is the bucket's region (default: "us-east-1").
	Region string

	// Endpoint overrides the S3 endpoint, for S3-compatible stores.
	Endpoint string
}

// NewS3Client creates an anonymous S3 client for reading public dataset
// objects.
func NewS3Client(opts S3Options) *s3.Client {
	region := opts.Region
	if region == "" {
		region = "us-east-1"
	}
	return s3.New(s3.Options{
		Region:      region,
		Credentials: aws.AnonymousCredentials{},
		BaseEndpoint: func() *string {
			if opts.Endpoint == "" {
				return nil
			}
			return aws.String(opts.Endpoint)
		}(),
		UsePathStyle: opts.Endpoint != "",
	})
}

// IsS3URI reports whether location names an object as s3://bucket/key.
func IsS3URI(location string) bool {
	return strings.HasPrefix(location, "s3://")
}

// ParseS3URI splits s3://bucket/key into bucket and key.
func ParseS3URI(location string) (bucket, key string, err error) {
	u, err := url.Parse(location)
	if err != nil || u.Scheme != "s3" || u.Host == "" || strings.Trim(u.Path, "/") == "" {
		return "", "", errors.New("Q032").
			WithDetailf("%q is not an s3://bucket/key location", location)
	}
	return u.Host, strings.TrimPrefix(u.Path, "/"), nil
}

// LoadS3Fixture reads a JSON array of rows from an S3 object.
func LoadS3Fixture(ctx context.Context, client ObjectGetter, location string) ([]ListItem, error) {
	bucket, key, err := ParseS3URI(location)
	if err != nil {
		return nil, err
	}

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, errors.New("Q032").
			WithDetail("Cannot read " + location).
			Wrap(err)
	}
	defer out.Body.Close()

	rows, err := ParseRows(out.Body)
	if err != nil {
		return nil, errors.FromError(err, "Q032").
			WithDetail("Cannot parse " + location)
	}
	return rows, nil
}
