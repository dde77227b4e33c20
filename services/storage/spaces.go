// Package storage wraps the S3-compatible object store that holds uploaded
// application documents and avatars.
package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// Client handles object storage operations
type Client struct {
	s3Client *s3.S3
	bucket   string
	endpoint string
	cdnURL   string
}

// Config holds configuration for the storage client
type Config struct {
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	Endpoint  string
	CDNURL    string
}

// NewClient creates a storage client against an S3-compatible endpoint
func NewClient(config Config) (*Client, error) {
	sess, err := session.NewSession(&aws.Config{
		Credentials: credentials.NewStaticCredentials(
			config.AccessKey,
			config.SecretKey,
			"",
		),
		Endpoint:         aws.String(config.Endpoint),
		Region:           aws.String(config.Region),
		S3ForcePathStyle: aws.Bool(false),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage session: %w", err)
	}

	return &Client{
		s3Client: s3.New(sess),
		bucket:   config.Bucket,
		endpoint: config.Endpoint,
		cdnURL:   config.CDNURL,
	}, nil
}

// Upload stores an object under key. Documents are private; avatars and
// partner logos are public.
func (c *Client) Upload(ctx context.Context, key string, data io.Reader, contentType string, public bool) (string, error) {
	acl := "private"
	if public {
		acl = "public-read"
	}

	_, err := c.s3Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        aws.ReadSeekCloser(data),
		ACL:         aws.String(acl),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object: %w", err)
	}

	return c.URL(key), nil
}

// Download fetches an object's content
func (c *Client) Download(ctx context.Context, key string) ([]byte, error) {
	result, err := c.s3Client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download object: %w", err)
	}
	defer result.Body.Close()

	return io.ReadAll(result.Body)
}

// Delete removes an object
func (c *Client) Delete(ctx context.Context, key string) error {
	_, err := c.s3Client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// URL returns the public URL for an object
func (c *Client) URL(key string) string {
	if c.cdnURL != "" {
		return fmt.Sprintf("%s/%s", c.cdnURL, key)
	}
	return fmt.Sprintf("https://%s.%s/%s", c.bucket, c.endpoint, key)
}

// PresignedURL generates a temporary download URL for a private object
func (c *Client) PresignedURL(key string, expiration time.Duration) (string, error) {
	req, _ := c.s3Client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})

	url, err := req.Presign(expiration)
	if err != nil {
		return "", fmt.Errorf("failed to presign URL: %w", err)
	}
	return url, nil
}

// DocumentKey builds the storage key for an application document
func DocumentKey(applicationID uint, docType, filename string) string {
	return fmt.Sprintf("applications/%d/%s/%d_%s", applicationID, docType, time.Now().Unix(), sanitizeFilename(filename))
}

// AvatarKey builds the storage key for a user avatar
func AvatarKey(userID uint, filename string) string {
	return fmt.Sprintf("avatars/%d/%d%s", userID, time.Now().Unix(), filepath.Ext(filename))
}

// LogoKey builds the storage key for a partner organization logo
func LogoKey(partnerID uint, filename string) string {
	return fmt.Sprintf("logos/%d/%d%s", partnerID, time.Now().Unix(), filepath.Ext(filename))
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		}
		return '_'
	}, name)
}

// ContentType returns the content type for a filename
func ContentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "application/pdf"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	case ".svg":
		return "image/svg+xml"
	case ".doc":
		return "application/msword"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return "application/octet-stream"
	}
}
