package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/google/uuid"

	"github.com/Sourchax/CMPE356-Project-sub000/internal/config"
)

// S3Archive stores documents in an S3 bucket
type S3Archive struct {
	bucket     string
	prefix     string
	s3Client   *s3.S3
	s3Uploader *s3manager.Uploader
}

// NewS3Archive creates an S3 archive, creating the bucket when it does not exist
func NewS3Archive(cfg config.S3StorageConfig) (*S3Archive, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("storage.s3.bucket is required")
	}

	awsCfg := &aws.Config{
		Region: aws.String(cfg.Region),
	}
	if cfg.AccessKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, "")
	}
	if cfg.Endpoint != "" {
		// S3 compatible stores such as MinIO
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	s3Client := s3.New(sess)

	_, err = s3Client.HeadBucket(&s3.HeadBucketInput{
		Bucket: aws.String(cfg.Bucket),
	})
	if err != nil {
		_, err = s3Client.CreateBucket(&s3.CreateBucketInput{
			Bucket: aws.String(cfg.Bucket),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create S3 bucket: %w", err)
		}
	}

	return &S3Archive{
		bucket:     cfg.Bucket,
		prefix:     strings.Trim(cfg.Prefix, "/"),
		s3Client:   s3Client,
		s3Uploader: s3manager.NewUploader(sess),
	}, nil
}

func (s *S3Archive) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

// Save uploads the document, removing older documents of the same ticket afterwards
func (s *S3Archive) Save(ctx context.Context, ticketID int64, data []byte, contentType string) (*Document, error) {
	old, err := s.list(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	id := uuid.New().String()
	key := s.key(documentName(ticketID, id))

	_, err = s.s3Uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload document to S3: %w", err)
	}

	if err := s.deleteKeys(ctx, old); err != nil {
		return nil, err
	}

	return &Document{
		ID:          id,
		TicketID:    ticketID,
		ContentType: contentType,
		Size:        int64(len(data)),
		Key:         key,
	}, nil
}

// Open downloads the most recent document of ticketID
func (s *S3Archive) Open(ctx context.Context, ticketID int64) (io.ReadCloser, *Document, error) {
	objects, err := s.list(ctx, ticketID)
	if err != nil {
		return nil, nil, err
	}
	if len(objects) == 0 {
		return nil, nil, ErrNotFound
	}

	latest := objects[0]
	for _, obj := range objects[1:] {
		if obj.LastModified != nil && latest.LastModified != nil && obj.LastModified.After(*latest.LastModified) {
			latest = obj
		}
	}

	resp, err := s.s3Client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    latest.Key,
	})
	if err != nil {
		var aerr awserr.Error
		if errors.As(err, &aerr) && aerr.Code() == s3.ErrCodeNoSuchKey {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("failed to get document from S3: %w", err)
	}

	doc := &Document{
		TicketID:    ticketID,
		ContentType: aws.StringValue(resp.ContentType),
		Size:        aws.Int64Value(resp.ContentLength),
		Key:         aws.StringValue(latest.Key),
		CreatedAt:   aws.TimeValue(resp.LastModified),
	}
	if doc.ContentType == "" {
		doc.ContentType = "application/pdf"
	}
	name := path.Base(doc.Key)
	doc.ID = strings.TrimSuffix(strings.TrimPrefix(name, documentPrefix(ticketID)), ".pdf")

	return resp.Body, doc, nil
}

// Delete removes every document of ticketID
func (s *S3Archive) Delete(ctx context.Context, ticketID int64) error {
	objects, err := s.list(ctx, ticketID)
	if err != nil {
		return err
	}
	return s.deleteKeys(ctx, objects)
}

func (s *S3Archive) list(ctx context.Context, ticketID int64) ([]*s3.Object, error) {
	resp, err := s.s3Client.ListObjectsV2WithContext(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.key(documentPrefix(ticketID))),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list objects in S3: %w", err)
	}
	return resp.Contents, nil
}

func (s *S3Archive) deleteKeys(ctx context.Context, objects []*s3.Object) error {
	if len(objects) == 0 {
		return nil
	}

	ids := make([]*s3.ObjectIdentifier, len(objects))
	for i, obj := range objects {
		ids[i] = &s3.ObjectIdentifier{Key: obj.Key}
	}

	_, err := s.s3Client.DeleteObjectsWithContext(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(s.bucket),
		Delete: &s3.Delete{
			Objects: ids,
			Quiet:   aws.Bool(true),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete objects from S3: %w", err)
	}
	return nil
}
