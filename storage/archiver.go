package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Archiver keeps a durable copy of capture artifacts in S3. The collector
// webhook remains the delivery path of record; archival is a best-effort
// side channel that runs before the local file is deleted.
type Archiver struct {
	client *s3.Client
	bucket string
}

// NewArchiver creates an archiver against the given bucket using the
// default AWS credential chain
func NewArchiver(ctx context.Context, bucket string) (*Archiver, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}

	return &Archiver{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
	}, nil
}

// Archive uploads the artifact under recordings/{meetingId}/{fileName}
func (a *Archiver) Archive(ctx context.Context, meetingID, filePath string) error {
	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("opening artifact: %w", err)
	}
	defer f.Close()

	key := fmt.Sprintf("recordings/%s/%s", meetingID, filepath.Base(filePath))
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String("audio/wav"),
	})
	if err != nil {
		return fmt.Errorf("uploading artifact to s3: %w", err)
	}

	return nil
}
