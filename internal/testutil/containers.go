package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/minio/minio-go/v7"
	miniocreds "github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/localstack"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	localStackImage = "localstack/localstack:latest"
	minioImage      = "minio/minio:latest"

	// MinioAccessKey and MinioSecretKey are the root credentials of the test MinIO server.
	MinioAccessKey = "minioadmin"
	MinioSecretKey = "minioadmin"
)

// Endpoint describes a running object store container.
type Endpoint struct {
	URL             string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// StartLocalStack starts a LocalStack container with S3 enabled and
// terminates it when the test finishes.
func StartLocalStack(ctx context.Context, t *testing.T) Endpoint {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	container, err := localstack.Run(ctx,
		localStackImage,
		testcontainers.WithWaitStrategy(
			wait.ForHTTP("/_localstack/health").
				WithPort("4566").
				WithStartupTimeout(2*time.Minute),
		),
	)
	if err != nil {
		t.Fatalf("Failed to start LocalStack container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Failed to terminate LocalStack container: %v", err)
		}
	})

	url, err := container.PortEndpoint(ctx, "4566/tcp", "http")
	if err != nil {
		t.Fatalf("Failed to resolve LocalStack endpoint: %v", err)
	}

	return Endpoint{URL: url, Region: "us-east-1", AccessKeyID: "test", SecretAccessKey: "test"}
}

// StartMinio starts a single-node MinIO server and terminates it when the test finishes.
func StartMinio(ctx context.Context, t *testing.T) Endpoint {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        minioImage,
			ExposedPorts: []string{"9000/tcp"},
			Cmd:          []string{"server", "/data"},
			Env: map[string]string{
				"MINIO_ROOT_USER":     MinioAccessKey,
				"MINIO_ROOT_PASSWORD": MinioSecretKey,
			},
			WaitingFor: wait.ForHTTP("/minio/health/live").
				WithPort("9000/tcp").
				WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("Failed to start MinIO container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Failed to terminate MinIO container: %v", err)
		}
	})

	url, err := container.PortEndpoint(ctx, "9000/tcp", "http")
	if err != nil {
		t.Fatalf("Failed to resolve MinIO endpoint: %v", err)
	}

	return Endpoint{URL: url, Region: "us-east-1", AccessKeyID: MinioAccessKey, SecretAccessKey: MinioSecretKey}
}

// S3Client returns a raw S3 client for arranging and inspecting test state.
func (e Endpoint) S3Client(ctx context.Context) (*s3.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(e.Region),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(e.AccessKeyID, e.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
		o.BaseEndpoint = aws.String(e.URL)
	}), nil
}

// MinioClient returns a raw MinIO client for arranging and inspecting test state.
func (e Endpoint) MinioClient() (*minio.Client, error) {
	host := e.URL[len("http://"):]
	client, err := minio.New(host, &minio.Options{
		Creds:  miniocreds.NewStaticV4(e.AccessKeyID, e.SecretAccessKey, ""),
		Region: e.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	return client, nil
}

// CreateBucket creates a bucket through the S3 API.
func CreateBucket(ctx context.Context, client *s3.Client, bucket string) error {
	_, err := client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(bucket)})
	if err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// PendingUploads counts the multipart uploads still open under bucket.
func PendingUploads(ctx context.Context, client *s3.Client, bucket string) (int, error) {
	out, err := client.ListMultipartUploads(ctx, &s3.ListMultipartUploadsInput{Bucket: aws.String(bucket)})
	if err != nil {
		return 0, fmt.Errorf("failed to list multipart uploads: %w", err)
	}
	return len(out.Uploads), nil
}
