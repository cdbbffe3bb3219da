package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Chetan6969/Testing-r/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ReceiptURLExpiry is how long a receipt download link stays valid
const ReceiptURLExpiry = 5 * time.Minute

// Options configures the S3 client. Static keys and a custom endpoint are
// optional; without them the default AWS credential chain is used.
type Options struct {
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	Endpoint  string
}

// Receipt is the archived summary of a completed ride
type Receipt struct {
	RideID      string             `json:"rideId"`
	UserID      string             `json:"userId"`
	CaptainID   string             `json:"captainId"`
	Pickup      string             `json:"pickup"`
	Destination string             `json:"destination"`
	VehicleType models.VehicleType `json:"vehicleType"`
	Fare        int64              `json:"fare"`
	RequestedAt time.Time          `json:"requestedAt"`
	CompletedAt time.Time          `json:"completedAt"`
}

// ReceiptStore archives ride receipts in S3
type ReceiptStore struct {
	s3Client *s3.Client
	presign  *s3.PresignClient
	bucket   string
	now      func() time.Time
}

// NewReceiptStore creates a new S3 receipt store
func NewReceiptStore(ctx context.Context, opts Options) (*ReceiptStore, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(opts.Region)}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &ReceiptStore{
		s3Client: s3Client,
		presign:  s3.NewPresignClient(s3Client),
		bucket:   opts.Bucket,
		now:      time.Now,
	}, nil
}

func receiptKey(rideID string) string {
	return fmt.Sprintf("receipts/%s.json", rideID)
}

// PutReceipt uploads the receipt of a completed ride
func (s *ReceiptStore) PutReceipt(ctx context.Context, ride *models.Ride) error {
	receipt := Receipt{
		RideID:      ride.ID,
		UserID:      ride.UserID,
		Pickup:      ride.Pickup,
		Destination: ride.Destination,
		VehicleType: ride.VehicleType,
		Fare:        ride.Fare,
		RequestedAt: ride.CreatedAt,
		CompletedAt: s.now().UTC(),
	}
	if ride.CaptainID != nil {
		receipt.CaptainID = *ride.CaptainID
	}

	body, err := json.Marshal(receipt)
	if err != nil {
		return fmt.Errorf("failed to marshal receipt: %w", err)
	}

	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(receiptKey(ride.ID)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload receipt: %w", err)
	}
	return nil
}

// ReceiptURL generates a pre-signed URL for downloading a receipt
func (s *ReceiptStore) ReceiptURL(ctx context.Context, rideID string) (string, error) {
	request, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(receiptKey(rideID)),
	}, s3.WithPresignExpires(ReceiptURLExpiry))
	if err != nil {
		return "", fmt.Errorf("failed to generate receipt URL: %w", err)
	}
	return request.URL, nil
}
