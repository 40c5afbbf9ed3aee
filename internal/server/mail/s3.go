package mail

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/swengineer/internal/logging"
)

// CaptureURLTTL is how long the logged link to a captured message works.
const CaptureURLTTL = 24 * time.Hour

type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type objectPresigner interface {
	PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3Options locates the capture bucket. An empty Endpoint uses AWS.
type S3Options struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	Sender    string
}

// S3Mailer stores every message as an .eml object and logs a presigned URL
// to it, acting as a shared test inbox for non-production deployments.
type S3Mailer struct {
	putter    objectPutter
	presigner objectPresigner
	bucket    string
	sender    string
	log       logging.Logger
	now       func() time.Time
	newID     func() string
}

// seams for tests
var (
	loadDefaultAWSConfig  = config.LoadDefaultConfig
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
	newS3PresignClient = func(c *s3.Client) objectPresigner {
		return s3.NewPresignClient(c)
	}
)

func NewS3Mailer(ctx context.Context, o S3Options, log logging.Logger) (*S3Mailer, error) {
	if o.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is empty")
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(o.Region)}
	if o.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(o.AccessKey, o.SecretKey, "")))
	}

	cfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(so *s3.Options) {
		if o.Endpoint != "" {
			so.BaseEndpoint = aws.String(o.Endpoint)
			// MinIO and most S3-compatible stores need path-style addressing
			so.UsePathStyle = true
		}
	})

	log.Info(ctx, "mail transport configured", "transport", "s3", "bucket", o.Bucket)

	return &S3Mailer{
		putter:    client,
		presigner: newS3PresignClient(client),
		bucket:    o.Bucket,
		sender:    o.Sender,
		log:       log,
		now:       time.Now,
		newID:     uuid.NewString,
	}, nil
}

func (m *S3Mailer) key(now time.Time) string {
	return fmt.Sprintf("outbox/%s/%s.eml", now.UTC().Format("2006/01/02"), m.newID())
}

func (m *S3Mailer) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return ErrNoRecipient
	}

	now := m.now()
	key := m.key(now)
	body := formatEML(m.sender, msg, now)

	_, err := m.putter.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(m.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("message/rfc822"),
	})
	if err != nil {
		return fmt.Errorf("store message: %w", err)
	}

	req, err := m.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(CaptureURLTTL))
	if err != nil {
		// the message is stored; only the convenience link is missing
		m.log.Warn(ctx, "presign captured email failed", "key", key, "error", err)
		return nil
	}

	m.log.Info(ctx, "email captured", "transport", "s3", "to", msg.To, "subject", msg.Subject, "url", req.URL)
	return nil
}

// formatEML renders a minimal RFC 5322 message.
func formatEML(from string, msg Message, now time.Time) []byte {
	var b strings.Builder
	if from != "" {
		fmt.Fprintf(&b, "From: %s\r\n", from)
	}
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	fmt.Fprintf(&b, "Date: %s\r\n", now.UTC().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(msg.Text, "\n", "\r\n"))
	return []byte(b.String())
}
