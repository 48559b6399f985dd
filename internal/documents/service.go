package documents

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	id "cockpit/pkg/domain"
	dErrors "cockpit/pkg/domain-errors"
	"cockpit/pkg/requestcontext"
)

// maxTemplateBytes bounds the template download.
const maxTemplateBytes = 10 << 20

// Presigner is the subset of *s3.PresignClient the service uses.
type Presigner interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// ObjectGetter is the subset of *s3.Client the service uses.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type AccessResolver interface {
	Authorize(ctx context.Context, userID id.UserID, subsidiaryID id.SubsidiaryID) error
}

// SignedURL is a time-limited URL for one object.
type SignedURL struct {
	URL       string
	Method    string
	Key       string
	ExpiresAt time.Time
}

type Service struct {
	bucket    string
	ttl       time.Duration
	presigner Presigner
	objects   ObjectGetter
	access    AccessResolver
	fields    FieldReader
	logger    *slog.Logger
}

type Option func(*Service)

func WithFieldReader(r FieldReader) Option {
	return func(s *Service) {
		s.fields = r
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func NewService(bucket string, ttl time.Duration, presigner Presigner, objects ObjectGetter, access AccessResolver, opts ...Option) *Service {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	s := &Service{
		bucket:    bucket,
		ttl:       ttl,
		presigner: presigner,
		objects:   objects,
		access:    access,
		fields:    PDFFieldNames,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UploadURL signs a PUT for the subsidiary's document of kind k.
func (s *Service) UploadURL(ctx context.Context, subsidiaryID id.SubsidiaryID, k Kind) (*SignedURL, error) {
	if err := s.authorize(ctx, subsidiaryID); err != nil {
		return nil, err
	}
	key := ObjectKey(subsidiaryID, k)
	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String("application/pdf"),
	}, s3.WithPresignExpires(s.ttl))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodePersistence, "failed to sign upload url")
	}
	s.logSigned(ctx, "upload", subsidiaryID, key)
	return s.signed(ctx, req, key), nil
}

// DownloadURL signs a GET for the subsidiary's document of kind k.
func (s *Service) DownloadURL(ctx context.Context, subsidiaryID id.SubsidiaryID, k Kind) (*SignedURL, error) {
	if err := s.authorize(ctx, subsidiaryID); err != nil {
		return nil, err
	}
	key := ObjectKey(subsidiaryID, k)
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.ttl))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodePersistence, "failed to sign download url")
	}
	s.logSigned(ctx, "download", subsidiaryID, key)
	return s.signed(ctx, req, key), nil
}

// TemplateFields lists the fillable field names of the named PDF template.
// Templates are shared, so any authenticated user may read them.
func (s *Service) TemplateFields(ctx context.Context, name string) ([]string, error) {
	if requestcontext.UserID(ctx).IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "no authenticated user")
	}
	key, err := TemplateKey(name)
	if err != nil {
		return nil, err
	}

	out, err := s.objects.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var missing *types.NoSuchKey
		if errors.As(err, &missing) {
			return nil, dErrors.New(dErrors.CodeNotFound, "template not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodePersistence, "failed to fetch template")
	}
	defer out.Body.Close()

	body, err := io.ReadAll(io.LimitReader(out.Body, maxTemplateBytes+1))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodePersistence, "failed to read template")
	}
	if len(body) > maxTemplateBytes {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, fmt.Sprintf("template %s exceeds %d bytes", name, maxTemplateBytes))
	}

	names, err := s.fields(bytes.NewReader(body))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvariantViolation, "template is not a readable PDF form")
	}
	return names, nil
}

func (s *Service) signed(ctx context.Context, req *v4.PresignedHTTPRequest, key string) *SignedURL {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	return &SignedURL{
		URL:       req.URL,
		Method:    method,
		Key:       key,
		ExpiresAt: requestcontext.Now(ctx).Add(s.ttl),
	}
}

func (s *Service) authorize(ctx context.Context, subsidiaryID id.SubsidiaryID) error {
	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		return dErrors.New(dErrors.CodeUnauthorized, "no authenticated user")
	}
	if err := s.access.Authorize(ctx, userID, subsidiaryID); err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			return err
		}
		return dErrors.Wrap(err, dErrors.CodePersistence, "failed to resolve subsidiary access")
	}
	return nil
}

func (s *Service) logSigned(ctx context.Context, direction string, subsidiaryID id.SubsidiaryID, key string) {
	if s.logger == nil {
		return
	}
	s.logger.InfoContext(ctx, "document url signed",
		"direction", direction,
		"subsidiary_id", subsidiaryID,
		"key", key,
		"request_id", requestcontext.RequestID(ctx),
	)
}
