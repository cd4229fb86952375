package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/roleplay/internal/common"
	"github.com/dmitrijs2005/roleplay/internal/logging"
	sc "github.com/dmitrijs2005/roleplay/internal/server/config"
	"github.com/dmitrijs2005/roleplay/internal/server/repositories/repomanager"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
)

// avatarExtensions maps accepted upload content types to file extensions.
var avatarExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
}

// AvatarUpload tells the client where to PUT the image and which URL to
// store as its avatar afterwards.
type AvatarUpload struct {
	UploadURL string    `json:"uploadUrl"`
	AvatarURL string    `json:"avatarUrl"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// AvatarService hands out presigned S3 upload URLs for user avatars.
type AvatarService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *sc.Config
	logger      logging.Logger
}

func NewAvatarService(db *sql.DB, m repomanager.RepositoryManager, cfg *sc.Config, logger logging.Logger) *AvatarService {
	return &AvatarService{
		db:          db,
		repomanager: m,
		config:      cfg,
		logger:      logger.With("module", "avatars"),
	}
}

func avatarKey(userID, contentType string) string {
	return fmt.Sprintf("avatars/%s/%s%s", userID, uuid.New(), avatarExtensions[contentType])
}

func (s *AvatarService) getPresignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return newS3PresignClient(client), nil
}

// PresignUpload returns a presigned PUT URL for a new avatar of userID.
// Only the user itself may ask for one.
func (s *AvatarService) PresignUpload(ctx context.Context, actorID, userID, contentType string) (*AvatarUpload, error) {
	keys := make([]interface{}, 0, len(avatarExtensions))
	for k := range avatarExtensions {
		keys = append(keys, k)
	}
	if err := validation.Validate(contentType, validation.Required, validation.In(keys...)); err != nil {
		return nil, fmt.Errorf("%w: contentType: %s", common.ErrorValidation, err.Error())
	}

	if !validID(userID) {
		return nil, fmt.Errorf("%w: user", common.ErrorNotFound)
	}
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		return nil, passThrough(ctx, s.logger, "get user", err)
	}
	if actorID != user.ID {
		return nil, fmt.Errorf("%w: cannot upload another user's avatar", common.ErrorForbidden)
	}

	presignClient, err := s.getPresignClient(ctx)
	if err != nil {
		return nil, passThrough(ctx, s.logger, "s3 config", err)
	}

	bucket := s.config.S3Bucket
	key := avatarKey(user.ID, contentType)
	validity := s.config.AvatarUploadValidityDuration

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(validity))
	if err != nil {
		return nil, passThrough(ctx, s.logger, "presign avatar upload", err)
	}

	return &AvatarUpload{
		UploadURL: req.URL,
		AvatarURL: strings.TrimRight(s.config.S3PublicBaseURL, "/") + "/" + key,
		Key:       key,
		ExpiresAt: time.Now().Add(validity),
	}, nil
}
