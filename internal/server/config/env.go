package config

import (
	"os"
	"strconv"
	"time"

	"github.com/dmitrijs2005/roleplay/internal/flagx"
	"github.com/joho/godotenv"
)

// Environment variables recognised by parseEnv.
const (
	envHTTPAddr             = "HTTP_ADDR"
	envGRPCAddr             = "GRPC_ADDR"
	envDatabaseDSN          = "DATABASE_DSN"
	envLogLevel             = "LOG_LEVEL"
	envBcryptCost           = "BCRYPT_COST"
	envResetTokenValidity   = "RESET_TOKEN_VALIDITY"
	envResetURL             = "RESET_URL"
	envSendGridAPIKey       = "SENDGRID_API_KEY"
	envMailFromAddress      = "MAIL_FROM_ADDRESS"
	envMailFromName         = "MAIL_FROM_NAME"
	envS3RootUser           = "S3_ROOT_USER"
	envS3RootPassword       = "S3_ROOT_PASSWORD"
	envS3Bucket             = "S3_BUCKET"
	envS3Region             = "S3_REGION"
	envS3BaseEndpoint       = "S3_BASE_ENDPOINT"
	envS3PublicBaseURL      = "S3_PUBLIC_BASE_URL"
	envAvatarUploadValidity = "AVATAR_UPLOAD_VALIDITY"
)

// parseEnv overlays Config with environment variables. When -env names a
// dotenv file it is loaded first; variables already set in the process
// environment take precedence over the file. A missing or malformed file,
// or a value that does not parse, panics like the JSON loader does.
func parseEnv(config *Config) {
	if path := flagx.EnvFileFlag(); path != "" {
		if err := godotenv.Load(path); err != nil {
			panic(err)
		}
	}

	lookupString(envHTTPAddr, &config.EndpointAddrHTTP)
	lookupString(envGRPCAddr, &config.EndpointAddrGRPC)
	lookupString(envDatabaseDSN, &config.DatabaseDSN)
	lookupString(envLogLevel, &config.LogLevel)
	lookupInt(envBcryptCost, &config.BcryptCost)
	lookupDuration(envResetTokenValidity, &config.ResetTokenValidityDuration)
	lookupString(envResetURL, &config.ResetURL)
	lookupString(envSendGridAPIKey, &config.SendGridAPIKey)
	lookupString(envMailFromAddress, &config.MailFromAddress)
	lookupString(envMailFromName, &config.MailFromName)
	lookupString(envS3RootUser, &config.S3RootUser)
	lookupString(envS3RootPassword, &config.S3RootPassword)
	lookupString(envS3Bucket, &config.S3Bucket)
	lookupString(envS3Region, &config.S3Region)
	lookupString(envS3BaseEndpoint, &config.S3BaseEndpoint)
	lookupString(envS3PublicBaseURL, &config.S3PublicBaseURL)
	lookupDuration(envAvatarUploadValidity, &config.AvatarUploadValidityDuration)
}

func lookupString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func lookupInt(key string, dst *int) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		panic(err)
	}
	*dst = n
}

func lookupDuration(key string, dst *time.Duration) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		panic(err)
	}
	*dst = d
}
