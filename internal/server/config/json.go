package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/roleplay/internal/flagx"
	"github.com/dmitrijs2005/roleplay/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations use
// timex.Duration, so both "2h" and integer nanoseconds are accepted.
// Fields left out of the file keep their current values.
type JsonConfig struct {
	EndpointAddrHTTP             string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC             string         `json:"endpoint_addr_grpc"`
	DatabaseDSN                  string         `json:"database_dsn"`
	LogLevel                     string         `json:"log_level"`
	BcryptCost                   int            `json:"bcrypt_cost"`
	ResetTokenValidityDuration   timex.Duration `json:"reset_token_validity_duration"`
	ResetURL                     string         `json:"reset_url"`
	SendGridAPIKey               string         `json:"sendgrid_api_key"`
	MailFromAddress              string         `json:"mail_from_address"`
	MailFromName                 string         `json:"mail_from_name"`
	S3RootUser                   string         `json:"s3_root_user"`
	S3RootPassword               string         `json:"s3_root_password"`
	S3Bucket                     string         `json:"s3_bucket"`
	S3Region                     string         `json:"s3_region"`
	S3BaseEndpoint               string         `json:"s3_base_endpoint"`
	S3PublicBaseURL              string         `json:"s3_public_base_url"`
	AvatarUploadValidityDuration timex.Duration `json:"avatar_upload_validity_duration"`
}

// parseJson loads the file named by -c or -config into config. Without the
// flag nothing happens. An unreadable file or invalid JSON panics.
func parseJson(config *Config) {

	// try flags
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.LogLevel, c.LogLevel)
	if c.BcryptCost != 0 {
		config.BcryptCost = c.BcryptCost
	}
	if c.ResetTokenValidityDuration.Duration != 0 {
		config.ResetTokenValidityDuration = c.ResetTokenValidityDuration.Duration
	}
	setString(&config.ResetURL, c.ResetURL)
	setString(&config.SendGridAPIKey, c.SendGridAPIKey)
	setString(&config.MailFromAddress, c.MailFromAddress)
	setString(&config.MailFromName, c.MailFromName)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.S3PublicBaseURL, c.S3PublicBaseURL)
	if c.AvatarUploadValidityDuration.Duration != 0 {
		config.AvatarUploadValidityDuration = c.AvatarUploadValidityDuration.Duration
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
