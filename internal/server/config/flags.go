package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/roleplay/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":3333")
//	-g string   gRPC health bind address (e.g., ":50051")
//	-d string   PostgreSQL DSN
//	-l string   log level
//	-k int      bcrypt cost
//	-r int      reset token validity, minutes
//	-m string   SendGrid API key
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//
// Only these flags are taken from os.Args; everything else (-c, -env) belongs
// to other loaders.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-g", "-d", "-l", "-k", "-r", "-m", "-u", "-p", "-b", "-e"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run the HTTP server")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "address and port to run the gRPC health server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.IntVar(&config.BcryptCost, "k", config.BcryptCost, "bcrypt cost")

	resetTokenValidity := fs.Int("r", int(config.ResetTokenValidityDuration.Minutes()), "reset_token_validity_duration (in minutes)")

	fs.StringVar(&config.SendGridAPIKey, "m", config.SendGridAPIKey, "SendGrid API key")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.ResetTokenValidityDuration = time.Duration(*resetTokenValidity) * time.Minute
}
