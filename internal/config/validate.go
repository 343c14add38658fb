package config

import (
	"errors"
	"fmt"
)

// minJWTSecretLength is enforced only in production.
const minJWTSecretLength = 32

// Validate checks cross-field constraints that env tags cannot express.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be in 1..65535, got %d", c.Server.Port))
	}
	if c.Server.IsProduction() && len(c.Auth.JWTSecret) < minJWTSecretLength {
		errs = append(errs, fmt.Errorf("auth.jwt_secret must be at least %d characters in production", minJWTSecretLength))
	}
	if c.Auth.AccessTokenTTL <= 0 {
		errs = append(errs, errors.New("auth.access_token_ttl must be positive"))
	}
	if c.Auth.RefreshTokenTTL <= c.Auth.AccessTokenTTL {
		errs = append(errs, errors.New("auth.refresh_token_ttl must exceed auth.access_token_ttl"))
	}
	if c.Auth.MaxSessionsPerUser < 1 {
		errs = append(errs, errors.New("auth.max_sessions_per_user must be at least 1"))
	}
	if c.Database.RequestRole == "" {
		errs = append(errs, errors.New("database.request_role is required"))
	}

	switch c.Storage.Backend {
	case "local":
		if c.Storage.LocalDir == "" {
			errs = append(errs, errors.New("storage.local_dir is required for the local backend"))
		}
	case "s3":
		if c.Storage.S3Bucket == "" {
			errs = append(errs, errors.New("storage.s3_bucket is required for the s3 backend"))
		}
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("storage.backend must be one of local, s3, memory; got %q", c.Storage.Backend))
	}

	if c.Receipts.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("receipts.max_upload_bytes must be positive"))
	}
	if c.Receipts.PerDayLimit < 0 {
		errs = append(errs, errors.New("receipts.per_day_limit must not be negative"))
	}

	return errors.Join(errs...)
}
