package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/gaborage/go-bricks/logger"
	"github.com/jonboulle/clockwork"
)

const (
	adminCacheKey     = "admins"
	defaultAdminTTL   = 5 * time.Minute
	adminSecretSuffix = "admin"
)

// AWSAdminConfig configures the Secrets Manager lookup
type AWSAdminConfig struct {
	Prefix      string
	CacheTTL    time.Duration
	EndpointURL string
}

// SecretsManagerAPI defines the subset of AWS Secrets Manager operations we use.
// This allows for easy mocking and testing
type SecretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// adminSecret is the JSON document stored at <prefix>/admin
type adminSecret struct {
	Emails []string `json:"emails"`
}

// AWSAdminStore reads the allow-list from AWS Secrets Manager and caches it.
type AWSAdminStore struct {
	client     SecretsManagerAPI
	cache      *Cache[*StaticAdminStore]
	secretName string
	logger     logger.Logger
}

// NewAWSAdminStore creates a Secrets Manager backed admin store
func NewAWSAdminStore(ctx context.Context, log logger.Logger, cfg AWSAdminConfig, clock clockwork.Clock) (*AWSAdminStore, error) {
	if cfg.Prefix == "" {
		return nil, fmt.Errorf("AWS Secrets Manager prefix cannot be empty")
	}

	awsConfig, err := loadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return newAWSAdminStore(secretsmanager.NewFromConfig(awsConfig), log, cfg, clock), nil
}

func newAWSAdminStore(client SecretsManagerAPI, log logger.Logger, cfg AWSAdminConfig, clock clockwork.Clock) *AWSAdminStore {
	ttl := defaultAdminTTL
	if cfg.CacheTTL > 0 {
		ttl = cfg.CacheTTL
	}

	log.Info().
		Str("prefix", cfg.Prefix).
		Dur("cache_ttl", ttl).
		Msg("Initializing AWS Secrets Manager admin store")

	return &AWSAdminStore{
		client:     client,
		cache:      NewCache[*StaticAdminStore](ttl, 1, clock),
		secretName: fmt.Sprintf("%s/%s", cfg.Prefix, adminSecretSuffix),
		logger:     log,
	}
}

// IsAdmin implements AdminStore
func (s *AWSAdminStore) IsAdmin(ctx context.Context, email string) (bool, error) {
	admins, ok := s.cache.Get(adminCacheKey)
	if !ok {
		s.logger.Debug().Str("secret", s.secretName).Msg("Cache miss - fetching admin allow-list")

		var err error
		admins, err = s.fetch(ctx)
		if err != nil {
			s.logger.Error().Err(err).Str("secret", s.secretName).Msg("Failed to fetch admin allow-list")
			return false, err
		}
		s.cache.Set(adminCacheKey, admins)
	}
	return admins.IsAdmin(ctx, email)
}

func (s *AWSAdminStore) fetch(ctx context.Context) (*StaticAdminStore, error) {
	result, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(s.secretName),
	})
	if err != nil {
		var notFound *types.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("admin secret %s not found: %w", s.secretName, err)
		}
		return nil, fmt.Errorf("failed to retrieve admin secret %s: %w", s.secretName, err)
	}

	if result.SecretString == nil {
		return nil, fmt.Errorf("admin secret %s is empty", s.secretName)
	}

	var secret adminSecret
	if err := json.Unmarshal([]byte(*result.SecretString), &secret); err != nil {
		return nil, fmt.Errorf("failed to parse admin secret %s: %w", s.secretName, err)
	}

	return NewStaticAdminStore(secret.Emails), nil
}

// Invalidate drops the cached allow-list so the next lookup refetches it
func (s *AWSAdminStore) Invalidate() {
	s.cache.Delete(adminCacheKey)
}

// CacheMetrics returns current cache performance metrics
func (s *AWSAdminStore) CacheMetrics() CacheMetrics {
	return s.cache.Metrics()
}

// Close implements AdminStore
func (s *AWSAdminStore) Close() error {
	s.logger.Debug().Msg("Closed AWS Secrets Manager admin store")
	return nil
}

// loadAWSConfig loads AWS configuration with support for custom endpoint (LocalStack)
func loadAWSConfig(ctx context.Context, cfg AWSAdminConfig) (aws.Config, error) {
	result, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return result, err
	}

	if endpoint := cfg.EndpointURL; endpoint != "" {
		result.BaseEndpoint = aws.String(endpoint)
	}

	return result, nil
}
