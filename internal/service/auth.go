package service

import (
	"context"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"

	"github.com/yuzuhara/fieldwise/client"
	"github.com/yuzuhara/fieldwise/internal/domain"
)

var tracer = otel.Tracer("service")

type AuthService struct {
	config *domain.Config
	client *client.Client
}

func NewAuthService(
	config *domain.Config,
	client *client.Client,
) *AuthService {
	return &AuthService{
		config: config,
		client: client,
	}
}

type AuthResult struct {
	Token  string
	Expire int
}

// Exchange trades an app id/secret pair for a tenant access token. The
// underlying client caches tokens, so repeated calls with the same app
// id are cheap.
func (s *AuthService) Exchange(ctx context.Context, appID, appSecret string) (*AuthResult, error) {
	ctx, span := tracer.Start(ctx, "Auth.Service.Exchange")
	defer span.End()

	result, err := s.client.TenantAccessToken(ctx, appID, appSecret)
	if err != nil {
		span.RecordError(errors.Wrap(err, "token exchange failed"))
		return nil, err
	}

	return &AuthResult{
		Token:  result.Token,
		Expire: result.Expire,
	}, nil
}
