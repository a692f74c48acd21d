package middleware

import (
	"context"
	"strings"

	oidc "github.com/coreos/go-oidc"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/openlms/file-service/internal/services"
)

const identityKey = "identity"

// Authenticator verifies bearer tokens against the configured OIDC issuer
// (Keycloak in deployment). The "admin" realm role grants administrator
// access.
type Authenticator struct {
	verifier *oidc.IDTokenVerifier
	logger   zerolog.Logger
}

func NewAuthenticator(ctx context.Context, issuerURL string, logger zerolog.Logger) (*Authenticator, error) {
	provider, err := oidc.NewProvider(ctx, issuerURL)
	if err != nil {
		return nil, err
	}
	return &Authenticator{
		verifier: provider.Verifier(&oidc.Config{SkipClientIDCheck: true}),
		logger:   logger,
	}, nil
}

type tokenClaims struct {
	Sub         string `json:"sub"`
	RealmAccess struct {
		Roles []string `json:"roles"`
	} `json:"realm_access"`
}

// Require rejects requests without a valid bearer token.
func (a *Authenticator) Require() gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, ok := a.authenticate(c)
		if !ok {
			c.AbortWithStatusJSON(401, gin.H{"error": "invalid or missing token"})
			return
		}
		c.Set(identityKey, ident)
		c.Next()
	}
}

// Optional authenticates when a token is present but lets anonymous
// requests through; public-file downloads need no account.
func (a *Authenticator) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		if ident, ok := a.authenticate(c); ok {
			c.Set(identityKey, ident)
		}
		c.Next()
	}
}

func (a *Authenticator) authenticate(c *gin.Context) (services.Identity, bool) {
	auth := c.GetHeader("Authorization")
	if auth == "" {
		return services.Identity{}, false
	}
	tokenStr := strings.TrimPrefix(auth, "Bearer ")
	if tokenStr == auth {
		return services.Identity{}, false
	}

	idToken, err := a.verifier.Verify(c.Request.Context(), tokenStr)
	if err != nil {
		a.logger.Debug().Err(err).Msg("token verification failed")
		return services.Identity{}, false
	}

	var claims tokenClaims
	if err := idToken.Claims(&claims); err != nil {
		a.logger.Debug().Err(err).Msg("failed to parse token claims")
		return services.Identity{}, false
	}

	ident := services.Identity{UserID: claims.Sub}
	for _, role := range claims.RealmAccess.Roles {
		if role == "admin" {
			ident.Admin = true
			break
		}
	}
	return ident, true
}

// Identity returns the requester stored by Require/Optional; the zero value
// is anonymous.
func Identity(c *gin.Context) services.Identity {
	v, ok := c.Get(identityKey)
	if !ok {
		return services.Identity{}
	}
	ident, _ := v.(services.Identity)
	return ident
}
