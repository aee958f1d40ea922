package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/komunta/komunta/internal/auth"
)

type RefreshInput struct {
	Body struct {
		RefreshToken string `json:"refresh_token" minLength:"1" doc:"A valid refresh token"`
	}
}

type RefreshOutput struct {
	Body struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int64  `json:"expires_in" doc:"Access token lifetime in seconds"`
	}
}

// RegisterAuthRoutes wires the unauthenticated token exchange. Initial
// tokens come from the external identity service or the tokengen tool;
// this endpoint only rotates a still-valid refresh token.
func RegisterAuthRoutes(api huma.API, jwtSecret string, accessTTL, refreshTTL time.Duration) {
	huma.Register(api, huma.Operation{
		OperationID: "refresh-token",
		Method:      http.MethodPost,
		Path:        "/auth/refresh",
		Summary:     "Exchange a refresh token for a fresh token pair",
		Tags:        []string{"Auth"},
	}, func(_ context.Context, input *RefreshInput) (*RefreshOutput, error) {
		claims, err := auth.ValidateToken(jwtSecret, input.Body.RefreshToken)
		if err != nil || !claims.IsRefresh() {
			return nil, huma.Error401Unauthorized("invalid refresh token")
		}

		actor := auth.ResolveContext(claims)
		if !actor.Valid() {
			return nil, huma.Error401Unauthorized("invalid refresh token")
		}

		accessToken, err := auth.IssueAccessToken(jwtSecret, actor, accessTTL)
		if err != nil {
			return nil, huma.Error500InternalServerError("token issuance failed", err)
		}
		refreshToken, err := auth.IssueRefreshToken(jwtSecret, actor, refreshTTL)
		if err != nil {
			return nil, huma.Error500InternalServerError("token issuance failed", err)
		}

		out := &RefreshOutput{}
		out.Body.AccessToken = accessToken
		out.Body.RefreshToken = refreshToken
		out.Body.ExpiresIn = int64(accessTTL.Seconds())
		return out, nil
	})
}
