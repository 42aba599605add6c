package auth

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"notesync/internal/app/server/api/http/apierror"
	"notesync/internal/domain/identity"
)

// Заголовки подписи запроса
const (
	HeaderFingerprint = "key-fingerprint"
	HeaderDeviceID    = "device-id"
	HeaderChallenge   = "challenge"
	HeaderSignature   = "signature"
)

// Verifier проверяет подпись и возвращает вызывающего
type Verifier interface {
	Verify(ctx context.Context, creds identity.Credentials) (identity.Principal, error)
}

type Auth struct {
	verifier Verifier
	log      *slog.Logger
}

func New(verifier Verifier, log *slog.Logger) *Auth {
	return &Auth{
		verifier: verifier,
		log:      log.With(slog.String("component", "auth_middleware")),
	}
}

type contextKey string

const principalKey contextKey = "principal"

// Middleware проверяет подпись на каждом запросе и кладет Principal в контекст
func (a *Auth) Middleware(api huma.API) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		creds := identity.Credentials{
			Fingerprint: ctx.Header(HeaderFingerprint),
			DeviceID:    ctx.Header(HeaderDeviceID),
			Challenge:   ctx.Header(HeaderChallenge),
			Signature:   ctx.Header(HeaderSignature),
		}

		p, err := a.verifier.Verify(ctx.Context(), creds)
		if err != nil {
			a.log.Debug("request rejected",
				slog.String("path", ctx.URL().Path),
				slog.String("device_id", creds.DeviceID),
				slog.String("error", err.Error()),
			)
			status, msg := apierror.StatusOf(err)
			if writeErr := huma.WriteErr(api, ctx, status, msg); writeErr != nil {
				a.log.Error("failed to write auth error", slog.String("error", writeErr.Error()))
			}
			return
		}

		next(huma.WithContext(ctx, WithPrincipal(ctx.Context(), p)))
	}
}

// FromRequest читает подпись из заголовков, а при их отсутствии из query
// (браузерный websocket не умеет выставлять заголовки)
func FromRequest(r *http.Request) identity.Credentials {
	get := func(name string) string {
		if v := r.Header.Get(name); v != "" {
			return v
		}
		return r.URL.Query().Get(name)
	}
	return identity.Credentials{
		Fingerprint: get(HeaderFingerprint),
		DeviceID:    get(HeaderDeviceID),
		Challenge:   get(HeaderChallenge),
		Signature:   get(HeaderSignature),
	}
}

func WithPrincipal(ctx context.Context, p identity.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func GetPrincipal(ctx context.Context) (identity.Principal, bool) {
	p, ok := ctx.Value(principalKey).(identity.Principal)
	return p, ok
}
