package grpc

import (
	"context"
	"strings"

	"github.com/Algi221/Sistem-Perpustakaan-SMK-Taruna-Bhakti/app/middleware"
	"github.com/Algi221/Sistem-Perpustakaan-SMK-Taruna-Bhakti/app/service"

	"github.com/sirupsen/logrus"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const healthServicePrefix = "/grpc.health.v1.Health/"

type sessionClaimsKey struct{}

type sessionAuthorizer interface {
	Authorize(tokenString string) (*service.SessionClaims, error)
}

// AdminAuthUnaryInterceptor admits only admin sessions. Health checks are
// left open for probes.
func AdminAuthUnaryInterceptor(sessions sessionAuthorizer) gogrpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *gogrpc.UnaryServerInfo, handler gogrpc.UnaryHandler) (any, error) {
		if strings.HasPrefix(info.FullMethod, healthServicePrefix) {
			return handler(ctx, req)
		}

		claims, err := sessions.Authorize(bearerFromMetadata(ctx))
		if err != nil {
			logrus.WithField("method", info.FullMethod).Warn("Rejected unauthorized grpc call")
			return nil, status.Error(codes.Unauthenticated, "unauthorized")
		}

		return handler(context.WithValue(ctx, sessionClaimsKey{}, claims), req)
	}
}

// SessionClaimsFromContext returns the claims stored by AdminAuthUnaryInterceptor.
func SessionClaimsFromContext(ctx context.Context) (*service.SessionClaims, bool) {
	claims, ok := ctx.Value(sessionClaimsKey{}).(*service.SessionClaims)
	return claims, ok
}

func bearerFromMetadata(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get("authorization")
	if len(values) == 0 {
		return ""
	}
	token, _ := middleware.BearerToken(values[0])
	return token
}
