package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// ServerConfig holds authentication configuration for the ingest
// receivers. The forwarder's own agent connection authenticates at the
// protocol level with a shared secret and does not use this.
type ServerConfig struct {
	// Enabled enables authentication for the receiver.
	Enabled bool
	// BearerToken is the expected bearer token.
	BearerToken string
}

// GRPCServerInterceptor returns a unary interceptor that authenticates
// incoming OTLP export calls.
func GRPCServerInterceptor(cfg ServerConfig) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if !cfg.Enabled {
			return handler(ctx, req)
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing metadata")
		}

		if err := validateAuth(md, cfg); err != nil {
			return nil, status.Error(codes.Unauthenticated, err.Error())
		}

		return handler(ctx, req)
	}
}

// validateAuth validates the authentication metadata.
func validateAuth(md metadata.MD, cfg ServerConfig) error {
	if cfg.BearerToken == "" {
		return nil
	}

	auth := md.Get("authorization")
	if len(auth) == 0 {
		return fmt.Errorf("missing authorization header")
	}

	token := strings.TrimPrefix(auth[0], "Bearer ")
	if token == auth[0] {
		return fmt.Errorf("invalid authorization header format")
	}

	if token != cfg.BearerToken {
		return fmt.Errorf("invalid bearer token")
	}
	return nil
}

// HTTPMiddleware returns an HTTP middleware for receiver authentication.
func HTTPMiddleware(cfg ServerConfig, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !cfg.Enabled || cfg.BearerToken == "" {
			next.ServeHTTP(w, r)
			return
		}

		auth := r.Header.Get("Authorization")
		if auth == "" {
			http.Error(w, "missing authorization header", http.StatusUnauthorized)
			return
		}

		token := strings.TrimPrefix(auth, "Bearer ")
		if token == auth {
			http.Error(w, "invalid authorization header format", http.StatusUnauthorized)
			return
		}
		if token != cfg.BearerToken {
			http.Error(w, "invalid bearer token", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}
