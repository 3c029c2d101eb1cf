package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"google.golang.org/grpc/metadata"
)

// BenchmarkHTTPMiddleware_BearerToken benchmarks HTTP middleware with bearer token
func BenchmarkHTTPMiddleware_BearerToken(b *testing.B) {
	cfg := ServerConfig{
		Enabled:     true,
		BearerToken: "test-token-12345",
	}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	middleware := HTTPMiddleware(cfg, handler)

	req := httptest.NewRequest(http.MethodPost, "/v1/logs", nil)
	req.Header.Set("Authorization", "Bearer test-token-12345")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rec := httptest.NewRecorder()
		middleware.ServeHTTP(rec, req)
	}
}

// BenchmarkHTTPMiddleware_Disabled benchmarks middleware when auth is disabled
func BenchmarkHTTPMiddleware_Disabled(b *testing.B) {
	cfg := ServerConfig{
		Enabled: false,
	}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	middleware := HTTPMiddleware(cfg, handler)

	req := httptest.NewRequest(http.MethodPost, "/v1/logs", nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rec := httptest.NewRecorder()
		middleware.ServeHTTP(rec, req)
	}
}

// BenchmarkGRPCServerInterceptor_BearerToken benchmarks the gRPC interceptor
func BenchmarkGRPCServerInterceptor_BearerToken(b *testing.B) {
	cfg := ServerConfig{
		Enabled:     true,
		BearerToken: "test-token-12345",
	}

	interceptor := GRPCServerInterceptor(cfg)
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return nil, nil
	}

	md := metadata.New(map[string]string{
		"authorization": "Bearer test-token-12345",
	})
	ctx := metadata.NewIncomingContext(context.Background(), md)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = interceptor(ctx, nil, nil, handler)
	}
}
