package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func TestHTTPMiddlewareDisabled(t *testing.T) {
	cfg := ServerConfig{
		Enabled: false,
	}

	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	handler := HTTPMiddleware(cfg, next)

	req := httptest.NewRequest(http.MethodPost, "/v1/logs", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if !called {
		t.Error("expected handler to be called when auth is disabled")
	}
}

func TestHTTPMiddlewareMissingAuth(t *testing.T) {
	cfg := ServerConfig{
		Enabled:     true,
		BearerToken: "secret-token",
	}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called without auth")
	})

	handler := HTTPMiddleware(cfg, next)

	req := httptest.NewRequest(http.MethodPost, "/v1/logs", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rec.Code)
	}
}

func TestHTTPMiddlewareBearerTokenValid(t *testing.T) {
	cfg := ServerConfig{
		Enabled:     true,
		BearerToken: "secret-token",
	}

	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	handler := HTTPMiddleware(cfg, next)

	req := httptest.NewRequest(http.MethodPost, "/v1/logs", nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if !called {
		t.Error("expected handler to be called with valid token")
	}
}

func TestHTTPMiddlewareBearerTokenInvalid(t *testing.T) {
	cfg := ServerConfig{
		Enabled:     true,
		BearerToken: "secret-token",
	}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called with invalid token")
	})

	handler := HTTPMiddleware(cfg, next)

	req := httptest.NewRequest(http.MethodPost, "/v1/logs", nil)
	req.Header.Set("Authorization", "Bearer wrong-token")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rec.Code)
	}
}

func TestHTTPMiddlewareMalformedBearerToken(t *testing.T) {
	cfg := ServerConfig{
		Enabled:     true,
		BearerToken: "secret-token",
	}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called")
	})

	handler := HTTPMiddleware(cfg, next)

	req := httptest.NewRequest(http.MethodPost, "/v1/logs", nil)
	req.Header.Set("Authorization", "NotBearer secret-token")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rec.Code)
	}
}

func TestHTTPMiddlewareEnabledWithoutToken(t *testing.T) {
	// Enabled but no token configured: pass through. Config validation
	// rejects this combination before a server is built.
	cfg := ServerConfig{
		Enabled: true,
	}

	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	handler := HTTPMiddleware(cfg, next)

	req := httptest.NewRequest(http.MethodPost, "/v1/logs", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if !called {
		t.Error("expected pass-through when no token is configured")
	}
}

func TestValidateAuthBearerToken(t *testing.T) {
	cfg := ServerConfig{
		Enabled:     true,
		BearerToken: "secret-token",
	}

	md := metadata.New(map[string]string{
		"authorization": "Bearer secret-token",
	})

	err := validateAuth(md, cfg)
	if err != nil {
		t.Errorf("expected no error, got: %v", err)
	}
}

func TestValidateAuthMissingHeader(t *testing.T) {
	cfg := ServerConfig{
		Enabled:     true,
		BearerToken: "secret-token",
	}

	err := validateAuth(metadata.MD{}, cfg)
	if err == nil {
		t.Error("expected error for missing authorization header")
	}
}

func TestValidateAuthMalformedHeader(t *testing.T) {
	cfg := ServerConfig{
		Enabled:     true,
		BearerToken: "secret-token",
	}

	md := metadata.New(map[string]string{
		"authorization": "Token secret-token",
	})

	err := validateAuth(md, cfg)
	if err == nil {
		t.Error("expected error for malformed authorization header")
	}
}

func TestValidateAuthWrongToken(t *testing.T) {
	cfg := ServerConfig{
		Enabled:     true,
		BearerToken: "secret-token",
	}

	md := metadata.New(map[string]string{
		"authorization": "Bearer wrong-token",
	})

	err := validateAuth(md, cfg)
	if err == nil {
		t.Error("expected error for wrong token")
	}
}

func TestValidateAuthNoTokenConfigured(t *testing.T) {
	cfg := ServerConfig{
		Enabled: true,
	}

	err := validateAuth(metadata.MD{}, cfg)
	if err != nil {
		t.Errorf("expected no error when no token configured, got: %v", err)
	}
}

func TestGRPCServerInterceptorDisabled(t *testing.T) {
	cfg := ServerConfig{
		Enabled: false,
	}

	interceptor := GRPCServerInterceptor(cfg)

	called := false
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		called = true
		return "response", nil
	}

	ctx := context.Background()
	resp, err := interceptor(ctx, nil, nil, handler)

	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !called {
		t.Error("handler should be called when auth is disabled")
	}
	if resp != "response" {
		t.Errorf("expected 'response', got %v", resp)
	}
}

func TestGRPCServerInterceptorMissingMetadata(t *testing.T) {
	cfg := ServerConfig{
		Enabled:     true,
		BearerToken: "secret-token",
	}

	interceptor := GRPCServerInterceptor(cfg)

	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		t.Error("handler should not be called without metadata")
		return nil, nil
	}

	ctx := context.Background() // No metadata
	_, err := interceptor(ctx, nil, nil, handler)

	if err == nil {
		t.Error("expected error for missing metadata")
	}
	if status.Code(err) != codes.Unauthenticated {
		t.Errorf("expected Unauthenticated, got %v", status.Code(err))
	}
}

func TestGRPCServerInterceptorValidBearerToken(t *testing.T) {
	cfg := ServerConfig{
		Enabled:     true,
		BearerToken: "secret-token",
	}

	interceptor := GRPCServerInterceptor(cfg)

	called := false
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		called = true
		return "response", nil
	}

	md := metadata.New(map[string]string{
		"authorization": "Bearer secret-token",
	})
	ctx := metadata.NewIncomingContext(context.Background(), md)

	resp, err := interceptor(ctx, nil, nil, handler)

	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !called {
		t.Error("handler should be called with valid token")
	}
	if resp != "response" {
		t.Errorf("expected 'response', got %v", resp)
	}
}

func TestGRPCServerInterceptorInvalidBearerToken(t *testing.T) {
	cfg := ServerConfig{
		Enabled:     true,
		BearerToken: "secret-token",
	}

	interceptor := GRPCServerInterceptor(cfg)

	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		t.Error("handler should not be called with invalid token")
		return nil, nil
	}

	md := metadata.New(map[string]string{
		"authorization": "Bearer wrong-token",
	})
	ctx := metadata.NewIncomingContext(context.Background(), md)

	_, err := interceptor(ctx, nil, nil, handler)

	if err == nil {
		t.Error("expected error for invalid token")
	}
	if status.Code(err) != codes.Unauthenticated {
		t.Errorf("expected Unauthenticated, got %v", status.Code(err))
	}
}

func TestHTTPMiddlewareConcurrent(t *testing.T) {
	cfg := ServerConfig{
		Enabled:     true,
		BearerToken: "secret-token",
	}

	handler := HTTPMiddleware(cfg, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(authorized bool) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				req := httptest.NewRequest(http.MethodPost, "/v1/logs", nil)
				if authorized {
					req.Header.Set("Authorization", "Bearer secret-token")
				}
				rec := httptest.NewRecorder()
				handler.ServeHTTP(rec, req)

				want := http.StatusUnauthorized
				if authorized {
					want = http.StatusOK
				}
				if rec.Code != want {
					t.Errorf("status = %d, want %d", rec.Code, want)
				}
			}
		}(i%2 == 0)
	}
	wg.Wait()
}
