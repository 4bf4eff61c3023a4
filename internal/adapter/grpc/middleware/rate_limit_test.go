package middleware

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	ginmiddleware "notes-service/internal/adapter/gin/middleware"
)

// mockHandler is a simple handler that returns "success"
func mockHandler(ctx context.Context, req any) (any, error) {
	return "success", nil
}

type recordingLimiter struct {
	allow bool
	err   error
	keys  []string
}

func (l *recordingLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.keys = append(l.keys, key)
	return l.allow, l.err
}

func peerContext(t *testing.T, addr string) context.Context {
	t.Helper()
	tcp, err := net.ResolveTCPAddr("tcp", addr)
	require.NoError(t, err)
	return peer.NewContext(context.Background(), &peer.Peer{Addr: tcp})
}

var checkInfo = &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}

func TestRateLimiter_WithinLimit(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: miniredis.RunT(t).Addr()})
	t.Cleanup(func() { _ = client.Close() })

	limiter := ginmiddleware.NewRateLimiter(client, ginmiddleware.RateLimitConfig{RequestsPerSecond: 10, BurstCapacity: 10}, zaptest.NewLogger(t))
	interceptor := NewRateLimiter(limiter, zaptest.NewLogger(t)).UnaryInterceptor()
	ctx := peerContext(t, "127.0.0.1:12345")

	for i := 0; i < 5; i++ {
		resp, err := interceptor(ctx, nil, checkInfo, mockHandler)
		require.NoError(t, err)
		assert.Equal(t, "success", resp)
	}
}

func TestRateLimiter_ExceedLimit(t *testing.T) {
	limiter := ginmiddleware.NewMemoryRateLimiter(ginmiddleware.RateLimitConfig{RequestsPerSecond: 0.01, BurstCapacity: 2}, zaptest.NewLogger(t))
	interceptor := NewRateLimiter(limiter, zaptest.NewLogger(t)).UnaryInterceptor()
	ctx := peerContext(t, "127.0.0.1:12345")

	for i := 0; i < 2; i++ {
		_, err := interceptor(ctx, nil, checkInfo, mockHandler)
		require.NoError(t, err)
	}

	resp, err := interceptor(ctx, nil, checkInfo, mockHandler)
	assert.Nil(t, resp)
	assert.Equal(t, codes.ResourceExhausted, status.Code(err))

	// a new connection from the same host shares the bucket
	_, err = interceptor(peerContext(t, "127.0.0.1:23456"), nil, checkInfo, mockHandler)
	assert.Equal(t, codes.ResourceExhausted, status.Code(err))

	_, err = interceptor(peerContext(t, "127.0.0.2:12345"), nil, checkInfo, mockHandler)
	assert.NoError(t, err)
}

func TestRateLimiter_FailOpen(t *testing.T) {
	limiter := &recordingLimiter{err: errors.New("redis down")}
	interceptor := NewRateLimiter(limiter, zaptest.NewLogger(t)).UnaryInterceptor()

	resp, err := interceptor(peerContext(t, "127.0.0.1:12345"), nil, checkInfo, mockHandler)
	require.NoError(t, err)
	assert.Equal(t, "success", resp)
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name string
		ctx  func(t *testing.T) context.Context
		want string
	}{
		{
			name: "peer host without port",
			ctx:  func(t *testing.T) context.Context { return peerContext(t, "10.1.2.3:5555") },
			want: "10.1.2.3",
		},
		{
			name: "first forwarded address",
			ctx: func(t *testing.T) context.Context {
				return metadata.NewIncomingContext(peerContext(t, "10.1.2.3:5555"),
					metadata.Pairs("x-forwarded-for", "203.0.113.7, 10.0.0.1"))
			},
			want: "203.0.113.7",
		},
		{
			name: "real ip",
			ctx: func(t *testing.T) context.Context {
				return metadata.NewIncomingContext(context.Background(), metadata.Pairs("x-real-ip", "198.51.100.2"))
			},
			want: "198.51.100.2",
		},
		{
			name: "nothing known",
			ctx:  func(t *testing.T) context.Context { return context.Background() },
			want: "unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limiter := &recordingLimiter{allow: true}
			interceptor := NewRateLimiter(limiter, zaptest.NewLogger(t)).UnaryInterceptor()

			_, err := interceptor(tt.ctx(t), nil, checkInfo, mockHandler)
			require.NoError(t, err)
			assert.Equal(t, []string{tt.want}, limiter.keys)
		})
	}
}
