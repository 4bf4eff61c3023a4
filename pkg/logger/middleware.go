package logger

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// RequestIDHeader carries the request id in and out of the service.
const RequestIDHeader = "X-Request-ID"

// requestIDMetadataKey is RequestIDHeader as gRPC metadata keys are lower-cased.
const requestIDMetadataKey = "x-request-id"

// RequestID is a gin middleware that reuses an incoming X-Request-ID or
// generates a new one, stores it on the request context and echoes it back.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := validRequestID(c.GetHeader(RequestIDHeader))

		c.Request = c.Request.WithContext(WithRequestID(c.Request.Context(), requestID))
		c.Header(RequestIDHeader, requestID)
		c.Set(string(RequestIDKey), requestID)

		c.Next()
	}
}

// RequestIDInterceptor is the gRPC counterpart of RequestID: the id comes from
// x-request-id metadata when present and is sent back as a response header.
func RequestIDInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		var incoming string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if ids := md.Get(requestIDMetadataKey); len(ids) > 0 {
				incoming = ids[0]
			}
		}
		requestID := validRequestID(incoming)

		_ = grpc.SetHeader(ctx, metadata.Pairs(requestIDMetadataKey, requestID))
		return handler(WithRequestID(ctx, requestID), req)
	}
}

func validRequestID(id string) string {
	if id == "" || len(id) > 128 {
		return uuid.New().String()
	}
	return id
}
