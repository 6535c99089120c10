package observability

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/signalsfoundry/world-simulator/internal/logging"
)

const connectionIDMetadataKey = "x-connection-id"

// LoggingUnaryServerInterceptor attaches a per-call logger annotated with
// connection_id and method. The ID is taken from inbound metadata when the
// caller supplies one. Each call is logged at debug level with its status.
func LoggingUnaryServerInterceptor(base logging.Logger) grpc.UnaryServerInterceptor {
	if base == nil {
		base = logging.Noop()
	}
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if incoming := firstHeader(md, connectionIDMetadataKey); incoming != "" {
				ctx = logging.ContextWithConnectionID(ctx, incoming)
			}
		}

		ctx, callLog := logging.WithConnectionLogger(ctx, base.With(logging.String("method", info.FullMethod)))
		ctx = logging.ContextWithLogger(ctx, callLog)

		resp, err := handler(ctx, req)
		callLog.Debug(ctx, "rpc handled", logging.String("code", status.Code(err).String()))
		return resp, err
	}
}

func firstHeader(md metadata.MD, key string) string {
	if vals := md.Get(key); len(vals) > 0 {
		return vals[0]
	}
	return ""
}
