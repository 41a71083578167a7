package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	transports "github.com/rzbill/logship/internal/cmd/client/transports"
)

// BaseURLFunc provides the base HTTP API URL (e.g., from env or flag).
type BaseURLFunc func() string

// grpcAddrFromEnv returns the gRPC server address from LOGSHIP_GRPC or a default.
func grpcAddrFromEnv() string {
	if addr := os.Getenv("LOGSHIP_GRPC"); addr != "" {
		return addr
	}
	return "127.0.0.1:9090"
}

// dialGRPCContext dials the gRPC endpoint with insecure transport for local/dev.
func dialGRPCContext(context.Context) (*grpc.ClientConn, error) {
	return grpc.NewClient(grpcAddrFromEnv(), grpc.WithTransportCredentials(insecure.NewCredentials()))
}

func httpTransport(baseURL BaseURLFunc) transports.ShipperTransport {
	return transports.NewHTTPTransport(baseURL(), nil)
}

// parseObject decodes a JSON object from s, or from stdin when s is "-".
func parseObject(s string, stdin io.Reader) (map[string]any, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var data []byte
	if s == "-" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, err
		}
		data = b
	} else {
		data = []byte(s)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("expected a JSON object: %w", err)
	}
	return out, nil
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
