// Package summarizer calls a remote paragraph summarizer over gRPC. Requests
// and responses are generic protobuf Structs so no generated stubs are
// needed.
package summarizer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dkeye/Moderator/internal/app/transcribe"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName = "moderator.summarizer.v1.Summarizer"
	method      = "/" + ServiceName + "/Summarize"

	keepAliveTime    = 30 * time.Second
	keepAliveTimeout = 5 * time.Second
)

var ErrEmptySummary = errors.New("summarizer returned no text")

type GRPCSummarizer struct {
	conn    *grpc.ClientConn
	timeout time.Duration
}

func NewGRPCSummarizer(addr string, timeout time.Duration, extra ...grpc.DialOption) (*GRPCSummarizer, error) {
	opts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                keepAliveTime,
			Timeout:             keepAliveTimeout,
			PermitWithoutStream: true,
		}),
	}, extra...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("summarizer client: %w", err)
	}
	return &GRPCSummarizer{conn: conn, timeout: timeout}, nil
}

func (s *GRPCSummarizer) Summarize(ctx context.Context, p transcribe.Paragraph) (transcribe.Summary, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	req, err := structpb.NewStruct(map[string]any{
		"speaker": string(p.Speaker),
		"text":    p.Text,
		"epoch":   p.Epoch,
	})
	if err != nil {
		return transcribe.Summary{}, err
	}
	resp := &structpb.Struct{}
	if err := s.conn.Invoke(ctx, method, req, resp); err != nil {
		return transcribe.Summary{}, fmt.Errorf("summarize: %w", err)
	}
	f := resp.GetFields()
	text := f["summary"].GetStringValue()
	if text == "" {
		return transcribe.Summary{}, ErrEmptySummary
	}
	return transcribe.Summary{Text: text, Confidence: f["confidence"].GetNumberValue()}, nil
}

func (s *GRPCSummarizer) Close() error {
	return s.conn.Close()
}
