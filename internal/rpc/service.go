// Package rpc exposes the risk engine over gRPC. Messages are
// google.protobuf.Struct values carrying the same JSON shapes as the HTTP API,
// so no generated code is needed.
package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/nyashahama/stroke-risk-backend/internal/metrics"
	"github.com/nyashahama/stroke-risk-backend/internal/questionnaire"
	"github.com/nyashahama/stroke-risk-backend/internal/scoring"
)

const (
	ServiceName    = "strokerisk.v1.RiskEngine"
	EvaluateMethod = "/" + ServiceName + "/Evaluate"
)

// RiskEngineServer is the server side of strokerisk.v1.RiskEngine.
type RiskEngineServer interface {
	Evaluate(ctx context.Context, answers *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc describes strokerisk.v1.RiskEngine for grpc.Server.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RiskEngineServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Evaluate", Handler: evaluateHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "strokerisk/v1/risk_engine.proto",
}

func evaluateHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RiskEngineServer).Evaluate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: EvaluateMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RiskEngineServer).Evaluate(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// ─── SERVICE ──────────────────────────────────────────────────────────────────

// Service implements RiskEngineServer on top of the questionnaire and scoring
// packages. It is stateless.
type Service struct {
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewService(m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{metrics: m, logger: logger}
}

// Evaluate validates the answers and returns the RiskResult as a Struct.
// Input problems map to InvalidArgument; everything else to Internal.
func (s *Service) Evaluate(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	raw, err := in.MarshalJSON()
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "encode answers: %v", err)
	}

	answers, err := questionnaire.DecodeAnswers(raw)
	if err != nil {
		s.metrics.ObserveEvaluationFailure(metrics.SourceGRPC, metrics.ReasonValidation)
		return nil, status.Errorf(codes.InvalidArgument, "invalid answers: %v", err)
	}

	res, err := answers.Evaluate()
	if err != nil {
		if msgs, ok := invalidInput(err); ok {
			s.metrics.ObserveEvaluationFailure(metrics.SourceGRPC, metrics.ReasonValidation)
			return nil, status.Error(codes.InvalidArgument, strings.Join(msgs, "; "))
		}
		s.metrics.ObserveEvaluationFailure(metrics.SourceGRPC, metrics.ReasonInternal)
		s.logger.Error("rpc: evaluate failed", "error", err)
		return nil, status.Error(codes.Internal, "internal error")
	}

	out, err := toStruct(res)
	if err != nil {
		s.logger.Error("rpc: encode result", "error", err)
		return nil, status.Error(codes.Internal, "internal error")
	}

	s.metrics.ObserveEvaluation(metrics.SourceGRPC, res)
	return out, nil
}

func invalidInput(err error) ([]string, bool) {
	var verr *questionnaire.ValidationError
	switch {
	case errors.As(err, &verr):
		return verr.Messages, true
	case errors.Is(err, scoring.ErrInvalidInput):
		return []string{err.Error()}, true
	}
	return nil, false
}

func toStruct(res scoring.RiskResult) (*structpb.Struct, error) {
	raw, err := json.Marshal(res)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := out.UnmarshalJSON(raw); err != nil {
		return nil, err
	}
	return out, nil
}

// ─── SERVER ───────────────────────────────────────────────────────────────────

// NewServer returns a grpc.Server with the RiskEngine and the standard health
// service registered. The health status of ServiceName starts as SERVING.
func NewServer(svc RiskEngineServer, logger *slog.Logger, opts ...grpc.ServerOption) (*grpc.Server, *health.Server) {
	opts = append(opts, grpc.ChainUnaryInterceptor(loggingInterceptor(logger)))
	srv := grpc.NewServer(opts...)
	srv.RegisterService(&ServiceDesc, svc)

	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)

	return srv, hs
}

// loggingInterceptor logs each unary call the way the HTTP logger middleware
// logs requests.
func loggingInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Info("grpc",
			"method", info.FullMethod,
			"code", status.Code(err).String(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return resp, err
	}
}

// ─── CLIENT ───────────────────────────────────────────────────────────────────

// Client calls strokerisk.v1.RiskEngine.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) Evaluate(ctx context.Context, answers *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, EvaluateMethod, answers, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
