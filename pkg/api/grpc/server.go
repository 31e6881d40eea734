// Package grpcapi implements the arith.v1.Calculator gRPC service and a
// client for it. Requests and responses use the protobuf well-known wrapper
// types, so no generated code is needed on either side.
package grpcapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/lemonberrylabs/arith/pkg/expr"
	"github.com/lemonberrylabs/arith/pkg/store"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "arith.v1.Calculator"

// ErrorDomain is the ErrorInfo domain attached to expression errors.
const ErrorDomain = "arith"

// CalculatorServer is the server API for the Calculator service.
type CalculatorServer interface {
	Evaluate(context.Context, *wrapperspb.StringValue) (*wrapperspb.DoubleValue, error)
	Parse(context.Context, *wrapperspb.StringValue) (*wrapperspb.StringValue, error)
	ListEvaluations(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
}

// Server implements CalculatorServer on top of the evaluation store.
type Server struct {
	store  *store.Store
	maxLen int
	grpc   *grpc.Server
}

// New creates a new gRPC server wrapping the given store. Expressions longer
// than maxLen bytes are rejected; 0 means unlimited.
func New(s *store.Store, maxLen int) *Server {
	srv := &Server{
		store:  s,
		maxLen: maxLen,
	}

	gs := grpc.NewServer()
	RegisterCalculatorServer(gs, srv)
	srv.grpc = gs

	return srv
}

// Serve starts listening on the given address and serves gRPC requests.
func (s *Server) Serve(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}
	return s.ServeListener(lis)
}

// ServeListener serves gRPC requests on an existing listener.
func (s *Server) ServeListener(lis net.Listener) error {
	return s.grpc.Serve(lis)
}

// GracefulStop gracefully stops the gRPC server.
func (s *Server) GracefulStop() {
	s.grpc.GracefulStop()
}

// --- Calculator Service ---

func (s *Server) Evaluate(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.DoubleValue, error) {
	if err := s.checkLength(req.GetValue()); err != nil {
		return nil, err
	}

	ev, err := s.store.Evaluate(req.GetValue(), store.SourceGRPC)
	if err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.Double(ev.Result), nil
}

func (s *Server) Parse(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	if err := s.checkLength(req.GetValue()); err != nil {
		return nil, err
	}

	node, err := expr.ParseExpression(req.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.String(node.String()), nil
}

func (s *Server) ListEvaluations(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	evaluations := s.store.List()

	values := make([]*structpb.Value, 0, len(evaluations))
	for _, ev := range evaluations {
		st, err := evaluationToStruct(ev)
		if err != nil {
			return nil, status.Error(codes.Internal, err.Error())
		}
		values = append(values, structpb.NewStructValue(st))
	}
	return &structpb.ListValue{Values: values}, nil
}

func (s *Server) checkLength(expression string) error {
	if s.maxLen > 0 && len(expression) > s.maxLen {
		return status.Errorf(codes.InvalidArgument,
			"expression exceeds maximum length of %d characters", s.maxLen)
	}
	return nil
}

// --- Conversion Helpers ---

// toStatus maps an expression error to InvalidArgument with an ErrorInfo
// detail carrying the error kind and detail text.
func toStatus(err error) error {
	var pe *expr.ParseError
	if !errors.As(err, &pe) {
		return status.Error(codes.Internal, err.Error())
	}

	st := status.New(codes.InvalidArgument, pe.Error())
	withInfo, derr := st.WithDetails(&errdetails.ErrorInfo{
		Reason:   pe.Kind.String(),
		Domain:   ErrorDomain,
		Metadata: map[string]string{"detail": pe.Detail},
	})
	if derr != nil {
		return st.Err()
	}
	return withInfo.Err()
}

// fromStatus reverses toStatus. Errors without arith ErrorInfo are returned
// unchanged.
func fromStatus(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	for _, d := range st.Details() {
		info, ok := d.(*errdetails.ErrorInfo)
		if !ok || info.GetDomain() != ErrorDomain {
			continue
		}
		if kind := expr.KindFromString(info.GetReason()); kind != 0 {
			return &expr.ParseError{Kind: kind, Detail: info.GetMetadata()["detail"]}
		}
	}
	return err
}

func evaluationToStruct(ev *store.Evaluation) (*structpb.Struct, error) {
	m := map[string]interface{}{
		"id":         ev.ID,
		"expression": ev.Expression,
		"state":      string(ev.State),
		"source":     string(ev.Source),
		"createTime": ev.CreateTime.Format(time.RFC3339),
	}
	if ev.AST != "" {
		m["ast"] = ev.AST
	}
	if ev.State == store.EvaluationSucceeded {
		m["result"] = ev.Display
		if ev.Finite() {
			m["value"] = ev.Result
		}
	}
	if ev.Error != "" {
		m["error"] = map[string]interface{}{
			"kind":    ev.ErrorKind,
			"message": ev.Error,
		}
	}
	return structpb.NewStruct(m)
}
