package grpcapi

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	evaluateMethod        = "/" + ServiceName + "/Evaluate"
	parseMethod           = "/" + ServiceName + "/Parse"
	listEvaluationsMethod = "/" + ServiceName + "/ListEvaluations"
)

// RegisterCalculatorServer registers srv on s.
func RegisterCalculatorServer(s grpc.ServiceRegistrar, srv CalculatorServer) {
	s.RegisterService(&calculatorServiceDesc, srv)
}

var calculatorServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CalculatorServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Evaluate", Handler: evaluateHandler},
		{MethodName: "Parse", Handler: parseHandler},
		{MethodName: "ListEvaluations", Handler: listEvaluationsHandler},
	},
	Streams: []grpc.StreamDesc{},
}

func evaluateHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CalculatorServer).Evaluate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: evaluateMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CalculatorServer).Evaluate(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func parseHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CalculatorServer).Parse(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: parseMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CalculatorServer).Parse(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func listEvaluationsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CalculatorServer).ListEvaluations(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: listEvaluationsMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CalculatorServer).ListEvaluations(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// Client calls a remote Calculator service.
type Client struct {
	conn *grpc.ClientConn
}

// Dial connects to a Calculator server at addr without transport security.
func Dial(addr string) (*Client, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return NewClient(conn), nil
}

// NewClient wraps an existing connection.
func NewClient(conn *grpc.ClientConn) *Client {
	return &Client{conn: conn}
}

// Evaluate evaluates expression remotely. Expression errors come back as
// *expr.ParseError.
func (c *Client) Evaluate(ctx context.Context, expression string) (float64, error) {
	out := new(wrapperspb.DoubleValue)
	if err := c.conn.Invoke(ctx, evaluateMethod, wrapperspb.String(expression), out); err != nil {
		return 0, fromStatus(err)
	}
	return out.GetValue(), nil
}

// Parse returns the remote parenthesized tree for expression.
func (c *Client) Parse(ctx context.Context, expression string) (string, error) {
	out := new(wrapperspb.StringValue)
	if err := c.conn.Invoke(ctx, parseMethod, wrapperspb.String(expression), out); err != nil {
		return "", fromStatus(err)
	}
	return out.GetValue(), nil
}

// ListEvaluations returns the remote history, newest first.
func (c *Client) ListEvaluations(ctx context.Context) ([]map[string]interface{}, error) {
	out := new(structpb.ListValue)
	if err := c.conn.Invoke(ctx, listEvaluationsMethod, &emptypb.Empty{}, out); err != nil {
		return nil, err
	}
	result := make([]map[string]interface{}, 0, len(out.GetValues()))
	for _, v := range out.GetValues() {
		result = append(result, v.GetStructValue().AsMap())
	}
	return result, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
