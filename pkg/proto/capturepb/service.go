// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package capturepb

import (
	"context"

	"google.golang.org/grpc"
)

const captureFullMethodName = "/capture.CaptureService/Capture"

// CaptureServiceClient is the client API for the capture service.
type CaptureServiceClient interface {
	// Capture opens the bidirectional capture stream. The client sends one
	// CaptureRequest and half-closes to stop; the service streams
	// CaptureResponses until it has sent CaptureFinished.
	Capture(ctx context.Context, opts ...grpc.CallOption) (CaptureService_CaptureClient, error)
}

type captureServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewCaptureServiceClient returns a client of the capture service on cc.
func NewCaptureServiceClient(cc grpc.ClientConnInterface) CaptureServiceClient {
	return &captureServiceClient{cc}
}

func (c *captureServiceClient) Capture(ctx context.Context, opts ...grpc.CallOption) (CaptureService_CaptureClient, error) {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	stream, err := c.cc.NewStream(ctx, &CaptureService_ServiceDesc.Streams[0], captureFullMethodName, opts...)
	if err != nil {
		return nil, err
	}
	return &captureServiceCaptureClient{stream}, nil
}

// CaptureService_CaptureClient is the client side of the capture stream.
//
//nolint:revive
type CaptureService_CaptureClient interface {
	Send(*CaptureRequest) error
	Recv() (*CaptureResponse, error)
	grpc.ClientStream
}

type captureServiceCaptureClient struct {
	grpc.ClientStream
}

func (x *captureServiceCaptureClient) Send(m *CaptureRequest) error {
	return x.ClientStream.SendMsg(m)
}

func (x *captureServiceCaptureClient) Recv() (*CaptureResponse, error) {
	m := new(CaptureResponse)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

// CaptureServiceServer is the server API for the capture service.
type CaptureServiceServer interface {
	Capture(CaptureService_CaptureServer) error
}

// RegisterCaptureServiceServer registers srv on s.
func RegisterCaptureServiceServer(s grpc.ServiceRegistrar, srv CaptureServiceServer) {
	s.RegisterService(&CaptureService_ServiceDesc, srv)
}

func captureServiceCaptureHandler(srv interface{}, stream grpc.ServerStream) error {
	return srv.(CaptureServiceServer).Capture(&captureServiceCaptureServer{stream})
}

// CaptureService_CaptureServer is the server side of the capture stream.
//
//nolint:revive
type CaptureService_CaptureServer interface {
	Send(*CaptureResponse) error
	Recv() (*CaptureRequest, error)
	grpc.ServerStream
}

type captureServiceCaptureServer struct {
	grpc.ServerStream
}

func (x *captureServiceCaptureServer) Send(m *CaptureResponse) error {
	return x.ServerStream.SendMsg(m)
}

func (x *captureServiceCaptureServer) Recv() (*CaptureRequest, error) {
	m := new(CaptureRequest)
	if err := x.ServerStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

// CaptureService_ServiceDesc is the grpc.ServiceDesc of the capture service.
//
//nolint:revive
var CaptureService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "capture.CaptureService",
	HandlerType: (*CaptureServiceServer)(nil),
	Methods:     []grpc.MethodDesc{},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Capture",
			Handler:       captureServiceCaptureHandler,
			ServerStreams: true,
			ClientStreams: true,
		},
	},
	Metadata: "capture.proto",
}
