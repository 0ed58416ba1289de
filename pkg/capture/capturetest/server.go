// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package capturetest runs an in-process capture service for tests.
package capturetest

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"github.com/DataDog/capture-agent/pkg/proto/capturepb"
)

const bufSize = 1 << 20

// Handler serves one capture once its request was received.
type Handler func(request *capturepb.CaptureRequest, stream capturepb.CaptureService_CaptureServer) error

// Server is a capture service backed by a Handler.
type Server struct {
	handler  Handler
	listener net.Listener
	grpc     *grpc.Server

	mu       sync.Mutex
	requests []*capturepb.CaptureRequest
}

// NewServer serves handler over an in-memory connection until the test ends.
// Use Dial to connect to it.
func NewServer(t testing.TB, handler Handler) *Server {
	return serve(t, handler, bufconn.Listen(bufSize))
}

// NewTCPServer serves handler on a loopback port until the test ends.
func NewTCPServer(t testing.TB, handler Handler) *Server {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	return serve(t, handler, listener)
}

func serve(t testing.TB, handler Handler, listener net.Listener) *Server {
	s := &Server{
		handler:  handler,
		listener: listener,
		grpc:     grpc.NewServer(),
	}
	capturepb.RegisterCaptureServiceServer(s.grpc, s)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.grpc.Serve(listener)
	}()
	t.Cleanup(func() {
		s.grpc.Stop()
		<-done
	})
	return s
}

// Addr returns the address the server listens on.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Dial connects to a server created by NewServer.
func (s *Server) Dial(t testing.TB) *grpc.ClientConn {
	bufListener, ok := s.listener.(*bufconn.Listener)
	require.True(t, ok, "Dial needs an in-memory server")

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return bufListener.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// Requests returns the capture requests received so far.
func (s *Server) Requests() []*capturepb.CaptureRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*capturepb.CaptureRequest(nil), s.requests...)
}

// Capture implements capturepb.CaptureServiceServer.
func (s *Server) Capture(stream capturepb.CaptureService_CaptureServer) error {
	request, err := stream.Recv()
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.requests = append(s.requests, request)
	s.mu.Unlock()

	return s.handler(request, stream)
}

// Orderly behaves like a well-behaved service: it sends before, waits for the
// client to half-close, then sends after followed by CaptureFinished.
func Orderly(before, after []*capturepb.ClientCaptureEvent) Handler {
	return func(_ *capturepb.CaptureRequest, stream capturepb.CaptureService_CaptureServer) error {
		if err := stream.Send(&capturepb.CaptureResponse{CaptureEvents: before}); err != nil {
			return err
		}
		if err := WaitForHalfClose(stream); err != nil {
			return err
		}
		events := append(append([]*capturepb.ClientCaptureEvent(nil), after...),
			&capturepb.ClientCaptureEvent{Event: &capturepb.CaptureFinished{Status: capturepb.CaptureFinishedSuccessful}})
		return stream.Send(&capturepb.CaptureResponse{CaptureEvents: events})
	}
}

// Stuck sends before and then blocks until the stream is cancelled, never
// finishing the capture.
func Stuck(before []*capturepb.ClientCaptureEvent) Handler {
	return func(_ *capturepb.CaptureRequest, stream capturepb.CaptureService_CaptureServer) error {
		if err := stream.Send(&capturepb.CaptureResponse{CaptureEvents: before}); err != nil {
			return err
		}
		<-stream.Context().Done()
		return stream.Context().Err()
	}
}

// WaitForHalfClose blocks until the client called CloseSend.
func WaitForHalfClose(stream capturepb.CaptureService_CaptureServer) error {
	for {
		_, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
