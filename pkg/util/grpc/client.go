// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package grpc builds the client connections used to reach the capture
// service.
package grpc

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	grpc_middleware "github.com/grpc-ecosystem/go-grpc-middleware"
	grpc_zap "github.com/grpc-ecosystem/go-grpc-middleware/logging/zap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"

	"github.com/DataDog/capture-agent/pkg/util/log"
	"github.com/DataDog/capture-agent/pkg/version"
)

// ConnOptions configures NewClientConn.
type ConnOptions struct {
	Address string
	// TLS enables transport security, verifying the server as TLSServerName
	// when set.
	TLS           bool
	TLSServerName string
	// ConnectTimeout bounds the wait for the connection to become ready.
	// Zero connects lazily on the first call.
	ConnectTimeout time.Duration
	// ExtraDialOptions are appended last; tests use them to swap the dialer.
	ExtraDialOptions []grpc.DialOption
}

var replaceGrpcLoggerOnce sync.Once

// SetupGrpcLogging sends the gRPC library's own warnings and errors to the
// agent logger. It must run before any other gRPC call.
func SetupGrpcLogging() {
	replaceGrpcLoggerOnce.Do(func() {
		logger := log.NewZapLogger().WithOptions(zap.IncreaseLevel(zapcore.WarnLevel))
		grpc_zap.ReplaceGrpcLoggerV2(logger.Named("grpc"))
	})
}

func dialOptions(options ConnOptions) []grpc.DialOption {
	var opts []grpc.DialOption

	if options.TLS {
		tlsConfig := &tls.Config{
			ServerName: options.TLSServerName,
			MinVersion: tls.VersionTLS12,
		}
		opts = append(opts, grpc.WithTransportCredentials(credentials.NewTLS(tlsConfig)))
	} else {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}

	opts = append(opts, grpc.WithKeepaliveParams(keepalive.ClientParameters{
		Time:                30 * time.Second,
		Timeout:             5 * time.Second,
		PermitWithoutStream: true,
	}))
	opts = append(opts, grpc.WithUserAgent(fmt.Sprintf("capture-agent/%s", version.AgentVersion)))

	logger := log.NewZapLogger()
	opts = append(opts,
		grpc.WithChainUnaryInterceptor(grpc_middleware.ChainUnaryClient(grpc_zap.UnaryClientInterceptor(logger))),
		grpc.WithChainStreamInterceptor(grpc_middleware.ChainStreamClient(grpc_zap.StreamClientInterceptor(logger))),
	)
	return append(opts, options.ExtraDialOptions...)
}

// NewClientConn returns a connection to options.Address. With a
// ConnectTimeout it also waits for the connection to be ready.
func NewClientConn(ctx context.Context, options ConnOptions) (*grpc.ClientConn, error) {
	if options.Address == "" {
		return nil, errors.New("no capture service address")
	}
	log.Debugf("Creating gRPC connection to %s", options.Address)

	conn, err := grpc.NewClient(options.Address, dialOptions(options)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection: %w", err)
	}
	if options.ConnectTimeout <= 0 {
		return conn, nil
	}

	if err := WaitForReady(ctx, conn, options.ConnectTimeout); err != nil {
		if closeErr := conn.Close(); closeErr != nil {
			log.Debugf("Closing connection to %s: %v", options.Address, closeErr)
		}
		return nil, fmt.Errorf("unable to connect to %s: %w", options.Address, err)
	}
	log.Infof("Connected to capture service at %s", options.Address)
	return conn, nil
}

// WaitForReady polls conn with an exponential backoff until it is ready or
// timeout expired.
func WaitForReady(ctx context.Context, conn *grpc.ClientConn, timeout time.Duration) error {
	conn.Connect()

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 10 * time.Millisecond
	policy.MaxInterval = 500 * time.Millisecond
	policy.MaxElapsedTime = timeout

	var state connectivity.State
	err := backoff.Retry(func() error {
		state = conn.GetState()
		switch state {
		case connectivity.Ready:
			return nil
		case connectivity.Shutdown:
			return backoff.Permanent(errors.New("connection is shut down"))
		case connectivity.Idle, connectivity.TransientFailure:
			conn.Connect()
		}
		return fmt.Errorf("connection is %s", state)
	}, backoff.WithContext(policy, ctx))
	if err != nil {
		return fmt.Errorf("connection not ready after %s (%s): %w", timeout, state, err)
	}
	return nil
}
