// Package grpc exposes the Strongholder services over gRPC.
package grpc

import (
	"context"
	"fmt"
	"net"

	"github.com/dmitrijs2005/strongholder/internal/api"
	"github.com/dmitrijs2005/strongholder/internal/logging"
	"github.com/dmitrijs2005/strongholder/internal/server/borg"
	"github.com/dmitrijs2005/strongholder/internal/server/services"
	"google.golang.org/grpc"
)

// maxRecvMsgSize leaves room for a base64-encoded public key of the
// largest accepted size.
const maxRecvMsgSize = borg.MaxPublicKeySize/3*4 + 1<<20

type GRPCServer struct {
	address string
	users   *services.UserService
	backups *services.BackupService
	logger  logging.Logger
}

func NewGRPCServer(addr string, logger logging.Logger, us *services.UserService, bs *services.BackupService) *GRPCServer {
	return &GRPCServer{
		address: addr,
		users:   us,
		backups: bs,
		logger:  logger,
	}
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(s.accessTokenInterceptor),
		grpc.MaxRecvMsgSize(maxRecvMsgSize),
	)
	api.RegisterKeeperServiceServer(srv, &handler{s: s})
	return srv
}

// Run listens on the configured address and serves until ctx is done.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.address, err)
	}
	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is done, then stops
// gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	if err := srv.Serve(lis); err != nil {
		return err
	}
	return nil
}
