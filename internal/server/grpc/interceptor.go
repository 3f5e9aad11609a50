package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/strongholder/internal/api"
	"github.com/dmitrijs2005/strongholder/internal/common"
	"github.com/dmitrijs2005/strongholder/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const credentialsKey ctxKey = "credentials"

var publicMethods = map[string]bool{
	api.MethodSignup:          true,
	api.MethodSignin:          true,
	api.MethodServerPublicKey: true,
}

func credentialsFromContext(ctx context.Context) (auth.SessionCredentials, bool) {
	c, ok := ctx.Value(credentialsKey).(auth.SessionCredentials)
	return c, ok
}

func accessToken(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get(common.AccessTokenHeaderName)
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	if publicMethods[info.FullMethod] {
		return handler(ctx, req)
	}

	v, err := s.users.VerifyToken(accessToken(ctx))
	if err != nil {
		if errors.Is(err, common.ErrTokenExpired) {
			if herr := grpc.SetHeader(ctx, metadata.Pairs(common.ClearTokenHeaderName, "1")); herr != nil {
				s.logger.Warn(ctx, "failed to set clear_token header", "error", herr)
			}
		}
		return nil, status.Error(codes.Unauthenticated, common.Code(err))
	}

	if v.State == auth.StateRefresh {
		if herr := grpc.SetHeader(ctx, metadata.Pairs(common.AccessTokenHeaderName, v.Token)); herr != nil {
			s.logger.Warn(ctx, "failed to send refreshed token", "error", herr)
		}
	}

	ctx = context.WithValue(ctx, credentialsKey, v.Credentials)
	return handler(ctx, req)
}
