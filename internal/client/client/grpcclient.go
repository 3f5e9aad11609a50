// Package client talks to the Strongholder key server and keeps the local
// session database.
package client

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/strongholder/internal/api"
	"github.com/dmitrijs2005/strongholder/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// TokenStore persists the session token between invocations.
type TokenStore interface {
	Token(ctx context.Context) (string, error)
	SaveToken(ctx context.Context, token string) error
	ClearToken(ctx context.Context) error
}

// Client is the set of server calls keeperctl makes.
type Client interface {
	Close() error
	Signup(ctx context.Context, username string, password []byte) error
	Signin(ctx context.Context, username string, password []byte) error
	Session(ctx context.Context) (*api.SessionResponse, error)
	ListArchives(ctx context.Context) ([]api.Archive, error)
	ListArchiveContent(ctx context.Context, archive string) ([]api.ArchiveFile, error)
	Logs(ctx context.Context) ([]string, error)
	Restore(ctx context.Context, archive string) (string, error)
	RepositoryKey(ctx context.Context) ([]byte, error)
	ServerPublicKey(ctx context.Context) (string, error)
	SendSSHKey(ctx context.Context, publicKey []byte) error
}

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      *api.KeeperServiceClient
	tokens      TokenStore
}

var _ Client = (*GRPCClient)(nil)

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

// accessTokenInterceptor attaches the stored token to every call and
// follows the server's instructions in the response header: a new
// access_token replaces the stored one, clear_token drops it.
func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	token, err := s.tokens.Token(ctx)
	if err != nil {
		return err
	}
	if token != "" {
		ctx = withAccessToken(ctx, token)
	}

	var header metadata.MD
	opts = append(opts, grpc.Header(&header))

	err = invoker(ctx, method, req, reply, cc, opts...)

	if len(header.Get(common.ClearTokenHeaderName)) > 0 {
		if cerr := s.tokens.ClearToken(ctx); cerr != nil && err == nil {
			err = cerr
		}
	} else if fresh := header.Get(common.AccessTokenHeaderName); len(fresh) > 0 && fresh[0] != "" {
		if serr := s.tokens.SaveToken(ctx, fresh[0]); serr != nil && err == nil {
			err = serr
		}
	}

	return err
}

// NewKeeperClient prepares a client for endpointURL. Extra dial options
// are appended to the defaults (plaintext transport, token interceptor).
func NewKeeperClient(endpointURL string, tokens TokenStore, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, tokens: tokens}

	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(endpointURL, opts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.client = api.NewKeeperServiceClient(conn)
	return c, nil
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

func (s *GRPCClient) Signup(ctx context.Context, username string, password []byte) error {
	resp, err := s.client.Signup(ctx, &api.SignupRequest{Username: username, Password: string(password)})
	if err != nil {
		return s.mapError(err)
	}
	return s.tokens.SaveToken(ctx, resp.AccessToken)
}

func (s *GRPCClient) Signin(ctx context.Context, username string, password []byte) error {
	resp, err := s.client.Signin(ctx, &api.SigninRequest{Username: username, Password: string(password)})
	if err != nil {
		return s.mapError(err)
	}
	return s.tokens.SaveToken(ctx, resp.AccessToken)
}

func (s *GRPCClient) Session(ctx context.Context) (*api.SessionResponse, error) {
	resp, err := s.client.Session(ctx, &api.Empty{})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

func (s *GRPCClient) ListArchives(ctx context.Context) ([]api.Archive, error) {
	resp, err := s.client.ListArchives(ctx, &api.Empty{})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp.Archives, nil
}

func (s *GRPCClient) ListArchiveContent(ctx context.Context, archive string) ([]api.ArchiveFile, error) {
	resp, err := s.client.ListArchiveContent(ctx, &api.ArchiveRequest{Archive: archive})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp.Files, nil
}

func (s *GRPCClient) Logs(ctx context.Context) ([]string, error) {
	resp, err := s.client.Logs(ctx, &api.Empty{})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp.Logs, nil
}

func (s *GRPCClient) Restore(ctx context.Context, archive string) (string, error) {
	resp, err := s.client.Restore(ctx, &api.ArchiveRequest{Archive: archive})
	if err != nil {
		return "", s.mapError(err)
	}
	return resp.URL, nil
}

func (s *GRPCClient) RepositoryKey(ctx context.Context) ([]byte, error) {
	resp, err := s.client.RepositoryKey(ctx, &api.Empty{})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp.Key, nil
}

func (s *GRPCClient) ServerPublicKey(ctx context.Context) (string, error) {
	resp, err := s.client.ServerPublicKey(ctx, &api.Empty{})
	if err != nil {
		return "", s.mapError(err)
	}
	return resp.Key, nil
}

func (s *GRPCClient) SendSSHKey(ctx context.Context, publicKey []byte) error {
	_, err := s.client.SendSSHKey(ctx, &api.SendSSHKeyRequest{PublicKey: publicKey})
	if err != nil {
		return s.mapError(err)
	}
	return nil
}

// mapError turns a status from the server back into the sentinel error
// named by its code. Transport failures become ErrUnavailable.
func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	if e := common.FromCode(st.Message()); e != nil {
		return e
	}
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return ErrUnauthorized
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
