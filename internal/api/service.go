package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ServiceName = "strongholder.KeeperService"

// Full method names.
const (
	MethodSignup             = "/" + ServiceName + "/Signup"
	MethodSignin             = "/" + ServiceName + "/Signin"
	MethodSession            = "/" + ServiceName + "/Session"
	MethodListArchives       = "/" + ServiceName + "/ListArchives"
	MethodListArchiveContent = "/" + ServiceName + "/ListArchiveContent"
	MethodLogs               = "/" + ServiceName + "/Logs"
	MethodRestore            = "/" + ServiceName + "/Restore"
	MethodRepositoryKey      = "/" + ServiceName + "/RepositoryKey"
	MethodServerPublicKey    = "/" + ServiceName + "/ServerPublicKey"
	MethodSendSSHKey         = "/" + ServiceName + "/SendSSHKey"
)

// KeeperServiceServer is implemented by the key server.
type KeeperServiceServer interface {
	Signup(context.Context, *SignupRequest) (*TokenResponse, error)
	Signin(context.Context, *SigninRequest) (*TokenResponse, error)
	Session(context.Context, *Empty) (*SessionResponse, error)
	ListArchives(context.Context, *Empty) (*ListArchivesResponse, error)
	ListArchiveContent(context.Context, *ArchiveRequest) (*ListArchiveContentResponse, error)
	Logs(context.Context, *Empty) (*LogsResponse, error)
	Restore(context.Context, *ArchiveRequest) (*RestoreResponse, error)
	RepositoryKey(context.Context, *Empty) (*RepositoryKeyResponse, error)
	ServerPublicKey(context.Context, *Empty) (*ServerPublicKeyResponse, error)
	SendSSHKey(context.Context, *SendSSHKeyRequest) (*Empty, error)
}

// UnimplementedKeeperServiceServer answers every method with
// codes.Unimplemented. Embed it to implement a subset of the service.
type UnimplementedKeeperServiceServer struct{}

func (UnimplementedKeeperServiceServer) Signup(context.Context, *SignupRequest) (*TokenResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Signup not implemented")
}

func (UnimplementedKeeperServiceServer) Signin(context.Context, *SigninRequest) (*TokenResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Signin not implemented")
}

func (UnimplementedKeeperServiceServer) Session(context.Context, *Empty) (*SessionResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Session not implemented")
}

func (UnimplementedKeeperServiceServer) ListArchives(context.Context, *Empty) (*ListArchivesResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListArchives not implemented")
}

func (UnimplementedKeeperServiceServer) ListArchiveContent(context.Context, *ArchiveRequest) (*ListArchiveContentResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListArchiveContent not implemented")
}

func (UnimplementedKeeperServiceServer) Logs(context.Context, *Empty) (*LogsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Logs not implemented")
}

func (UnimplementedKeeperServiceServer) Restore(context.Context, *ArchiveRequest) (*RestoreResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Restore not implemented")
}

func (UnimplementedKeeperServiceServer) RepositoryKey(context.Context, *Empty) (*RepositoryKeyResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method RepositoryKey not implemented")
}

func (UnimplementedKeeperServiceServer) ServerPublicKey(context.Context, *Empty) (*ServerPublicKeyResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ServerPublicKey not implemented")
}

func (UnimplementedKeeperServiceServer) SendSSHKey(context.Context, *SendSSHKeyRequest) (*Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method SendSSHKey not implemented")
}

func unary[Req, Resp any](name, full string, call func(KeeperServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(KeeperServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: full}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(KeeperServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ServiceDesc describes KeeperService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*KeeperServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Signup", MethodSignup, KeeperServiceServer.Signup),
		unary("Signin", MethodSignin, KeeperServiceServer.Signin),
		unary("Session", MethodSession, KeeperServiceServer.Session),
		unary("ListArchives", MethodListArchives, KeeperServiceServer.ListArchives),
		unary("ListArchiveContent", MethodListArchiveContent, KeeperServiceServer.ListArchiveContent),
		unary("Logs", MethodLogs, KeeperServiceServer.Logs),
		unary("Restore", MethodRestore, KeeperServiceServer.Restore),
		unary("RepositoryKey", MethodRepositoryKey, KeeperServiceServer.RepositoryKey),
		unary("ServerPublicKey", MethodServerPublicKey, KeeperServiceServer.ServerPublicKey),
		unary("SendSSHKey", MethodSendSSHKey, KeeperServiceServer.SendSSHKey),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "strongholder/keeper.json",
}

func RegisterKeeperServiceServer(s grpc.ServiceRegistrar, srv KeeperServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// KeeperServiceClient calls KeeperService over the wire codec.
type KeeperServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewKeeperServiceClient(cc grpc.ClientConnInterface) *KeeperServiceClient {
	return &KeeperServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *KeeperServiceClient) Signup(ctx context.Context, in *SignupRequest, opts ...grpc.CallOption) (*TokenResponse, error) {
	return invoke[TokenResponse](ctx, c.cc, MethodSignup, in, opts)
}

func (c *KeeperServiceClient) Signin(ctx context.Context, in *SigninRequest, opts ...grpc.CallOption) (*TokenResponse, error) {
	return invoke[TokenResponse](ctx, c.cc, MethodSignin, in, opts)
}

func (c *KeeperServiceClient) Session(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*SessionResponse, error) {
	return invoke[SessionResponse](ctx, c.cc, MethodSession, in, opts)
}

func (c *KeeperServiceClient) ListArchives(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*ListArchivesResponse, error) {
	return invoke[ListArchivesResponse](ctx, c.cc, MethodListArchives, in, opts)
}

func (c *KeeperServiceClient) ListArchiveContent(ctx context.Context, in *ArchiveRequest, opts ...grpc.CallOption) (*ListArchiveContentResponse, error) {
	return invoke[ListArchiveContentResponse](ctx, c.cc, MethodListArchiveContent, in, opts)
}

func (c *KeeperServiceClient) Logs(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*LogsResponse, error) {
	return invoke[LogsResponse](ctx, c.cc, MethodLogs, in, opts)
}

func (c *KeeperServiceClient) Restore(ctx context.Context, in *ArchiveRequest, opts ...grpc.CallOption) (*RestoreResponse, error) {
	return invoke[RestoreResponse](ctx, c.cc, MethodRestore, in, opts)
}

func (c *KeeperServiceClient) RepositoryKey(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*RepositoryKeyResponse, error) {
	return invoke[RepositoryKeyResponse](ctx, c.cc, MethodRepositoryKey, in, opts)
}

func (c *KeeperServiceClient) ServerPublicKey(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*ServerPublicKeyResponse, error) {
	return invoke[ServerPublicKeyResponse](ctx, c.cc, MethodServerPublicKey, in, opts)
}

func (c *KeeperServiceClient) SendSSHKey(ctx context.Context, in *SendSSHKeyRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, MethodSendSSHKey, in, opts)
}
