package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/strongholder/internal/api"
	"github.com/dmitrijs2005/strongholder/internal/common"
	"github.com/dmitrijs2005/strongholder/internal/server/auth"
	"github.com/dmitrijs2005/strongholder/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type handler struct {
	s *GRPCServer
}

var _ api.KeeperServiceServer = (*handler)(nil)

// grpcCode picks the transport status for a service error. The message
// sent to the client is always the stable code from common.Code.
func grpcCode(err error) codes.Code {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.Is(err, common.ErrAlreadyExists):
		return codes.AlreadyExists
	case errors.Is(err, common.ErrPolicyViolation), errors.Is(err, common.ErrInvalidInput):
		return codes.InvalidArgument
	case errors.Is(err, common.ErrNotSignup), errors.Is(err, common.ErrAuthFailure),
		errors.Is(err, common.ErrTokenMissing), errors.Is(err, common.ErrTokenExpired),
		errors.Is(err, common.ErrInvalidToken):
		return codes.Unauthenticated
	case errors.Is(err, common.ErrSsh), errors.Is(err, common.ErrSftp), errors.Is(err, common.ErrExport):
		return codes.Unavailable
	case errors.Is(err, common.ErrNoFile):
		return codes.NotFound
	}
	return codes.Internal
}

func (h *handler) fail(ctx context.Context, method string, err error) error {
	code := grpcCode(err)
	if code == codes.Internal || code == codes.Unavailable || common.IsRemote(err) {
		h.s.logger.Error(ctx, "request failed", "method", method, "code", common.Code(err), "error", err)
	} else {
		h.s.logger.Warn(ctx, "request rejected", "method", method, "code", common.Code(err), "error", err)
	}
	return status.Error(code, common.Code(err))
}

func (h *handler) credentials(ctx context.Context) (auth.SessionCredentials, error) {
	c, ok := credentialsFromContext(ctx)
	if !ok {
		return auth.SessionCredentials{}, status.Error(codes.Unauthenticated, common.Code(common.ErrTokenMissing))
	}
	return c, nil
}

func (h *handler) Signup(ctx context.Context, req *api.SignupRequest) (*api.TokenResponse, error) {
	token, err := h.s.users.Signup(ctx, services.Login{Username: req.Username, Password: req.Password})
	if err != nil {
		return nil, h.fail(ctx, "Signup", err)
	}
	return &api.TokenResponse{AccessToken: token}, nil
}

func (h *handler) Signin(ctx context.Context, req *api.SigninRequest) (*api.TokenResponse, error) {
	token, err := h.s.users.Signin(ctx, services.Login{Username: req.Username, Password: req.Password})
	if err != nil {
		return nil, h.fail(ctx, "Signin", err)
	}
	return &api.TokenResponse{AccessToken: token}, nil
}

func (h *handler) Session(ctx context.Context, _ *api.Empty) (*api.SessionResponse, error) {
	creds, err := h.credentials(ctx)
	if err != nil {
		return nil, err
	}
	return &api.SessionResponse{UserID: creds.SubjectID, ExpiresAt: creds.ExpiresAt.Unix()}, nil
}

func (h *handler) ListArchives(ctx context.Context, _ *api.Empty) (*api.ListArchivesResponse, error) {
	creds, err := h.credentials(ctx)
	if err != nil {
		return nil, err
	}
	archives, err := h.s.backups.ListArchives(ctx, creds)
	if err != nil {
		return nil, h.fail(ctx, "ListArchives", err)
	}
	resp := &api.ListArchivesResponse{Archives: make([]api.Archive, 0, len(archives))}
	for _, a := range archives {
		resp.Archives = append(resp.Archives, api.Archive{Name: a.Name, Time: a.Time})
	}
	return resp, nil
}

func (h *handler) ListArchiveContent(ctx context.Context, req *api.ArchiveRequest) (*api.ListArchiveContentResponse, error) {
	creds, err := h.credentials(ctx)
	if err != nil {
		return nil, err
	}
	files, err := h.s.backups.ListArchiveContent(ctx, creds, req.Archive)
	if err != nil {
		return nil, h.fail(ctx, "ListArchiveContent", err)
	}
	resp := &api.ListArchiveContentResponse{Archive: req.Archive, Files: make([]api.ArchiveFile, 0, len(files))}
	for _, f := range files {
		resp.Files = append(resp.Files, api.ArchiveFile{Type: f.Type, Path: f.Path, Mtime: f.Mtime, Size: f.Size})
	}
	return resp, nil
}

func (h *handler) Logs(ctx context.Context, _ *api.Empty) (*api.LogsResponse, error) {
	creds, err := h.credentials(ctx)
	if err != nil {
		return nil, err
	}
	logs, err := h.s.backups.Logs(ctx, creds)
	if err != nil {
		return nil, h.fail(ctx, "Logs", err)
	}
	return &api.LogsResponse{Logs: logs}, nil
}

func (h *handler) Restore(ctx context.Context, req *api.ArchiveRequest) (*api.RestoreResponse, error) {
	creds, err := h.credentials(ctx)
	if err != nil {
		return nil, err
	}
	url, err := h.s.backups.Restore(ctx, creds, req.Archive)
	if err != nil {
		return nil, h.fail(ctx, "Restore", err)
	}
	return &api.RestoreResponse{URL: url}, nil
}

func (h *handler) RepositoryKey(ctx context.Context, _ *api.Empty) (*api.RepositoryKeyResponse, error) {
	creds, err := h.credentials(ctx)
	if err != nil {
		return nil, err
	}
	key, err := h.s.backups.RepositoryKey(ctx, creds)
	if err != nil {
		return nil, h.fail(ctx, "RepositoryKey", err)
	}
	return &api.RepositoryKeyResponse{Key: key}, nil
}

func (h *handler) ServerPublicKey(ctx context.Context, _ *api.Empty) (*api.ServerPublicKeyResponse, error) {
	key, err := h.s.backups.ServerPublicKey(ctx)
	if err != nil {
		return nil, h.fail(ctx, "ServerPublicKey", err)
	}
	return &api.ServerPublicKeyResponse{Key: key}, nil
}

func (h *handler) SendSSHKey(ctx context.Context, req *api.SendSSHKeyRequest) (*api.Empty, error) {
	creds, err := h.credentials(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.s.backups.SendSSHKey(ctx, creds, req.PublicKey); err != nil {
		return nil, h.fail(ctx, "SendSSHKey", err)
	}
	return &api.Empty{}, nil
}
