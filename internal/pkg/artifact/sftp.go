package artifact

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path"
	"strconv"

	"github.com/Nevi32/wofuo1/internal/pkg/config"
	"github.com/Nevi32/wofuo1/internal/pkg/error_handling"
	"github.com/Nevi32/wofuo1/internal/pkg/log_messages"
	"github.com/Nevi32/wofuo1/internal/pkg/logger"

	"github.com/pkg/sftp"
	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"
)

// SFTPConnector opens a fresh SFTP session. The returned closer releases the
// session and its underlying transport.
type SFTPConnector func(ctx context.Context) (*sftp.Client, io.Closer, error)

// SFTPArtifactStore keeps artifacts as files below BaseDir on an SFTP server.
type SFTPArtifactStore struct {
	BaseDir string
	connect SFTPConnector
}

func NewSFTPArtifactStore(cfg config.SFTPConfig) *SFTPArtifactStore {
	return NewSFTPArtifactStoreWithConnector(cfg.BaseDir, sshConnector(cfg))
}

func NewSFTPArtifactStoreWithConnector(baseDir string, connect SFTPConnector) *SFTPArtifactStore {
	if baseDir == "" {
		baseDir = "."
	}
	return &SFTPArtifactStore{BaseDir: baseDir, connect: connect}
}

type sshSession struct {
	client *sftp.Client
	conn   *ssh.Client
}

func (s *sshSession) Close() error {
	err := s.client.Close()
	if cerr := s.conn.Close(); err == nil {
		err = cerr
	}
	return err
}

func sshConnector(cfg config.SFTPConfig) SFTPConnector {
	return func(ctx context.Context) (*sftp.Client, io.Closer, error) {
		sshConfig := &ssh.ClientConfig{
			User:            cfg.Username,
			Auth:            []ssh.AuthMethod{ssh.Password(cfg.Password)},
			HostKeyCallback: ssh.InsecureIgnoreHostKey(),
			Timeout:         cfg.ConnectTimeout,
		}
		addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))

		dialer := net.Dialer{Timeout: cfg.ConnectTimeout}
		raw, err := dialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to dial SSH: %w", err)
		}
		sshConn, chans, reqs, err := ssh.NewClientConn(raw, addr, sshConfig)
		if err != nil {
			_ = raw.Close()
			return nil, nil, fmt.Errorf("failed to open SSH connection: %w", err)
		}
		conn := ssh.NewClient(sshConn, chans, reqs)

		client, err := sftp.NewClient(conn)
		if err != nil {
			_ = conn.Close()
			return nil, nil, fmt.Errorf("failed to create SFTP client: %w", err)
		}
		return client, &sshSession{client: client, conn: conn}, nil
	}
}

func (s *SFTPArtifactStore) resolve(name string) string {
	return path.Join(s.BaseDir, name)
}

// GetFile reads the artifact at name. A missing file is a NotFoundError.
func (s *SFTPArtifactStore) GetFile(ctx context.Context, name string) ([]byte, error) {
	client, closer, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	remotePath := s.resolve(name)
	file, err := client.Open(remotePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, error_handling.NewNotFoundError(artifactCollection, name)
	}
	if err != nil {
		return nil, fmt.Errorf("could not open remote file %q: %w", remotePath, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("could not read remote file %q: %w", remotePath, err)
	}
	return data, nil
}

// PutFile overwrites the artifact at name, creating parent directories as needed.
func (s *SFTPArtifactStore) PutFile(ctx context.Context, name string, data []byte, commitMessage string) error {
	client, closer, err := s.connect(ctx)
	if err != nil {
		return err
	}
	defer closer.Close()

	remotePath := s.resolve(name)
	remoteDir := path.Dir(remotePath)
	if _, err := client.Stat(remoteDir); errors.Is(err, os.ErrNotExist) {
		if err := client.MkdirAll(remoteDir); err != nil {
			return fmt.Errorf("failed to create directory on SFTP server: %w", err)
		}
	}

	file, err := client.OpenFile(remotePath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
	if err != nil {
		return fmt.Errorf("could not create remote file %q: %w", remotePath, err)
	}
	if _, err := file.Write(data); err != nil {
		_ = file.Close()
		return fmt.Errorf("could not write remote file %q: %w", remotePath, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("could not close remote file %q: %w", remotePath, err)
	}

	logger.CtxInfo(ctx, log_messages.ArtifactUploaded,
		zap.String("backend", "sftp"),
		zap.String("path", remotePath),
		zap.String("commit_message", commitMessage),
		zap.Int("bytes", len(data)),
	)
	return nil
}
