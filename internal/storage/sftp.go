package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"net/http"
	"path"
	"strconv"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"

	"github.com/SMCodesP/imgtransform/internal/config"
)

// SFTPStore keeps objects as files under a remote directory.
type SFTPStore struct {
	ssh    *ssh.Client
	client *sftp.Client
	root   string
}

// NewSFTP dials the server and opens an SFTP session that lives until Close.
func NewSFTP(ctx context.Context, cfg config.Store) (*SFTPStore, error) {
	auth, err := sshAuth(cfg)
	if err != nil {
		return nil, err
	}
	port := cfg.Port
	if port == 0 {
		port = 22
	}

	clientCfg := &ssh.ClientConfig{
		User:            cfg.User,
		Auth:            auth,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         10 * time.Second,
	}
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(port))

	// Dial respecting context
	d := net.Dialer{}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial tcp %s: %w", addr, err)
	}
	clientConn, chans, reqs, err := ssh.NewClientConn(conn, addr, clientCfg)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("ssh handshake with %s: %w", addr, err)
	}
	sshClient := ssh.NewClient(clientConn, chans, reqs)

	client, err := sftp.NewClient(sshClient)
	if err != nil {
		sshClient.Close()
		return nil, fmt.Errorf("create sftp client: %w", err)
	}

	root := cfg.Dir
	if root == "" {
		root = "."
	}
	return &SFTPStore{ssh: sshClient, client: client, root: root}, nil
}

// sshAuth prefers a private key (base64 or raw PEM) over a password.
func sshAuth(cfg config.Store) ([]ssh.AuthMethod, error) {
	if cfg.PrivateKey != "" {
		keyBytes, err := base64.StdEncoding.DecodeString(cfg.PrivateKey)
		if err != nil {
			keyBytes = []byte(cfg.PrivateKey)
		}
		signer, err := ssh.ParsePrivateKey(keyBytes)
		if err != nil {
			return nil, fmt.Errorf("parse private key: %w", err)
		}
		return []ssh.AuthMethod{ssh.PublicKeys(signer)}, nil
	}
	if cfg.Password != "" {
		return []ssh.AuthMethod{ssh.Password(cfg.Password)}, nil
	}
	return nil, errors.New("no auth method provided; set password or private_key")
}

func (s *SFTPStore) remotePath(key string) (string, error) {
	clean, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	return path.Join(s.root, clean), nil
}

func (s *SFTPStore) Get(ctx context.Context, key string) (*Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := s.remotePath(key)
	if err != nil {
		return nil, err
	}
	f, err := s.client.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("open remote file %s: %w", p, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read remote file %s: %w", p, err)
	}
	return &Object{Data: data, ContentType: http.DetectContentType(data)}, nil
}

func (s *SFTPStore) Put(ctx context.Context, key string, data []byte, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.remotePath(key)
	if err != nil {
		return err
	}

	// Ensure remote directory exists
	if err := s.client.MkdirAll(path.Dir(p)); err != nil {
		return fmt.Errorf("ensure remote dir %s: %w", path.Dir(p), err)
	}

	f, err := s.client.Create(p)
	if err != nil {
		return fmt.Errorf("create remote file %s: %w", p, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("copy to remote file %s: %w", p, err)
	}
	return f.Close()
}

// Close ends the SFTP session and the SSH connection.
func (s *SFTPStore) Close() error {
	return errors.Join(s.client.Close(), s.ssh.Close())
}
