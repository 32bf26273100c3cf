package clientcli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sagarc03/volstore"
	"github.com/sagarc03/volstore/agent"
	"github.com/sagarc03/volstore/auth"
	"github.com/sagarc03/volstore/provision"
)

// DefaultTimeout is the default HTTP client timeout.
const DefaultTimeout = 30 * time.Second

// Client performs command-line operations against a storage service. It
// authenticates lazily and remembers the token and every resolved volume
// for its lifetime. A Client is not safe for concurrent use.
type Client struct {
	config     *Config
	httpClient *http.Client
	policy     agent.ExistingPolicy

	auth   *auth.Client
	master *provision.Client
	agent  *agent.Client

	token   volstore.Token
	volumes map[string]volstore.VolumeHandle
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		hc := *c.httpClient
		hc.Timeout = timeout
		c.httpClient = &hc
	}
}

// WithExistingPolicy sets how existing remote directories are treated.
func WithExistingPolicy(policy agent.ExistingPolicy) Option {
	return func(c *Client) {
		c.policy = policy
	}
}

// New creates a new Client with the given config and options.
func New(cfg *Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, ErrConfigRequired
	}

	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		config:     cfg,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		policy:     agent.ExistingFail,
		volumes:    make(map[string]volstore.VolumeHandle),
	}
	if cfg.Token != "" {
		c.token = volstore.Token(cfg.Token)
	}

	for _, opt := range opts {
		opt(c)
	}

	var err error
	c.auth, err = auth.New(cfg.AuthURL, auth.WithHTTPClient(c.httpClient))
	if err != nil {
		return nil, err
	}
	c.master, err = provision.New(strings.TrimSuffix(cfg.MasterURL, "/"), provision.WithHTTPClient(c.httpClient))
	if err != nil {
		return nil, err
	}
	c.agent = agent.New(agent.WithHTTPClient(c.httpClient), agent.WithExistingPolicy(c.policy))

	return c, nil
}

// Login authenticates with the configured username and password and
// returns the new token. It always contacts the authentication endpoint.
func (c *Client) Login(ctx context.Context) (volstore.Token, error) {
	if c.config.Username == "" || c.config.Password == "" {
		return "", ErrCredentialsRequired
	}

	token, err := c.auth.Authenticate(ctx, volstore.Credentials{
		Username: c.config.Username,
		Password: c.config.Password,
	})
	if err != nil {
		return "", err
	}

	c.token = token
	return token, nil
}

// Token returns the configured or cached token, logging in when there is none.
func (c *Client) Token(ctx context.Context) (volstore.Token, error) {
	if !c.token.IsZero() {
		return c.token, nil
	}
	return c.Login(ctx)
}

func (c *Client) ownerKey() (string, error) {
	if c.config.Username == "" {
		return "", ErrUsernameRequired
	}
	return volstore.OwnerKey(c.config.Username), nil
}

// Allocate creates a new volume owned by the configured user.
func (c *Client) Allocate(ctx context.Context, opts AllocateOptions) (volstore.VolumeHandle, error) {
	owner, err := c.ownerKey()
	if err != nil {
		return volstore.VolumeHandle{}, err
	}
	token, err := c.Token(ctx)
	if err != nil {
		return volstore.VolumeHandle{}, err
	}

	handle, err := c.master.Allocate(ctx, token, provision.AllocateRequest{
		OwnerKey:    owner,
		Name:        opts.Name,
		StorageTags: opts.Tags,
		Metadata:    opts.Metadata,
	})
	if err != nil {
		return volstore.VolumeHandle{}, err
	}

	c.volumes[handle.ID] = handle
	return handle, nil
}

// Volume resolves ref to a volume handle. ref is tried as a volume id first
// and, when no such volume exists, as a volume name of the configured user.
func (c *Client) Volume(ctx context.Context, ref string) (volstore.VolumeHandle, error) {
	if strings.TrimSpace(ref) == "" {
		return volstore.VolumeHandle{}, ErrEmptyVolume
	}
	if handle, ok := c.volumes[ref]; ok {
		return handle, nil
	}

	token, err := c.Token(ctx)
	if err != nil {
		return volstore.VolumeHandle{}, err
	}

	handle, err := c.master.Get(ctx, token, ref)
	if err != nil {
		var remote *volstore.RemoteError
		if !errors.As(err, &remote) || remote.StatusCode != http.StatusNotFound || c.config.Username == "" {
			return volstore.VolumeHandle{}, err
		}

		handle, err = c.master.Find(ctx, token, volstore.OwnerKey(c.config.Username), ref)
		if err != nil {
			return volstore.VolumeHandle{}, err
		}
	}

	c.volumes[ref] = handle
	return handle, nil
}

// Search lists volumes matching opts.
func (c *Client) Search(ctx context.Context, opts SearchOptions) (*VolumeList, error) {
	owner := opts.OwnerKey
	if owner == "" && c.config.Username != "" {
		owner = volstore.OwnerKey(c.config.Username)
	}

	token, err := c.Token(ctx)
	if err != nil {
		return nil, err
	}

	result, err := c.master.Search(ctx, token, provision.SearchQuery{
		OwnerKey:    owner,
		Name:        opts.Name,
		StorageTags: opts.Tag,
		Page:        opts.Page,
		Length:      opts.Length,
	})
	if err != nil {
		return nil, err
	}

	return &VolumeList{Items: result.Items, Total: result.Total, Page: result.Page}, nil
}

// Mkdir creates a directory and its missing parents.
func (c *Client) Mkdir(ctx context.Context, opts MkdirOptions) (volstore.Entry, error) {
	if opts.Path == "" {
		return volstore.Entry{}, fmt.Errorf("mkdir: %w", ErrEmptyPath)
	}

	vol, token, err := c.session(ctx, opts.Volume)
	if err != nil {
		return volstore.Entry{}, err
	}

	return c.agent.EnsureDirectory(ctx, vol, token, opts.Path)
}

// Upload uploads a file, or with Recursive a directory tree, into a volume.
// A directory tree is uploaded below RemotePath; an empty RemotePath means
// the volume root. A single file is uploaded to RemotePath, or to its
// normalized local path when RemotePath is empty. The first failure stops
// the upload and is returned with the results gathered so far.
func (c *Client) Upload(ctx context.Context, opts UploadOptions) ([]UploadResult, error) {
	if opts.LocalPath == "" {
		return nil, fmt.Errorf("upload: %w", ErrEmptyPath)
	}

	info, err := os.Stat(opts.LocalPath)
	if err != nil {
		return nil, fmt.Errorf("stat local path: %w", err)
	}
	if info.IsDir() && !opts.Recursive {
		return nil, fmt.Errorf("upload: %s is a directory (use recursive upload): %w", opts.LocalPath, volstore.ErrInvalidInput)
	}

	vol, token, err := c.session(ctx, opts.Volume)
	if err != nil {
		return nil, err
	}

	if info.IsDir() {
		return c.uploadTree(ctx, vol, token, opts)
	}

	result, err := c.uploadSingle(ctx, vol, token, opts.LocalPath, opts.RemotePath)
	if err != nil {
		return nil, err
	}
	if opts.OnUpload != nil {
		opts.OnUpload(result)
	}
	return []UploadResult{result}, nil
}

func (c *Client) uploadTree(ctx context.Context, vol volstore.VolumeHandle, token volstore.Token, opts UploadOptions) ([]UploadResult, error) {
	var results []UploadResult
	_, err := c.agent.UploadTree(ctx, vol, token, agent.TreeOptions{
		LocalDir:     opts.LocalPath,
		RemotePrefix: strings.TrimSuffix(opts.RemotePath, "/"),
		OnUpload: func(r agent.UploadResult) {
			result := uploadResult(r.LocalPath, r.Entry)
			results = append(results, result)
			if opts.OnUpload != nil {
				opts.OnUpload(result)
			}
		},
	})
	return results, err
}

// uploadSingle streams a single local file into the volume.
func (c *Client) uploadSingle(ctx context.Context, vol volstore.VolumeHandle, token volstore.Token, localPath, remotePath string) (UploadResult, error) {
	if remotePath == "" {
		remotePath = NormalizeLocalToRemotePath(localPath)
	} else if strings.HasSuffix(remotePath, "/") {
		remotePath += filepath.Base(localPath)
	}

	file, err := os.Open(localPath) //#nosec G304 -- localPath is user-provided input
	if err != nil {
		return UploadResult{}, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	entry, err := c.agent.EnsureFile(ctx, vol, token, remotePath, file)
	if err != nil {
		return UploadResult{}, err
	}
	return uploadResult(localPath, entry), nil
}

func uploadResult(localPath string, entry volstore.Entry) UploadResult {
	return UploadResult{
		LocalPath:  localPath,
		RemotePath: entry.Path,
		VolumeID:   entry.VolumeID,
		Size:       entry.Size,
		MimeType:   entry.MimeType,
	}
}

// List lists the entries of a volume directory.
func (c *Client) List(ctx context.Context, opts ListOptions) (*ListResult, error) {
	vol, token, err := c.session(ctx, opts.Volume)
	if err != nil {
		return nil, err
	}

	entries, err := c.agent.List(ctx, vol, token, opts.Path)
	if err != nil {
		return nil, err
	}

	return &ListResult{VolumeID: vol.ID, Path: strings.Trim(opts.Path, "/"), Items: entries}, nil
}

// Download downloads a file from a volume.
// If opts.LocalPath is "-", the content is returned via the io.ReadCloser and must be closed by the caller.
// Otherwise, the content is written to the file and the io.ReadCloser is nil.
func (c *Client) Download(ctx context.Context, opts DownloadOptions) (*DownloadResult, io.ReadCloser, error) {
	if opts.RemotePath == "" {
		return nil, nil, fmt.Errorf("download: %w", ErrEmptyPath)
	}

	vol, token, err := c.session(ctx, opts.Volume)
	if err != nil {
		return nil, nil, err
	}

	body, err := c.agent.OpenContent(ctx, vol, token, opts.RemotePath)
	if err != nil {
		return nil, nil, err
	}

	result := &DownloadResult{
		VolumeID:   vol.ID,
		RemotePath: strings.Trim(opts.RemotePath, "/"),
		Size:       -1,
	}

	if opts.LocalPath == "-" {
		result.LocalPath = "-"
		return result, body, nil
	}

	localPath := opts.LocalPath
	if localPath == "" {
		localPath = filepath.Base(filepath.FromSlash(result.RemotePath))
	}
	result.LocalPath = localPath

	dir := filepath.Dir(localPath)
	if dir != "" && dir != "." {
		if mkdirErr := os.MkdirAll(dir, 0o750); mkdirErr != nil {
			_ = body.Close()
			return nil, nil, fmt.Errorf("create directory: %w", mkdirErr)
		}
	}

	file, createErr := os.Create(localPath) //#nosec G304 -- localPath is user-provided input
	if createErr != nil {
		_ = body.Close()
		return nil, nil, fmt.Errorf("create file: %w", createErr)
	}

	written, copyErr := io.Copy(file, body)
	_ = body.Close()
	if copyErr != nil {
		_ = file.Close()
		return nil, nil, fmt.Errorf("write file: %w", copyErr)
	}

	if closeErr := file.Close(); closeErr != nil {
		return nil, nil, fmt.Errorf("close file: %w", closeErr)
	}

	result.Size = written
	return result, nil, nil
}

func (c *Client) session(ctx context.Context, ref string) (volstore.VolumeHandle, volstore.Token, error) {
	vol, err := c.Volume(ctx, ref)
	if err != nil {
		return volstore.VolumeHandle{}, "", err
	}
	token, err := c.Token(ctx)
	if err != nil {
		return volstore.VolumeHandle{}, "", err
	}
	return vol, token, nil
}

// NormalizeLocalToRemotePath converts a local path to a clean remote path.
// It handles:
//   - Leading "./" is stripped (./foo/bar.txt -> foo/bar.txt)
//   - Leading "/" is stripped (/abs/path/file.txt -> abs/path/file.txt)
//   - Parent traversal is resolved (../sibling/file.txt -> sibling/file.txt)
//   - Multiple slashes are collapsed
//   - Backslashes are converted to forward slashes (Windows)
func NormalizeLocalToRemotePath(localPath string) string {
	path := filepath.ToSlash(localPath)
	path = filepath.Clean(path)
	path = filepath.ToSlash(path)

	path = strings.TrimPrefix(path, "./")
	path = strings.TrimPrefix(path, "/")

	for strings.HasPrefix(path, "../") {
		path = strings.TrimPrefix(path, "../")
	}

	if path == ".." || path == "." {
		return ""
	}

	return path
}
