// Package sandbox defines the RemoteSandbox contract (C1) that the rest of
// ptc treats as opaque, and a concrete binding over the sandbox vendor SDK.
package sandbox

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	sdk "github.com/agent-infra/sandbox-sdk-go"
)

// ExecResult is the result of a shell or code execution inside the sandbox.
type ExecResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// RemoteSandbox is the operation set ptc's tools and session manager use
// against a live sandbox. Its wire protocol is intentionally opaque here —
// swapping Client for a different binding never touches a caller.
type RemoteSandbox interface {
	// ID returns the sandbox's vendor-assigned identifier.
	ID() string
	// ReadFile returns the contents of path inside the sandbox.
	ReadFile(ctx context.Context, path string) (string, error)
	// WriteFile writes content to path, creating parent directories.
	WriteFile(ctx context.Context, path, content string) error
	// Glob returns sandbox-relative paths matching pattern under dir.
	Glob(ctx context.Context, dir, pattern string) ([]string, error)
	// Grep searches files under dir for pattern, returning matching lines.
	Grep(ctx context.Context, dir, pattern string, opts GrepOptions) ([]string, error)
	// ExecuteBash runs command in a shell inside the sandbox.
	ExecuteBash(ctx context.Context, command string, timeout time.Duration) (ExecResult, error)
	// ExecuteCode runs source in the sandbox's language runtime.
	ExecuteCode(ctx context.Context, source string, timeout time.Duration) (ExecResult, error)
	// ReadFileRange returns a byte window of path, for callers that only
	// need part of a large file.
	ReadFileRange(ctx context.Context, path string, offset, limit int) (string, error)
	// EditFile performs an exact-string replacement inside path, failing if
	// old is not unique and replaceAll is false. changed reports whether
	// the replacement altered the file's contents.
	EditFile(ctx context.Context, path, old, new string, replaceAll bool) (changed bool, message string, err error)
	// ListDirectory lists entries under path. A trivial call against "/" is
	// the liveness probe fault recovery (C7) and the empty-result streak
	// check (§4.5) use to tell a quiet-but-healthy sandbox from a dead one.
	ListDirectory(ctx context.Context, path string) ([]string, error)
	// DownloadBytes returns the raw contents of path, for binary transfer
	// out of the sandbox (the /download and /view commands).
	DownloadBytes(ctx context.Context, path string) ([]byte, error)
	// Ping performs a cheap liveness probe used by session reattach to
	// confirm a freshly dialed connection is actually responsive.
	Ping(ctx context.Context) error
	// Stop preserves the remote sandbox for a future reattach.
	Stop(ctx context.Context) error
	// Cleanup destroys the remote sandbox. Unlike Close, it cannot be
	// undone by reattaching with the same sandbox id.
	Cleanup(ctx context.Context) error
	// Close releases local resources associated with the connection. It
	// does not destroy the remote sandbox.
	Close() error
}

// GrepOptions mirrors the subset of ripgrep-style flags ptc's grep tool
// exposes (spec §4.2; original_source's search/grep.py parameter set).
type GrepOptions struct {
	CaseInsensitive bool
	FilePattern     string
	ContextBefore   int
	ContextAfter    int
	HeadLimit       int
}

const sandboxHome = "/home/ptc"

// NormalizePath maps a user-facing relative or @-mention path to an
// absolute sandbox path rooted at sandboxHome.
func NormalizePath(p string) string {
	if path.IsAbs(p) {
		return path.Clean(p)
	}
	return path.Clean(path.Join(sandboxHome, p))
}

// VirtualizePath strips the sandbox home prefix from an absolute sandbox
// path for display, mirroring the teacher's path-display convention.
func VirtualizePath(p string) string {
	trimmed := strings.TrimPrefix(p, sandboxHome)
	trimmed = strings.TrimPrefix(trimmed, "/")
	if trimmed == "" {
		return "."
	}
	return trimmed
}

// Client is the concrete RemoteSandbox binding over the vendor SDK.
type Client struct {
	raw *sdk.Sandbox
	id  string
}

// Dial connects to (or creates, when sandboxID is empty) a sandbox at
// baseURL running runtimeVersion, optionally booting from a named snapshot.
func Dial(ctx context.Context, baseURL, runtimeVersion string, sandboxID string, snapshotName string) (*Client, error) {
	cfg := sdk.Config{
		BaseURL: baseURL,
		Runtime: runtimeVersion,
	}
	if snapshotName != "" {
		cfg.Snapshot = snapshotName
	}

	var (
		raw *sdk.Sandbox
		err error
	)
	if sandboxID != "" {
		raw, err = sdk.Connect(ctx, cfg, sandboxID)
	} else {
		raw, err = sdk.Create(ctx, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("sandbox: dial: %w", err)
	}
	return &Client{raw: raw, id: raw.ID()}, nil
}

func (c *Client) ID() string { return c.id }

func (c *Client) ReadFile(ctx context.Context, p string) (string, error) {
	data, err := c.raw.ReadFile(ctx, NormalizePath(p))
	if err != nil {
		return "", fmt.Errorf("sandbox: read %s: %w", p, err)
	}
	return data, nil
}

func (c *Client) WriteFile(ctx context.Context, p, content string) error {
	if err := c.raw.WriteFile(ctx, NormalizePath(p), content); err != nil {
		return fmt.Errorf("sandbox: write %s: %w", p, err)
	}
	return nil
}

func (c *Client) Glob(ctx context.Context, dir, pattern string) ([]string, error) {
	matches, err := c.raw.Glob(ctx, NormalizePath(dir), pattern)
	if err != nil {
		return nil, fmt.Errorf("sandbox: glob %s in %s: %w", pattern, dir, err)
	}
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = VirtualizePath(m)
	}
	return out, nil
}

func (c *Client) Grep(ctx context.Context, dir, pattern string, opts GrepOptions) ([]string, error) {
	lines, err := c.raw.Grep(ctx, NormalizePath(dir), pattern, sdk.GrepOptions{
		IgnoreCase:    opts.CaseInsensitive,
		FileGlob:      opts.FilePattern,
		ContextBefore: opts.ContextBefore,
		ContextAfter:  opts.ContextAfter,
	})
	if err != nil {
		return nil, fmt.Errorf("sandbox: grep %s in %s: %w", pattern, dir, err)
	}
	if opts.HeadLimit > 0 && len(lines) > opts.HeadLimit {
		lines = lines[:opts.HeadLimit]
	}
	return lines, nil
}

func (c *Client) ExecuteBash(ctx context.Context, command string, timeout time.Duration) (ExecResult, error) {
	res, err := c.raw.Exec(ctx, sdk.ExecRequest{Shell: command, Timeout: timeout})
	if err != nil {
		return ExecResult{}, fmt.Errorf("sandbox: exec: %w", err)
	}
	return ExecResult{Stdout: res.Stdout, Stderr: res.Stderr, ExitCode: res.ExitCode}, nil
}

func (c *Client) ExecuteCode(ctx context.Context, source string, timeout time.Duration) (ExecResult, error) {
	res, err := c.raw.Exec(ctx, sdk.ExecRequest{Code: source, Timeout: timeout})
	if err != nil {
		return ExecResult{}, fmt.Errorf("sandbox: exec code: %w", err)
	}
	return ExecResult{Stdout: res.Stdout, Stderr: res.Stderr, ExitCode: res.ExitCode}, nil
}

func (c *Client) ReadFileRange(ctx context.Context, p string, offset, limit int) (string, error) {
	data, err := c.raw.ReadFileRange(ctx, NormalizePath(p), offset, limit)
	if err != nil {
		return "", fmt.Errorf("sandbox: read %s[%d:%d]: %w", p, offset, limit, err)
	}
	return data, nil
}

func (c *Client) EditFile(ctx context.Context, p, old, new string, replaceAll bool) (bool, string, error) {
	res, err := c.raw.EditFile(ctx, NormalizePath(p), old, new, replaceAll)
	if err != nil {
		return false, "", fmt.Errorf("sandbox: edit %s: %w", p, err)
	}
	return res.Changed, res.Message, nil
}

func (c *Client) ListDirectory(ctx context.Context, p string) ([]string, error) {
	entries, err := c.raw.ListDirectory(ctx, NormalizePath(p))
	if err != nil {
		return nil, fmt.Errorf("sandbox: list %s: %w", p, err)
	}
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = VirtualizePath(e)
	}
	return out, nil
}

func (c *Client) DownloadBytes(ctx context.Context, p string) ([]byte, error) {
	data, err := c.raw.DownloadBytes(ctx, NormalizePath(p))
	if err != nil {
		return nil, fmt.Errorf("sandbox: download %s: %w", p, err)
	}
	return data, nil
}

func (c *Client) Ping(ctx context.Context) error {
	if err := c.raw.Ping(ctx); err != nil {
		return fmt.Errorf("sandbox: ping: %w", err)
	}
	return nil
}

func (c *Client) Stop(ctx context.Context) error {
	if err := c.raw.Stop(ctx); err != nil {
		return fmt.Errorf("sandbox: stop: %w", err)
	}
	return nil
}

func (c *Client) Cleanup(ctx context.Context) error {
	if err := c.raw.Destroy(ctx); err != nil {
		return fmt.Errorf("sandbox: cleanup: %w", err)
	}
	return nil
}

func (c *Client) Close() error {
	return c.raw.Close()
}
