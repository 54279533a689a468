// Package fetch downloads the san toolchain and seeds the santool config with
// the installed paths.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-retryablehttp"

	"santool/config"
	"santool/toolchain"
	"santool/toolerr"
)

// Release locations
const (
	DefaultCompilerURL = "https://github.com/sanlang/sanc/releases/latest/download/sanc"
	DefaultVMURL       = "https://github.com/sanlang/sanvm/releases/latest/download/sanvm"
	DefaultRepoURL     = "https://github.com/sanlang/san.git"
)

// Local layout under the base directory
const (
	CompilerFile = "sanc"
	VMFile       = "sanvm"
	RepoDir      = "san"
	SanUSBDir    = "sanusb"
)

// Sources holds the URLs the toolchain is fetched from
type Sources struct {
	CompilerURL string
	VMURL       string
	RepoURL     string
}

// DefaultSources returns the release locations of the san toolchain
func DefaultSources() Sources {
	return Sources{
		CompilerURL: DefaultCompilerURL,
		VMURL:       DefaultVMURL,
		RepoURL:     DefaultRepoURL,
	}
}

// Result describes what a fetch installed
type Result struct {
	CompilerPath string
	VMPath       string
	RepoPath     string
	Cloned       bool // false when an existing checkout was reused
	Config       config.ToolConfig

	// Warnings holds download failures that did not stop the fetch
	Warnings []error
}

// Fetcher installs the toolchain into BaseDir
type Fetcher struct {
	BaseDir string
	Sources Sources
	Store   *config.Store
	Git     string
	Client  *retryablehttp.Client
	Stderr  io.Writer // git progress output
	Logger  hclog.Logger
}

// New returns a fetcher with default sources and an HTTP client that retries
// transient failures up to retries times.
func New(baseDir string, store *config.Store, logger hclog.Logger, retries int) *Fetcher {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	client := retryablehttp.NewClient()
	client.RetryMax = retries
	client.Logger = logger.Named("http")
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Fetcher{
		BaseDir: baseDir,
		Sources: DefaultSources(),
		Store:   store,
		Git:     "git",
		Client:  client,
		Logger:  logger,
	}
}

// Fetch downloads the compiler and VM, clones the project repository and
// seeds the config. Download failures are collected in Result.Warnings;
// clone and config failures abort.
func (f *Fetcher) Fetch(ctx context.Context) (*Result, error) {
	base, err := filepath.Abs(f.BaseDir)
	if err != nil {
		return nil, toolerr.Wrap(toolerr.KindIO, err, "unable to resolve %s", f.BaseDir)
	}
	if err := os.MkdirAll(base, 0755); err != nil {
		return nil, toolerr.Wrap(toolerr.KindIO, err, "unable to create %s", base)
	}

	res := &Result{
		CompilerPath: filepath.Join(base, CompilerFile),
		VMPath:       filepath.Join(base, VMFile),
		RepoPath:     filepath.Join(base, RepoDir),
	}

	// 1. Compiler binary
	if err := f.Download(ctx, f.Sources.CompilerURL, res.CompilerPath); err != nil {
		res.Warnings = append(res.Warnings, err)
	}

	// 2. VM binary
	if err := f.Download(ctx, f.Sources.VMURL, res.VMPath); err != nil {
		res.Warnings = append(res.Warnings, err)
	}

	// 3. Project repository with the sanusb flashing project
	cloned, err := f.Clone(ctx, f.Sources.RepoURL, res.RepoPath)
	if err != nil {
		return res, err
	}
	res.Cloned = cloned

	// 4. Seed the config, keeping fields we do not manage
	seeded, err := f.Store.Update(config.ToolConfig{
		CompilerPath: config.String(res.CompilerPath),
		VMPath:       config.String(res.VMPath),
		SanUSBPath:   config.String(filepath.Join(res.RepoPath, SanUSBDir)),
	})
	if err != nil {
		return res, err
	}
	res.Config = seeded

	return res, nil
}

// Download fetches url into dest with mode 0755. The body is written to a
// temp file first so a failed download never replaces dest.
func (f *Fetcher) Download(ctx context.Context, url, dest string) error {
	logger := f.logger()
	logger.Info("downloading", "url", url, "dest", dest)

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return toolerr.Wrap(toolerr.KindNetwork, err, "invalid download url %s", url)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return toolerr.Wrap(toolerr.KindNetwork, err, "unable to download %s", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return toolerr.New(toolerr.KindNetwork, "unable to download %s: %s", url, resp.Status)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+"-*")
	if err != nil {
		return toolerr.Wrap(toolerr.KindIO, err, "unable to create temp file for %s", dest)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, resp.Body)
	if err != nil {
		tmp.Close()
		return toolerr.Wrap(toolerr.KindNetwork, err, "download of %s interrupted", url)
	}
	if err := tmp.Close(); err != nil {
		return toolerr.Wrap(toolerr.KindIO, err, "unable to write %s", tmp.Name())
	}
	if err := os.Chmod(tmp.Name(), 0755); err != nil {
		return toolerr.Wrap(toolerr.KindIO, err, "unable to chmod %s", tmp.Name())
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return toolerr.Wrap(toolerr.KindIO, err, "unable to install %s", dest)
	}

	logger.Debug("downloaded", "dest", dest, "bytes", n)
	return nil
}

// Clone runs `git clone --recurse-submodules url dest`. An existing dest is
// left untouched and reported as not cloned.
func (f *Fetcher) Clone(ctx context.Context, url, dest string) (bool, error) {
	logger := f.logger()

	if _, err := os.Stat(dest); err == nil {
		logger.Info("repository already present, skipping clone", "dest", dest)
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, toolerr.Wrap(toolerr.KindIO, err, "unable to stat %s", dest)
	}

	git := f.Git
	if git == "" {
		git = "git"
	}

	logger.Info("cloning repository", "url", url, "dest", dest)
	cmd := exec.CommandContext(ctx, git, "clone", "--recurse-submodules", url, dest)
	if f.Stderr != nil {
		cmd.Stdout = f.Stderr
		cmd.Stderr = f.Stderr
	}

	if err := toolchain.Execute(cmd, fmt.Sprintf("git clone %s", url)); err != nil {
		return false, err
	}
	return true, nil
}

func (f *Fetcher) logger() hclog.Logger {
	if f.Logger == nil {
		return hclog.NewNullLogger()
	}
	return f.Logger
}
