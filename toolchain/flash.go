package toolchain

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"santool/config"
	"santool/toolerr"
)

const (
	// PayloadName is the bytecode file the flashing project deploys
	PayloadName = "payload.sanb"

	// DefaultRunner is the command that builds and runs the flashing project
	DefaultRunner = "cargo run"
)

// FlashRequest describes a flash. BytecodePath wins over SourcePath when both are set.
type FlashRequest struct {
	SourcePath   string
	BytecodePath string
	ConfigPath   string
}

// Flasher places a payload into the sanusb project and runs it
type Flasher struct {
	SanUSBPath   string
	CompilerPath string // only needed when flashing from source
	Runner       string
	Stdout       io.Writer // compiler output
	Stderr       io.Writer // compiler and runner stderr
	Logger       hclog.Logger

	// compilerErr is the config error for a missing compiler path
	compilerErr error
}

// NewFlasher returns a flasher for the configured sanusb project.
// The compiler path is optional here and checked when a source file is flashed.
func NewFlasher(cfg config.ToolConfig) (*Flasher, error) {
	sanusb, err := cfg.SanUSB()
	if err != nil {
		return nil, err
	}
	compiler, compilerErr := cfg.Compiler()
	return &Flasher{
		SanUSBPath:   sanusb,
		CompilerPath: compiler,
		Runner:       DefaultRunner,
		compilerErr:  compilerErr,
	}, nil
}

// PayloadPath is where the payload is placed inside the sanusb project
func (f *Flasher) PayloadPath() string {
	return filepath.Join(f.SanUSBPath, PayloadName)
}

// Flash copies the config file and payload into the sanusb project, then runs
// it and calls onLine for every line it prints. It returns once the runner's
// stdout closes and the runner has exited.
func (f *Flasher) Flash(ctx context.Context, req FlashRequest, onLine func(string)) error {
	if err := f.validate(req); err != nil {
		return err
	}

	// 1. Copy the device config into the project root
	configDest := filepath.Join(f.SanUSBPath, filepath.Base(req.ConfigPath))
	if err := CopyFile(req.ConfigPath, configDest); err != nil {
		return err
	}
	loggerOrNull(f.Logger).Debug("copied config", "src", req.ConfigPath, "dst", configDest)

	// 2. Place the payload
	if _, err := f.PlacePayload(ctx, req); err != nil {
		return err
	}

	// 3. Run the project and relay its output
	return f.Run(ctx, onLine)
}

func (f *Flasher) validate(req FlashRequest) error {
	if f.SanUSBPath == "" {
		return toolerr.New(toolerr.KindConfig, "sanusb path is not configured")
	}
	if req.ConfigPath == "" {
		return toolerr.New(toolerr.KindValidation, "config path is required")
	}
	if req.BytecodePath == "" && req.SourcePath == "" {
		return toolerr.New(toolerr.KindValidation, "neither source nor bytecode supplied")
	}
	if req.BytecodePath == "" && f.CompilerPath == "" {
		return f.missingCompiler()
	}
	return nil
}

// missingCompiler returns the config error recorded by NewFlasher, or a plain
// one for a Flasher built without it.
func (f *Flasher) missingCompiler() error {
	if f.compilerErr != nil {
		return f.compilerErr
	}
	return toolerr.New(toolerr.KindConfig, "compiler path is not configured")
}

// PlacePayload copies the bytecode, or compiles the source, to PayloadPath.
// Bytecode takes priority over source.
func (f *Flasher) PlacePayload(ctx context.Context, req FlashRequest) (string, error) {
	dest := f.PayloadPath()
	logger := loggerOrNull(f.Logger)

	switch {
	case req.BytecodePath != "":
		if err := CopyFile(req.BytecodePath, dest); err != nil {
			return "", err
		}
		logger.Debug("copied bytecode", "src", req.BytecodePath, "dst", dest)
		return dest, nil

	case req.SourcePath != "":
		if f.CompilerPath == "" {
			return "", f.missingCompiler()
		}
		compiler := &Compiler{
			Path:   f.CompilerPath,
			Stdout: f.Stdout,
			Stderr: f.Stderr,
			Logger: f.Logger,
		}
		return compiler.Compile(ctx, CompileRequest{SourcePath: req.SourcePath, OutputPath: dest})

	default:
		return "", toolerr.New(toolerr.KindValidation, "neither source nor bytecode supplied")
	}
}

// Run launches the runner command in the sanusb directory and relays its
// stdout line by line until the stream closes.
func (f *Flasher) Run(ctx context.Context, onLine func(string)) error {
	runner := f.Runner
	if runner == "" {
		runner = DefaultRunner
	}
	logger := loggerOrNull(f.Logger).With("run", uuid.NewString())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", runner)
	cmd.Dir = f.SanUSBPath
	cmd.Stderr = writerOrDiscard(f.Stderr)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return toolerr.Wrap(toolerr.KindExec, err, "failed to attach to runner output")
	}
	if err := cmd.Start(); err != nil {
		return toolerr.Wrap(toolerr.KindExec, err, "failed to execute runner")
	}
	logger.Info("runner started", "command", runner, "dir", f.SanUSBPath, "pid", cmd.Process.Pid)

	if err := RelayLines(stdout, onLine); err != nil {
		cancel()
		_ = cmd.Wait()
		return err
	}

	if err := wait(cmd, "runner"); err != nil {
		if ctx.Err() != nil {
			return toolerr.Wrap(toolerr.KindExec, ctx.Err(), "runner interrupted")
		}
		return err
	}
	logger.Info("runner exited")
	return nil
}

// CopyFile copies src to dst, replacing dst if it exists
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return toolerr.Wrap(toolerr.KindIO, err, "file to copy does not exist")
		}
		return toolerr.Wrap(toolerr.KindIO, err, "unable to open %s", src)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return toolerr.Wrap(toolerr.KindIO, err, "unable to stat %s", src)
	}
	if !info.Mode().IsRegular() {
		return toolerr.New(toolerr.KindIO, "%s is not a regular file", src)
	}
	if dstInfo, err := os.Stat(dst); err == nil && os.SameFile(info, dstInfo) {
		return nil
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return toolerr.Wrap(toolerr.KindIO, err, "unable to create %s", dst)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return toolerr.Wrap(toolerr.KindIO, err, "unable to copy %s to %s", src, dst)
	}
	if err := out.Close(); err != nil {
		return toolerr.Wrap(toolerr.KindIO, err, "unable to write %s", dst)
	}
	return nil
}
