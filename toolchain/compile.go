// Package toolchain drives the external san compiler and the sanusb flashing
// project as subprocesses.
package toolchain

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/hashicorp/go-hclog"

	"santool/config"
	"santool/toolerr"
)

const (
	// SourceExt is the extension of compilable san source files
	SourceExt = ".san"

	// BytecodeSuffix is appended to a source path to name its compiled output
	BytecodeSuffix = "b"
)

// CompileRequest describes a single compiler invocation
type CompileRequest struct {
	SourcePath string
	OutputPath string // optional, defaults to OutputPathFor(SourcePath)
}

// Compiler runs the external san compiler
type Compiler struct {
	Path   string
	Stdout io.Writer
	Stderr io.Writer
	Logger hclog.Logger
}

// NewCompiler returns a compiler for the configured compiler path
func NewCompiler(cfg config.ToolConfig) (*Compiler, error) {
	path, err := cfg.Compiler()
	if err != nil {
		return nil, err
	}
	return &Compiler{Path: path}, nil
}

// OutputPathFor derives the bytecode path for a source file: foo.san -> foo.sanb
func OutputPathFor(sourcePath string) string {
	return sourcePath + BytecodeSuffix
}

// ValidateSource checks that the source file exists and has the .san extension
func ValidateSource(sourcePath string) error {
	if _, err := os.Stat(sourcePath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return toolerr.New(toolerr.KindValidation, "source path does not exist: %s", sourcePath)
		}
		return toolerr.Wrap(toolerr.KindValidation, err, "unable to stat source path %s", sourcePath)
	}

	ext := filepath.Ext(sourcePath)
	if ext == "" {
		return toolerr.New(toolerr.KindValidation, "source file %s is missing an extension, expected %s", sourcePath, SourceExt)
	}
	if ext != SourceExt {
		return toolerr.New(toolerr.KindValidation, "source file should have %s extension, got %s", SourceExt, ext)
	}
	return nil
}

// Compile validates req and runs `<compiler> <source> <output>`, streaming the
// compiler's stdout. It returns the output path.
func (c *Compiler) Compile(ctx context.Context, req CompileRequest) (string, error) {
	if c.Path == "" {
		return "", toolerr.New(toolerr.KindConfig, "compiler path is not configured")
	}
	if err := ValidateSource(req.SourcePath); err != nil {
		return "", err
	}

	outputPath := req.OutputPath
	if outputPath == "" {
		outputPath = OutputPathFor(req.SourcePath)
	}

	logger := loggerOrNull(c.Logger).With("compiler", c.Path)
	logger.Debug("invoking compiler", "source", req.SourcePath, "output", outputPath)

	cmd := exec.CommandContext(ctx, c.Path, req.SourcePath, outputPath)
	cmd.Stdout = writerOrDiscard(c.Stdout)
	cmd.Stderr = writerOrDiscard(c.Stderr)

	if err := Execute(cmd, "compiler"); err != nil {
		return "", err
	}

	logger.Debug("compiler finished", "output", outputPath)
	return outputPath, nil
}

// Execute starts cmd and waits for it. Spawn failures and nonzero exits are
// both exec errors; what names the process in the message.
func Execute(cmd *exec.Cmd, what string) error {
	if err := cmd.Start(); err != nil {
		return toolerr.Wrap(toolerr.KindExec, err, "failed to execute %s", what)
	}
	return wait(cmd, what)
}

func wait(cmd *exec.Cmd, what string) error {
	err := cmd.Wait()
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return toolerr.Wrap(toolerr.KindExec, err, "%s exited with status %d", what, exitErr.ExitCode())
	}
	return toolerr.Wrap(toolerr.KindExec, err, "%s failed", what)
}

func loggerOrNull(l hclog.Logger) hclog.Logger {
	if l == nil {
		return hclog.NewNullLogger()
	}
	return l
}

func writerOrDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}
