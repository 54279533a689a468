package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"

	"santool/toolerr"
)

const (
	// FileName is the name of the persisted tool config
	FileName = "santool.hcl"

	// HomeEnv overrides the directory holding the config and downloaded tools
	HomeEnv = "SANTOOL_HOME"
)

// HomeDir returns the directory santool keeps its state in: $SANTOOL_HOME if
// set, otherwise the directory of the running executable.
func HomeDir() (string, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return filepath.Abs(dir)
	}

	execPath, err := os.Executable()
	if err != nil {
		return "", toolerr.Wrap(toolerr.KindIO, err, "could not determine executable path")
	}
	execPath, err = filepath.EvalSymlinks(execPath)
	if err != nil {
		return "", toolerr.Wrap(toolerr.KindIO, err, "could not resolve executable path")
	}
	return filepath.Dir(execPath), nil
}

// Store reads and writes a ToolConfig file
type Store struct {
	Path string
}

// NewStore returns a store backed by the file at path
func NewStore(path string) *Store {
	return &Store{Path: path}
}

// DefaultStore returns the store at HomeDir()/santool.hcl
func DefaultStore() (*Store, error) {
	dir, err := HomeDir()
	if err != nil {
		return nil, err
	}
	return NewStore(filepath.Join(dir, FileName)), nil
}

// Load reads the config file. A missing file yields an empty config.
func (s *Store) Load() (ToolConfig, error) {
	var cfg ToolConfig

	data, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, toolerr.Wrap(toolerr.KindIO, err, "unable to read %s", s.Path)
	}

	return Decode(data, s.Path)
}

// Save overwrites the config file with cfg
func (s *Store) Save(cfg ToolConfig) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0755); err != nil {
		return toolerr.Wrap(toolerr.KindIO, err, "unable to create %s", filepath.Dir(s.Path))
	}
	if err := os.WriteFile(s.Path, Encode(cfg), 0644); err != nil {
		return toolerr.Wrap(toolerr.KindIO, err, "unable to write %s", s.Path)
	}
	return nil
}

// Update loads the stored config, merges update into it and saves the result
func (s *Store) Update(update ToolConfig) (ToolConfig, error) {
	existing, err := s.Load()
	if err != nil {
		return ToolConfig{}, err
	}

	merged := Merge(existing, update)
	if err := s.Save(merged); err != nil {
		return ToolConfig{}, err
	}
	return merged, nil
}

// Decode parses an HCL document into a ToolConfig
func Decode(data []byte, filename string) (ToolConfig, error) {
	var cfg ToolConfig

	file, diags := hclparse.NewParser().ParseHCL(data, filename)
	if diags.HasErrors() {
		return cfg, toolerr.Wrap(toolerr.KindParse, diags, "unable to parse %s", filename)
	}

	if diags := gohcl.DecodeBody(file.Body, nil, &cfg); diags.HasErrors() {
		return ToolConfig{}, toolerr.Wrap(toolerr.KindParse, diags, "unable to decode %s", filename)
	}
	return cfg, nil
}

// Encode renders cfg as HCL. Only present fields are written, in a fixed
// order, so encoding a decoded document reproduces it byte for byte.
func Encode(cfg ToolConfig) []byte {
	f := hclwrite.NewEmptyFile()
	body := f.Body()
	for _, a := range cfg.attributes() {
		if a.value == nil {
			continue
		}
		body.SetAttributeValue(a.name, cty.StringVal(*a.value))
	}
	return hclwrite.Format(f.Bytes())
}
