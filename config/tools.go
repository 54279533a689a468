package config

import (
	"santool/toolerr"
)

// ToolConfig holds the paths to the external toolchain.
// A nil field is absent; a non-nil field is present even when empty.
type ToolConfig struct {
	CompilerPath *string `hcl:"compiler_path,optional"`
	VMPath       *string `hcl:"vm_path,optional"`
	SanUSBPath   *string `hcl:"sanusb_path,optional"`
	InfraPath    *string `hcl:"infra_path,optional"`
}

// String returns a pointer to s, for building ToolConfig literals
func String(s string) *string {
	return &s
}

type attribute struct {
	name  string
	flag  string
	value *string
}

// attributes lists the fields in serialization order
func (c ToolConfig) attributes() []attribute {
	return []attribute{
		{name: "compiler_path", flag: "--compiler-path", value: c.CompilerPath},
		{name: "vm_path", flag: "--vm-path", value: c.VMPath},
		{name: "sanusb_path", flag: "--sanusb-path", value: c.SanUSBPath},
		{name: "infra_path", flag: "--infra-path", value: c.InfraPath},
	}
}

// Field is a named config value; Value is nil when absent
type Field struct {
	Name  string
	Value *string
}

// Fields returns the config's fields in file order
func (c ToolConfig) Fields() []Field {
	attrs := c.attributes()
	fields := make([]Field, len(attrs))
	for i, a := range attrs {
		fields[i] = Field{Name: a.name, Value: a.value}
	}
	return fields
}

// Merge returns existing with every field present in update overridden.
// Fields absent from update keep their existing value.
func Merge(existing, update ToolConfig) ToolConfig {
	merged := ToolConfig{
		CompilerPath: pick(existing.CompilerPath, update.CompilerPath),
		VMPath:       pick(existing.VMPath, update.VMPath),
		SanUSBPath:   pick(existing.SanUSBPath, update.SanUSBPath),
		InfraPath:    pick(existing.InfraPath, update.InfraPath),
	}
	return merged
}

func pick(existing, update *string) *string {
	if update != nil {
		return String(*update)
	}
	if existing != nil {
		return String(*existing)
	}
	return nil
}

// IsEmpty reports whether no field is present
func (c ToolConfig) IsEmpty() bool {
	for _, a := range c.attributes() {
		if a.value != nil {
			return false
		}
	}
	return true
}

// Compiler returns the configured compiler path
func (c ToolConfig) Compiler() (string, error) {
	return c.require(0)
}

// VM returns the configured virtual machine path
func (c ToolConfig) VM() (string, error) {
	return c.require(1)
}

// SanUSB returns the configured flashing project directory
func (c ToolConfig) SanUSB() (string, error) {
	return c.require(2)
}

// Infra returns the configured infra path
func (c ToolConfig) Infra() (string, error) {
	return c.require(3)
}

func (c ToolConfig) require(idx int) (string, error) {
	a := c.attributes()[idx]
	if a.value == nil || *a.value == "" {
		return "", toolerr.New(toolerr.KindConfig,
			"%s is not set in %s! Run santool config %s <path>", a.name, FileName, a.flag)
	}
	return *a.value, nil
}
