package config_test

import (
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"santool/config"
	"santool/toolerr"
)

var _ = Describe("Store", func() {
	var store *config.Store

	BeforeEach(func() {
		store = config.NewStore(filepath.Join(GinkgoT().TempDir(), "santool.hcl"))
	})

	Describe("Load", func() {
		It("returns an empty config when the file is absent", func() {
			cfg, err := store.Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.IsEmpty()).To(BeTrue())
		})

		It("parses present attributes", func() {
			path := writeFixture(`
compiler_path = "/usr/bin/sanc"
sanusb_path   = "/opt/sanusb"
`)
			cfg, err := config.NewStore(path).Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(*cfg.CompilerPath).To(Equal("/usr/bin/sanc"))
			Expect(*cfg.SanUSBPath).To(Equal("/opt/sanusb"))
			Expect(cfg.VMPath).To(BeNil())
			Expect(cfg.InfraPath).To(BeNil())
		})

		It("fails with a parse error on malformed syntax", func() {
			path := writeFixture(`compiler_path = "unterminated`)
			_, err := config.NewStore(path).Load()
			Expect(errors.Is(err, toolerr.ErrParse)).To(BeTrue())
		})

		It("fails with a parse error on unknown attributes", func() {
			path := writeFixture(`linker_path = "/usr/bin/ld"`)
			_, err := config.NewStore(path).Load()
			Expect(errors.Is(err, toolerr.ErrParse)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("linker_path"))
		})

		It("fails with an io error when the path is a directory", func() {
			_, err := config.NewStore(GinkgoT().TempDir()).Load()
			Expect(errors.Is(err, toolerr.ErrIO)).To(BeTrue())
		})
	})

	Describe("Save", func() {
		It("writes only present fields", func() {
			Expect(store.Save(config.ToolConfig{CompilerPath: config.String("/usr/bin/sanc")})).To(Succeed())
			data, err := os.ReadFile(store.Path)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal("compiler_path = \"/usr/bin/sanc\"\n"))
		})

		It("creates the parent directory", func() {
			nested := config.NewStore(filepath.Join(GinkgoT().TempDir(), "a", "b", "santool.hcl"))
			Expect(nested.Save(config.ToolConfig{})).To(Succeed())
			Expect(nested.Path).To(BeAnExistingFile())
		})

		It("round-trips byte for byte", func() {
			Expect(store.Save(config.ToolConfig{
				CompilerPath: config.String("/a"),
				VMPath:       config.String("/b with spaces"),
				InfraPath:    config.String(""),
			})).To(Succeed())
			before, err := os.ReadFile(store.Path)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := store.Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(store.Save(cfg)).To(Succeed())

			after, err := os.ReadFile(store.Path)
			Expect(err).NotTo(HaveOccurred())
			Expect(after).To(Equal(before))
		})
	})

	Describe("Update", func() {
		It("creates the file with a single field on first use", func() {
			cfg, err := store.Update(config.ToolConfig{CompilerPath: config.String("/usr/bin/sanc")})
			Expect(err).NotTo(HaveOccurred())
			Expect(*cfg.CompilerPath).To(Equal("/usr/bin/sanc"))

			loaded, err := store.Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(Equal(config.ToolConfig{CompilerPath: config.String("/usr/bin/sanc")}))
		})

		It("preserves previously stored fields", func() {
			Expect(store.Save(config.ToolConfig{
				CompilerPath: config.String("/a"),
				VMPath:       config.String("/b"),
			})).To(Succeed())

			_, err := store.Update(config.ToolConfig{SanUSBPath: config.String("/c")})
			Expect(err).NotTo(HaveOccurred())

			loaded, err := store.Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(Equal(config.ToolConfig{
				CompilerPath: config.String("/a"),
				VMPath:       config.String("/b"),
				SanUSBPath:   config.String("/c"),
			}))
		})

		It("does not write when the existing file is malformed", func() {
			path := writeFixture("{{{")
			_, err := config.NewStore(path).Update(config.ToolConfig{VMPath: config.String("/b")})
			Expect(errors.Is(err, toolerr.ErrParse)).To(BeTrue())
			data, _ := os.ReadFile(path)
			Expect(string(data)).To(Equal("{{{"))
		})
	})
})

var _ = Describe("HomeDir", func() {
	It("honours SANTOOL_HOME", func() {
		dir := GinkgoT().TempDir()
		GinkgoT().Setenv(config.HomeEnv, dir)

		home, err := config.HomeDir()
		Expect(err).NotTo(HaveOccurred())
		Expect(home).To(Equal(dir))

		store, err := config.DefaultStore()
		Expect(err).NotTo(HaveOccurred())
		Expect(store.Path).To(Equal(filepath.Join(dir, config.FileName)))
	})

	It("falls back to the executable directory", func() {
		GinkgoT().Setenv(config.HomeEnv, "")
		home, err := config.HomeDir()
		Expect(err).NotTo(HaveOccurred())
		Expect(home).NotTo(BeEmpty())
	})
})
