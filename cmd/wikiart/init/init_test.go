package initcmder_test

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	initcmder "github.com/papercomputeco/wikiart/cmd/wikiart/init"
	"github.com/papercomputeco/wikiart/pkg/config"
)

var _ = Describe("NewInitCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := initcmder.NewInitCmd()
		Expect(cmd.Use).To(Equal("init"))
	})

	It("rejects any arguments", func() {
		cmd := initcmder.NewInitCmd()
		Expect(cmd.Args(cmd, []string{})).To(Succeed())
		Expect(cmd.Args(cmd, []string{"extra"})).To(HaveOccurred())
	})

	It("has --preset and --force flags", func() {
		cmd := initcmder.NewInitCmd()
		Expect(cmd.Flags().Lookup("preset").DefValue).To(Equal(""))
		Expect(cmd.Flags().Lookup("force").DefValue).To(Equal("false"))
	})
})

var _ = Describe("Init command execution", func() {
	var (
		tmpDir  string
		origDir string
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()

		var err error
		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		Expect(os.Chdir(tmpDir)).To(Succeed())
	})

	AfterEach(func() {
		Expect(os.Chdir(origDir)).To(Succeed())
	})

	execute := func(args ...string) error {
		cmd := initcmder.NewInitCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetArgs(args)
		return cmd.Execute()
	}

	loadConfig := func() *config.Config {
		data, err := os.ReadFile(filepath.Join(tmpDir, ".wikiart", "config.toml"))
		Expect(err).NotTo(HaveOccurred())
		cfg, err := config.ParseConfigTOML(data)
		Expect(err).NotTo(HaveOccurred())
		return cfg
	}

	It("creates a .wikiart directory with a default config.toml", func() {
		Expect(execute()).To(Succeed())

		info, err := os.Stat(filepath.Join(tmpDir, ".wikiart"))
		Expect(err).NotTo(HaveOccurred())
		Expect(info.IsDir()).To(BeTrue())

		cfg := loadConfig()
		Expect(cfg.Version).To(Equal(config.CurrentV))
		Expect(cfg.Embedding.Provider).To(Equal("ollama"))
		Expect(cfg.Generation.Model).To(Equal("llama3.2:latest"))
		Expect(cfg.Chat.TopK).To(Equal(uint(3)))
		Expect(cfg.API.Listen).To(Equal(":8090"))
	})

	It("leaves an existing config.toml alone", func() {
		dir := filepath.Join(tmpDir, ".wikiart")
		Expect(os.MkdirAll(dir, 0o755)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[chat]\ntop_k = 9\n"), 0o644)).To(Succeed())

		Expect(execute("--preset", "offline")).To(Succeed())
		Expect(loadConfig().Chat.TopK).To(Equal(uint(9)))
	})

	It("overwrites an existing config.toml with --force", func() {
		dir := filepath.Join(tmpDir, ".wikiart")
		Expect(os.MkdirAll(dir, 0o755)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[chat]\ntop_k = 9\n"), 0o644)).To(Succeed())

		Expect(execute("--preset", "offline", "--force")).To(Succeed())
		cfg := loadConfig()
		Expect(cfg.Chat.TopK).To(Equal(uint(3)))
		Expect(cfg.Embedding.Provider).To(Equal("hashing"))
	})

	Describe("--preset", func() {
		It("writes the offline preset", func() {
			Expect(execute("--preset", "offline")).To(Succeed())
			cfg := loadConfig()
			Expect(cfg.Embedding.Provider).To(Equal("hashing"))
			Expect(cfg.Embedding.Dimensions).To(Equal(uint(512)))
		})

		It("writes the openai preset", func() {
			Expect(execute("--preset", "openai")).To(Succeed())
			cfg := loadConfig()
			Expect(cfg.Embedding.Provider).To(Equal("openai"))
			Expect(cfg.Embedding.Dimensions).To(Equal(uint(1536)))
			Expect(cfg.Generation.Provider).To(Equal("openai"))
			Expect(cfg.Generation.Model).To(Equal("gpt-4o-mini"))
		})

		It("rejects unknown preset names", func() {
			err := execute("--preset", "invalid-provider")
			Expect(err).To(MatchError(ContainSubstring("unknown preset")))
			Expect(filepath.Join(tmpDir, ".wikiart")).NotTo(BeADirectory())
		})
	})

	Describe("--preset with a remote URL", func() {
		It("fetches and writes the remote config.toml", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				fmt.Fprint(w, "version = 0\n\n[generation]\nmodel = \"mistral:latest\"\n\n[chat]\ntop_k = 5\n")
			}))
			defer server.Close()

			Expect(execute("--preset", server.URL+"/config.toml")).To(Succeed())
			cfg := loadConfig()
			Expect(cfg.Generation.Model).To(Equal("mistral:latest"))
			Expect(cfg.Chat.TopK).To(Equal(uint(5)))
		})

		It("fails on a non-200 response", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			}))
			defer server.Close()

			Expect(execute("--preset", server.URL)).To(MatchError(ContainSubstring("unexpected status 404")))
		})

		It("rejects an unsupported config version", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				fmt.Fprint(w, "version = 7\n")
			}))
			defer server.Close()

			Expect(execute("--preset", server.URL)).To(MatchError(ContainSubstring("unsupported config version")))
		})
	})
})
