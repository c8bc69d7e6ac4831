package configcmder_test

import (
	"bytes"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	wikiartcmder "github.com/papercomputeco/wikiart/cmd/wikiart"
	configcmder "github.com/papercomputeco/wikiart/cmd/wikiart/config"
	"github.com/papercomputeco/wikiart/pkg/config"
)

var _ = Describe("NewConfigCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := configcmder.NewConfigCmd()
		Expect(cmd.Use).To(Equal("config"))
	})

	It("has set, get, and list subcommands", func() {
		cmd := configcmder.NewConfigCmd()
		subcommands := []string{}
		for _, sub := range cmd.Commands() {
			subcommands = append(subcommands, sub.Name())
		}
		Expect(subcommands).To(ContainElements("set", "get", "list"))
	})
})

var _ = Describe("Config command execution", func() {
	var (
		configDir string
		out       *bytes.Buffer
	)

	BeforeEach(func() {
		configDir = filepath.Join(GinkgoT().TempDir(), ".wikiart")
		out = &bytes.Buffer{}
	})

	execute := func(args ...string) error {
		cmd := wikiartcmder.NewWikiartCmd()
		cmd.SetOut(out)
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs(append(append([]string{"config"}, args...), "--config-dir", configDir))
		return cmd.Execute()
	}

	loadConfig := func() *config.Config {
		data, err := os.ReadFile(filepath.Join(configDir, "config.toml"))
		Expect(err).NotTo(HaveOccurred())
		cfg, err := config.ParseConfigTOML(data)
		Expect(err).NotTo(HaveOccurred())
		return cfg
	}

	Describe("set subcommand", func() {
		It("writes the value to config.toml", func() {
			Expect(execute("set", "generation.model", "mistral:latest")).To(Succeed())
			Expect(loadConfig().Generation.Model).To(Equal("mistral:latest"))
			Expect(out.String()).To(ContainSubstring("generation.model"))
		})

		It("sets numeric keys", func() {
			Expect(execute("set", "chat.top_k", "7")).To(Succeed())
			Expect(loadConfig().Chat.TopK).To(Equal(uint(7)))
		})

		It("rejects unknown keys", func() {
			Expect(execute("set", "invalid_key", "value")).To(MatchError(ContainSubstring("unknown config key")))
		})

		It("requires exactly two arguments", func() {
			Expect(execute("set", "generation.model")).To(HaveOccurred())
			Expect(execute("set")).To(HaveOccurred())
		})

		It("rejects invalid uint values", func() {
			Expect(execute("set", "embedding.dimensions", "not-a-number")).To(HaveOccurred())
		})
	})

	Describe("get subcommand", func() {
		It("gets a previously set value", func() {
			Expect(execute("set", "api.listen", ":9000")).To(Succeed())
			out.Reset()

			Expect(execute("get", "api.listen")).To(Succeed())
			Expect(out.String()).To(ContainSubstring(":9000"))
		})

		It("reports the default for an unset key", func() {
			Expect(execute("get", "chat.top_k")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("3"))
		})

		It("rejects unknown keys", func() {
			Expect(execute("get", "invalid_key")).To(HaveOccurred())
		})

		It("requires exactly one argument", func() {
			Expect(execute("get")).To(HaveOccurred())
		})
	})

	Describe("list subcommand", func() {
		It("lists every key", func() {
			Expect(execute("list")).To(Succeed())
			for _, key := range config.ValidConfigKeys() {
				Expect(out.String()).To(ContainSubstring(key))
			}
		})

		It("shows values that were set", func() {
			Expect(execute("set", "storage.provider", "sqlite")).To(Succeed())
			out.Reset()

			Expect(execute("list")).To(Succeed())
			Expect(out.String()).To(ContainSubstring(`"sqlite"`))
		})

		It("rejects any arguments", func() {
			Expect(execute("list", "extra")).To(HaveOccurred())
		})
	})
})
