package versioncmder_test

import (
	"bytes"
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	versioncmder "github.com/papercomputeco/wikiart/cmd/version"
)

var _ = Describe("NewVersionCmd", func() {
	run := func(args ...string) (string, error) {
		var out bytes.Buffer
		cmd := versioncmder.NewVersionCmd()
		cmd.SetOut(&out)
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs(args)
		err := cmd.Execute()
		return out.String(), err
	}

	It("prints version, sha and build time", func() {
		out, err := run()
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("Version: dev\nSha: HEAD\nBuilt at: dev\n"))
	})

	It("prints only the version with --short", func() {
		out, err := run("--short")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("dev\n"))
	})

	It("prints JSON with --json", func() {
		out, err := run("--json")
		Expect(err).NotTo(HaveOccurred())

		var info map[string]string
		Expect(json.Unmarshal([]byte(out), &info)).To(Succeed())
		Expect(info).To(HaveKeyWithValue("version", "dev"))
		Expect(info).To(HaveKeyWithValue("built_at", "dev"))
	})

	It("refuses --short with --json", func() {
		_, err := run("--short", "--json")
		Expect(err).To(HaveOccurred())
	})

	It("takes no arguments", func() {
		_, err := run("extra")
		Expect(err).To(HaveOccurred())
	})
})
