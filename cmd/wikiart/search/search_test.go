package searchcmder_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	apisearch "github.com/papercomputeco/wikiart/api/search"
	wikiartcmder "github.com/papercomputeco/wikiart/cmd/wikiart"
	searchcmder "github.com/papercomputeco/wikiart/cmd/wikiart/search"
)

const catalogCSV = `title,artist,style,year,description
The Starry Night,Vincent van Gogh,Post-Impressionism,1889,"A swirling night sky over a quiet village, painted from memory"
The Scream,Edvard Munch,Expressionism,1893,An agonized figure on a bridge under a blood red sunset
Mona Lisa,Leonardo da Vinci,High Renaissance,1503,Portrait of a woman with an enigmatic smile
`

var _ = Describe("NewSearchCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := searchcmder.NewSearchCmd()
		Expect(cmd.Use).To(Equal("search <query>"))
	})

	It("requires exactly one query", func() {
		cmd := searchcmder.NewSearchCmd()
		Expect(cmd.Args(cmd, []string{})).To(HaveOccurred())
		Expect(cmd.Args(cmd, []string{"a", "b"})).To(HaveOccurred())
		Expect(cmd.Args(cmd, []string{"sky"})).To(Succeed())
	})

	It("has --top-k and --json flags", func() {
		cmd := searchcmder.NewSearchCmd()
		Expect(cmd.Flags().Lookup("top-k")).NotTo(BeNil())
		Expect(cmd.Flags().Lookup("json")).NotTo(BeNil())
	})
})

var _ = Describe("Search command execution", func() {
	var (
		configDir   string
		catalogPath string
		out         *bytes.Buffer
	)

	BeforeEach(func() {
		dir := GinkgoT().TempDir()
		configDir = filepath.Join(dir, ".wikiart")
		catalogPath = filepath.Join(dir, "wikiart.csv")
		Expect(os.WriteFile(catalogPath, []byte(catalogCSV), 0o644)).To(Succeed())
		out = &bytes.Buffer{}
	})

	execute := func(args ...string) error {
		cmd := wikiartcmder.NewWikiartCmd()
		cmd.SetOut(out)
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs(append([]string{
			"search",
			"--config-dir", configDir,
			"--catalog", catalogPath,
			"--embedding-provider", "hashing",
		}, args...))
		return cmd.Execute()
	}

	It("builds the index on first use and prints JSON results", func() {
		Expect(execute("swirling night sky", "--json", "--top-k", "2")).To(Succeed())

		var output apisearch.SearchOutput
		Expect(json.Unmarshal(out.Bytes(), &output)).To(Succeed())
		Expect(output.Query).To(Equal("swirling night sky"))
		Expect(output.Count).To(Equal(2))
		Expect(output.Results[0].Title).To(Equal("The Starry Night"))
		Expect(output.Results[0].Rank).To(Equal(1))

		Expect(filepath.Join(configDir, "index", "artworks.idx")).To(BeAnExistingFile())
	})

	It("prints ranked results for the terminal", func() {
		Expect(execute("swirling night sky")).To(Succeed())
		Expect(out.String()).To(ContainSubstring("The Starry Night"))
		Expect(out.String()).To(ContainSubstring("1."))
	})

	It("fails when the catalog is missing", func() {
		Expect(os.Remove(catalogPath)).To(Succeed())
		Expect(execute("sky")).To(HaveOccurred())
	})
})

var _ = Describe("PrintResults", func() {
	It("reports an empty result set", func() {
		var buf bytes.Buffer
		searchcmder.PrintResults(&buf, &apisearch.SearchOutput{Query: "nothing"}, 80)
		Expect(buf.String()).To(ContainSubstring("No matching artworks."))
	})

	It("cuts long descriptions to the width", func() {
		var buf bytes.Buffer
		long := "A very long description that keeps going well past the edge of a narrow terminal window"
		searchcmder.PrintResults(&buf, &apisearch.SearchOutput{
			Query:   "long",
			Count:   1,
			Results: []apisearch.SearchResult{{Rank: 1, Label: "Long (Someone)", Description: long}},
		}, 30)
		Expect(buf.String()).To(ContainSubstring("…"))
		Expect(buf.String()).NotTo(ContainSubstring(long))
	})
})
