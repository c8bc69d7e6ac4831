package postgres_test

import (
	"context"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/wikiart/pkg/storage"
	"github.com/papercomputeco/wikiart/pkg/storage/postgres"
	"github.com/papercomputeco/wikiart/pkg/storage/storagetest"
)

func connStr() string {
	dsn := os.Getenv("WIKIART_TEST_POSTGRES_DSN")
	if dsn == "" {
		Skip("WIKIART_TEST_POSTGRES_DSN not set, skipping PostgreSQL tests")
	}
	return dsn
}

var _ = Describe("Driver", func() {
	Context("against a live database", func() {
		// Entries land in fresh uuid sessions so specs stay isolated without
		// truncating the table.
		storagetest.DescribeDriver(func() storage.Driver {
			d, err := postgres.NewDriver(context.Background(), connStr())
			Expect(err).NotTo(HaveOccurred())
			return d
		})
	})

	It("fails fast when the server is unreachable", func() {
		_, err := postgres.NewDriver(context.Background(), "host=127.0.0.1 port=1 user=wikiart dbname=wikiart sslmode=disable connect_timeout=1")
		Expect(err).To(MatchError(ContainSubstring("reaching postgres")))
	})

	It("rejects a malformed DSN", func() {
		_, err := postgres.NewDriver(context.Background(), "postgres://%zz")
		Expect(err).To(HaveOccurred())
	})
})
