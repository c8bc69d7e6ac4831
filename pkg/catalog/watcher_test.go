package catalog_test

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/wikiart/pkg/catalog"
	"github.com/papercomputeco/wikiart/pkg/logger"
)

var _ = Describe("Watcher", func() {
	It("notifies once for a burst of writes to the catalog", func() {
		tmpDir, err := os.MkdirTemp("", "watcher-test-*")
		Expect(err).NotTo(HaveOccurred())
		defer os.RemoveAll(tmpDir)

		path := filepath.Join(tmpDir, "wikiart.csv")
		Expect(os.WriteFile(path, []byte(threeArtworks), 0o600)).To(Succeed())

		w, err := catalog.NewWatcher(path, 100*time.Millisecond, logger.Nop())
		Expect(err).NotTo(HaveOccurred())

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		var calls atomic.Int32
		done := make(chan error, 1)
		go func() {
			done <- w.Run(ctx, func(context.Context) { calls.Add(1) })
		}()

		// Give the watcher time to register.
		time.Sleep(100 * time.Millisecond)

		for range 3 {
			Expect(os.WriteFile(path, []byte(threeArtworks), 0o600)).To(Succeed())
		}
		Expect(os.WriteFile(filepath.Join(tmpDir, "other.txt"), []byte("x"), 0o600)).To(Succeed())

		Eventually(calls.Load, 2*time.Second, 20*time.Millisecond).Should(Equal(int32(1)))
		Consistently(calls.Load, 300*time.Millisecond, 50*time.Millisecond).Should(Equal(int32(1)))

		cancel()
		Eventually(done).Should(Receive(BeNil()))
	})
})
