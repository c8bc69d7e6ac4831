// Package storagetest holds the behavior every storage.Driver must share.
package storagetest

import (
	"context"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/wikiart/pkg/storage"
)

// NewEntry returns an entry in a fresh session.
func NewEntry(seq int) *storage.Entry {
	return &storage.Entry{
		SessionID: uuid.NewString(),
		Seq:       seq,
		Question:  "Who painted The Starry Night?",
		Answer:    "Vincent van Gogh.",
		Model:     "llama3.2:latest",
		Sources: []storage.Source{
			{ID: "starry", Label: "The Starry Night by Vincent van Gogh", Score: 0.9},
		},
		Attempts:   1,
		DurationMs: 120,
		CreatedAt:  time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

// DescribeDriver registers the shared driver specs. newDriver is called
// before each test; the returned driver is closed after it.
func DescribeDriver(newDriver func() storage.Driver) {
	var (
		ctx    context.Context
		driver storage.Driver
	)

	BeforeEach(func() {
		ctx = context.Background()
		driver = newDriver()
	})

	AfterEach(func() {
		if driver != nil {
			Expect(driver.Close()).To(Succeed())
		}
	})

	It("stores and lists an entry", func() {
		entry := NewEntry(1)
		Expect(driver.Append(ctx, entry)).To(Succeed())

		entries, err := driver.List(ctx, entry.SessionID)
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(1))

		got := entries[0]
		Expect(got.Question).To(Equal(entry.Question))
		Expect(got.Answer).To(Equal(entry.Answer))
		Expect(got.Model).To(Equal(entry.Model))
		Expect(got.Sources).To(Equal(entry.Sources))
		Expect(got.Attempts).To(Equal(1))
		Expect(got.DurationMs).To(Equal(int64(120)))
		Expect(got.CreatedAt.Equal(entry.CreatedAt)).To(BeTrue())
	})

	It("lists entries ordered by seq", func() {
		first := NewEntry(3)
		second := *first
		second.Seq = 1
		Expect(driver.Append(ctx, first)).To(Succeed())
		Expect(driver.Append(ctx, &second)).To(Succeed())

		entries, err := driver.List(ctx, first.SessionID)
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(2))
		Expect(entries[0].Seq).To(Equal(1))
		Expect(entries[1].Seq).To(Equal(3))
	})

	It("rejects a duplicate seq", func() {
		entry := NewEntry(1)
		Expect(driver.Append(ctx, entry)).To(Succeed())
		Expect(driver.Append(ctx, entry)).To(MatchError(storage.ErrConflict))
	})

	It("rejects a nil entry", func() {
		Expect(driver.Append(ctx, nil)).To(MatchError(storage.ErrNilEntry))
	})

	It("returns an empty list for an unknown session", func() {
		entries, err := driver.List(ctx, uuid.NewString())
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(BeEmpty())
	})
}
