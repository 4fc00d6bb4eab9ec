package postgres

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/testcontainers/testcontainers-go"

	"github.com/studybuddy/eventcore/internal/store"
)

var _ = Describe("postgres event store", func() {
	var (
		ctx       context.Context
		container testcontainers.Container
		es        store.EventStore
	)

	BeforeEach(func() {
		ctx = context.Background()

		dsn, c, err := setupPostgresContainer(ctx)
		Expect(err).NotTo(HaveOccurred())
		container = c

		Expect(execSchema(ctx, dsn)).To(Succeed())

		// Connect re-establishes its own pool the way the adapter does
		// in production, exercising its own startup/ping path.
		adapter, err := Connect(ctx, dsn, Config{})
		Expect(err).NotTo(HaveOccurred())
		es = adapter
	})

	AfterEach(func() {
		if es != nil {
			es.Close()
		}
		if container != nil {
			_ = container.Terminate(ctx)
		}
	})

	It("creates a document only once", func() {
		created, err := es.CreateIfAbsent(ctx, "users/u1/libraries/l1/events/evt_1", "event", []byte(`{"n":1}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(created).To(BeTrue())

		created, err = es.CreateIfAbsent(ctx, "users/u1/libraries/l1/events/evt_1", "event", []byte(`{"n":2}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(created).To(BeFalse())

		doc, err := es.Read(ctx, "users/u1/libraries/l1/events/evt_1")
		Expect(err).NotTo(HaveOccurred())
		Expect(doc).NotTo(BeNil())
		Expect(doc.Body).To(MatchJSON(`{"n":1}`))
	})

	It("returns nil for an absent path", func() {
		doc, err := es.Read(ctx, "users/u1/libraries/l1/events/missing")
		Expect(err).NotTo(HaveOccurred())
		Expect(doc).To(BeNil())
	})

	It("overwrites existing documents on write", func() {
		Expect(es.Write(ctx, "users/u1/libraries/l1/views/card_schedule/card_1", "card_schedule", []byte(`{"state":0}`))).To(Succeed())
		Expect(es.Write(ctx, "users/u1/libraries/l1/views/card_schedule/card_1", "card_schedule", []byte(`{"state":1}`))).To(Succeed())

		doc, err := es.Read(ctx, "users/u1/libraries/l1/views/card_schedule/card_1")
		Expect(err).NotTo(HaveOccurred())
		Expect(doc.Body).To(MatchJSON(`{"state":1}`))
	})

	It("preserves input order and nils for missing paths in ReadMany", func() {
		Expect(es.Write(ctx, "p1", "event", []byte(`{"a":1}`))).To(Succeed())
		Expect(es.Write(ctx, "p3", "event", []byte(`{"a":3}`))).To(Succeed())

		docs, err := es.ReadMany(ctx, []string{"p1", "p2", "p3"})
		Expect(err).NotTo(HaveOccurred())
		Expect(docs).To(HaveLen(3))
		Expect(docs[0]).NotTo(BeNil())
		Expect(docs[1]).To(BeNil())
		Expect(docs[2]).NotTo(BeNil())
	})

	It("commits all writes made inside a transaction together", func() {
		err := es.Transaction(ctx, func(ctx context.Context, tx store.Tx) error {
			if werr := tx.Write(ctx, "views/a", "view", []byte(`{"v":1}`)); werr != nil {
				return werr
			}
			return tx.Write(ctx, "views/b", "view", []byte(`{"v":2}`))
		})
		Expect(err).NotTo(HaveOccurred())

		a, err := es.Read(ctx, "views/a")
		Expect(err).NotTo(HaveOccurred())
		b, err := es.Read(ctx, "views/b")
		Expect(err).NotTo(HaveOccurred())
		Expect(a).NotTo(BeNil())
		Expect(b).NotTo(BeNil())
	})

	It("rolls back every write when fn returns an error", func() {
		err := es.Transaction(ctx, func(ctx context.Context, tx store.Tx) error {
			if werr := tx.Write(ctx, "views/c", "view", []byte(`{"v":1}`)); werr != nil {
				return werr
			}
			return errors.New("boom")
		})
		Expect(err).To(HaveOccurred())

		doc, err := es.Read(ctx, "views/c")
		Expect(err).NotTo(HaveOccurred())
		Expect(doc).To(BeNil())
	})

	It("queries a collection in ascending order", func() {
		Expect(es.Write(ctx, "users/u1/libraries/l1/events/evt_1", "event", []byte(`{}`))).To(Succeed())
		Expect(es.Write(ctx, "users/u1/libraries/l1/events/evt_2", "event", []byte(`{}`))).To(Succeed())

		docs, err := es.Query(ctx, store.QueryFilter{Kind: "event", PathPrefix: "users/u1/libraries/l1/events/"}, store.OrderAscending, 10, "")
		Expect(err).NotTo(HaveOccurred())
		Expect(docs).To(HaveLen(2))
		Expect(docs[0].Path).To(Equal("users/u1/libraries/l1/events/evt_1"))
	})

	It("reports which items BatchWrite newly created", func() {
		_, err := es.CreateIfAbsent(ctx, "batch/1", "event", []byte(`{}`))
		Expect(err).NotTo(HaveOccurred())

		created, err := es.BatchWrite(ctx, []store.Write{
			{Path: "batch/1", Kind: "event", Body: []byte(`{}`)},
			{Path: "batch/2", Kind: "event", Body: []byte(`{}`)},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(created).To(Equal([]bool{false, true}))
	})
})
