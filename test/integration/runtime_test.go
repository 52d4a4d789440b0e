// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warcade Contributors

//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/warcade/warcade/internal/plugin"
	"github.com/warcade/warcade/internal/runtime"
	"github.com/warcade/warcade/internal/store"
)

var _ = Describe("Runtime with PostgreSQL", Ordered, func() {
	var (
		ctx       context.Context
		cancel    context.CancelFunc
		container testcontainers.Container
		connStr   string
		st        *store.Store
	)

	BeforeAll(func() {
		ctx, cancel = context.WithTimeout(context.Background(), 2*time.Minute)

		var err error
		container, err = postgres.Run(ctx,
			"postgres:18-alpine",
			postgres.WithDatabase("warcade_test"),
			postgres.WithUsername("warcade"),
			postgres.WithPassword("warcade"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(30*time.Second),
			),
		)
		Expect(err).NotTo(HaveOccurred())

		connStr, err = container.ConnectionString(ctx, "sslmode=disable")
		Expect(err).NotTo(HaveOccurred())

		migrator, err := store.NewMigrator(connStr)
		Expect(err).NotTo(HaveOccurred())
		Expect(migrator.Up()).To(Succeed())
		Expect(migrator.Close()).To(Succeed())

		st, err = store.New(ctx, connStr)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterAll(func() {
		if st != nil {
			st.Close()
		}
		if container != nil {
			Expect(container.Terminate(ctx)).To(Succeed())
		}
		cancel()
	})

	It("applies the runtime schema idempotently", func() {
		migrator, err := store.NewMigrator(connStr)
		Expect(err).NotTo(HaveOccurred())
		defer migrator.Close()

		Expect(migrator.Up()).To(Succeed(), "a second Up is a no-op")

		version, dirty, err := migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(dirty).To(BeFalse())
		Expect(version).To(BeNumerically(">", 0))
	})

	It("loads plugins, runs their migrations, and records the ledger", func() {
		source := plugin.NewLockedSource([]plugin.EmbeddedPlugin{
			{ID: "scores", Native: false, Data: []byte("<html>scores</html>")},
		}, GinkgoT().TempDir())
		rt := runtime.New(source, runtime.WithStore(st))

		rt.OnInit("scores", func(ctx context.Context, host *runtime.Host) error {
			if err := host.Migrate(ctx,
				"CREATE TABLE IF NOT EXISTS scores (player TEXT PRIMARY KEY, points BIGINT NOT NULL DEFAULT 0)",
			); err != nil {
				return err
			}
			host.Register("top", func(ctx context.Context, _ json.RawMessage) (json.RawMessage, error) {
				return json.RawMessage(`[]`), nil
			})
			return nil
		})

		Expect(rt.Load(ctx)).To(Succeed())
		Expect(rt.Start(ctx)).To(Succeed())
		Expect(rt.Started("scores")).To(BeTrue())

		resp, err := rt.Services().Call(ctx, "scores", "top", nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(resp)).To(Equal(`[]`))

		pool, err := pgxpool.New(ctx, connStr)
		Expect(err).NotTo(HaveOccurred())
		defer pool.Close()

		var count int
		err = pool.QueryRow(ctx,
			"SELECT count(*) FROM runtime_plugins WHERE id = $1", "scores").Scan(&count)
		Expect(err).NotTo(HaveOccurred())
		Expect(count).To(Equal(1), "ledger row recorded")

		// The plugin's table landed in its own namespace.
		var schema string
		err = pool.QueryRow(ctx,
			"SELECT table_schema FROM information_schema.tables WHERE table_name = 'scores'").Scan(&schema)
		Expect(err).NotTo(HaveOccurred())
		Expect(schema).To(Equal("plugin_scores"))
	})

	It("isolates a failing migration to its own plugin", func() {
		source := plugin.NewLockedSource([]plugin.EmbeddedPlugin{
			{ID: "good", Native: false, Data: []byte("a")},
			{ID: "bad", Native: false, Data: []byte("b")},
		}, GinkgoT().TempDir())
		rt := runtime.New(source, runtime.WithStore(st))

		rt.OnInit("good", func(ctx context.Context, host *runtime.Host) error {
			return host.Migrate(ctx, "CREATE TABLE IF NOT EXISTS items (id BIGSERIAL PRIMARY KEY)")
		})
		rt.OnInit("bad", func(ctx context.Context, host *runtime.Host) error {
			return host.Migrate(ctx, "CREATE TABLE broken syntax here")
		})

		Expect(rt.Load(ctx)).To(Succeed())
		Expect(rt.Start(ctx)).To(Succeed())

		Expect(rt.Started("good")).To(BeTrue())
		Expect(rt.Started("bad")).To(BeFalse())
	})

	It("keeps migrations transactional per plugin", func() {
		source := plugin.NewLockedSource([]plugin.EmbeddedPlugin{
			{ID: "atomic", Native: false, Data: []byte("a")},
		}, GinkgoT().TempDir())
		rt := runtime.New(source, runtime.WithStore(st))

		rt.OnInit("atomic", func(ctx context.Context, host *runtime.Host) error {
			return host.Migrate(ctx,
				"CREATE TABLE IF NOT EXISTS halfway (id INT)",
				"THIS IS NOT SQL",
			)
		})

		Expect(rt.Load(ctx)).To(Succeed())
		Expect(rt.Start(ctx)).To(Succeed())
		Expect(rt.Started("atomic")).To(BeFalse())

		pool, err := pgxpool.New(ctx, connStr)
		Expect(err).NotTo(HaveOccurred())
		defer pool.Close()

		var count int
		err = pool.QueryRow(ctx, fmt.Sprintf(
			"SELECT count(*) FROM information_schema.tables WHERE table_schema = '%s' AND table_name = 'halfway'",
			"plugin_atomic")).Scan(&count)
		Expect(err).NotTo(HaveOccurred())
		Expect(count).To(BeZero(), "the failed batch rolled back entirely")
	})
})
