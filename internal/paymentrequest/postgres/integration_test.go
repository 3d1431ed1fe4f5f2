//go:build integration

package postgres

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pressly/goose/v3"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/frahmantamala/course-payments/db"
	"github.com/frahmantamala/course-payments/internal/paymentrequest"
	"github.com/frahmantamala/course-payments/internal/user"
)

type emptyDirectory struct{}

func (emptyDirectory) Lookup(context.Context, int64) (*user.Profile, error) {
	return nil, user.ErrNotFound
}

func (emptyDirectory) LookupMany(context.Context, []int64) (map[int64]*user.Profile, error) {
	return map[int64]*user.Profile{}, nil
}

// The specs below join the repository suite when built with -tags integration.
var (
	container *tcpostgres.PostgresContainer
	gdb       *gorm.DB
)

var _ = BeforeSuite(func() {
	ctx := context.Background()

	var err error
	container, err = tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		tcpostgres.WithDatabase("course_payments"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	Expect(err).NotTo(HaveOccurred())

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	Expect(err).NotTo(HaveOccurred())

	conn, err := sql.Open("pgx", dsn)
	Expect(err).NotTo(HaveOccurred())
	goose.SetBaseFS(db.Migrations)
	Expect(goose.SetDialect("postgres")).To(Succeed())
	Expect(goose.UpContext(ctx, conn, db.TargetPayments.Dir())).To(Succeed())
	Expect(conn.Close()).To(Succeed())

	gdb, err = gorm.Open(gormpostgres.Open(dsn), &gorm.Config{TranslateError: true})
	Expect(err).NotTo(HaveOccurred())
})

var _ = AfterSuite(func() {
	if gdb != nil {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if container != nil {
		Expect(container.Terminate(context.Background())).To(Succeed())
	}
})

var _ = Describe("PaymentWorkflow on Postgres", func() {
	var (
		ctx  context.Context
		repo paymentrequest.Repository
		svc  *paymentrequest.Service
	)

	grantCount := func(userID, collectionID int64) int64 {
		var n int64
		Expect(gdb.Table("access_grants").
			Where("user_id = ? AND collection_id = ?", userID, collectionID).
			Count(&n).Error).To(Succeed())
		return n
	}

	BeforeEach(func() {
		ctx = context.Background()
		Expect(gdb.Exec("TRUNCATE access_grants, payment_requests RESTART IDENTITY").Error).To(Succeed())

		repo = NewPaymentRequestRepository(gdb)
		svc = paymentrequest.NewService(repo, emptyDirectory{}, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	})

	It("should approve, grant, then revoke and drop the grant", func() {
		req := &paymentrequest.PaymentRequest{UserID: 7, CollectionID: 3, ScreenshotPath: "uploads/a.png"}
		Expect(repo.Create(ctx, req)).To(Succeed())

		out, err := svc.Act(ctx, paymentrequest.ActionCommand{RequestID: req.ID, Action: paymentrequest.ActionApprove, Note: "ok", TransactionCode: "TXN-1", ActorID: 1})
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal(paymentrequest.Outcome{Success: true, Message: "Payment request approved"}))
		Expect(grantCount(7, 3)).To(Equal(int64(1)))

		_, err = svc.Act(ctx, paymentrequest.ActionCommand{RequestID: req.ID, Action: paymentrequest.ActionApprove, ActorID: 1})
		Expect(err).NotTo(HaveOccurred())
		Expect(grantCount(7, 3)).To(Equal(int64(1)))

		_, err = svc.Act(ctx, paymentrequest.ActionCommand{RequestID: req.ID, Action: paymentrequest.ActionRevoke, Note: "mistake", ActorID: 1})
		Expect(err).NotTo(HaveOccurred())
		Expect(grantCount(7, 3)).To(BeZero())

		got, err := repo.GetByID(ctx, req.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Status).To(Equal(paymentrequest.StatusRejected))
		Expect(*got.Remarks).To(Equal("mistake"))
		Expect(*got.TransactionCode).To(Equal("TXN-1"))
	})

	It("should roll back on a duplicate transaction code", func() {
		first := &paymentrequest.PaymentRequest{UserID: 7, CollectionID: 3, ScreenshotPath: "uploads/a.png"}
		second := &paymentrequest.PaymentRequest{UserID: 8, CollectionID: 3, ScreenshotPath: "uploads/b.png"}
		Expect(repo.Create(ctx, first)).To(Succeed())
		Expect(repo.Create(ctx, second)).To(Succeed())

		_, err := svc.Act(ctx, paymentrequest.ActionCommand{RequestID: first.ID, Action: paymentrequest.ActionApprove, TransactionCode: "TXN-9", ActorID: 1})
		Expect(err).NotTo(HaveOccurred())

		out, err := svc.Act(ctx, paymentrequest.ActionCommand{RequestID: second.ID, Action: paymentrequest.ActionApprove, TransactionCode: "TXN-9", ActorID: 1})
		Expect(err).To(MatchError(paymentrequest.ErrDuplicateTransactionCode))
		Expect(out.Success).To(BeFalse())

		got, _ := repo.GetByID(ctx, second.ID)
		Expect(got.Status).To(Equal(paymentrequest.StatusPending))
		Expect(grantCount(8, 3)).To(BeZero())
	})

	It("should serialize a concurrent approve and revoke", func() {
		req := &paymentrequest.PaymentRequest{UserID: 7, CollectionID: 3, ScreenshotPath: "uploads/a.png", Status: paymentrequest.StatusApproved}
		Expect(repo.Create(ctx, req)).To(Succeed())

		var wg sync.WaitGroup
		for _, action := range []string{paymentrequest.ActionApprove, paymentrequest.ActionRevoke} {
			wg.Add(1)
			go func(action string) {
				defer GinkgoRecover()
				defer wg.Done()
				_, _ = svc.Act(ctx, paymentrequest.ActionCommand{RequestID: req.ID, Action: action, ActorID: 1})
			}(action)
		}
		wg.Wait()

		got, err := repo.GetByID(ctx, req.ID)
		Expect(err).NotTo(HaveOccurred())
		switch got.Status {
		case paymentrequest.StatusApproved:
			Expect(grantCount(7, 3)).To(Equal(int64(1)))
		case paymentrequest.StatusRejected:
			Expect(grantCount(7, 3)).To(BeZero())
		default:
			Fail("unexpected status " + got.Status)
		}
	})
})
