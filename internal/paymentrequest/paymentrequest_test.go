package paymentrequest_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/course-payments/internal/paymentrequest"
)

var _ = Describe("PaymentRequest", func() {
	DescribeTable("Apply",
		func(from, action string, wantStatus string, wantEffect paymentrequest.GrantEffect) {
			req := &paymentrequest.PaymentRequest{Status: from, TransactionCode: strPtr("OLD")}

			effect, err := req.Apply(action, "note", "")

			Expect(err).NotTo(HaveOccurred())
			Expect(req.Status).To(Equal(wantStatus))
			Expect(effect).To(Equal(wantEffect))
			Expect(req.Remarks).To(Equal(strPtr("note")))
			Expect(req.TransactionCode).To(Equal(strPtr("OLD")))
		},
		Entry("pending approve", paymentrequest.StatusPending, paymentrequest.ActionApprove, paymentrequest.StatusApproved, paymentrequest.GrantCreate),
		Entry("pending reject", paymentrequest.StatusPending, paymentrequest.ActionReject, paymentrequest.StatusRejected, paymentrequest.GrantNone),
		Entry("approved revoke", paymentrequest.StatusApproved, paymentrequest.ActionRevoke, paymentrequest.StatusRejected, paymentrequest.GrantDelete),
		Entry("approved reject", paymentrequest.StatusApproved, paymentrequest.ActionReject, paymentrequest.StatusRejected, paymentrequest.GrantNone),
		Entry("rejected approve", paymentrequest.StatusRejected, paymentrequest.ActionApprove, paymentrequest.StatusApproved, paymentrequest.GrantCreate),
	)

	It("should replace the transaction code only when one is supplied", func() {
		req := &paymentrequest.PaymentRequest{Status: paymentrequest.StatusPending}

		_, err := req.Apply(paymentrequest.ActionApprove, "", "  TXN-7 ")
		Expect(err).NotTo(HaveOccurred())
		Expect(req.TransactionCode).To(Equal(strPtr("TXN-7")))
		Expect(req.Remarks).To(BeNil())

		_, err = req.Apply(paymentrequest.ActionApprove, "", "   ")
		Expect(err).NotTo(HaveOccurred())
		Expect(req.TransactionCode).To(Equal(strPtr("TXN-7")))
	})

	It("should refuse an unknown action without touching the request", func() {
		req := &paymentrequest.PaymentRequest{Status: paymentrequest.StatusPending}

		_, err := req.Apply("delete", "note", "TXN-1")

		Expect(err).To(MatchError(paymentrequest.ErrInvalidAction))
		Expect(req.Status).To(Equal(paymentrequest.StatusPending))
		Expect(req.Remarks).To(BeNil())
		Expect(req.TransactionCode).To(BeNil())
	})

	DescribeTable("ParseFilter",
		func(raw, wantFilter, wantStatus string) {
			filter, status, err := paymentrequest.ParseFilter(raw)
			Expect(err).NotTo(HaveOccurred())
			Expect(filter).To(Equal(wantFilter))
			Expect(status).To(Equal(wantStatus))
		},
		Entry("empty defaults to pending", "", "pending", "pending"),
		Entry("approved", "approved", "approved", "approved"),
		Entry("case and spaces", " Rejected ", "rejected", "rejected"),
		Entry("all has no status condition", "all", "all", ""),
	)

	It("should refuse an unknown filter", func() {
		_, _, err := paymentrequest.ParseFilter("deleted")
		Expect(err).To(MatchError(paymentrequest.ErrInvalidFilter))
	})
})
