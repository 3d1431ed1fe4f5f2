package paymentrequest_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/course-payments/internal/auth"
	"github.com/frahmantamala/course-payments/internal/paymentrequest"
)

type fakeService struct {
	lastFilter  string
	lastCommand paymentrequest.ActionCommand
	outcome     paymentrequest.Outcome
	actErr      error
	listErr     error
	getErr      error
	hasAccess   bool
	accessArgs  [2]int64
}

func (f *fakeService) List(_ context.Context, filter string) (*paymentrequest.ListResponse, error) {
	f.lastFilter = filter
	if f.listErr != nil {
		return nil, f.listErr
	}
	return &paymentrequest.ListResponse{Success: true, Filter: "pending", Requests: []*paymentrequest.EnrichedRequest{}}, nil
}

func (f *fakeService) Get(_ context.Context, id int64) (*paymentrequest.EnrichedRequest, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &paymentrequest.EnrichedRequest{
		PaymentRequest: &paymentrequest.PaymentRequest{ID: id, UserID: 7, CollectionID: 3, Status: paymentrequest.StatusPending},
		UserName:       "Siti",
	}, nil
}

func (f *fakeService) Act(_ context.Context, cmd paymentrequest.ActionCommand) (paymentrequest.Outcome, error) {
	f.lastCommand = cmd
	return f.outcome, f.actErr
}

func (f *fakeService) HasAccess(_ context.Context, userID, collectionID int64) (bool, error) {
	f.accessArgs = [2]int64{userID, collectionID}
	return f.hasAccess, nil
}

var _ = Describe("Handler", func() {
	var (
		svc    *fakeService
		router chi.Router
		admin  auth.Identity
	)

	withIdentity := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), admin)))
		})
	}

	serve := func(req *http.Request) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	outcomeOf := func(rec *httptest.ResponseRecorder) paymentrequest.Outcome {
		var o paymentrequest.Outcome
		Expect(json.Unmarshal(rec.Body.Bytes(), &o)).To(Succeed())
		return o
	}

	BeforeEach(func() {
		svc = &fakeService{outcome: paymentrequest.Outcome{Success: true, Message: "Payment request approved"}}
		admin = auth.Identity{SubjectID: 1, Role: auth.RoleAdmin}

		h := paymentrequest.NewHandler(svc)
		router = chi.NewRouter()
		router.Use(withIdentity)
		router.Get("/admin/payment-requests", h.List)
		router.Get("/admin/payment-requests/{id}", h.Get)
		router.Post("/admin/payment-requests/action", h.Act)
		router.Get("/collections/{id}/access", h.HasAccess)
	})

	Describe("Act", func() {
		It("should accept form fields and pass the caller as actor", func() {
			form := url.Values{
				"request_id":       {"42"},
				"action":           {"approve"},
				"note":             {"ok"},
				"transaction_code": {"TXN-1"},
			}
			req := httptest.NewRequest(http.MethodPost, "/admin/payment-requests/action", strings.NewReader(form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

			rec := serve(req)

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(outcomeOf(rec).Success).To(BeTrue())
			Expect(svc.lastCommand).To(Equal(paymentrequest.ActionCommand{
				RequestID:       42,
				Action:          "approve",
				Note:            "ok",
				TransactionCode: "TXN-1",
				ActorID:         1,
			}))
		})

		It("should accept a JSON body", func() {
			req := httptest.NewRequest(http.MethodPost, "/admin/payment-requests/action",
				strings.NewReader(`{"request_id":42,"action":"revoke","note":"mistake"}`))
			req.Header.Set("Content-Type", "application/json; charset=utf-8")

			rec := serve(req)

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(svc.lastCommand.Action).To(Equal("revoke"))
			Expect(svc.lastCommand.Note).To(Equal("mistake"))
		})

		It("should refuse a non-numeric request_id", func() {
			req := httptest.NewRequest(http.MethodPost, "/admin/payment-requests/action",
				strings.NewReader("request_id=abc&action=approve"))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

			rec := serve(req)

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(outcomeOf(rec).Success).To(BeFalse())
			Expect(svc.lastCommand.RequestID).To(BeZero())
		})

		It("should refuse a missing action", func() {
			req := httptest.NewRequest(http.MethodPost, "/admin/payment-requests/action",
				strings.NewReader("request_id=42"))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

			rec := serve(req)

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(outcomeOf(rec).Message).To(ContainSubstring("action is required"))
		})

		It("should map workflow errors to status codes with the outcome body", func() {
			svc.outcome = paymentrequest.Outcome{Success: false, Message: "Payment request not found"}
			svc.actErr = paymentrequest.ErrRequestNotFound

			req := httptest.NewRequest(http.MethodPost, "/admin/payment-requests/action",
				strings.NewReader("request_id=999&action=approve"))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

			rec := serve(req)

			Expect(rec.Code).To(Equal(http.StatusNotFound))
			Expect(outcomeOf(rec)).To(Equal(paymentrequest.Outcome{Success: false, Message: "Payment request not found"}))
		})

		It("should answer an invalid action with a generic failure", func() {
			svc.outcome = paymentrequest.Outcome{Success: false, Message: "Failed to process payment request"}
			svc.actErr = paymentrequest.ErrInvalidAction

			req := httptest.NewRequest(http.MethodPost, "/admin/payment-requests/action",
				strings.NewReader("request_id=42&action=delete"))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

			rec := serve(req)

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(outcomeOf(rec).Message).To(Equal("Failed to process payment request"))
		})
	})

	Describe("List", func() {
		It("should forward the status query", func() {
			rec := serve(httptest.NewRequest(http.MethodGet, "/admin/payment-requests?status=approved", nil))

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(svc.lastFilter).To(Equal("approved"))

			var body map[string]interface{}
			Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
			Expect(body).To(HaveKey("total"))
			Expect(body).To(HaveKey("count"))
			Expect(body["requests"]).To(BeEmpty())
		})

		It("should answer 400 for an invalid filter", func() {
			svc.listErr = paymentrequest.ErrInvalidFilter

			rec := serve(httptest.NewRequest(http.MethodGet, "/admin/payment-requests?status=x", nil))

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("Get", func() {
		It("should return the request", func() {
			rec := serve(httptest.NewRequest(http.MethodGet, "/admin/payment-requests/42", nil))

			Expect(rec.Code).To(Equal(http.StatusOK))
			var body paymentrequest.DetailResponse
			Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
			Expect(body.Request.ID).To(Equal(int64(42)))
			Expect(body.Request.UserName).To(Equal("Siti"))
		})

		It("should answer 400 for a bad id and 404 for an unknown one", func() {
			Expect(serve(httptest.NewRequest(http.MethodGet, "/admin/payment-requests/abc", nil)).Code).To(Equal(http.StatusBadRequest))

			svc.getErr = paymentrequest.ErrRequestNotFound
			Expect(serve(httptest.NewRequest(http.MethodGet, "/admin/payment-requests/999", nil)).Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("HasAccess", func() {
		It("should check the grant for the caller", func() {
			admin = auth.Identity{SubjectID: 7, Role: auth.RoleStudent}
			svc.hasAccess = true

			rec := serve(httptest.NewRequest(http.MethodGet, "/collections/3/access", nil))

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(svc.accessArgs).To(Equal([2]int64{7, 3}))
			var body paymentrequest.AccessResponse
			Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
			Expect(body.HasAccess).To(BeTrue())
		})
	})
})
