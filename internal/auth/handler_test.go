package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

var _ = ginkgo.Describe("Handler", func() {
	var (
		handler       *Handler
		rbac          *RBACAuthorization
		authenticator *TokenAuthenticator
		reached       bool
		protected     http.Handler
	)

	decode := func(rec *httptest.ResponseRecorder) map[string]interface{} {
		var body map[string]interface{}
		gomega.Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(gomega.Succeed())
		return body
	}

	expectForbidden := func(rec *httptest.ResponseRecorder) {
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusForbidden))
		body := decode(rec)
		gomega.Expect(body["success"]).To(gomega.Equal(false))
		gomega.Expect(body["message"]).To(gomega.Equal("forbidden"))
	}

	ginkgo.BeforeEach(func() {
		var err error
		authenticator, err = NewTokenAuthenticator([]byte(testSecret), time.Hour)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		handler = NewHandler(NewService(newMockCredentialStore(), authenticator, nil))
		rbac = NewRBACAuthorization(nil)

		reached = false
		protected = handler.AuthMiddleware(rbac.RequireAdmin()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reached = true
			id, ok := IdentityFromContext(r.Context())
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(id.SubjectID).To(gomega.Equal(int64(1)))
			w.WriteHeader(http.StatusNoContent)
		})))
	})

	ginkgo.Describe("AuthMiddleware with RequireAdmin", func() {
		ginkgo.It("should forbid a request without credential", func() {
			rec := httptest.NewRecorder()
			protected.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin", nil))

			expectForbidden(rec)
			gomega.Expect(reached).To(gomega.BeFalse())
		})

		ginkgo.It("should forbid a malformed header the same way", func() {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			req.Header.Set("Authorization", "Token abc")
			rec := httptest.NewRecorder()
			protected.ServeHTTP(rec, req)

			expectForbidden(rec)
			gomega.Expect(reached).To(gomega.BeFalse())
		})

		ginkgo.It("should forbid an invalid credential", func() {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			req.Header.Set("Authorization", "Bearer not.a.token")
			rec := httptest.NewRecorder()
			protected.ServeHTTP(rec, req)

			expectForbidden(rec)
		})

		ginkgo.It("should forbid a student", func() {
			token, _, err := authenticator.Issue(7, RoleStudent)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()
			protected.ServeHTTP(rec, req)

			expectForbidden(rec)
			gomega.Expect(reached).To(gomega.BeFalse())
		})

		ginkgo.It("should let an admin through with identity in context", func() {
			token, _, err := authenticator.Issue(1, RoleAdmin)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()
			protected.ServeHTTP(rec, req)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusNoContent))
			gomega.Expect(reached).To(gomega.BeTrue())
		})
	})

	ginkgo.Describe("Login", func() {
		post := func(body string) *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			handler.Login(rec, req)
			return rec
		}

		ginkgo.It("should return an access token for valid credentials", func() {
			rec := post(`{"email":"student@example.com","password":"correct_password"}`)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
			body := decode(rec)
			gomega.Expect(body["access_token"]).ToNot(gomega.BeEmpty())
			gomega.Expect(body["token_type"]).To(gomega.Equal("Bearer"))
		})

		ginkgo.It("should return 401 for a wrong password", func() {
			rec := post(`{"email":"student@example.com","password":"nope"}`)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
			body := decode(rec)
			errBody := body["error"].(map[string]interface{})
			gomega.Expect(errBody["code"]).To(gomega.Equal("INVALID_CREDENTIALS"))
		})

		ginkgo.It("should return 400 for an invalid body", func() {
			rec := post(`{`)
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusBadRequest))
		})

		ginkgo.It("should return 400 with field details for missing fields", func() {
			rec := post(`{"email":""}`)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusBadRequest))
			body := decode(rec)
			errBody := body["error"].(map[string]interface{})
			gomega.Expect(errBody["code"]).To(gomega.Equal("VALIDATION_FAILED"))
			gomega.Expect(errBody["details"]).ToNot(gomega.BeNil())
		})
	})
})
