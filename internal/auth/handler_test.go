package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	accountPostgres "github.com/frahmantamala/employee-directory/internal/account/postgres"
	"github.com/frahmantamala/employee-directory/internal/core/common/testdb"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var _ = ginkgo.Describe("AuthHandler", func() {
	var (
		db      *gorm.DB
		tokens  *TokenService
		handler *Handler
		gate    *Gate
	)

	ginkgo.BeforeEach(func() {
		var err error
		db, err = testdb.Open()
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		tokens, err = NewTokenService(testSecret, time.Hour)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		svc := NewService(accountPostgres.NewAccountRepository(db), tokens, bcrypt.MinCost, nil, discardLogger())
		handler = NewHandler(svc, discardLogger())
		gate = NewGate(tokens, nil, discardLogger())
	})

	ginkgo.AfterEach(func() {
		testdb.Close(db)
	})

	post := func(h http.HandlerFunc, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		h(rec, req)
		return rec
	}

	decode := func(rec *httptest.ResponseRecorder) map[string]string {
		var body map[string]string
		gomega.Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(gomega.Succeed())
		return body
	}

	credentials := func(email, password string) string {
		var buf bytes.Buffer
		gomega.Expect(json.NewEncoder(&buf).Encode(map[string]string{"email": email, "password": password})).To(gomega.Succeed())
		return buf.String()
	}

	ginkgo.Describe("Register", func() {
		ginkgo.It("should return 201 with a token", func() {
			rec := post(handler.Register, credentials("a@x.com", "secret1"))

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusCreated))
			gomega.Expect(rec.Header().Get("Content-Type")).To(gomega.ContainSubstring("application/json"))
			gomega.Expect(decode(rec)["token"]).ToNot(gomega.BeEmpty())
		})

		ginkgo.It("should return 400 for a duplicate email", func() {
			gomega.Expect(post(handler.Register, credentials("a@x.com", "secret1")).Code).To(gomega.Equal(http.StatusCreated))

			rec := post(handler.Register, credentials("a@x.com", "secret1"))

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusBadRequest))
			gomega.Expect(decode(rec)).To(gomega.Equal(map[string]string{"error": "User already exists"}))
		})

		ginkgo.DescribeTable("should return 400 with the first validation message",
			func(body, message string) {
				rec := post(handler.Register, body)

				gomega.Expect(rec.Code).To(gomega.Equal(http.StatusBadRequest))
				gomega.Expect(decode(rec)["error"]).To(gomega.Equal(message))
			},
			ginkgo.Entry("bad email", credentials("nope", "secret1"), "Please enter a valid email"),
			ginkgo.Entry("short password", credentials("a@x.com", "123"), "Password must be at least 6 characters"),
			ginkgo.Entry("password over 72 bytes", credentials("a@x.com", strings.Repeat("p", 73)), "Password must not exceed 72 bytes"),
			ginkgo.Entry("malformed body", "{not json", "invalid request body"),
		)
	})

	ginkgo.Describe("Login", func() {
		ginkgo.BeforeEach(func() {
			gomega.Expect(post(handler.Register, credentials("a@x.com", "secret1")).Code).To(gomega.Equal(http.StatusCreated))
		})

		ginkgo.It("should return 200 with a token", func() {
			rec := post(handler.Login, credentials("a@x.com", "secret1"))

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
			_, err := tokens.Verify(decode(rec)["token"])
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
		})

		ginkgo.It("should answer a wrong password and an unknown email identically", func() {
			wrong := post(handler.Login, credentials("a@x.com", "wrong-password"))
			unknown := post(handler.Login, credentials("b@x.com", "secret1"))

			gomega.Expect(wrong.Code).To(gomega.Equal(http.StatusBadRequest))
			gomega.Expect(unknown.Code).To(gomega.Equal(http.StatusBadRequest))
			gomega.Expect(wrong.Body.String()).To(gomega.Equal(unknown.Body.String()))
			gomega.Expect(decode(wrong)["error"]).To(gomega.Equal("Invalid credentials"))
		})
	})

	ginkgo.Describe("Me", func() {
		ginkgo.It("should return the account behind the token", func() {
			token := decode(post(handler.Register, credentials("me@x.com", "secret1")))["token"]

			req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()
			gate.Middleware(http.HandlerFunc(handler.Me)).ServeHTTP(rec, req)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
			body := decode(rec)
			gomega.Expect(body["email"]).To(gomega.Equal("me@x.com"))
			gomega.Expect(body["id"]).ToNot(gomega.BeEmpty())
			gomega.Expect(body).ToNot(gomega.HaveKey("passwordHash"))
		})

		ginkgo.It("should return 401 when called without an identity", func() {
			rec := httptest.NewRecorder()
			handler.Me(rec, httptest.NewRequest(http.MethodGet, "/api/users/me", nil))

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
		})
	})
})
