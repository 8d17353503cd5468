package employee_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/frahmantamala/employee-directory/internal/core/common/testdb"
	"github.com/frahmantamala/employee-directory/internal/employee"
	employeePostgres "github.com/frahmantamala/employee-directory/internal/employee/postgres"
	"github.com/frahmantamala/employee-directory/internal/storage"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

var _ = Describe("Employee Handler Integration", func() {
	var (
		db        *gorm.DB
		uploadDir string
		router    chi.Router
	)

	BeforeEach(func() {
		var err error
		slogger := slog.New(slog.NewTextHandler(io.Discard, nil))

		db, err = testdb.Open()
		Expect(err).NotTo(HaveOccurred())

		uploadDir = filepath.Join(GinkgoT().TempDir(), "uploads")
		store, err := storage.NewDiskStore(uploadDir)
		Expect(err).NotTo(HaveOccurred())

		service := employee.NewService(employeePostgres.NewEmployeeRepository(db), store, storage.DefaultMaxImageBytes, slogger)
		handler := employee.NewHandler(service, 1<<20, slogger)

		router = chi.NewRouter()
		router.Route("/employees", func(r chi.Router) {
			r.Post("/", handler.CreateEmployee)
			r.Get("/", handler.ListEmployees)
			r.Get("/{id}", handler.GetEmployee)
			r.Put("/{id}", handler.UpdateEmployee)
			r.Delete("/{id}", handler.DeleteEmployee)
		})
	})

	AfterEach(func() {
		Expect(testdb.Close(db)).To(Succeed())
	})

	do := func(method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, target, body)
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	doJSON := func(method, target string, payload interface{}) *httptest.ResponseRecorder {
		b, err := json.Marshal(payload)
		Expect(err).NotTo(HaveOccurred())
		return do(method, target, bytes.NewReader(b), "application/json")
	}

	multipartBody := func(fields map[string]string, filename, fileType string, content []byte) (io.Reader, string) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		for k, v := range fields {
			Expect(mw.WriteField(k, v)).To(Succeed())
		}
		if filename != "" {
			h := make(textproto.MIMEHeader)
			h.Set("Content-Disposition", `form-data; name="image"; filename="`+filename+`"`)
			h.Set("Content-Type", fileType)
			part, err := mw.CreatePart(h)
			Expect(err).NotTo(HaveOccurred())
			_, err = part.Write(content)
			Expect(err).NotTo(HaveOccurred())
		}
		Expect(mw.Close()).To(Succeed())
		return &buf, mw.FormDataContentType()
	}

	decodeEmployee := func(rec *httptest.ResponseRecorder) map[string]interface{} {
		var body map[string]interface{}
		Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
		return body
	}

	errorOf := func(rec *httptest.ResponseRecorder) string {
		var body map[string]string
		Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
		return body["error"]
	}

	ada := map[string]string{
		"fullName":   "Ada Lovelace",
		"position":   "Engineer",
		"department": "Engineering",
		"email":      "ada@x.com",
	}

	Describe("POST /employees", func() {
		It("should create from JSON", func() {
			rec := doJSON(http.MethodPost, "/employees", ada)

			Expect(rec.Code).To(Equal(http.StatusCreated))
			body := decodeEmployee(rec)
			Expect(body["id"]).NotTo(BeEmpty())
			Expect(body["fullName"]).To(Equal("Ada Lovelace"))
			Expect(body["image"]).To(BeNil())
			Expect(body).To(HaveKey("createdAt"))
			Expect(body).To(HaveKey("updatedAt"))
		})

		It("should create from a multipart form with an image", func() {
			body, contentType := multipartBody(ada, "ada.png", "image/png", []byte("png-bytes"))

			rec := do(http.MethodPost, "/employees", body, contentType)

			Expect(rec.Code).To(Equal(http.StatusCreated))
			image, ok := decodeEmployee(rec)["image"].(string)
			Expect(ok).To(BeTrue())
			Expect(image).To(HavePrefix("uploads/"))
			Expect(image).To(HaveSuffix("-ada.png"))

			stored, err := os.ReadFile(filepath.Join(uploadDir, strings.TrimPrefix(image, "uploads/")))
			Expect(err).NotTo(HaveOccurred())
			Expect(string(stored)).To(Equal("png-bytes"))
		})

		It("should create from a urlencoded form", func() {
			form := url.Values{}
			for k, v := range ada {
				form.Set(k, v)
			}

			rec := do(http.MethodPost, "/employees", strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")

			Expect(rec.Code).To(Equal(http.StatusCreated))
		})

		It("should reject a disallowed file type", func() {
			body, contentType := multipartBody(ada, "cv.gif", "image/gif", []byte("gif"))

			rec := do(http.MethodPost, "/employees", body, contentType)

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(errorOf(rec)).To(Equal("Only .jpg, .jpeg, .png files are allowed!"))
		})

		It("should reject a duplicate email with 400", func() {
			Expect(doJSON(http.MethodPost, "/employees", ada).Code).To(Equal(http.StatusCreated))

			rec := doJSON(http.MethodPost, "/employees", ada)

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(errorOf(rec)).To(Equal("Employee with this email already exists"))
		})

		It("should reject a body over the limit", func() {
			huge := map[string]string{"fullName": strings.Repeat("a", 2<<20)}

			rec := doJSON(http.MethodPost, "/employees", huge)

			Expect(rec.Code).To(Equal(http.StatusRequestEntityTooLarge))
		})

		It("should reject malformed JSON", func() {
			rec := do(http.MethodPost, "/employees", strings.NewReader("{"), "application/json")

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(errorOf(rec)).To(Equal("invalid request body"))
		})
	})

	Describe("GET /employees", func() {
		It("should return [] rather than null when empty", func() {
			rec := do(http.MethodGet, "/employees", nil, "")

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(strings.TrimSpace(rec.Body.String())).To(Equal("[]"))
		})

		It("should filter by department", func() {
			Expect(doJSON(http.MethodPost, "/employees", ada).Code).To(Equal(http.StatusCreated))
			Expect(doJSON(http.MethodPost, "/employees", map[string]string{
				"fullName": "Bob", "position": "Rep", "department": "Sales", "email": "bob@x.com",
			}).Code).To(Equal(http.StatusCreated))

			rec := do(http.MethodGet, "/employees?department=Sales", nil, "")

			Expect(rec.Code).To(Equal(http.StatusOK))
			var list []map[string]interface{}
			Expect(json.Unmarshal(rec.Body.Bytes(), &list)).To(Succeed())
			Expect(list).To(HaveLen(1))
			Expect(list[0]["email"]).To(Equal("bob@x.com"))
		})
	})

	Describe("GET, PUT and DELETE /employees/{id}", func() {
		var id string

		BeforeEach(func() {
			rec := doJSON(http.MethodPost, "/employees", ada)
			Expect(rec.Code).To(Equal(http.StatusCreated))
			id = decodeEmployee(rec)["id"].(string)
		})

		It("should fetch by id", func() {
			rec := do(http.MethodGet, "/employees/"+id, nil, "")

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(decodeEmployee(rec)["email"]).To(Equal("ada@x.com"))
		})

		It("should answer 404 for an unknown id", func() {
			rec := do(http.MethodGet, "/employees/does-not-exist", nil, "")

			Expect(rec.Code).To(Equal(http.StatusNotFound))
			Expect(errorOf(rec)).To(Equal("Employee not found"))
		})

		It("should update only the submitted fields", func() {
			rec := doJSON(http.MethodPut, "/employees/"+id, map[string]string{"position": "CTO"})

			Expect(rec.Code).To(Equal(http.StatusOK))
			body := decodeEmployee(rec)
			Expect(body["position"]).To(Equal("CTO"))
			Expect(body["fullName"]).To(Equal("Ada Lovelace"))
		})

		It("should answer 404 when updating an unknown id", func() {
			rec := doJSON(http.MethodPut, "/employees/does-not-exist", map[string]string{"position": "CTO"})

			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})

		It("should delete and confirm", func() {
			rec := do(http.MethodDelete, "/employees/"+id, nil, "")

			Expect(rec.Code).To(Equal(http.StatusOK))
			var body map[string]string
			Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
			Expect(body["message"]).To(Equal("Employee deleted successfully"))

			Expect(do(http.MethodGet, "/employees/"+id, nil, "").Code).To(Equal(http.StatusNotFound))
			Expect(do(http.MethodDelete, "/employees/"+id, nil, "").Code).To(Equal(http.StatusNotFound))
		})
	})
})
