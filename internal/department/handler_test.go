package department_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	departmentDatamodel "github.com/frahmantamala/org-management/internal/core/datamodel/department"
	"github.com/frahmantamala/org-management/internal/department"
	departmentPostgres "github.com/frahmantamala/org-management/internal/department/postgres"
	"github.com/frahmantamala/org-management/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var _ = Describe("Department Handler Integration", func() {
	var (
		db      *gorm.DB
		repo    *departmentPostgres.DepartmentRepository
		handler *department.Handler
		router  chi.Router
		slogger *slog.Logger
	)

	BeforeEach(func() {
		var err error
		slogger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(&departmentDatamodel.Department{})
		Expect(err).NotTo(HaveOccurred())

		repo = departmentPostgres.NewDepartmentRepository(db)
		service := department.NewService(repo, slogger)
		baseHandler := &transport.BaseHandler{Logger: slogger}
		handler = department.NewHandler(baseHandler, service)

		router = chi.NewRouter()
		router.Get("/departments", handler.GetDepartments)
		router.Post("/departments", handler.CreateDepartment)
		router.Get("/departments/{id}", handler.GetDepartment)
		router.Patch("/departments/{id}", handler.UpdateDepartment)
		router.Delete("/departments/{id}", handler.DeleteDepartment)

		for _, name := range []string{"Engineering", "Finance"} {
			Expect(repo.Create(context.Background(), department.ToDataModel(department.NewDepartment(name, name+" team")))).To(Succeed())
		}
	})

	It("should handle GET /departments request successfully", func() {
		req := httptest.NewRequest(http.MethodGet, "/departments", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Header().Get("Content-Type")).To(ContainSubstring("application/json"))

		var response struct {
			Departments []department.Department `json:"departments"`
		}
		Expect(json.NewDecoder(w.Body).Decode(&response)).To(Succeed())

		names := make([]string, len(response.Departments))
		for i, d := range response.Departments {
			names[i] = d.Name
		}
		Expect(names).To(ConsistOf("Engineering", "Finance"))
	})

	It("should create, then conflict on the same name", func() {
		body := []byte(`{"name":"Sales","description":"Sells things"}`)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/departments", bytes.NewReader(body)))
		Expect(w.Code).To(Equal(http.StatusCreated))

		w = httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/departments", bytes.NewReader(body)))
		Expect(w.Code).To(Equal(http.StatusConflict))
		Expect(w.Body.String()).To(ContainSubstring("DUPLICATE_NAME"))
	})

	It("should reject unknown fields", func() {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/departments", bytes.NewReader([]byte(`{"name":"X","budget":1}`))))
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("should soft delete and hide the department from the default listing", func() {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/departments/1", nil))
		Expect(w.Code).To(Equal(http.StatusNoContent))

		w = httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/departments", nil))
		Expect(w.Body.String()).NotTo(ContainSubstring("Engineering"))

		w = httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/departments?includeInactive=true", nil))
		Expect(w.Body.String()).To(ContainSubstring("Engineering"))
	})

	It("should return 404 for unknown departments and 400 for bad ids", func() {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/departments/99", nil))
		Expect(w.Code).To(Equal(http.StatusNotFound))

		w = httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/departments/abc", nil))
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})
})
