package role_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/frahmantamala/org-management/internal/role"
	"github.com/frahmantamala/org-management/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Role Handler", func() {
	var (
		mockRepo *MockRepository
		router   chi.Router
		lead     *role.Role
	)

	send := func(method, path string, body interface{}) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			Expect(json.NewEncoder(&buf).Encode(body)).To(Succeed())
		}
		req := httptest.NewRequest(method, path, &buf)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	errorCode := func(w *httptest.ResponseRecorder) string {
		var resp struct {
			Error struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		return resp.Error.Code
	}

	BeforeEach(func() {
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		mockRepo = NewMockRepository()
		service := role.NewService(mockRepo, logger)
		handler := role.NewHandler(&transport.BaseHandler{Logger: logger}, service)

		router = chi.NewRouter()
		router.Get("/roles", handler.GetRoles)
		router.Post("/roles", handler.CreateRole)
		router.Get("/roles/{id}", handler.GetRole)
		router.Patch("/roles/{id}", handler.UpdateRole)
		router.Delete("/roles/{id}", handler.DeleteRole)

		var err error
		lead, err = service.Create(context.Background(), role.CreateRoleDTO{Name: "Lead", Level: 40})
		Expect(err).NotTo(HaveOccurred())
	})

	It("should create and list roles", func() {
		w := send(http.MethodPost, "/roles", map[string]interface{}{"name": "Director", "level": 90})
		Expect(w.Code).To(Equal(http.StatusCreated))

		var created role.Role
		Expect(json.NewDecoder(w.Body).Decode(&created)).To(Succeed())
		Expect(created.Level).To(Equal(90))

		w = send(http.MethodGet, "/roles", nil)
		Expect(w.Code).To(Equal(http.StatusOK))
		var list role.RolesResponse
		Expect(json.NewDecoder(w.Body).Decode(&list)).To(Succeed())
		Expect(list.Roles).To(HaveLen(2))
	})

	It("should reject unknown fields and bad levels", func() {
		w := send(http.MethodPost, "/roles", map[string]interface{}{"name": "X", "level": 10, "rank": 1})
		Expect(w.Code).To(Equal(http.StatusBadRequest))

		w = send(http.MethodPost, "/roles", map[string]interface{}{"name": "X", "level": 0})
		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(errorCode(w)).To(Equal("VALIDATION_FAILED"))
	})

	It("should return 404 for unknown roles and 400 for bad ids", func() {
		Expect(send(http.MethodGet, "/roles/99", nil).Code).To(Equal(http.StatusNotFound))
		Expect(send(http.MethodGet, "/roles/abc", nil).Code).To(Equal(http.StatusBadRequest))
	})

	It("should refuse a level change that breaks a reporting line", func() {
		mockRepo.conflicts = 1
		w := send(http.MethodPatch, "/roles/1", map[string]interface{}{"level": 5})
		Expect(w.Code).To(Equal(http.StatusUnprocessableEntity))
		Expect(errorCode(w)).To(Equal("INSUFFICIENT_ROLE_LEVEL"))
	})

	It("should refuse to delete a role still in use", func() {
		mockRepo.users[lead.ID] = 3
		w := send(http.MethodDelete, "/roles/1", nil)
		Expect(w.Code).To(Equal(http.StatusConflict))
		Expect(errorCode(w)).To(Equal("ROLE_IN_USE"))

		mockRepo.users[lead.ID] = 0
		Expect(send(http.MethodDelete, "/roles/1", nil).Code).To(Equal(http.StatusNoContent))
	})
})
