package user_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/frahmantamala/org-management/internal/auth"
	"github.com/frahmantamala/org-management/internal/hierarchy"
	"github.com/frahmantamala/org-management/internal/user"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
)

var _ = Describe("User Handler", func() {
	var (
		mockRepo *MockRepository
		router   chi.Router
	)

	identities := map[int64]*auth.Identity{
		ceoID: {ID: ceoID, RoleName: "CEO", RoleLevel: 100, Status: hierarchy.StatusActive},
		empID: {ID: empID, ManagerID: ptr(mgrID), RoleName: "Employee", RoleLevel: 10, Status: hierarchy.StatusActive},
	}

	send := func(as int64, method, path string, body interface{}) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			Expect(json.NewEncoder(&buf).Encode(body)).To(Succeed())
		}
		req := httptest.NewRequest(method, path, &buf)
		if body == nil {
			req.ContentLength = 0
		}
		if identity, ok := identities[as]; ok {
			req = req.WithContext(auth.ContextWithIdentity(req.Context(), identity))
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	decodeUser := func(w *httptest.ResponseRecorder) user.User {
		var u user.User
		Expect(json.NewDecoder(w.Body).Decode(&u)).To(Succeed())
		return u
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
		roles := testRoles()
		mockRepo = NewMockRepository(roles)
		mockRepo.AddUser(ceoID, "ceo", nil, roleCEO, hierarchy.StatusActive)
		mockRepo.AddUser(dirID, "director", ptr(ceoID), roleDirector, hierarchy.StatusActive)
		mockRepo.AddUser(mgrID, "manager", ptr(dirID), roleManager, hierarchy.StatusActive)
		mockRepo.AddUser(empID, "alice", ptr(mgrID), roleEmployee, hierarchy.StatusActive)
		mockRepo.AddUser(emp2ID, "bob", ptr(mgrID), roleEmployee, hierarchy.StatusActive)
		mockRepo.AddUser(pendID, "pending", nil, roleEmployee, hierarchy.StatusPending)

		h := hierarchy.NewService(mockRepo, hierarchy.NewAdminPolicy(), hierarchy.Options{}, logger)
		service := user.NewService(mockRepo, roles, MockDepartments{}, h, &RecordingPublisher{}, bcrypt.MinCost, logger)
		handler := user.NewHandler(service)

		router = chi.NewRouter()
		router.Get("/users/me", handler.GetCurrentUser)
		router.Get("/users", handler.ListUsers)
		router.Get("/users/{id}", handler.GetUser)
		router.Put("/users/{id}/manager", handler.AssignManager)
		router.Post("/users/{id}/approve", handler.ApproveUser)
		router.Post("/users/{id}/deactivate", handler.DeactivateUser)
		router.Get("/users/{id}/eligible-managers", handler.EligibleManagers)
	})

	It("should return the current user", func() {
		w := send(empID, http.MethodGet, "/users/me", nil)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(decodeUser(w).Email).To(Equal("alice@example.com"))
	})

	It("should answer 401 without an identity", func() {
		Expect(send(0, http.MethodGet, "/users/me", nil).Code).To(Equal(http.StatusUnauthorized))
	})

	It("should scope the directory to the caller's visible set", func() {
		w := send(empID, http.MethodGet, "/users", nil)
		Expect(w.Code).To(Equal(http.StatusOK))

		var resp user.UsersResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Total).To(Equal(5))

		Expect(send(empID, http.MethodGet, "/users?limit=abc", nil).Code).To(Equal(http.StatusBadRequest))
	})

	It("should hide users outside the visible set", func() {
		w := send(empID, http.MethodGet, "/users/6", nil)
		Expect(w.Code).To(Equal(http.StatusNotFound))
		Expect(errorCode(w)).To(Equal("USER_NOT_FOUND"))

		Expect(send(ceoID, http.MethodGet, "/users/6", nil).Code).To(Equal(http.StatusOK))
	})

	It("should move a user under a higher-level manager", func() {
		w := send(ceoID, http.MethodPut, "/users/4/manager", map[string]interface{}{"managerId": dirID})
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(decodeUser(w).ManagerID).To(HaveValue(Equal(dirID)))
	})

	It("should reject a manager at the same level", func() {
		w := send(ceoID, http.MethodPut, "/users/4/manager", map[string]interface{}{"managerId": emp2ID})
		Expect(w.Code).To(Equal(http.StatusUnprocessableEntity))
		Expect(errorCode(w)).To(Equal("INSUFFICIENT_ROLE_LEVEL"))
	})

	It("should approve a pending user", func() {
		w := send(ceoID, http.MethodPost, "/users/6/approve", nil)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(decodeUser(w).Status).To(Equal(hierarchy.StatusActive))
	})

	It("should require reassignment before deactivating a manager", func() {
		w := send(ceoID, http.MethodPost, "/users/3/deactivate", nil)
		Expect(w.Code).To(Equal(http.StatusConflict))
		Expect(errorCode(w)).To(Equal("HAS_DIRECT_REPORTS"))

		w = send(ceoID, http.MethodPost, "/users/3/deactivate", map[string]interface{}{"reassignTo": dirID})
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(decodeUser(w).Status).To(Equal(hierarchy.StatusInactive))
		Expect(mockRepo.users[empID].ManagerID).To(HaveValue(Equal(dirID)))
	})

	It("should list eligible managers", func() {
		w := send(ceoID, http.MethodGet, "/users/4/eligible-managers", nil)
		Expect(w.Code).To(Equal(http.StatusOK))

		var resp user.EligibleManagersResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		ids := make([]int64, 0, len(resp.Candidates))
		for _, c := range resp.Candidates {
			ids = append(ids, c.ID)
		}
		Expect(ids).To(ConsistOf(ceoID, dirID, mgrID))
	})
})
