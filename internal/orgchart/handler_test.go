package orgchart_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/frahmantamala/org-management/internal/auth"
	"github.com/frahmantamala/org-management/internal/hierarchy"
	"github.com/frahmantamala/org-management/internal/orgchart"
	"github.com/frahmantamala/org-management/internal/transport"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Org Chart Handler", func() {
	var handler *orgchart.Handler

	withIdentity := func(r *http.Request, id int64, managerID *int64, role string) *http.Request {
		identity := &auth.Identity{ID: id, ManagerID: managerID, RoleName: role, Status: hierarchy.StatusActive}
		return r.WithContext(auth.ContextWithIdentity(r.Context(), identity))
	}

	BeforeEach(func() {
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		dir := scenario()
		h := hierarchy.NewService(dir, hierarchy.NewAdminPolicy(), hierarchy.Options{}, logger)
		service := orgchart.NewService(h, dir, departments(), 0, logger)
		handler = orgchart.NewHandler(&transport.BaseHandler{Logger: logger}, service)
	})

	It("should return nodes, edges and stats", func() {
		req := withIdentity(httptest.NewRequest(http.MethodGet, "/org-chart", nil), mgrID, ptr(dirID), "Manager")
		w := httptest.NewRecorder()

		handler.GetOrgChart(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		var body map[string]json.RawMessage
		Expect(json.NewDecoder(w.Body).Decode(&body)).To(Succeed())
		Expect(body).To(HaveKey("nodes"))
		Expect(body).To(HaveKey("edges"))
		Expect(string(body["stats"])).To(ContainSubstring(`"totalVisible":5`))
	})

	It("should return the visible ids", func() {
		req := withIdentity(httptest.NewRequest(http.MethodGet, "/org-chart/visible", nil), empID, ptr(mgrID), "Employee")
		w := httptest.NewRecorder()

		handler.GetVisibleUsers(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		var resp orgchart.VisibleResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.UserIDs).To(Equal([]int64{1, 2, 3, 4, 5}))
	})

	It("should reject requests without an identity", func() {
		req := httptest.NewRequest(http.MethodGet, "/org-chart", nil).WithContext(context.Background())
		w := httptest.NewRecorder()

		handler.GetOrgChart(w, req)

		Expect(w.Code).To(Equal(http.StatusUnauthorized))
	})
})
