package orgchart_test

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/frahmantamala/org-management/internal/hierarchy"
	"github.com/frahmantamala/org-management/internal/orgchart"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Org Chart Service", func() {
	var (
		ctx     context.Context
		dir     *Directory
		service *orgchart.Service
	)

	requester := func(id int64, role string) hierarchy.Requester {
		for _, u := range dir.users {
			if u.ID == id {
				return hierarchy.Requester{ID: id, ManagerID: u.ManagerID, RoleName: role}
			}
		}
		Fail("unknown requester")
		return hierarchy.Requester{}
	}

	nodeByID := func(chart *orgchart.Chart, id string) orgchart.Node {
		for _, n := range chart.Nodes {
			if n.ID == id {
				return n
			}
		}
		Fail("node " + id + " not in chart")
		return orgchart.Node{}
	}

	BeforeEach(func() {
		ctx = context.Background()
		dir = scenario()
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		h := hierarchy.NewService(dir, hierarchy.NewAdminPolicy(), hierarchy.Options{}, logger)
		service = orgchart.NewService(h, dir, departments(), 2, logger)
	})

	Context("for a manager", func() {
		var chart *orgchart.Chart

		BeforeEach(func() {
			var err error
			chart, err = service.Build(ctx, requester(mgrID, "Manager"))
			Expect(err).NotTo(HaveOccurred())
		})

		It("should project the visible users as employee nodes", func() {
			ids := make([]string, 0, len(chart.Nodes))
			for _, n := range chart.Nodes {
				Expect(n.Type).To(Equal(orgchart.NodeTypeEmployee))
				ids = append(ids, n.ID)
			}
			Expect(ids).To(ConsistOf("1", "2", "3", "4", "5"))
		})

		It("should draw an edge for every visible manager", func() {
			Expect(chart.Edges).To(ConsistOf(
				orgchart.Edge{ID: "e1-2", Source: "1", Target: "2"},
				orgchart.Edge{ID: "e2-3", Source: "2", Target: "3"},
				orgchart.Edge{ID: "e3-4", Source: "3", Target: "4"},
				orgchart.Edge{ID: "e3-5", Source: "3", Target: "5"},
			))
		})

		It("should mark only strict descendants as manageable", func() {
			Expect(nodeByID(chart, "4").Data.CanManage).To(BeTrue())
			Expect(nodeByID(chart, "5").Data.CanManage).To(BeTrue())
			Expect(nodeByID(chart, "3").Data.CanManage).To(BeFalse())
			Expect(nodeByID(chart, "2").Data.CanManage).To(BeFalse())
			Expect(nodeByID(chart, "1").Data.CanManage).To(BeFalse())
		})

		It("should fill node details", func() {
			self := nodeByID(chart, "3")
			Expect(self.Data.IsCurrentUser).To(BeTrue())
			Expect(self.Data.IsAdmin).To(BeFalse())
			Expect(self.Data.Role).To(Equal("Manager"))
			Expect(self.Data.RoleLevel).To(Equal(50))
			Expect(self.Data.Department).To(Equal("Engineering"))
			Expect(self.Data.TeamSize).To(Equal(2))

			Expect(nodeByID(chart, "2").Data.TeamSize).To(Equal(1))
		})

		It("should compute stats", func() {
			Expect(chart.Stats).To(Equal(orgchart.Stats{
				TotalVisible:  5,
				Manageable:    2,
				DirectReports: 2,
				Departments:   2,
				Depth:         4,
			}))
		})

		It("should lay out one row per role level, highest first", func() {
			Expect(nodeByID(chart, "1").Position.Y).To(BeNumerically("==", 0))
			Expect(nodeByID(chart, "2").Position.Y).To(BeNumerically("==", 150))
			Expect(nodeByID(chart, "3").Position.Y).To(BeNumerically("==", 300))

			ed, eve := nodeByID(chart, "5"), nodeByID(chart, "4")
			Expect(ed.Position.Y).To(Equal(eve.Position.Y))
			Expect(ed.Position.X).To(BeNumerically("<", eve.Position.X))
		})
	})

	Context("for an employee", func() {
		It("should see the chain and peers but manage nobody", func() {
			chart, err := service.Build(ctx, requester(empID, "Employee"))
			Expect(err).NotTo(HaveOccurred())
			Expect(chart.Nodes).To(HaveLen(5))
			Expect(chart.Stats.Manageable).To(BeZero())
			Expect(chart.Stats.DirectReports).To(BeZero())
			for _, n := range chart.Nodes {
				Expect(n.Data.CanManage).To(BeFalse())
			}
		})
	})

	Context("for an admin", func() {
		It("should see every active user and manage everyone else", func() {
			chart, err := service.Build(ctx, requester(ceoID, "CEO"))
			Expect(err).NotTo(HaveOccurred())
			Expect(chart.Nodes).To(HaveLen(6))
			Expect(chart.Stats.Manageable).To(Equal(5))
			Expect(nodeByID(chart, "1").Data.IsAdmin).To(BeTrue())
			Expect(nodeByID(chart, "1").Data.CanManage).To(BeFalse())

			orphan := nodeByID(chart, "7")
			Expect(orphan.Data.ManagerID).To(HaveValue(Equal(mgr2)))
			for _, e := range chart.Edges {
				Expect(e.Target).NotTo(Equal("7"))
			}
		})

		It("should load details in batches", func() {
			_, err := service.Build(ctx, requester(ceoID, "CEO"))
			Expect(err).NotTo(HaveOccurred())
			Expect(dir.listCalls).To(Equal(3))
		})
	})

	It("should return the sorted visible ids", func() {
		ids, err := service.VisibleUserIDs(ctx, requester(empID, "Employee"))
		Expect(err).NotTo(HaveOccurred())
		Expect(ids).To(Equal([]int64{ceoID, dirID, mgrID, empID, emp2}))
	})

	It("should surface detail load failures", func() {
		dir.failWith = errors.New("connection reset")
		_, err := service.Build(ctx, requester(mgrID, "Manager"))
		Expect(err).To(MatchError(ContainSubstring("connection reset")))
	})
})
