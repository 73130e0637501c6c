package hierarchy_test

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/frahmantamala/org-management/internal"
	"github.com/frahmantamala/org-management/internal/hierarchy"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Hierarchy Service", func() {
	var (
		ctx     context.Context
		repo    *fakeRepository
		service *hierarchy.Service
		logger  *slog.Logger
	)

	newService := func(opts hierarchy.Options) *hierarchy.Service {
		return hierarchy.NewService(repo, hierarchy.NewAdminPolicy(), opts, logger)
	}

	requester := func(id int64, managerID *int64, role string) hierarchy.Requester {
		return hierarchy.Requester{ID: id, ManagerID: managerID, RoleName: role}
	}

	BeforeEach(func() {
		ctx = context.Background()
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
		repo = &fakeRepository{links: scenarioLinks()}
		service = newService(hierarchy.Options{})
	})

	Describe("ResolveVisibleUserIDs", func() {
		It("should show an employee self, ancestors and peers", func() {
			visible, err := service.ResolveVisibleUserIDs(ctx, requester(empID, ptr(mgrID), "Employee"))
			Expect(err).NotTo(HaveOccurred())
			Expect(visible.Slice()).To(Equal([]int64{ceoID, dirID, mgrID, empID, emp2}))
		})

		It("should show a manager self, ancestors and descendants", func() {
			visible, err := service.ResolveVisibleUserIDs(ctx, requester(mgrID, ptr(dirID), "Manager"))
			Expect(err).NotTo(HaveOccurred())
			Expect(visible.Slice()).To(Equal([]int64{ceoID, dirID, mgrID, empID, emp2}))
		})

		It("should skip inactive ancestors but keep walking past them", func() {
			visible, err := service.ResolveVisibleUserIDs(ctx, requester(emp3, ptr(mgr2), "Employee"))
			Expect(err).NotTo(HaveOccurred())
			Expect(visible.Has(mgr2)).To(BeFalse())
			Expect(visible.Slice()).To(Equal([]int64{ceoID, dirID, emp3}))
		})

		It("should always include the requester", func() {
			repo.links = nil
			visible, err := service.ResolveVisibleUserIDs(ctx, requester(42, nil, "Employee"))
			Expect(err).NotTo(HaveOccurred())
			Expect(visible.Slice()).To(Equal([]int64{42}))
		})

		It("should return every active user to an admin", func() {
			visible, err := service.ResolveVisibleUserIDs(ctx, requester(ceoID, nil, "CEO"))
			Expect(err).NotTo(HaveOccurred())
			Expect(visible.Slice()).To(Equal([]int64{ceoID, dirID, mgrID, empID, emp2, emp3}))
			Expect(repo.linkCalls).To(BeZero())
		})

		It("should not depend on the admin batch size", func() {
			expected := []int64{ceoID, dirID, mgrID, empID, emp2, emp3}
			for _, size := range []int{1, 2, 5, 6, 1000} {
				repo.batchCalls = 0
				svc := newService(hierarchy.Options{AdminBatchSize: size})
				visible, err := svc.ResolveVisibleUserIDs(ctx, requester(ceoID, nil, "Admin"))
				Expect(err).NotTo(HaveOccurred())
				Expect(visible.Slice()).To(Equal(expected), "batch size %d", size)
				Expect(repo.batchCalls).To(Equal(len(expected)/size+1), "batch size %d", size)
			}
		})

		It("should be idempotent", func() {
			req := requester(mgrID, ptr(dirID), "Manager")
			first, err := service.ResolveVisibleUserIDs(ctx, req)
			Expect(err).NotTo(HaveOccurred())
			second, err := service.ResolveVisibleUserIDs(ctx, req)
			Expect(err).NotTo(HaveOccurred())
			Expect(second).To(Equal(first))
		})

		It("should contain every descendant of a visible manager", func() {
			visible, err := service.ResolveVisibleUserIDs(ctx, requester(dirID, ptr(ceoID), "Director"))
			Expect(err).NotTo(HaveOccurred())
			desc, err := service.StrictDescendants(ctx, mgrID)
			Expect(err).NotTo(HaveOccurred())
			for id := range desc {
				Expect(visible.Has(id)).To(BeTrue())
			}
		})

		It("should propagate store errors", func() {
			repo.failWith = errStore
			_, err := service.ResolveVisibleUserIDs(ctx, requester(empID, ptr(mgrID), "Employee"))
			Expect(errors.Is(err, errStore)).To(BeTrue())

			_, err = service.ResolveVisibleUserIDs(ctx, requester(ceoID, nil, "CEO"))
			Expect(errors.Is(err, errStore)).To(BeTrue())
		})

		Context("when the stored reporting lines contain a cycle", func() {
			BeforeEach(func() {
				repo.links = []hierarchy.Link{
					active(10, ptr(11), 10),
					active(11, ptr(12), 20),
					active(12, ptr(11), 30),
				}
			})

			It("should truncate the walk by default", func() {
				visible, err := service.ResolveVisibleUserIDs(ctx, requester(10, ptr(11), "Employee"))
				Expect(err).NotTo(HaveOccurred())
				Expect(visible.Slice()).To(Equal([]int64{10, 11, 12}))
			})

			It("should fail in strict mode", func() {
				strict := newService(hierarchy.Options{StrictCycleCheck: true})
				_, err := strict.ResolveVisibleUserIDs(ctx, requester(10, ptr(11), "Employee"))
				Expect(errors.Is(err, internal.ErrCorruptHierarchy)).To(BeTrue())
			})
		})
	})

	Describe("ComputeManageable", func() {
		It("should mark nothing manageable for an employee", func() {
			req := requester(empID, ptr(mgrID), "Employee")
			visible, err := service.ResolveVisibleUserIDs(ctx, req)
			Expect(err).NotTo(HaveOccurred())

			manageable, err := service.ComputeManageable(ctx, req, visible)
			Expect(err).NotTo(HaveOccurred())
			Expect(manageable).To(HaveLen(5))
			for id, ok := range manageable {
				Expect(ok).To(BeFalse(), "user %d", id)
			}
		})

		It("should mark only descendants manageable for a manager", func() {
			req := requester(mgrID, ptr(dirID), "Manager")
			visible, err := service.ResolveVisibleUserIDs(ctx, req)
			Expect(err).NotTo(HaveOccurred())

			manageable, err := service.ComputeManageable(ctx, req, visible)
			Expect(err).NotTo(HaveOccurred())
			Expect(manageable).To(Equal(map[int64]bool{
				empID: true, emp2: true,
				mgrID: false, dirID: false, ceoID: false,
			}))
		})

		It("should let an admin manage everyone but themselves", func() {
			req := requester(ceoID, nil, "CEO")
			visible := hierarchy.NewIDSet(ceoID, dirID, empID)

			manageable, err := service.ComputeManageable(ctx, req, visible)
			Expect(err).NotTo(HaveOccurred())
			Expect(manageable).To(Equal(map[int64]bool{ceoID: false, dirID: true, empID: true}))
		})

		It("should never mark an ancestor manageable", func() {
			req := requester(empID, ptr(mgrID), "Employee")
			manageable, err := service.ComputeManageable(ctx, req, hierarchy.NewIDSet(mgrID, dirID, ceoID))
			Expect(err).NotTo(HaveOccurred())
			Expect(manageable).To(HaveEach(BeFalse()))
		})
	})

	Describe("Resolve", func() {
		It("should agree with the separate calls", func() {
			req := requester(dirID, ptr(ceoID), "Director")
			visible, err := service.ResolveVisibleUserIDs(ctx, req)
			Expect(err).NotTo(HaveOccurred())
			manageable, err := service.ComputeManageable(ctx, req, visible)
			Expect(err).NotTo(HaveOccurred())

			v, err := service.Resolve(ctx, req)
			Expect(err).NotTo(HaveOccurred())
			Expect(v.Admin).To(BeFalse())
			Expect(v.Visible).To(Equal(visible))
			Expect(v.Manageable).To(Equal(manageable))
			Expect(v.ManageableCount()).To(Equal(3))
		})

		It("should flag admins", func() {
			v, err := service.Resolve(ctx, requester(ceoID, nil, "admin"))
			Expect(err).NotTo(HaveOccurred())
			Expect(v.Admin).To(BeTrue())
			Expect(v.ManageableCount()).To(Equal(v.Visible.Len() - 1))
		})
	})

	Describe("WouldCreateCircularReporting", func() {
		It("should reject self management", func() {
			cycle, err := service.WouldCreateCircularReporting(ctx, empID, empID)
			Expect(err).NotTo(HaveOccurred())
			Expect(cycle).To(BeTrue())
		})

		It("should reject making a descendant the manager", func() {
			cycle, err := service.WouldCreateCircularReporting(ctx, dirID, empID)
			Expect(err).NotTo(HaveOccurred())
			Expect(cycle).To(BeTrue())
		})

		It("should see through inactive users", func() {
			cycle, err := service.WouldCreateCircularReporting(ctx, mgr2, emp3)
			Expect(err).NotTo(HaveOccurred())
			Expect(cycle).To(BeTrue())
		})

		It("should allow a valid move", func() {
			cycle, err := service.WouldCreateCircularReporting(ctx, empID, dirID)
			Expect(err).NotTo(HaveOccurred())
			Expect(cycle).To(BeFalse())
		})

		It("should terminate on an unrelated pre-existing cycle", func() {
			repo.links = append(repo.links, active(20, ptr(21), 10), active(21, ptr(20), 20))
			cycle, err := service.WouldCreateCircularReporting(ctx, empID, 20)
			Expect(err).NotTo(HaveOccurred())
			Expect(cycle).To(BeFalse())

			strict := newService(hierarchy.Options{StrictCycleCheck: true})
			_, err = strict.WouldCreateCircularReporting(ctx, empID, 20)
			Expect(errors.Is(err, internal.ErrCorruptHierarchy)).To(BeTrue())
		})
	})

	Describe("Audit", func() {
		It("should report nothing for the sample org", func() {
			violations, err := service.Audit(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(violations).To(BeEmpty())
		})

		It("should propagate store errors", func() {
			repo.failWith = errStore
			_, err := service.Audit(ctx)
			Expect(err).To(MatchError(ContainSubstring("connection refused")))
		})
	})
})
