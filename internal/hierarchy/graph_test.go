package hierarchy_test

import (
	"github.com/frahmantamala/org-management/internal/hierarchy"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Graph", func() {
	var g *hierarchy.Graph

	BeforeEach(func() {
		g = hierarchy.NewGraph(scenarioLinks())
	})

	Describe("AncestorChain", func() {
		It("should walk up to the root nearest manager first", func() {
			chain, cycle := g.AncestorChain(empID, ptr(mgrID))
			Expect(cycle).To(BeFalse())
			Expect(chain).To(Equal([]int64{mgrID, dirID, ceoID}))
		})

		It("should return nothing for a root", func() {
			chain, cycle := g.AncestorChain(ceoID, nil)
			Expect(cycle).To(BeFalse())
			Expect(chain).To(BeEmpty())
		})

		It("should walk through inactive managers", func() {
			chain, _ := g.AncestorChain(emp3, ptr(mgr2))
			Expect(chain).To(Equal([]int64{mgr2, dirID, ceoID}))
		})

		It("should stop on a cycle and report it", func() {
			cyclic := hierarchy.NewGraph([]hierarchy.Link{
				active(10, ptr(11), 10),
				active(11, ptr(12), 20),
				active(12, ptr(11), 30),
			})
			chain, cycle := cyclic.AncestorChain(10, ptr(11))
			Expect(cycle).To(BeTrue())
			Expect(chain).To(Equal([]int64{11, 12}))
		})

		It("should stop when the walk returns to the origin", func() {
			cyclic := hierarchy.NewGraph([]hierarchy.Link{
				active(10, ptr(11), 10),
				active(11, ptr(10), 20),
			})
			chain, cycle := cyclic.AncestorChain(10, ptr(11))
			Expect(cycle).To(BeTrue())
			Expect(chain).To(Equal([]int64{11}))
		})
	})

	Describe("Peers", func() {
		It("should be symmetric between reports of the same manager", func() {
			Expect(g.Peers(empID, ptr(mgrID))).To(ConsistOf(emp2))
			Expect(g.Peers(emp2, ptr(mgrID))).To(ConsistOf(empID))
		})

		It("should exclude inactive siblings", func() {
			Expect(g.Peers(mgrID, ptr(dirID))).To(BeEmpty())
		})

		It("should be empty without a manager", func() {
			Expect(g.Peers(ceoID, nil)).To(BeEmpty())
		})
	})

	Describe("Descendants", func() {
		It("should collect active reports transitively", func() {
			desc, cycle := g.Descendants(dirID)
			Expect(cycle).To(BeFalse())
			Expect(desc.Slice()).To(Equal([]int64{mgrID, empID, emp2}))
		})

		It("should not include the user itself", func() {
			desc, _ := g.Descendants(ceoID)
			Expect(desc.Has(ceoID)).To(BeFalse())
			Expect(desc.Len()).To(Equal(4))
		})

		It("should prune subtrees under inactive users", func() {
			desc, _ := g.Descendants(dirID)
			Expect(desc.Has(mgr2)).To(BeFalse())
			Expect(desc.Has(emp3)).To(BeFalse())
		})

		It("should terminate on a cycle", func() {
			cyclic := hierarchy.NewGraph([]hierarchy.Link{
				active(10, ptr(12), 30),
				active(11, ptr(10), 20),
				active(12, ptr(11), 10),
			})
			desc, cycle := cyclic.Descendants(10)
			Expect(cycle).To(BeTrue())
			Expect(desc.Slice()).To(Equal([]int64{11, 12}))
		})
	})

	Describe("ReachesUp", func() {
		It("should find a subordinate above the candidate manager", func() {
			found, corrupt := g.ReachesUp(empID, dirID)
			Expect(found).To(BeTrue())
			Expect(corrupt).To(BeFalse())
		})

		It("should not find unrelated users", func() {
			found, _ := g.ReachesUp(dirID, empID)
			Expect(found).To(BeFalse())
		})

		It("should flag a pre-existing cycle that excludes the target", func() {
			cyclic := hierarchy.NewGraph([]hierarchy.Link{
				active(10, ptr(11), 10),
				active(11, ptr(10), 20),
				active(12, nil, 30),
			})
			found, corrupt := cyclic.ReachesUp(10, 12)
			Expect(found).To(BeFalse())
			Expect(corrupt).To(BeTrue())
		})
	})

	Describe("Depth", func() {
		It("should count managers above a user", func() {
			Expect(g.Depth(ceoID)).To(Equal(0))
			Expect(g.Depth(empID)).To(Equal(3))
		})
	})

	Describe("Audit", func() {
		It("should report nothing for a clean tree", func() {
			clean := hierarchy.NewGraph(scenarioLinks()[:5])
			Expect(clean.Audit()).To(BeEmpty())
		})

		It("should report each kind of violation", func() {
			broken := hierarchy.NewGraph([]hierarchy.Link{
				active(1, nil, 100),
				active(2, ptr(1), 100),
				active(3, ptr(3), 10),
				active(4, ptr(99), 10),
				active(5, ptr(6), 20),
				active(6, ptr(5), 10),
			})

			kinds := map[int64][]hierarchy.ViolationKind{}
			for _, v := range broken.Audit() {
				kinds[v.UserID] = append(kinds[v.UserID], v.Kind)
			}

			Expect(kinds[2]).To(ConsistOf(hierarchy.ViolationLevelOrdering))
			Expect(kinds[3]).To(ConsistOf(hierarchy.ViolationSelfManaged))
			Expect(kinds[4]).To(ConsistOf(hierarchy.ViolationDanglingRef))
			Expect(kinds[5]).To(ConsistOf(hierarchy.ViolationCycle, hierarchy.ViolationLevelOrdering))
			Expect(kinds).NotTo(HaveKey(int64(1)))
		})
	})
})

var _ = Describe("AdminPolicy", func() {
	It("should default to CEO and Admin", func() {
		p := hierarchy.NewAdminPolicy()
		Expect(p.IsOrganizationAdmin("CEO")).To(BeTrue())
		Expect(p.IsOrganizationAdmin("Admin")).To(BeTrue())
		Expect(p.IsOrganizationAdmin("Manager")).To(BeFalse())
	})

	It("should ignore case and surrounding spaces", func() {
		p := hierarchy.NewAdminPolicy()
		Expect(p.IsOrganizationAdmin(" ceo ")).To(BeTrue())
	})

	It("should honour a configured role set", func() {
		p := hierarchy.NewAdminPolicy("HR Director")
		Expect(p.IsOrganizationAdmin("hr director")).To(BeTrue())
		Expect(p.IsOrganizationAdmin("CEO")).To(BeFalse())
	})

	It("should fall back to the defaults on a zero value", func() {
		var p hierarchy.AdminPolicy
		Expect(p.IsOrganizationAdmin("Admin")).To(BeTrue())
	})
})

var _ = Describe("Graph Subtree", func() {
	It("should include reports under inactive users", func() {
		g := hierarchy.NewGraph(scenarioLinks())
		Expect(g.Subtree(dirID).Slice()).To(Equal([]int64{mgrID, empID, emp2, mgr2, emp3}))
		Expect(g.Subtree(empID).Len()).To(BeZero())
	})

	It("should terminate on a cycle and skip unrelated loops", func() {
		g := hierarchy.NewGraph([]hierarchy.Link{
			active(10, ptr(12), 30),
			active(11, ptr(10), 20),
			active(12, ptr(11), 10),
			active(13, ptr(12), 5),
			active(20, ptr(21), 10),
			active(21, ptr(20), 10),
		})
		Expect(g.Subtree(10).Slice()).To(Equal([]int64{11, 12, 13}))
		Expect(g.Subtree(13).Len()).To(BeZero())
	})
})
