package orgchart

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("depth", func() {
	It("should count nodes on the longest chain", func() {
		// 1 <- 2 <- 3 <- 4, 1 <- 5
		Expect(depth(map[int64]int64{2: 1, 3: 2, 4: 3, 5: 1})).To(Equal(4))
	})

	It("should be zero without any reporting line", func() {
		Expect(depth(map[int64]int64{})).To(BeZero())
	})

	It("should stop at a loop", func() {
		// 1 -> 2 -> 3 -> 1, 4 -> 1
		Expect(depth(map[int64]int64{1: 2, 2: 3, 3: 1, 4: 1})).To(BeNumerically("<=", 4))
	})
})
