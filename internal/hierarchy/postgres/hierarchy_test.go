package postgres_test

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	departmentDatamodel "github.com/frahmantamala/org-management/internal/core/datamodel/department"
	roleDatamodel "github.com/frahmantamala/org-management/internal/core/datamodel/role"
	userDatamodel "github.com/frahmantamala/org-management/internal/core/datamodel/user"
	"github.com/frahmantamala/org-management/internal/hierarchy"
	hierarchyPostgres "github.com/frahmantamala/org-management/internal/hierarchy/postgres"
	"github.com/jmoiron/sqlx"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestHierarchyPostgres(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Hierarchy Postgres Suite")
}

var _ = Describe("Hierarchy Repository", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Context("against an in-memory database", func() {
		var (
			gormDB *gorm.DB
			repo   *hierarchyPostgres.HierarchyRepository
		)

		createUser := func(email string, roleID int64, managerID *int64, status string) int64 {
			u := &userDatamodel.User{Email: email, Name: email, RoleID: roleID, ManagerID: managerID, Status: status}
			Expect(gormDB.Create(u).Error).NotTo(HaveOccurred())
			return u.ID
		}

		BeforeEach(func() {
			var err error
			gormDB, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
				Logger: logger.Default.LogMode(logger.Silent),
			})
			Expect(err).NotTo(HaveOccurred())

			sqlDB, err := gormDB.DB()
			Expect(err).NotTo(HaveOccurred())
			sqlDB.SetMaxOpenConns(1)

			Expect(gormDB.AutoMigrate(&roleDatamodel.Role{}, &departmentDatamodel.Department{}, &userDatamodel.User{})).To(Succeed())
			repo = hierarchyPostgres.NewHierarchyRepository(sqlx.NewDb(sqlDB, "sqlite3"))
		})

		It("should page active ids in ascending order", func() {
			role := &roleDatamodel.Role{Name: "Employee", Level: 10}
			Expect(gormDB.Create(role).Error).NotTo(HaveOccurred())

			a := createUser("a@example.com", role.ID, nil, hierarchy.StatusActive)
			createUser("b@example.com", role.ID, nil, hierarchy.StatusPending)
			c := createUser("c@example.com", role.ID, nil, hierarchy.StatusActive)
			d := createUser("d@example.com", role.ID, nil, hierarchy.StatusActive)

			first, err := repo.ListActiveIDsAfter(ctx, 0, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(first).To(Equal([]int64{a, c}))

			second, err := repo.ListActiveIDsAfter(ctx, c, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(second).To(Equal([]int64{d}))
		})

		It("should load links with role levels", func() {
			ceo := &roleDatamodel.Role{Name: "CEO", Level: 100}
			emp := &roleDatamodel.Role{Name: "Employee", Level: 10}
			Expect(gormDB.Create(ceo).Error).NotTo(HaveOccurred())
			Expect(gormDB.Create(emp).Error).NotTo(HaveOccurred())

			root := createUser("ceo@example.com", ceo.ID, nil, hierarchy.StatusActive)
			leaf := createUser("e@example.com", emp.ID, &root, hierarchy.StatusInactive)

			links, err := repo.ListLinks(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(links).To(ConsistOf(
				hierarchy.Link{ID: root, Status: hierarchy.StatusActive, RoleLevel: 100},
				hierarchy.Link{ID: leaf, ManagerID: &root, Status: hierarchy.StatusInactive, RoleLevel: 10},
			))
		})
	})

	Context("with a mocked connection", func() {
		var (
			mock sqlmock.Sqlmock
			repo *hierarchyPostgres.HierarchyRepository
		)

		BeforeEach(func() {
			mockDB, m, err := sqlmock.New()
			Expect(err).NotTo(HaveOccurred())
			mock = m
			repo = hierarchyPostgres.NewHierarchyRepository(sqlx.NewDb(mockDB, "sqlmock"))
		})

		AfterEach(func() {
			Expect(mock.ExpectationsWereMet()).To(Succeed())
		})

		It("should pass the cursor and limit", func() {
			mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM users WHERE status = ? AND id > ? ORDER BY id ASC LIMIT ?")).
				WithArgs(hierarchy.StatusActive, int64(1000), 500).
				WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1001).AddRow(1002))

			ids, err := repo.ListActiveIDsAfter(ctx, 1000, 500)
			Expect(err).NotTo(HaveOccurred())
			Expect(ids).To(Equal([]int64{1001, 1002}))
		})

		It("should scan nullable managers", func() {
			mock.ExpectQuery("SELECT u.id, u.manager_id, u.status").
				WillReturnRows(sqlmock.NewRows([]string{"id", "manager_id", "status", "role_level"}).
					AddRow(1, nil, "ACTIVE", 100).
					AddRow(2, 1, "ACTIVE", 50))

			links, err := repo.ListLinks(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(links).To(HaveLen(2))
			Expect(links[0].ManagerID).To(BeNil())
			Expect(*links[1].ManagerID).To(Equal(int64(1)))
		})

		It("should wrap query errors", func() {
			mock.ExpectQuery("SELECT u.id").WillReturnError(errors.New("connection reset"))

			_, err := repo.ListLinks(ctx)
			Expect(err).To(MatchError(ContainSubstring("select reporting lines")))
			Expect(err).To(MatchError(ContainSubstring("connection reset")))
		})
	})
})
