package cmd

import (
	"fmt"

	departmentDatamodel "github.com/frahmantamala/org-management/internal/core/datamodel/department"
	roleDatamodel "github.com/frahmantamala/org-management/internal/core/datamodel/role"
	userDatamodel "github.com/frahmantamala/org-management/internal/core/datamodel/user"
	"github.com/frahmantamala/org-management/internal/hierarchy"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const seedPassword = "password"

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed roles, departments and a sample reporting tree for development and testing purposes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		db, err := initDB(cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to init db: %w", err)
		}
		defer db.Close()

		gdb, err := initGorm(db)
		if err != nil {
			return err
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), cfg.Security.BCryptCost)
		if err != nil {
			return fmt.Errorf("failed to hash seed password: %w", err)
		}

		return gdb.WithContext(cmd.Context()).Transaction(func(tx *gorm.DB) error {
			if clearData {
				if err := clearSeedData(tx); err != nil {
					return err
				}
				fmt.Println("Cleared existing users, departments and roles")
			}
			return seed(tx, string(hash))
		})
	},
}

type seedUser struct {
	email, name, position, role, department, manager string
}

var (
	seedRoles = []roleDatamodel.Role{
		{Name: "CEO", Level: 100, Description: "Chief executive"},
		{Name: "Admin", Level: 95, Description: "Organization administrator"},
		{Name: "Director", Level: 90, Description: "Department director"},
		{Name: "Manager", Level: 50, Description: "Team manager"},
		{Name: "Employee", Level: 10, Description: "Individual contributor"},
	}

	seedDepartments = []departmentDatamodel.Department{
		{Name: "Executive", Description: "Leadership", IsActive: true},
		{Name: "Engineering", Description: "Product engineering", IsActive: true},
		{Name: "Operations", Description: "Business operations", IsActive: true},
	}

	// managers are listed before their reports
	seedUsers = []seedUser{
		{"ceo@example.com", "Cora Chen", "Chief Executive Officer", "CEO", "Executive", ""},
		{"admin@example.com", "Adrian Park", "People Operations", "Admin", "Executive", "ceo@example.com"},
		{"eng.director@example.com", "Dana Reyes", "Director of Engineering", "Director", "Engineering", "ceo@example.com"},
		{"ops.director@example.com", "Omar Haddad", "Director of Operations", "Director", "Operations", "ceo@example.com"},
		{"platform.lead@example.com", "Mina Sato", "Platform Lead", "Manager", "Engineering", "eng.director@example.com"},
		{"product.lead@example.com", "Leo Moretti", "Product Engineering Lead", "Manager", "Engineering", "eng.director@example.com"},
		{"support.lead@example.com", "Priya Nair", "Support Lead", "Manager", "Operations", "ops.director@example.com"},
		{"alice@example.com", "Alice Novak", "Backend Engineer", "Employee", "Engineering", "platform.lead@example.com"},
		{"bob@example.com", "Bob Okafor", "SRE", "Employee", "Engineering", "platform.lead@example.com"},
		{"carol@example.com", "Carol Jensen", "Frontend Engineer", "Employee", "Engineering", "product.lead@example.com"},
		{"dave@example.com", "Dave Kim", "Support Specialist", "Employee", "Operations", "support.lead@example.com"},
	}
)

func seed(tx *gorm.DB, passwordHash string) error {
	roleIDs := make(map[string]int64, len(seedRoles))
	for _, r := range seedRoles {
		row := r
		if err := tx.Where(roleDatamodel.Role{Name: r.Name}).Attrs(row).FirstOrCreate(&row).Error; err != nil {
			return fmt.Errorf("failed to seed role %s: %w", r.Name, err)
		}
		roleIDs[r.Name] = row.ID
	}
	fmt.Println("Seeded roles:", len(roleIDs))

	departmentIDs := make(map[string]int64, len(seedDepartments))
	for _, d := range seedDepartments {
		row := d
		if err := tx.Where(departmentDatamodel.Department{Name: d.Name}).Attrs(row).FirstOrCreate(&row).Error; err != nil {
			return fmt.Errorf("failed to seed department %s: %w", d.Name, err)
		}
		departmentIDs[d.Name] = row.ID
	}
	fmt.Println("Seeded departments:", len(departmentIDs))

	userIDs := make(map[string]int64, len(seedUsers))
	for _, su := range seedUsers {
		deptID := departmentIDs[su.department]
		row := userDatamodel.User{
			Email:        su.email,
			Name:         su.name,
			Position:     su.position,
			PasswordHash: passwordHash,
			RoleID:       roleIDs[su.role],
			DepartmentID: &deptID,
			Status:       hierarchy.StatusActive,
		}
		if su.manager != "" {
			managerID, ok := userIDs[su.manager]
			if !ok {
				return fmt.Errorf("seed manager %s must be listed before %s", su.manager, su.email)
			}
			row.ManagerID = &managerID
		}

		if err := tx.Where(userDatamodel.User{Email: su.email}).Attrs(row).FirstOrCreate(&row).Error; err != nil {
			return fmt.Errorf("failed to seed user %s: %w", su.email, err)
		}
		userIDs[su.email] = row.ID
	}
	fmt.Printf("Seeded %d users (password %q)\n", len(userIDs), seedPassword)

	return nil
}

func clearSeedData(tx *gorm.DB) error {
	for _, model := range []interface{}{&userDatamodel.User{}, &departmentDatamodel.Department{}, &roleDatamodel.Role{}} {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
			return fmt.Errorf("failed to clear %T: %w", model, err)
		}
	}
	return nil
}
