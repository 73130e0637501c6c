package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var auditJSON bool

var auditCmd = &cobra.Command{
	Use:          "audit",
	Short:        "Scan reporting lines for cycles and level violations",
	Long:         `Report manager cycles, self-management, dangling manager references and edges where the manager does not outrank the subordinate. Fails when anything is found.`,
	RunE:         runAudit,
	SilenceUsage: true,
}

func init() {
	auditCmd.Flags().BoolVar(&auditJSON, "json", false, "print violations as JSON")
}

func runAudit(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	db, err := initDB(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	violations, err := newHierarchyService(cfg, db, nil).Audit(cmd.Context())
	if err != nil {
		return fmt.Errorf("audit failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if auditJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(violations); err != nil {
			return err
		}
	} else {
		for _, v := range violations {
			fmt.Fprintf(out, "%-18s user=%d %s\n", v.Kind, v.UserID, v.Detail)
		}
		fmt.Fprintf(out, "%d violation(s)\n", len(violations))
	}

	if len(violations) > 0 {
		return fmt.Errorf("hierarchy has %d violation(s)", len(violations))
	}
	return nil
}
