package migrate

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"go-domain-routing-service/internal/config"
	"go-domain-routing-service/internal/database"
	"go-domain-routing-service/internal/domain"
	"go-domain-routing-service/internal/tools/common"
	"go-domain-routing-service/internal/tools/ui"
)

type options struct {
	ci      bool
	timeout time.Duration
	envFile string
}

func NewRootCommand() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:          "migrate",
		Short:        "Manage the domain routing schema",
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVar(&opts.ci, "ci", false, "print a single JSON result instead of the interactive UI")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 2*time.Minute, "per-command timeout")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file to load before reading configuration")

	root.AddCommand(newUpCommand(opts))
	root.AddCommand(newStatusCommand(opts))
	root.AddCommand(newPlanCommand(opts))
	return root
}

func newUpCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := run(opts, "Apply migrations", "up", func(ctx context.Context) ([]string, error) {
				_, db, err := loadConfigDB(opts.envFile)
				if err != nil {
					return nil, err
				}
				if err := database.Migrate(db); err != nil {
					return nil, err
				}
				return []string{"schema up to date"}, nil
			})
			return err
		},
	}
}

func newStatusCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report which managed tables exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := run(opts, "Migration status", "status", func(ctx context.Context) ([]string, error) {
				_, db, err := loadConfigDB(opts.envFile)
				if err != nil {
					return nil, err
				}
				return tableStatus(db), nil
			})
			return err
		},
	}
}

func newPlanCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "List tables that would be created or altered",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := run(opts, "Migration plan", "plan", func(ctx context.Context) ([]string, error) {
				_, db, err := loadConfigDB(opts.envFile)
				if err != nil {
					return nil, err
				}
				migrator := db.Migrator()
				var pending []string
				for name, model := range managedModels {
					if !migrator.HasTable(model) {
						pending = append(pending, fmt.Sprintf("create table %s", name))
					}
				}
				if len(pending) == 0 {
					pending = append(pending, "no pending changes")
				}
				return pending, nil
			})
			return err
		},
	}
}

func tableStatus(db *gorm.DB) []string {
	migrator := db.Migrator()
	status := make([]string, 0, len(managedModels))
	for name, model := range managedModels {
		if migrator.HasTable(model) {
			status = append(status, fmt.Sprintf("%s: present", name))
		} else {
			status = append(status, fmt.Sprintf("%s: missing", name))
		}
	}
	return status
}

var managedModels = map[string]any{
	"domain_records":   &domain.DomainRecord{},
	"domain_feedbacks": &domain.DomainFeedback{},
}

func run(opts *options, title, action string, fn ui.Action) ([]string, error) {
	wrapped := func(ctx context.Context) ([]string, error) {
		ctx, cancel := context.WithTimeout(ctx, opts.timeout)
		defer cancel()
		return fn(ctx)
	}
	if opts.ci {
		details, err := wrapped(context.Background())
		common.PrintCIResult(err == nil, title, details, err)
		return details, err
	}
	_ = action
	return ui.Run(title, wrapped)
}

func loadConfigDB(envFile string) (*config.Config, *gorm.DB, error) {
	if err := common.LoadEnvFile(envFile); err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	db, err := database.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}
