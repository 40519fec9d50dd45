package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/shaiso/Boostgram/internal/config"
	"github.com/shaiso/Boostgram/internal/domain"
	"github.com/shaiso/Boostgram/internal/repo"
)

// NewStatsCmd создаёт команду вывода глубины очереди по статусам.
func NewStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show queue depth by task status",
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			pool, err := repo.NewPool(ctx, cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer pool.Close()

			tasks := repo.NewTaskRepo(pool)
			statuses := []domain.TaskStatus{
				domain.TaskStatusPending,
				domain.TaskStatusLeased,
				domain.TaskStatusDone,
				domain.TaskStatusFailed,
			}

			for _, st := range statuses {
				count, err := tasks.CountByStatus(ctx, st)
				if err != nil {
					return fmt.Errorf("count %s tasks: %w", st, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-10s %d\n", st, count)
			}
			return nil
		},
	}
}
