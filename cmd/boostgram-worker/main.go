// Boostgram Worker — выполняет задачи из pull-очереди.
//
// Worker:
//   - Захватывает батч задач атомарным claim с lease
//   - Выполняет действия через шлюз аккаунтов или SMM-провайдера
//   - Финализирует результаты: списание квот, retry, журнал
//
// Workers масштабируются горизонтально.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaiso/Boostgram/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "boostgram-worker",
		Short:         "Boostgram task execution worker",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		cli.NewWorkCmd(),
		cli.NewStatsCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
