// Command ledgerctl tareas operativas del libro de stock: migraciones,
// reproceso de sesiones fotográficas y tokens de servicio.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/jhoicas/demeter-inventario/pkg/config"
	"github.com/jhoicas/demeter-inventario/pkg/logger"
)

var (
	cfg *config.Config
	log *logger.Logger
)

var rootCmd = &cobra.Command{
	Use:          "ledgerctl",
	Short:        "Operaciones del libro de stock",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded
		log = logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Output: os.Stderr})
		return nil
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
