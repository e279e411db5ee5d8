package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jhoicas/demeter-inventario/internal/application/inventory"
	"github.com/jhoicas/demeter-inventario/internal/application/stockupdate"
	"github.com/jhoicas/demeter-inventario/internal/infrastructure/postgres"
)

var sessionCompanyID string

// processSessionCmd reaplica una sesión fotográfica completada. Es idempotente:
// una sesión con su FOTO ya registrado no escribe nada.
var processSessionCmd = &cobra.Command{
	Use:   "process-session <session-id>",
	Short: "Aplica el conteo de una sesión fotográfica al libro",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if sessionCompanyID == "" {
			return fmt.Errorf("--company es obligatorio")
		}
		ctx := cmd.Context()
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return err
		}
		defer pool.Close()

		txRunner := postgres.NewTxRunner(pool)
		engine := inventory.NewMovementEngine(txRunner, inventory.NopPublisher{}, log)
		orchestrator := stockupdate.NewOrchestrator(
			postgres.NewPhotoSessionRepository(pool),
			postgres.NewLocationConfigRepository(pool),
			txRunner,
			inventory.NewCycleManager(txRunner, engine, log),
			engine,
			log,
		)

		res, err := orchestrator.ProcessStockUpdate(ctx, sessionCompanyID, args[0])
		if err != nil {
			return err
		}
		if res.AlreadyProcessed {
			cmd.Println("sesión ya procesada, sin cambios")
			return nil
		}
		cmd.Printf("lotes creados: %d, ventas inferidas: %s\n", res.BatchesCreated, res.TotalSales.String())
		for _, id := range res.NewBatchIDs {
			cmd.Println("  lote", id)
		}
		return nil
	},
}

func init() {
	processSessionCmd.Flags().StringVar(&sessionCompanyID, "company", "", "ID de la empresa dueña de la sesión")
	rootCmd.AddCommand(processSessionCmd)
}
