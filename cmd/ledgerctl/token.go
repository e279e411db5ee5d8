package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jhoicas/demeter-inventario/internal/domain/entity"
	pkgjwt "github.com/jhoicas/demeter-inventario/pkg/jwt"
)

var (
	tokenUserID    string
	tokenCompanyID string
	tokenRole      string
	tokenMinutes   int
)

// tokenCmd emite un Bearer para los módulos que llaman a los callbacks (rol system).
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Genera un JWT firmado con JWT_SECRET",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.JWT.Secret == "" {
			return fmt.Errorf("JWT_SECRET es obligatorio")
		}
		if tokenUserID == "" || tokenCompanyID == "" {
			return fmt.Errorf("--user y --company son obligatorios")
		}
		minutes := tokenMinutes
		if minutes <= 0 {
			minutes = cfg.JWT.Expiration
		}
		tok, err := pkgjwt.Generate(cfg.JWT.Secret, tokenUserID, tokenCompanyID, tokenRole, cfg.JWT.Issuer, minutes)
		if err != nil {
			return err
		}
		cmd.Println(tok)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUserID, "user", "", "ID del usuario que firma los movimientos")
	tokenCmd.Flags().StringVar(&tokenCompanyID, "company", "", "ID de la empresa")
	tokenCmd.Flags().StringVar(&tokenRole, "role", entity.RoleSystem, "rol del token")
	tokenCmd.Flags().IntVar(&tokenMinutes, "minutes", 0, "vigencia en minutos (JWT_EXPIRATION_MINUTES por defecto)")
	rootCmd.AddCommand(tokenCmd)
}
