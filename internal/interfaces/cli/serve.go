package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/propshield/climarisk/internal/app"
)

// NewServeCmd creates the serve command, which runs the full API server.
func NewServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the assessment API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			if port > 0 {
				cliCtx.Config.Server.Port = port
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			application, err := app.New(ctx, cliCtx.Config, cliCtx.Logger)
			if err != nil {
				return err
			}
			return application.Run(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "listen port override")
	return cmd
}
