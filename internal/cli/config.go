package cli

import (
	"github.com/spf13/cobra"

	"github.com/dimensionhq/neura/internal/config"
)

type configView struct {
	config.Config
	APIKey string `json:"api_key"`
}

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the resolved configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), configView{
				Config: app.Config,
				APIKey: maskSecret(app.Config.APIKey),
			})
		},
	}
	return cmd
}

// maskSecret keeps the last four characters of long secrets.
func maskSecret(secret string) string {
	switch {
	case secret == "":
		return ""
	case len(secret) <= 8:
		return "****"
	default:
		return "****" + secret[len(secret)-4:]
	}
}
