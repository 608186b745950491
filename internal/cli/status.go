package cli

import (
	"github.com/spf13/cobra"

	"github.com/partyrelay/partyrelay/internal/model"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show server info and the current roster",
		RunE: func(cmd *cobra.Command, args []string) error {
			var info model.ServerInfo
			if err := client.Get("/api/v1/server", &info); err != nil {
				return err
			}

			var players []model.PublicPlayer
			if err := client.Get("/api/v1/players", &players); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(ServerStatus{Server: info, Players: players})
			return nil
		},
	}
}
