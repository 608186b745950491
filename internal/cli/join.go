package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	relayclient "github.com/partyrelay/partyrelay/internal/client"
	"github.com/partyrelay/partyrelay/internal/dependencies/clock"
	"github.com/partyrelay/partyrelay/internal/model"
)

func newJoinCmd() *cobra.Command {
	var (
		host     string
		port     int
		username string
		verbose  bool
	)

	cmd := &cobra.Command{
		Use:   "join",
		Short: "Join the room and follow it live",
		Long: `Joins the relay's room as a participant and prints roster changes
as they happen. Press Ctrl+C to leave.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
			if verbose {
				logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
					Level: slog.LevelDebug,
				}))
			}

			mirror := relayclient.NewMirror()
			connector := relayclient.NewConnector(mirror, clock.New(), logger)

			unsubscribe := mirror.Subscribe(&printObserver{})
			defer unsubscribe()

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			dialCtx, dialCancel := context.WithTimeout(ctx, 10*time.Second)
			defer dialCancel()
			if err := connector.Connect(dialCtx, host, port, username); err != nil {
				return err
			}
			defer connector.Close()

			fmt.Printf("Joined as %s. Press Ctrl+C to leave.\n", username)
			<-ctx.Done()
			fmt.Println("Leaving.")
			return nil
		},
	}

	cmd.Flags().StringVar(&host, "host", "localhost", "Relay host")
	cmd.Flags().IntVar(&port, "port", 3000, "Relay port")
	cmd.Flags().StringVarP(&username, "username", "u", "", "Username to register with")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose connection logging")
	_ = cmd.MarkFlagRequired("username")

	return cmd
}

// printObserver writes mirror changes to stdout as they arrive
type printObserver struct{}

func (p *printObserver) OnConnectionStatus(status relayclient.ConnectionStatus) {
	fmt.Printf("Connection: %s\n", status)
}

func (p *printObserver) OnRosterChanged(players []model.PublicPlayer) {
	NewOutput("text").Print(players)
}

func (p *printObserver) OnServerInfoChanged(info model.ServerInfo) {
	if info.Region == "" {
		return
	}
	fmt.Printf("Server: %s, uptime %s\n", info.Region, info.Uptime)
}
