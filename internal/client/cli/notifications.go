package cli

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/iudanet/autopark/internal/client/auth"
	"github.com/iudanet/autopark/internal/client/notify"
	pkgapi "github.com/iudanet/autopark/pkg/api"
)

func (c *Cli) newNotificationsCommand() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"notif"},
		Short:   "List notifications",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if watch {
				return c.watchNotifications(cmd.Context())
			}

			resp, err := c.notify.List(cmd.Context())
			if err != nil {
				return err
			}

			c.io.Printf("=== Notifications (%d unread) ===\n", resp.Unread)
			c.io.Println()
			if len(resp.Notifications) == 0 {
				c.io.Println("No notifications.")
				return nil
			}
			for _, n := range resp.Notifications {
				c.printNotification(n)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Keep polling and print new notifications until interrupted")
	cmd.AddCommand(c.newNotificationReadCommand())
	return cmd
}

func (c *Cli) newNotificationReadCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "read <id>",
		Short: "Mark a notification as read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.notify.MarkRead(cmd.Context(), args[0]); err != nil {
				return err
			}
			c.io.Println("✓ Marked as read")
			return nil
		},
	}
}

// watchNotifications опрашивает сервер до отмены ctx или истечения сессии
func (c *Cli) watchNotifications(ctx context.Context) error {
	seen := make(map[string]struct{})
	expired := make(chan error, 1)

	handler := func(resp *pkgapi.NotificationsResponse, err error) {
		if err != nil {
			if errors.Is(err, auth.ErrSessionExpired) || errors.Is(err, auth.ErrNotAuthenticated) {
				select {
				case expired <- err:
				default:
				}
				return
			}
			c.logger.WarnContext(ctx, "failed to fetch notifications", slog.Any("error", err))
			return
		}

		// сервер отдает новые первыми, печатаем в хронологическом порядке
		for i := len(resp.Notifications) - 1; i >= 0; i-- {
			n := resp.Notifications[i]
			if _, ok := seen[n.ID]; ok {
				continue
			}
			seen[n.ID] = struct{}{}
			c.printNotification(n)
		}
	}

	poller := notify.NewPoller(c.notify, handler,
		notify.WithInterval(c.cfg.PollInterval),
		notify.WithPollerLogger(c.logger))

	c.io.Println("Watching notifications, press Ctrl+C to stop.")
	poller.Start(ctx)
	defer poller.Stop()

	select {
	case <-ctx.Done():
		return nil
	case err := <-expired:
		return err
	}
}

func (c *Cli) printNotification(n pkgapi.Notification) {
	marker := "•"
	if n.Read {
		marker = " "
	}
	c.io.Printf("%s [%s] %s\n", marker, n.CreatedAt.Local().Format("2006-01-02 15:04"), n.Title)
	if n.Body != "" {
		c.io.Printf("    %s\n", n.Body)
	}
	c.io.Printf("    id: %s\n", n.ID)
}
