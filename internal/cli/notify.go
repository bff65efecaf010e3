package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/bonetider/internal/notifier"
)

type notifyOptions struct {
	file   string
	dryRun bool
}

func newNotifyCmd(a *app) *cobra.Command {
	var opts notifyOptions

	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Send today's prayer times to a Telegram chat",
		Long: `Send today's prayer times to the Telegram chat configured with
notify.telegram.bot_token and notify.telegram.chat_id
(BONETIDER_NOTIFY_TELEGRAM_BOT_TOKEN, BONETIDER_NOTIFY_TELEGRAM_CHAT_ID).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runNotify(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.file, "file", "", "Read the timetable from a file ('-' for stdin) instead of fetching it")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Print the message instead of sending it")

	return cmd
}

func (a *app) runNotify(cmd *cobra.Command, opts notifyOptions) error {
	var n notifier.Notifier
	if opts.dryRun {
		n = notifier.NewDryRunNotifier(a.stdout, a.cfg.Upstream.City)
	} else {
		tg := a.cfg.Notify.Telegram
		t, err := notifier.NewTelegramNotifier(tg.BotToken, tg.ChatID, a.cfg.Upstream.City, tg.APIURL)
		if err != nil {
			return fmt.Errorf("configuring telegram: %w", err)
		}
		n = t
	}

	loc, err := a.cfg.Location()
	if err != nil {
		return err
	}

	svc, err := a.newService(opts.file, cmd.InOrStdin(), loc, 0, nil)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	resp := svc.Resolve(ctx, a.now())
	if err := n.Notify(ctx, resp); err != nil {
		return fmt.Errorf("sending notification: %w", err)
	}

	if resp.Degraded() {
		return &exitStatus{code: ExitFallback}
	}
	return nil
}
