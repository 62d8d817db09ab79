package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jon4hz/announcement_bot/announce"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "announcement_bot",
		Short: "Telegram bot for morning and curfew announcements",
		Long: `announcement_bot posts a random morning announcement at 08:45 and a
random curfew announcement at 23:00 (UTC+11). Moderators manage the
announcements with chat commands; the subcommands below edit the same
files offline.

Configuration is read from the environment (BOTTOKEN, ANNOUNCE_DATA_DIR,
ANNOUNCE_DB, ANNOUNCE_CHAT_ID, ANNOUNCE_ADMINS, ANNOUNCE_FALLBACK,
ANNOUNCE_WATCH, ANNOUNCE_RATE, LOG_LEVEL).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the bot",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runServe(cmd.Context())
			},
		},
		newListCmd(),
		newAddCmd(),
		newRemoveCmd(),
		newHistoryCmd(),
	)
	return root
}

func runServe(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.validateServe(); err != nil {
		return err
	}
	log := newLogger(os.Stderr, cfg.LogLevel)

	a, err := newApp(cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	c, err := NewClient(a)
	if err != nil {
		return err
	}
	return c.Run(ctx)
}

// withApp runs fn against the on-disk state without connecting to Telegram.
func withApp(cmd *cobra.Command, fn func(a *app, out io.Writer) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(cfg, newLogger(cmd.ErrOrStderr(), cfg.LogLevel))
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a, cmd.OutOrStdout())
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [morning|curfew]",
		Short: "List stored announcements",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var category string
			if len(args) == 1 {
				category = args[0]
			}
			return withApp(cmd, func(a *app, out io.Writer) error {
				_, err := fmt.Fprintln(out, a.commands.ListAnnouncements(category))
				return err
			})
		},
	}
}

func newAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <morning|curfew> <text>",
		Short: "Add an announcement (do not use while the bot is running)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := announce.ParseCategory(args[0]); err != nil {
				return err
			}
			return withApp(cmd, func(a *app, out io.Writer) error {
				_, err := fmt.Fprintln(out, a.commands.AddMessage(args[0], args[1]))
				return err
			})
		},
	}
}

func newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <morning|curfew> <index>",
		Short: "Remove an announcement by index (do not use while the bot is running)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app, out io.Writer) error {
				_, err := fmt.Fprintln(out, a.commands.RemoveMessage(args[0], args[1]))
				return err
			})
		},
	}
}

func newHistoryCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show announcements sent by the scheduler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app, out io.Writer) error {
				_, err := fmt.Fprintln(out, a.commands.History(cmd.Context(), limit))
				return err
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", historyLimit, "number of broadcasts to show")
	return cmd
}
