package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/jon4hz/announcement_bot/announce"
)

const historyLimit = 10

type messageSender interface {
	SendMessage(chatId int64, text string, opts *gotgbot.SendMessageOpts) (*gotgbot.Message, error)
}

// chatSink posts scheduler announcements into a single chat.
type chatSink struct {
	sender  messageSender
	chatID  int64
	limiter *rate.Limiter
}

func (s *chatSink) Broadcast(ctx context.Context, text string) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	if _, err := s.sender.SendMessage(s.chatID, text, nil); err != nil {
		return fmt.Errorf("failed to send message to %d: %w", s.chatID, err)
	}
	return nil
}

type Client struct {
	app     *app
	bot     *gotgbot.Bot
	log     zerolog.Logger
	limiter *rate.Limiter
	runCtx  context.Context
}

func NewClient(a *app) (*Client, error) {
	b, err := gotgbot.NewBot(a.cfg.Token, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	return &Client{
		app:     a,
		bot:     b,
		log:     a.log.With().Str("component", "bot").Logger(),
		limiter: rate.NewLimiter(rate.Limit(a.cfg.Rate), 1),
	}, nil
}

func (c *Client) Run(ctx context.Context) error {
	c.runCtx = ctx

	// Create updater and dispatcher.
	dispatcher := ext.NewDispatcher(&ext.DispatcherOpts{
		// If an error is returned by a handler, log it and continue going.
		Error: func(b *gotgbot.Bot, ctx *ext.Context, err error) ext.DispatcherAction {
			c.log.Error().Err(err).Msg("an error occurred while handling update")
			return ext.DispatcherActionNoop
		},
		MaxRoutines: ext.DefaultMaxRoutines,
	})
	updater := ext.NewUpdater(dispatcher, nil)

	dispatcher.AddHandler(handlers.NewCommand("start", c.startHandler))
	dispatcher.AddHandler(handlers.NewCommand("add_message", c.moderatorsOnly(c.addMessageHandler)))
	dispatcher.AddHandler(handlers.NewCommand("remove_message", c.moderatorsOnly(c.removeMessageHandler)))
	dispatcher.AddHandler(handlers.NewCommand("list_announcements", c.moderatorsOnly(c.listHandler)))
	dispatcher.AddHandler(handlers.NewCommand("begin_announcements", c.moderatorsOnly(c.beginHandler)))
	dispatcher.AddHandler(handlers.NewCommand("history", c.moderatorsOnly(c.historyHandler)))
	dispatcher.AddHandler(handlers.NewCommand("make_a_morning_announcement", c.announcementHandler(announce.Morning)))
	dispatcher.AddHandler(handlers.NewCommand("make_a_curfew_announcement", c.announcementHandler(announce.Curfew)))

	err := updater.StartPolling(c.bot, &ext.PollingOpts{
		DropPendingUpdates: true,
		GetUpdatesOpts: &gotgbot.GetUpdatesOpts{
			Timeout: 9,
			RequestOpts: &gotgbot.RequestOpts{
				Timeout: time.Second * 10,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to start polling: %w", err)
	}
	c.log.Info().Str("username", c.bot.User.Username).Msg("bot has been started")

	if c.app.cfg.Watch {
		go func() {
			w := announce.NewWatcher(c.app.store, c.app.gateway, c.app.log)
			if err := w.Run(ctx); err != nil {
				c.log.Error().Err(err).Msg("announcement file watcher stopped")
			}
		}()
	}

	<-ctx.Done()
	if err := updater.Stop(); err != nil {
		c.log.Warn().Err(err).Msg("failed to stop updater")
	}
	c.app.scheduler.Wait()
	return nil
}

func (c *Client) reply(ctx *ext.Context, text string) error {
	if err := c.limiter.Wait(c.runCtx); err != nil {
		return err
	}
	_, err := c.bot.SendMessage(ctx.EffectiveChat.Id, text, nil)
	return err
}

// moderatorsOnly rejects users that are neither configured admins nor
// administrators of the chat the command was sent in.
func (c *Client) moderatorsOnly(next handlers.Response) handlers.Response {
	return func(b *gotgbot.Bot, ctx *ext.Context) error {
		ok, err := c.isModerator(b, ctx)
		if err != nil {
			return err
		}
		if !ok {
			return c.reply(ctx, "You need to be a chat administrator to do that.")
		}
		return next(b, ctx)
	}
}

func (c *Client) isModerator(b *gotgbot.Bot, ctx *ext.Context) (bool, error) {
	user := ctx.EffectiveUser
	if user == nil {
		return false, nil
	}
	if c.app.cfg.isAdmin(user.Id) {
		return true, nil
	}
	if ctx.EffectiveChat.Type == "private" {
		return false, nil
	}
	member, err := b.GetChatMember(ctx.EffectiveChat.Id, user.Id, nil)
	if err != nil {
		return false, fmt.Errorf("failed to get chat member: %w", err)
	}
	return isModeratorStatus(member.GetStatus()), nil
}

func isModeratorStatus(status string) bool {
	return status == "creator" || status == "administrator"
}

func (c *Client) startHandler(b *gotgbot.Bot, ctx *ext.Context) error {
	if err := c.reply(ctx, "👋 Hey,\nUse /list_announcements to see what I'll say\nUse /begin_announcements to start the daily announcements"); err != nil {
		return err
	}
	_, err := b.SetMyCommands([]gotgbot.BotCommand{
		{Command: "add_message", Description: "Add a morning or curfew announcement"},
		{Command: "remove_message", Description: "Remove an announcement by its index"},
		{Command: "list_announcements", Description: "List announcements"},
		{Command: "make_a_morning_announcement", Description: "Say a morning announcement"},
		{Command: "make_a_curfew_announcement", Description: "Say a curfew announcement"},
		{Command: "begin_announcements", Description: "Begin the daily announcement loop"},
		{Command: "history", Description: "Show recently sent announcements"},
	}, nil)
	return err
}

func (c *Client) addMessageHandler(b *gotgbot.Bot, ctx *ext.Context) error {
	category, text := splitArgs(commandArgs(ctx.EffectiveMessage.Text))
	return c.reply(ctx, c.app.commands.AddMessage(category, text))
}

func (c *Client) removeMessageHandler(b *gotgbot.Bot, ctx *ext.Context) error {
	category, index := splitArgs(commandArgs(ctx.EffectiveMessage.Text))
	return c.reply(ctx, c.app.commands.RemoveMessage(category, index))
}

func (c *Client) listHandler(b *gotgbot.Bot, ctx *ext.Context) error {
	category, _ := splitArgs(commandArgs(ctx.EffectiveMessage.Text))
	return c.reply(ctx, c.app.commands.ListAnnouncements(category))
}

func (c *Client) historyHandler(b *gotgbot.Bot, ctx *ext.Context) error {
	limit := historyLimit
	if arg, _ := splitArgs(commandArgs(ctx.EffectiveMessage.Text)); arg != "" {
		if n, err := strconv.Atoi(arg); err == nil && n > 0 {
			limit = n
		}
	}
	return c.reply(ctx, c.app.commands.History(c.runCtx, limit))
}

func (c *Client) announcementHandler(category announce.Category) handlers.Response {
	return func(b *gotgbot.Bot, ctx *ext.Context) error {
		return c.reply(ctx, c.app.commands.MakeAnnouncement(category.String()))
	}
}

func (c *Client) beginHandler(b *gotgbot.Bot, ctx *ext.Context) error {
	chatID := c.app.cfg.ChatID
	if chatID == 0 {
		chatID = ctx.EffectiveChat.Id
	}
	sink := &chatSink{sender: b, chatID: chatID, limiter: c.limiter}
	if !c.app.scheduler.Running() {
		c.app.db.SetChatID(chatID)
	}
	return c.reply(ctx, c.app.commands.BeginAnnouncements(c.runCtx, sink))
}

// commandArgs strips the leading /command (and an optional @botname) from text.
func commandArgs(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return text
	}
	_, rest := splitArgs(text)
	return rest
}

// splitArgs splits off the first word; rest keeps its inner spacing.
func splitArgs(args string) (first, rest string) {
	args = strings.TrimSpace(args)
	i := strings.IndexAny(args, " \t\n")
	if i < 0 {
		return args, ""
	}
	return args[:i], strings.TrimSpace(args[i+1:])
}
