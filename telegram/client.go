// Copyright (c) 2025 BVK Chaitanya

// Package telegram delivers pair alerts to telegram chats and serves bot
// commands to the authorized users. Chats are learned from the messages the
// users send to the bot, so a user gets alerts only after talking to it once.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path"
	"runtime/debug"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/bvk/ladderbot/ctxutil"
	"github.com/bvk/ladderbot/gobs"
	"github.com/bvk/ladderbot/kvutil"
	"github.com/bvkgo/kv"
	"github.com/visvasity/cli"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

type CmdFunc = cli.CmdFunc

type command struct {
	purpose string
	handler CmdFunc
}

type Client struct {
	cg ctxutil.CloseGroup

	db kv.Database

	bot     *bot.Bot
	botName string

	secrets *Secrets

	// sendText delivers a message to a chat.
	sendText func(ctx context.Context, chatID int64, text string) error

	mu sync.Mutex

	state *gobs.TelegramState

	commandMap map[string]*command
}

var startTime = time.Now()

func New(ctx context.Context, db kv.Database, secrets *Secrets) (_ *Client, status error) {
	if err := secrets.Check(); err != nil {
		return nil, err
	}
	c := newClient(db, secrets)

	b, err := bot.New(secrets.BotToken, bot.WithDefaultHandler(c.onUpdate))
	if err != nil {
		return nil, err
	}
	defer func() {
		if status != nil {
			b.Close(ctx)
		}
	}()
	me, err := b.GetMe(ctx)
	if err != nil {
		return nil, err
	}
	c.bot, c.botName = b, me.Username
	c.sendText = c.botSend

	state, err := kvutil.GetDB[gobs.TelegramState](ctx, db, stateKey(c.botName))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	if state != nil {
		if state.UserChatIDMap != nil {
			c.state.UserChatIDMap = state.UserChatIDMap
		}
		if state.MutedPairs != nil {
			c.state.MutedPairs = state.MutedPairs
		}
	}

	if err := c.syncCommands(ctx); err != nil {
		return nil, err
	}
	c.cg.Go(b.Start)
	return c, nil
}

func newClient(db kv.Database, secrets *Secrets) *Client {
	c := &Client{
		db:      db,
		secrets: secrets.Clone(),
		state: &gobs.TelegramState{
			UserChatIDMap: make(map[string]int64),
			MutedPairs:    make(map[string]bool),
		},
		commandMap: make(map[string]*command),
	}
	c.commandMap["uptime"] = &command{"Prints ladderbot uptime", c.uptime}
	c.commandMap["version"] = &command{"Prints version information", c.version}
	c.commandMap["mute"] = &command{"Silences the alerts for a pair", c.mute}
	c.commandMap["unmute"] = &command{"Resumes the alerts for a pair", c.unmute}
	c.commandMap["muted"] = &command{"Lists the pairs with silenced alerts", c.muted}
	return c
}

func (c *Client) Close() error {
	c.cg.Close()
	return nil
}

func (c *Client) BotUserName() string {
	return c.botName
}

func (c *Client) OwnerUserName() string {
	return c.secrets.OwnerID
}

// AddCommand registers a bot command. Returns os.ErrExist if the name is
// taken.
func (c *Client) AddCommand(ctx context.Context, name, purpose string, handler CmdFunc) error {
	if len(name) == 0 || len(purpose) == 0 || handler == nil {
		return os.ErrInvalid
	}
	if err := c.addCommand(name, purpose, handler); err != nil {
		return err
	}
	return c.syncCommands(ctx)
}

func (c *Client) addCommand(name, purpose string, handler CmdFunc) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.commandMap[name]; ok {
		return fmt.Errorf("command %q: %w", name, os.ErrExist)
	}
	c.commandMap[name] = &command{purpose: purpose, handler: handler}
	return nil
}

func (c *Client) botCommands() []models.BotCommand {
	c.mu.Lock()
	defer c.mu.Unlock()

	var cmds []models.BotCommand
	for _, name := range slices.Sorted(maps.Keys(c.commandMap)) {
		cmds = append(cmds, models.BotCommand{Command: name, Description: c.commandMap[name].purpose})
	}
	return cmds
}

func (c *Client) syncCommands(ctx context.Context) error {
	ok, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{Commands: c.botCommands()})
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("could not set bot commands")
	}
	return nil
}

// getCommand parses the bot command at the start of the message. Returns
// os.ErrInvalid for messages that are not commands.
func (c *Client) getCommand(update *models.Update) (string, []string, CmdFunc, error) {
	msg := update.Message
	if msg == nil || len(msg.Entities) == 0 || len(msg.Text) == 0 || msg.Text[0] != '/' {
		return "", nil, nil, os.ErrInvalid
	}
	entity := msg.Entities[0]
	if entity.Type != models.MessageEntityTypeBotCommand || entity.Offset != 0 || entity.Length > len(msg.Text) {
		return "", nil, nil, os.ErrInvalid
	}
	name := msg.Text[1:entity.Length]
	args := strings.Fields(msg.Text[entity.Length:])

	c.mu.Lock()
	cmd, ok := c.commandMap[name]
	c.mu.Unlock()
	if !ok {
		return name, nil, nil, fmt.Errorf("unknown command /%s: %w", name, os.ErrNotExist)
	}
	return name, args, cmd.handler, nil
}

func stateKey(botName string) string {
	return path.Join("/ladderbot/telegram", botName, "state")
}

func (c *Client) saveLocked(ctx context.Context) error {
	return kvutil.SetDB(ctx, c.db, stateKey(c.botName), c.state)
}

// Notify sends an alert about the pair to the owner and the watchers. Alerts
// for pairs that are muted or not listed in the alert pairs are dropped. An
// empty pair is used for messages that are not about a pair and cannot be
// muted.
func (c *Client) Notify(ctx context.Context, at time.Time, pair, text string) error {
	if !c.secrets.alertsPair(pair) {
		return nil
	}

	c.mu.Lock()
	muted := pair != "" && c.state.MutedPairs[pair]
	var chats []int64
	for _, user := range append([]string{c.secrets.OwnerID}, c.secrets.Watchers...) {
		if id, ok := c.state.UserChatIDMap[user]; ok {
			chats = append(chats, id)
		} else {
			slog.Warn("could not alert user without a chat id", "user", user)
		}
	}
	c.mu.Unlock()

	if muted {
		slog.Debug("alert for a muted pair is dropped", "pair", pair, "message", text)
		return nil
	}

	msg := at.Format("2006-01-02 15:04:05 MST") + " "
	if pair != "" {
		msg += "[" + pair + "] "
	}
	msg += text

	var errs []error
	for _, id := range chats {
		if err := c.sendText(ctx, id, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *Client) botSend(ctx context.Context, chatID int64, text string) error {
	_, err := c.bot.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text})
	return err
}

func (c *Client) onUpdate(ctx context.Context, _ *bot.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	user := msg.From.Username
	if !c.secrets.isUser(user) {
		slog.Warn("ignoring message from an unknown user", "user", user, "message", msg.Text)
		return
	}
	if err := c.rememberChat(ctx, user, msg.Chat.ID); err != nil {
		slog.Warn("could not save the chat id (ignored)", "user", user, "err", err)
	}

	reply := c.runCommand(ctx, update)
	if len(reply) == 0 {
		return
	}
	disabled := true
	p := &bot.SendMessageParams{
		ChatID:             msg.Chat.ID,
		Text:               reply,
		ReplyParameters:    &models.ReplyParameters{MessageID: msg.ID},
		LinkPreviewOptions: &models.LinkPreviewOptions{IsDisabled: &disabled},
	}
	if _, err := c.bot.SendMessage(ctx, p); err != nil {
		slog.Error("could not reply to the user (ignored)", "user", user, "err", err)
	}
}

// runCommand runs the command in the message and returns the reply text.
// Plain chat messages get no reply.
func (c *Client) runCommand(ctx context.Context, update *models.Update) string {
	name, args, handler, err := c.getCommand(update)
	if errors.Is(err, os.ErrInvalid) {
		return ""
	}
	if err != nil {
		return err.Error()
	}

	var sb strings.Builder
	if err := handler(cli.WithStdout(ctx, &sb), args); err != nil {
		slog.Error("bot command failed", "command", name, "args", args, "err", err)
		return err.Error()
	}
	return sb.String()
}

func (c *Client) rememberChat(ctx context.Context, user string, chatID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if id, ok := c.state.UserChatIDMap[user]; ok && id == chatID {
		return nil
	}
	c.state.UserChatIDMap[user] = chatID
	slog.Info("learned the chat id of a user", "user", user, "chat-id", chatID)
	return c.saveLocked(ctx)
}

func (c *Client) setMuted(ctx context.Context, args []string, muted bool) error {
	if len(args) != 1 {
		return fmt.Errorf("a single pair name is required: %w", os.ErrInvalid)
	}
	pair := args[0]

	c.mu.Lock()
	defer c.mu.Unlock()

	if muted {
		c.state.MutedPairs[pair] = true
	} else {
		delete(c.state.MutedPairs, pair)
	}
	if err := c.saveLocked(ctx); err != nil {
		return err
	}
	if muted {
		fmt.Fprintf(cli.Stdout(ctx), "alerts for %s are muted", pair)
	} else {
		fmt.Fprintf(cli.Stdout(ctx), "alerts for %s are resumed", pair)
	}
	return nil
}

func (c *Client) mute(ctx context.Context, args []string) error {
	return c.setMuted(ctx, args, true)
}

func (c *Client) unmute(ctx context.Context, args []string) error {
	return c.setMuted(ctx, args, false)
}

func (c *Client) muted(ctx context.Context, _ []string) error {
	c.mu.Lock()
	pairs := slices.Sorted(maps.Keys(c.state.MutedPairs))
	c.mu.Unlock()

	if len(pairs) == 0 {
		fmt.Fprint(cli.Stdout(ctx), "no pairs are muted")
		return nil
	}
	fmt.Fprint(cli.Stdout(ctx), strings.Join(pairs, "\n"))
	return nil
}

func (c *Client) uptime(ctx context.Context, _ []string) error {
	const day = 24 * time.Hour
	d := time.Since(startTime).Round(time.Second)
	if d < day {
		fmt.Fprintf(cli.Stdout(ctx), "%v", d)
		return nil
	}
	fmt.Fprintf(cli.Stdout(ctx), "%dd%v", d/day, d%day)
	return nil
}

func (c *Client) version(ctx context.Context, _ []string) error {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return fmt.Errorf("could not read build information")
	}
	// Dependency versions can overflow the telegram message size limit.
	stdout := cli.Stdout(ctx)
	fmt.Fprintln(stdout, "Go:", info.GoVersion)
	fmt.Fprintln(stdout, "Module:", info.Main.Path, info.Main.Version)
	for _, s := range info.Settings {
		if strings.HasPrefix(s.Key, "vcs.") {
			fmt.Fprintln(stdout, s.Key+":", s.Value)
		}
	}
	return nil
}
