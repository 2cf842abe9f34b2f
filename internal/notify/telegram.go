// Package notify pushes scheduling notifications to a Telegram chat. The
// bridge is optional and strictly best-effort: the scheduler never waits
// for it and a broken bot only costs log lines.
package notify

import (
	"errors"
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v4"
	"golang.org/x/time/rate"

	"clocked/internal/eventbus"
	"clocked/pkg/logx"
)

// Sender is the outbound side of a chat transport.
type Sender interface {
	Send(chatID int64, text string) error
}

type botSender struct{ bot *tele.Bot }

func (s botSender) Send(chatID int64, text string) error {
	_, err := s.bot.Send(tele.ChatID(chatID), text)
	return err
}

// Config selects the destination chat and throttling.
type Config struct {
	Token  string
	ChatID int64

	// RatePerSec caps outbound messages. Defaults to 1/s with a small
	// burst; excess notifications are dropped, not queued.
	RatePerSec int
}

// Notifier forwards bus events to one chat.
type Notifier struct {
	sender  Sender
	chatID  int64
	limiter *rate.Limiter
	log     logx.Logger

	unsub func()
	done  chan struct{}
}

// New builds a Telegram-backed notifier.
func New(cfg Config, log logx.Logger) (*Notifier, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if cfg.ChatID == 0 {
		return nil, errors.New("telegram chat id is empty")
	}
	bot, err := tele.NewBot(tele.Settings{Token: cfg.Token})
	if err != nil {
		return nil, err
	}
	return newNotifier(botSender{bot: bot}, cfg, log), nil
}

func newNotifier(sender Sender, cfg Config, log logx.Logger) *Notifier {
	if log.IsZero() {
		log = logx.Nop()
	}
	per := cfg.RatePerSec
	if per <= 0 {
		per = 1
	}
	return &Notifier{
		sender:  sender,
		chatID:  cfg.ChatID,
		limiter: rate.NewLimiter(rate.Limit(per), 3),
		log:     log,
	}
}

// Start subscribes to bus and forwards until Stop.
func (n *Notifier) Start(bus eventbus.Bus) {
	ch, unsub := bus.Subscribe(32)
	n.unsub = unsub
	n.done = make(chan struct{})
	go n.loop(ch)
}

// Stop unsubscribes and waits for in-flight sends to finish.
func (n *Notifier) Stop() {
	if n.unsub == nil {
		return
	}
	n.unsub()
	<-n.done
}

func (n *Notifier) loop(ch <-chan eventbus.Event) {
	defer close(n.done)
	for e := range ch {
		text, ok := messageFor(e)
		if !ok {
			continue
		}
		if !n.limiter.Allow() {
			n.log.Debug("notification dropped by rate limit", logx.String("topic", e.Type))
			continue
		}
		if err := n.sender.Send(n.chatID, text); err != nil {
			n.log.Warn("telegram send failed", logx.String("topic", e.Type), logx.Err(err))
		}
	}
}

// messageFor renders the user-facing pt-BR notification text for a topic.
func messageFor(e eventbus.Event) (string, bool) {
	switch e.Type {
	case eventbus.TopicAlarmTriggered:
		p, ok := e.Data.(eventbus.AlarmTriggered)
		if !ok {
			return "", false
		}
		return "🔔 Alarme: " + p.Title, true
	case eventbus.TopicAlarmStopped:
		return "Alarme parado", true
	case eventbus.TopicDNDTriggered:
		p, ok := e.Data.(eventbus.DNDTriggered)
		if !ok {
			return "", false
		}
		if p.Enabled {
			return "Modo não perturbe ativado", true
		}
		return "Modo não perturbe desativado", true
	case eventbus.TopicEventFired:
		p, ok := e.Data.(eventbus.EventFired)
		if !ok {
			return "", false
		}
		title := p.Title
		if title == "" {
			title = p.EventID
		}
		return fmt.Sprintf("Evento disparado: %s", title), true
	default:
		return "", false
	}
}
