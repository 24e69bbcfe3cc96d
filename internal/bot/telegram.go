package bot

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"tokenwatch/internal/alert"
	"tokenwatch/internal/domain"
	"tokenwatch/internal/registry"

	tele "gopkg.in/telebot.v3"
)

type SnapshotQuerier interface {
	Snapshot(ctx context.Context, symbols []string) (domain.MarketSnapshot, error)
	EODSnapshot(ctx context.Context, symbols []string) (domain.MarketSnapshot, error)
}

// Bot wraps the Telegram bot. It answers price and alert queries and, when a
// chat ID is configured, receives pushed critical alerts from the poller.
type Bot struct {
	bot    *tele.Bot
	chatID int64
}

func StartTelegramBot(snapshots SnapshotQuerier, reg *registry.Registry, chatID int64) *Bot {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		log.Println("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return nil
	}
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		log.Fatalf("failed to create Telegram bot: %v", err)
	}

	b.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})

	b.Handle("/price", func(c tele.Context) error {
		args := c.Args()
		if len(args) == 0 {
			return c.Send(fmt.Sprintf("Usage: /price BTC\nRegistered: %s", strings.Join(reg.Symbols(), ", ")))
		}
		symbol := strings.ToUpper(args[0])
		if !reg.Has(symbol) {
			return c.Send(fmt.Sprintf("Unknown symbol: %s\nRegistered: %s", symbol, strings.Join(reg.Symbols(), ", ")))
		}
		snapshot, err := snapshots.Snapshot(context.Background(), []string{symbol})
		if err != nil || len(snapshot.Items) == 0 {
			return c.Send(fmt.Sprintf("Error fetching price for %s: %v", symbol, err))
		}
		return c.Send(formatItem(snapshot.Items[0]))
	})

	b.Handle("/alerts", func(c tele.Context) error {
		snapshot, err := snapshots.EODSnapshot(context.Background(), nil)
		if err != nil {
			return c.Send(fmt.Sprintf("Error building snapshot: %v", err))
		}
		alerts := alert.Generate(snapshot, time.Now())
		if len(alerts) == 0 {
			return c.Send("No threshold alerts right now.")
		}
		lines := make([]string, 0, len(alerts))
		for _, a := range alerts {
			lines = append(lines, fmt.Sprintf("[%s] %s", strings.ToUpper(string(a.Severity)), a.Title))
		}
		return c.Send(strings.Join(lines, "\n"))
	})

	log.Println("Telegram bot started")
	go b.Start()
	return &Bot{bot: b, chatID: chatID}
}

// NotifyAlerts pushes alerts to the configured chat. No-op when no chat ID
// is set.
func (b *Bot) NotifyAlerts(alerts []domain.AutoAlert) error {
	if b == nil || b.chatID == 0 {
		return nil
	}
	for _, a := range alerts {
		msg := fmt.Sprintf("[%s] %s\n%s\nAct before: %s",
			strings.ToUpper(string(a.Severity)), a.Title, a.Description,
			a.Deadline.Format(time.RFC3339))
		if _, err := b.bot.Send(tele.ChatID(b.chatID), msg); err != nil {
			return err
		}
	}
	return nil
}

func formatItem(item domain.MarketItem) string {
	if !item.Resolved() {
		return fmt.Sprintf("%s: no data (%s)", item.Token, item.Error)
	}
	msg := fmt.Sprintf("%s\nPrice: $%.2f", item.Token, *item.LastPrice)
	if item.DayChangePct != nil {
		msg += fmt.Sprintf("\n24h Change: %.2f%%", *item.DayChangePct)
	}
	if item.Volume24h != nil {
		msg += fmt.Sprintf("\n24h Volume: $%.0f", *item.Volume24h)
	}
	return msg
}
