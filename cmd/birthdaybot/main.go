package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"birthdaybot/internal/config"
	"birthdaybot/internal/logger"
	"birthdaybot/pkg/birthday"
	"birthdaybot/pkg/conversation"
	"birthdaybot/pkg/credential"
	"birthdaybot/pkg/reminder"
	"birthdaybot/pkg/session"
)

// logNotifier is the default operator alert path; a real deployment
// swaps in one that messages the bot creator.
type logNotifier struct {
	logger *slog.Logger
}

func (n *logNotifier) NotifyAdmin(ctx context.Context, message string) {
	n.logger.Error("admin alert", "message", message)
}

// stdoutSender prints reminders instead of delivering them; message
// transport belongs to the surrounding application.
type stdoutSender struct{}

func (stdoutSender) Send(ctx context.Context, telegramID int64, message string) error {
	fmt.Printf("-> %d: %s\n\n", telegramID, message)
	return nil
}

func main() {
	cfg := config.Load()
	log := logger.Load()

	enc := credential.NewEncryptor(cfg.APIURL, cfg.BotToken, &http.Client{Timeout: cfg.HTTPTimeout})
	sessions := session.NewManager(cfg.APIURL, enc, cfg.HTTPTimeout)
	api := birthday.NewClient(sessions, log)
	engine := conversation.NewEngine(api, log, &logNotifier{logger: log})
	reminders := reminder.NewNotifier(api, stdoutSender{}, log)

	identity := os.Getenv("IDENTITY")
	if identity == "" {
		identity = "demo"
	}

	fmt.Println("birthdaybot line driver. Commands: /add_birthday /change_birthday /delete_birthday /list /stop /remind")
	fmt.Println("Select a listed record with: select <id>")

	ctx := context.Background()
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if line == "/remind" {
			if err := reminders.Run(ctx); err != nil {
				log.Error("reminder pass failed", "error", err)
			}
			continue
		}

		var in conversation.Input
		if id, ok := strings.CutPrefix(line, "select "); ok {
			in.Callback = strings.TrimSpace(id)
		} else {
			in.Text = line
		}

		if reply := engine.HandleInput(ctx, identity, in); reply != "" {
			fmt.Println(reply)
		}
	}
}
