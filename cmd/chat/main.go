package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"medichain-be/internal/bootstrap"
	"medichain-be/internal/config"
	"medichain-be/internal/dto"
	"medichain-be/pkg/apperror"
	"medichain-be/pkg/database"

	"github.com/fatih/color"
	"gorm.io/gorm"
)

// Interactive terminal chat against the in-process pipeline. Type "exit" to
// quit.
func main() {
	cfg := config.Load()
	ctx := context.Background()

	var db *gorm.DB
	if cfg.Database.Connection != "" {
		conn, err := database.NewGormDBFromDSN(cfg.Database.Connection, true)
		if err != nil {
			color.Red("Database unavailable, document categories fall back to default: %v", err)
		} else {
			db = conn
		}
	}

	container, err := bootstrap.NewContainer(ctx, db, cfg)
	if err != nil {
		color.Red("Bootstrap failed: %v", err)
		os.Exit(1)
	}
	defer container.Close()
	_ = container.ConsumerService.Consume(ctx)

	in := bufio.NewScanner(os.Stdin)
	in.Buffer(make([]byte, 0, 64*1024), 64*1024)

	color.Cyan("🩺 MediChain terminal chat")
	fmt.Print("Session id (blank for a new one): ")
	if !in.Scan() {
		return
	}
	sessionID := strings.TrimSpace(in.Text())
	if sessionID == "" {
		res, _ := container.ChatbotService.CreateSession(ctx)
		sessionID = res.SessionId
	}
	color.Yellow("Session: %s", sessionID)

	for {
		color.New(color.FgGreen, color.Bold).Print("\nYou: ")
		if !in.Scan() {
			return
		}
		query := strings.TrimSpace(in.Text())
		if query == "" {
			continue
		}
		if strings.EqualFold(query, "exit") {
			color.Cyan("Bye.")
			return
		}

		res, err := container.ChatbotService.Ask(ctx, &dto.AskRequest{SessionId: sessionID, Query: query})
		if err != nil {
			if apperror.IsRetryable(err) {
				color.Red("Model unavailable, try again: %v", err)
			} else {
				color.Red("Error: %v", err)
			}
			continue
		}

		label := res.Path
		if res.Category != "" {
			label = res.Category + ", " + res.Path
		}
		color.New(color.FgBlue, color.Bold).Printf("Assistant [%s]: ", label)
		fmt.Println(res.Answer)
		for _, p := range res.Passages {
			color.HiBlack("  · %.2f %s", p.Score, truncate(p.Text, 80))
		}
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
