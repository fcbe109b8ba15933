// Command-line chat client for the professor assistant relay
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"profchat/profchat/client"
	"profchat/profchat/config"
	"profchat/profchat/tui"
	"profchat/profchat/utils/color"
	"profchat/profchat/utils/logging"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

const defaultServer = "http://localhost:8000"

func main() {
	cfg := config.LoadConfig()
	logging.InitLogger(cfg.LogDir)
	defer logging.Sync()

	args := os.Args[1:]
	if len(args) < 1 {
		usage()
		os.Exit(1)
	}

	fs := flag.NewFlagSet(args[0], flag.ExitOnError)
	server := fs.String("server", getEnv("PROFCHAT_SERVER", defaultServer), "relay base URL")
	token := fs.String("token", os.Getenv("PROFCHAT_TOKEN"), "identity provider session token")
	fs.Parse(args[1:])

	assistant, err := config.LoadAssistant(cfg.AssistantConfigPath)
	if err != nil {
		logging.ErrorLogger.Fatal("assistant config error", zap.Error(err))
	}
	c := client.New(*server, client.WithToken(*token))
	conv := client.NewConversation(assistant.Welcome)

	switch args[0] {
	case "connect":
		os.Exit(repl(c, conv, *server))
	case "tui":
		if _, err := tea.NewProgram(tui.New(c, conv), tea.WithAltScreen()).Run(); err != nil {
			fmt.Fprintln(os.Stderr, color.ColorError("tui error: "+err.Error()))
			os.Exit(1)
		}
	default:
		usage()
		os.Exit(1)
	}
}

func repl(c *client.Client, conv *client.Conversation, server string) int {
	color.DisableColorIfNotTTY()
	logging.AppLogger.Info("profchat CLI connected", zap.String("server", server))

	if last, ok := conv.Last(); ok {
		fmt.Printf("\n%s\n\n", color.ColorAssistant(last.Content))
	}
	fmt.Println(color.ColorInfo("Server: " + server))
	fmt.Println(color.ColorInfo("Type your question or 'exit' to quit."))
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(color.ColorPrompt("you> "))
		if !scanner.Scan() {
			break // EOF or error
		}
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "exit" || trimmed == "quit" {
			fmt.Println(color.ColorInfo("Goodbye!"))
			break
		}
		if trimmed == "" {
			continue
		}

		fmt.Print(color.ColorLabel("assistant> "))
		printed := 0
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		err := c.Send(ctx, conv, line, func() {
			last, _ := conv.Last()
			if len(last.Content) > printed {
				fmt.Print(color.ColorAssistant(last.Content[printed:]))
				printed = len(last.Content)
			}
		})
		stop()
		fmt.Println()
		if notice := exchangeNotice(err); notice != "" {
			fmt.Println(notice)
		}
	}
	return 0
}

// exchangeNotice is the line printed after an answer that did not finish.
// Ctrl+C only cuts the current answer short, so it is a warning.
func exchangeNotice(err error) string {
	switch {
	case err == nil, errors.Is(err, client.ErrEmptyMessage):
		return ""
	case errors.Is(err, context.Canceled):
		return color.ColorWarning("answer interrupted")
	default:
		return color.ColorError("error: " + err.Error())
	}
}

func usage() {
	fmt.Println("profchat usage:")
	fmt.Println("  profchat connect [--server URL] [--token JWT]   # line-based chat")
	fmt.Println("  profchat tui     [--server URL] [--token JWT]   # full-screen chat")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
