package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/earlysignal/backend/internal/config"
	feedbackModel "github.com/earlysignal/backend/internal/model/feedback"
	"github.com/earlysignal/backend/internal/service/feedback"
	"github.com/earlysignal/backend/internal/tui"
	"github.com/earlysignal/backend/pkg/scheduler"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	script, err := feedbackModel.DefaultScript()
	if err != nil {
		return err
	}

	conv := feedback.NewConversation(feedback.NewDialogue(script), feedback.Options{
		Scheduler:       scheduler.NewReal(),
		ReplyDelay:      cfg.Feedback.ReplyDelay,
		CompletionDelay: cfg.Feedback.CompletionDelay,
	})
	defer conv.Close()

	p := tea.NewProgram(tui.NewModel(conv, script.Assessment.Score), tea.WithAltScreen())
	result, err := p.Run()
	if err != nil {
		return err
	}

	if m, ok := result.(tui.Model); ok && m.Completed() {
		fmt.Printf("Interview complete: %d turns. Your founder profile is ready for investors.\n", conv.Len())
	}
	return nil
}
