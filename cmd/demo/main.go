package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"newsshorts/config"
	"newsshorts/demo/tui"
)

func main() {
	_ = godotenv.Load()

	defaultURL := "http://localhost:" + config.GetEnvOrDefault("PORT", config.DefaultPort)
	serviceURL := flag.String("url", defaultURL, "Pipeline service URL")
	flag.Parse()

	program := tea.NewProgram(tui.NewModel(*serviceURL))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		program.Quit()
	}()

	if _, err := program.Run(); err != nil {
		fmt.Printf("Error running program: %v\n", err)
		os.Exit(1)
	}
}
