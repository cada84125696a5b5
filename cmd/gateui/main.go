package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"focus-guard/cmd/gateui/ui"

	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	host := flag.String("host", "127.0.0.1", "Agent API host")
	port := flag.Int("port", 9480, "Agent API port")
	timeout := flag.Duration("timeout", 5*time.Second, "Request timeout")
	flag.Parse()

	p := tea.NewProgram(ui.NewRootModel(ui.NewClient(*host, *port, *timeout)))
	if _, err := p.Run(); err != nil {
		fmt.Println("Error running program:", err)
		os.Exit(1)
	}
}
