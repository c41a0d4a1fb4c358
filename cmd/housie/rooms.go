package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/housielabs/housie/internal/game"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15"))

	codeStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("14"))

	activeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	endedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))
)

// RoomsCmd queries a running server's admin API for live rooms
type RoomsCmd struct {
	Server string `kong:"default='http://localhost:8080',help='Base URL of the running server'"`
}

func (c *RoomsCmd) Run() error {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(c.Server + "/api/rooms")
	if err != nil {
		return fmt.Errorf("query rooms: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("query rooms: unexpected status %s", resp.Status)
	}

	var rooms []game.RoomSummary
	if err := json.NewDecoder(resp.Body).Decode(&rooms); err != nil {
		return fmt.Errorf("decode rooms: %w", err)
	}

	if len(rooms) == 0 {
		fmt.Println(dimStyle.Render("no live rooms"))
		return nil
	}

	fmt.Println(headerStyle.Render(fmt.Sprintf("%-8s %-16s %8s %8s  %s", "CODE", "HOST", "PLAYERS", "STATE", "CREATED")))
	for _, room := range rooms {
		state := activeStyle.Render("active")
		if !room.Active {
			state = endedStyle.Render("ended")
		}
		fmt.Printf("%s %-16s %8d %8s  %s\n",
			codeStyle.Render(fmt.Sprintf("%-8s", room.Code)),
			room.Host,
			room.PlayerCount,
			state,
			dimStyle.Render(room.CreatedAt.Format(time.RFC3339)),
		)
	}
	return nil
}
