package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/partyrelay/partyrelay/internal/model"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case HealthResult:
		o.printHealthResult(v)
	case ServerStatus:
		o.printServerStatus(v)
	case []model.PublicPlayer:
		o.printRoster(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

// ServerStatus combines server info and the current roster
type ServerStatus struct {
	Server  model.ServerInfo     `json:"server"`
	Players []model.PublicPlayer `json:"players"`
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
}

func (o *Output) printServerStatus(s ServerStatus) {
	fmt.Printf("Region: %s\n", s.Server.Region)
	fmt.Printf("Uptime: %s\n", s.Server.Uptime)
	o.printRoster(s.Players)
}

func (o *Output) printRoster(players []model.PublicPlayer) {
	fmt.Printf("Players (%d):\n", len(players))
	for _, p := range players {
		hostStr := ""
		if p.IsHost {
			hostStr = " [host]"
		}
		fmt.Printf("  - %s (%s) - %s, %dms%s\n", p.Username, p.ID, p.Status, p.Ping, hostStr)
	}
}
