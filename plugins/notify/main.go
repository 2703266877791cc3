// Command notify is a mudra hook plugin that reports gesture changes as
// desktop notifications or appends them to a log file.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"time"
)

// Request is the hook request read from stdin.
type Request struct {
	Action     string          `json:"action"`
	Symbol     string          `json:"symbol"`
	Glyph      string          `json:"glyph"`
	Label      string          `json:"label"`
	Confidence *float64        `json:"confidence"`
	Command    string          `json:"command"`
	Seq        uint64          `json:"seq"`
	Config     json.RawMessage `json:"config"`
}

// Response is written to stdout.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type notifyConfig struct {
	Title string `json:"title"`
}

type logConfig struct {
	Path string `json:"path"`
}

type actionHandler func(req *Request) error

var actionHandlers = map[string]actionHandler{
	"notify": notify,
	"log":    appendLog,
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(fmt.Errorf("failed to decode request: %w", err))
		return
	}

	handler, ok := actionHandlers[req.Action]
	if !ok {
		writeResponse(fmt.Errorf("unknown action: %s", req.Action))
		return
	}

	if err := handler(&req); err != nil {
		writeResponse(fmt.Errorf("action %s failed: %w", req.Action, err))
		return
	}
	writeResponse(nil)
}

func writeResponse(err error) {
	resp := Response{Success: err == nil}
	if err != nil {
		resp.Error = err.Error()
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}

func decodeConfig(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}

func message(req *Request) string {
	msg := fmt.Sprintf("%s %s (%s)", req.Glyph, req.Symbol, req.Command)
	if req.Confidence != nil {
		msg += fmt.Sprintf(" %s %.2f", req.Label, *req.Confidence)
	}
	return msg
}

func notify(req *Request) error {
	cfg := notifyConfig{Title: "mudra"}
	if err := decodeConfig(req.Config, &cfg); err != nil {
		return err
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		script := fmt.Sprintf("display notification %q with title %q", message(req), cfg.Title)
		cmd = exec.Command("osascript", "-e", script)
	default:
		cmd = exec.Command("notify-send", cfg.Title, message(req))
	}
	return cmd.Run()
}

func appendLog(req *Request) error {
	var cfg logConfig
	if err := decodeConfig(req.Config, &cfg); err != nil {
		return err
	}
	if cfg.Path == "" {
		return fmt.Errorf("config.path is required")
	}

	f, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = fmt.Fprintf(f, "%s seq=%d %s\n", time.Now().Format(time.RFC3339), req.Seq, message(req))
	return err
}
