package tui

import (
	"fmt"
	"strconv"
	"strings"
)

// command is a parsed slash command typed into the chat input.
type command struct {
	name string
	args []string
}

// helpText lists the slash commands.
const helpText = "/new · /upload <file.pdf> <title> · /history · /open <n> · /delete <n> · /logout · /quit"

// parseCommand splits a slash command line. ok is false for ordinary questions.
func parseCommand(line string) (cmd command, ok bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "/") {
		return command{}, false
	}
	fields := strings.Fields(line[1:])
	if len(fields) == 0 {
		return command{name: ""}, true
	}
	return command{name: strings.ToLower(fields[0]), args: fields[1:]}, true
}

// index parses the 1-based list position in args[0] against n entries.
func (c command) index(n int) (int, error) {
	if len(c.args) == 0 {
		return 0, fmt.Errorf("usage: /%s <n>", c.name)
	}
	i, err := strconv.Atoi(c.args[0])
	if err != nil || i < 1 || i > n {
		return 0, fmt.Errorf("no session %q", c.args[0])
	}
	return i - 1, nil
}

// uploadArgs returns the path and title of an /upload command.
// The title is everything after the path and may be empty.
func (c command) uploadArgs() (path, title string) {
	if len(c.args) == 0 {
		return "", ""
	}
	return c.args[0], strings.Join(c.args[1:], " ")
}
