package binding

import (
	"sort"
	"strings"
)

// Entry is one trigger-to-command association.
type Entry struct {
	Trigger string `json:"trigger" yaml:"key" toml:"key"`
	Command string `json:"command" yaml:"command" toml:"command"`
}

// Table maps normalized triggers to commands. Registering a trigger twice
// keeps the last command. The zero value is ready to use.
type Table struct {
	commands map[string]string
}

// NewTable returns an empty Table.
func NewTable() *Table {
	return &Table{commands: make(map[string]string)}
}

// Bind validates trigger and command and stores them. It reports whether an
// earlier command for the same trigger was replaced.
func (t *Table) Bind(trigger, command string) (bool, error) {
	normalized, err := NormalizeTrigger(trigger)
	if err != nil {
		return false, err
	}
	command = strings.TrimSpace(command)
	if err := ValidateCommand(command); err != nil {
		return false, err
	}

	if t.commands == nil {
		t.commands = make(map[string]string)
	}
	_, replaced := t.commands[normalized]
	t.commands[normalized] = command
	return replaced, nil
}

// Lookup returns the command bound to trigger.
func (t *Table) Lookup(trigger string) (string, bool) {
	normalized, err := NormalizeTrigger(trigger)
	if err != nil {
		return "", false
	}
	cmd, ok := t.commands[normalized]
	return cmd, ok
}

// Len returns the number of bound triggers.
func (t *Table) Len() int {
	return len(t.commands)
}

// Entries returns the bindings ordered by trigger.
func (t *Table) Entries() []Entry {
	return SortedEntries(t.commands)
}

// Map returns a copy of the bindings keyed by trigger.
func (t *Table) Map() map[string]string {
	out := make(map[string]string, len(t.commands))
	for k, v := range t.commands {
		out[k] = v
	}
	return out
}

// SortedEntries turns a trigger-to-command map into entries ordered by trigger.
func SortedEntries(commands map[string]string) []Entry {
	out := make([]Entry, 0, len(commands))
	for trigger, cmd := range commands {
		out = append(out, Entry{Trigger: trigger, Command: cmd})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Trigger < out[j].Trigger
	})
	return out
}
