package binding

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// ErrMalformedTrigger indicates a key sequence that cannot be parsed.
	ErrMalformedTrigger = errors.New("malformed trigger")
	// ErrMalformedCommand indicates a command string that fails the syntax check.
	ErrMalformedCommand = errors.New("malformed command")
)

// modifierOrder is the order modifiers are written in a normalized group.
var modifierOrder = []string{"Ctrl", "Alt", "Meta", "Shift", "Mod1", "Mod2", "Mod3", "Mod4", "Mod5"}

var modifierAliases = map[string]string{
	"ctrl":    "Ctrl",
	"control": "Ctrl",
	"alt":     "Alt",
	"meta":    "Meta",
	"cmd":     "Meta",
	"super":   "Meta",
	"shift":   "Shift",
	"mod1":    "Mod1",
	"mod2":    "Mod2",
	"mod3":    "Mod3",
	"mod4":    "Mod4",
	"mod5":    "Mod5",
}

var specialKeys = func() map[string]string {
	keys := map[string]string{
		"escape":    "Escape",
		"esc":       "Escape",
		"return":    "Return",
		"enter":     "Return",
		"tab":       "Tab",
		"backtab":   "Backtab",
		"space":     "Space",
		"backspace": "Backspace",
		"delete":    "Delete",
		"del":       "Delete",
		"insert":    "Insert",
		"ins":       "Insert",
		"home":      "Home",
		"end":       "End",
		"pgup":      "PgUp",
		"pageup":    "PgUp",
		"pgdown":    "PgDown",
		"pagedown":  "PgDown",
		"up":        "Up",
		"down":      "Down",
		"left":      "Left",
		"right":     "Right",
		"print":     "Print",
		"pause":     "Pause",
		"menu":      "Menu",
		"less":      "Less",
		"greater":   "Greater",
		"minus":     "Minus",
		"plus":      "Plus",
	}
	for i := 1; i <= 35; i++ {
		keys[fmt.Sprintf("f%d", i)] = fmt.Sprintf("F%d", i)
	}
	return keys
}()

// NormalizeTrigger parses a key sequence such as "xb", ",gh" or
// "<Ctrl-Shift-I>" and returns its canonical spelling. Modifier names and
// special key names are case-insensitive; a '<' that is not followed by a
// letter is an ordinary key.
func NormalizeTrigger(trigger string) (string, error) {
	if trigger == "" {
		return "", fmt.Errorf("%w: empty trigger", ErrMalformedTrigger)
	}

	var b strings.Builder
	for i := 0; i < len(trigger); {
		r, size := utf8.DecodeRuneInString(trigger[i:])
		if r == utf8.RuneError && size == 1 {
			return "", fmt.Errorf("%w: %q is not valid UTF-8", ErrMalformedTrigger, trigger)
		}

		if r == '<' && i+1 < len(trigger) && isASCIILetter(trigger[i+1]) {
			end := strings.IndexByte(trigger[i:], '>')
			if end < 0 {
				return "", fmt.Errorf("%w: unclosed '<' in %q", ErrMalformedTrigger, trigger)
			}
			// <Ctrl->> binds the '>' key itself.
			if content := trigger[i+1 : i+end]; strings.HasSuffix(content, "-") && !strings.HasSuffix(content, "--") &&
				i+end+1 < len(trigger) && trigger[i+end+1] == '>' {
				end++
			}
			group, err := normalizeGroup(trigger[i+1 : i+end])
			if err != nil {
				return "", fmt.Errorf("%w: %q: %v", ErrMalformedTrigger, trigger, err)
			}
			b.WriteString(group)
			i += end + 1
			continue
		}

		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return "", fmt.Errorf("%w: %q contains whitespace or control characters", ErrMalformedTrigger, trigger)
		}
		b.WriteRune(r)
		i += size
	}
	return b.String(), nil
}

func normalizeGroup(content string) (string, error) {
	if strings.ContainsFunc(content, unicode.IsSpace) {
		return "", fmt.Errorf("whitespace in <%s>", content)
	}

	key, modPart := content, ""
	switch {
	case strings.HasSuffix(content, "--"):
		key, modPart = "-", content[:len(content)-2]
	case strings.Contains(content, "-"):
		idx := strings.LastIndex(content, "-")
		key, modPart = content[idx+1:], content[:idx]
	}
	if key == "" {
		return "", fmt.Errorf("<%s> has no key", content)
	}

	var mods []string
	if modPart != "" {
		for _, m := range strings.Split(modPart, "-") {
			canonical, ok := modifierAliases[strings.ToLower(m)]
			if !ok {
				return "", fmt.Errorf("unknown modifier %q in <%s>", m, content)
			}
			if !slices.Contains(mods, canonical) {
				mods = append(mods, canonical)
			}
		}
	}
	slices.SortFunc(mods, func(a, b string) int {
		return slices.Index(modifierOrder, a) - slices.Index(modifierOrder, b)
	})

	if name, ok := specialKeys[strings.ToLower(key)]; ok {
		key = name
	} else if utf8.RuneCountInString(key) != 1 {
		return "", fmt.Errorf("unknown key %q in <%s>", key, content)
	}

	if len(mods) == 0 && utf8.RuneCountInString(key) == 1 {
		return key, nil
	}
	parts := append(mods, key)
	return "<" + strings.Join(parts, "-") + ">", nil
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

var commandNamePattern = regexp.MustCompile(`^:?[a-z][a-z0-9-]*$`)

// ValidateCommand checks the syntax of a command string. Several commands may
// be chained with ";;"; each of them must start with a command name.
func ValidateCommand(command string) error {
	if strings.TrimSpace(command) == "" {
		return fmt.Errorf("%w: empty command", ErrMalformedCommand)
	}
	for i, part := range strings.Split(command, ";;") {
		fields := strings.Fields(part)
		if len(fields) == 0 {
			return fmt.Errorf("%w: command %d of %q is empty", ErrMalformedCommand, i+1, command)
		}
		if !commandNamePattern.MatchString(fields[0]) {
			return fmt.Errorf("%w: invalid command name %q", ErrMalformedCommand, fields[0])
		}
	}
	return nil
}
