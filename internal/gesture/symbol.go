// Package gesture maps classifier output to gesture symbols and transport commands.
package gesture

import "fmt"

// Symbol is a recognized hand gesture.
type Symbol int

const (
	// Unknown means no confident, known gesture.
	Unknown Symbol = iota
	// Fist is a closed hand.
	Fist
	// OpenHand is an open hand with five fingers spread.
	OpenHand
	// Checkmark is a hand drawing a check mark.
	Checkmark
)

var symbolNames = map[Symbol]string{
	Unknown:   "unknown",
	Fist:      "fist",
	OpenHand:  "open-hand",
	Checkmark: "checkmark",
}

var symbolGlyphs = map[Symbol]string{
	Unknown:   "❓",
	Fist:      "👊",
	OpenHand:  "🖐",
	Checkmark: "✅",
}

// Symbols lists every known symbol, Unknown first.
func Symbols() []Symbol {
	return []Symbol{Unknown, Fist, OpenHand, Checkmark}
}

// String returns the symbol's name.
func (s Symbol) String() string {
	if name, ok := symbolNames[s]; ok {
		return name
	}
	return fmt.Sprintf("symbol(%d)", int(s))
}

// Glyph returns the emoji shown for the symbol.
func (s Symbol) Glyph() string {
	if glyph, ok := symbolGlyphs[s]; ok {
		return glyph
	}
	return symbolGlyphs[Unknown]
}

// Command returns the transport command the symbol triggers.
func (s Symbol) Command() Command {
	switch s {
	case Fist:
		return Play
	case OpenHand:
		return Pause
	case Checkmark:
		return Stop
	default:
		return None
	}
}

// ParseSymbol returns the symbol with the given name.
func ParseSymbol(name string) (Symbol, error) {
	for s, n := range symbolNames {
		if n == name {
			return s, nil
		}
	}
	return Unknown, fmt.Errorf("unknown gesture symbol %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (s Symbol) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Symbol) UnmarshalText(text []byte) error {
	parsed, err := ParseSymbol(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Command is an audio transport instruction.
type Command int

const (
	// None leaves the transport untouched.
	None Command = iota
	// Play starts or resumes playback.
	Play
	// Pause suspends playback, keeping the position.
	Pause
	// Stop halts playback and rewinds to the start.
	Stop
)

var commandNames = map[Command]string{
	None:  "none",
	Play:  "play",
	Pause: "pause",
	Stop:  "stop",
}

// String returns the command's name.
func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return fmt.Sprintf("command(%d)", int(c))
}

// ParseCommand returns the command with the given name.
func ParseCommand(name string) (Command, error) {
	for c, n := range commandNames {
		if n == name {
			return c, nil
		}
	}
	return None, fmt.Errorf("unknown transport command %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (c Command) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}
