package bsm

import (
	"strconv"
	"strings"
)

// OptionType selects the Call or Put variant of every pricing operation
type OptionType int

const (
	Call OptionType = iota + 1
	Put
)

// ParseOptionType normalizes user or feed text ("call", "PUT", "C", "p") to an OptionType
func ParseOptionType(s string) (OptionType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CALL", "CALLS", "C":
		return Call, nil
	case "PUT", "PUTS", "P":
		return Put, nil
	}
	return 0, &UnrecognizedOptionTypeError{Input: s}
}

func (t OptionType) String() string {
	switch t {
	case Call:
		return "CALL"
	case Put:
		return "PUT"
	}
	return "OptionType(" + strconv.Itoa(int(t)) + ")"
}

// Valid reports whether t is Call or Put
func (t OptionType) Valid() bool {
	return t == Call || t == Put
}

func (t OptionType) check() error {
	if !t.Valid() {
		return &UnrecognizedOptionTypeError{Input: t.String()}
	}
	return nil
}

// MarshalText renders the type as CALL/PUT
func (t OptionType) MarshalText() ([]byte, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	return []byte(t.String()), nil
}

// UnmarshalText accepts anything ParseOptionType accepts
func (t *OptionType) UnmarshalText(text []byte) error {
	parsed, err := ParseOptionType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
