package hotkey

import (
	"log"
	"strings"
)

// parseCombo converts a combo string like "Ctrl+Shift+S" to normalized
// key names.
func parseCombo(combo string) []string {
	parts := strings.Split(strings.ToLower(combo), "+")
	var keys []string

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		switch part {
		case "win", "cmd", "super":
			keys = append(keys, "cmd")
		default:
			keys = append(keys, part)
		}
	}

	return keys
}

// rawcodeTable maps key names to virtual key code rawcodes. Modifiers map
// to both left and right variants.
var rawcodeTable = map[string][]uint16{
	"ctrl":  {162, 163}, // VK_LCONTROL, VK_RCONTROL
	"alt":   {164, 165}, // VK_LMENU, VK_RMENU
	"shift": {160, 161}, // VK_LSHIFT, VK_RSHIFT
	"cmd":   {91, 92},   // VK_LWIN, VK_RWIN

	"space":     {32},
	"enter":     {13},
	"return":    {13},
	"esc":       {27},
	"escape":    {27},
	"tab":       {9},
	"backspace": {8},
	"delete":    {46},
	"del":       {46},
	"insert":    {45},
	"ins":       {45},
	"home":      {36},
	"end":       {35},
	"pageup":    {33},
	"pgup":      {33},
	"pagedown":  {34},
	"pgdn":      {34},
	"left":      {37},
	"up":        {38},
	"right":     {39},
	"down":      {40},
}

func init() {
	// Letters a-z: VK 65-90.
	for c := byte('a'); c <= 'z'; c++ {
		rawcodeTable[string(c)] = []uint16{uint16(c - 'a' + 65)}
	}
	// Digits 0-9: VK 48-57.
	for c := byte('0'); c <= '9'; c++ {
		rawcodeTable[string(c)] = []uint16{uint16(c - '0' + 48)}
	}
	// Function keys F1-F24: VK 112-135.
	for i := 1; i <= 24; i++ {
		rawcodeTable[fKeyName(i)] = []uint16{uint16(111 + i)}
	}
}

func fKeyName(n int) string {
	name := "f"
	if n >= 10 {
		name += string(byte('0' + n/10))
	}
	return name + string(byte('0'+n%10))
}

// keyNameToRawcodes maps a key name to its virtual key code rawcodes.
// Returns nil for unknown names.
func keyNameToRawcodes(keyName string) []uint16 {
	keyName = strings.ToLower(strings.TrimSpace(keyName))
	codes, ok := rawcodeTable[keyName]
	if !ok {
		log.Printf("WARNING: Unknown key name %q, cannot map to rawcode", keyName)
		return nil
	}
	return codes
}
