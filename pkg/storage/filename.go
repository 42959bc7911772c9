package storage

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// maxNameLength caps the sanitized base name, leaving room for the extension
const maxNameLength = 120

var windowsDeviceNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true, "COM5": true,
	"COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true, "LPT5": true,
	"LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// SanitizeName turns an arbitrary collection name into a single safe path element.
// The result only contains ASCII letters, digits, '_', '.' and '-', never starts or
// ends with '.' or '_', and is empty when nothing usable remains.
func SanitizeName(name string) string {
	// fold accents and compatibility forms to their ASCII base before filtering
	decomposed := norm.NFKD.String(name)

	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		switch {
		case r > unicode.MaxASCII:
			continue
		case r == '/' || r == '\\' || r == 0 || unicode.IsControl(r):
			b.WriteByte(' ')
		default:
			b.WriteRune(r)
		}
	}

	joined := strings.Join(strings.Fields(b.String()), "_")

	var safe strings.Builder
	safe.Grow(len(joined))
	for _, r := range joined {
		if r == '_' || r == '.' || r == '-' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			safe.WriteRune(r)
		}
	}

	result := strings.Trim(safe.String(), "._")
	if len(result) > maxNameLength {
		result = strings.TrimRight(result[:maxNameLength], "._")
	}

	if result != "" {
		stem := strings.ToUpper(strings.SplitN(result, ".", 2)[0])
		if windowsDeviceNames[stem] {
			result = "_" + result
		}
	}

	return result
}
