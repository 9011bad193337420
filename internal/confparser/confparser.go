// Package confparser implements the line-oriented key/value grammar
// shared by loader.conf and entries/*.conf on the ESP.
package confparser

import "strings"

// KV is a single recognized (key, value) pair from a scanned buffer.
type KV struct {
	Key   string
	Value string
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t'
}

// Scan splits data into lines terminated by LF or CR, strips leading and
// trailing tab/space from each line, skips blank and '#'-comment lines,
// and splits the remainder on the first run of tab/space into a (key,
// value) pair. Unknown keys are returned too; callers filter.
func Scan(data []byte) []KV {
	var out []KV
	for _, line := range splitLines(data) {
		line = trimSpaceTab(line)
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		i := 0
		for i < len(line) && !isSpace(line[i]) {
			i++
		}
		key := line[:i]
		for i < len(line) && isSpace(line[i]) {
			i++
		}
		value := line[i:]
		out = append(out, KV{Key: key, Value: value})
	}
	return out
}

func splitLines(data []byte) []string {
	var lines []string
	start := 0
	for i := 0; i < len(data); i++ {
		if data[i] == '\n' || data[i] == '\r' {
			lines = append(lines, string(data[start:i]))
			start = i + 1
		}
	}
	if start < len(data) {
		lines = append(lines, string(data[start:]))
	}
	return lines
}

func trimSpaceTab(s string) string {
	i, j := 0, len(s)
	for i < j && isSpace(s[i]) {
		i++
	}
	for j > i && isSpace(s[j-1]) {
		j--
	}
	return s[i:j]
}

// LoaderConf holds the recognized keys of /loader/loader.conf.
type LoaderConf struct {
	TimeoutSec     int
	TimeoutSet     bool
	DefaultPattern string

	// Supplemented keys, present in original_source/gummiboot.c but
	// dropped by the distilled spec's "Recognized keys" table.
	AutoEntries   bool
	AutoEntriesSet bool
	AutoFirmware   bool
	AutoFirmwareSet bool
	ConsoleMode    string
	EditorDisabled bool
	EditorSet      bool
}

// ParseLoaderConf builds a LoaderConf from a scanned KV stream.
// Unknown keys are ignored. "default" is normalized to lowercase.
func ParseLoaderConf(kvs []KV) LoaderConf {
	var lc LoaderConf
	for _, kv := range kvs {
		switch kv.Key {
		case "timeout":
			if n, ok := parseUint(kv.Value); ok {
				lc.TimeoutSec = n
				lc.TimeoutSet = true
			}
		case "default":
			lc.DefaultPattern = strings.ToLower(strings.TrimSpace(kv.Value))
		case "auto-entries":
			lc.AutoEntries = parseBool(kv.Value)
			lc.AutoEntriesSet = true
		case "auto-firmware":
			lc.AutoFirmware = parseBool(kv.Value)
			lc.AutoFirmwareSet = true
		case "console-mode":
			lc.ConsoleMode = strings.TrimSpace(kv.Value)
		case "editor":
			lc.EditorDisabled = !parseBool(kv.Value)
			lc.EditorSet = true
		}
	}
	return lc
}

func parseUint(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "yes", "y", "true":
		return true
	default:
		return false
	}
}

// EntryConf holds the recognized keys of entries/<id>.conf, before
// derived fields (kind, title_shown, etc.) are computed by the catalog.
type EntryConf struct {
	Title     string
	Version   string
	MachineID string
	Linux     string
	EFI       string
	Initrd    string
	Options   string
}

// ParseEntryConf builds an EntryConf from a scanned KV stream, applying
// the at-most-once rule to single-value keys and the accumulation rule
// to "initrd" (joined as separate "initrd=" tokens) and "options" (space
// joined).
func ParseEntryConf(kvs []KV) EntryConf {
	var ec EntryConf
	var initrds []string
	var options []string
	for _, kv := range kvs {
		switch kv.Key {
		case "title":
			if ec.Title == "" {
				ec.Title = kv.Value
			}
		case "version":
			if ec.Version == "" {
				ec.Version = kv.Value
			}
		case "machine-id":
			if ec.MachineID == "" {
				ec.MachineID = kv.Value
			}
		case "linux":
			if ec.Linux == "" {
				ec.Linux = kv.Value
			}
		case "efi":
			if ec.EFI == "" {
				ec.EFI = kv.Value
			}
		case "initrd":
			initrds = append(initrds, kv.Value)
		case "options":
			options = append(options, kv.Value)
		}
	}
	if len(initrds) > 0 {
		parts := make([]string, len(initrds))
		for i, v := range initrds {
			parts[i] = "initrd=" + v
		}
		ec.Initrd = strings.Join(parts, " ")
	}
	ec.Options = strings.Join(options, " ")
	return ec
}
