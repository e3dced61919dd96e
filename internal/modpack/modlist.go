package modpack

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrInvalidModList is returned when a mod list cannot be parsed.
var ErrInvalidModList = errors.New("invalid mod list")

// ModEntry is one file replaced by a mod pack. ModOffset addresses the
// entry header inside the pack's data file.
type ModEntry struct {
	Name      string `json:"Name"`
	Category  string `json:"Category"`
	FullPath  string `json:"FullPath"`
	DatFile   string `json:"DatFile"`
	ModOffset uint32 `json:"ModOffset"`
	ModSize   uint32 `json:"ModSize"`
}

// ModList is the parsed contents of a mod list file.
type ModList struct {
	Name        string
	Author      string
	Version     string
	Description string
	Entries     []ModEntry
}

type modOption struct {
	Name      string     `json:"Name"`
	GroupName string     `json:"GroupName"`
	ModsJsons []ModEntry `json:"ModsJsons"`
}

type modGroup struct {
	GroupName  string      `json:"GroupName"`
	OptionList []modOption `json:"OptionList"`
}

type modPackPage struct {
	PageIndex int        `json:"PageIndex"`
	ModGroups []modGroup `json:"ModGroups"`
}

// modPackDocument is the single-document mod list of newer packs.
type modPackDocument struct {
	TTMPVersion    string        `json:"TTMPVersion"`
	Name           string        `json:"Name"`
	Author         string        `json:"Author"`
	Version        string        `json:"Version"`
	Description    string        `json:"Description"`
	SimpleModsList []ModEntry    `json:"SimpleModsList"`
	ModPackPages   []modPackPage `json:"ModPackPages"`
}

// ParseModList reads either a single mod pack document or the older format
// with one JSON entry per line.
func ParseModList(r io.Reader) (*ModList, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading mod list: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return &ModList{}, nil
	}

	if data[0] == '{' {
		if doc, ok := parseModDocument(data); ok {
			return doc.modList(), nil
		}
	}
	return parseModLines(data)
}

// parseModDocument reports whether data is a single mod pack document.
// A lone legacy line also parses as one object, so it is told apart by its
// FullPath key.
func parseModDocument(data []byte) (*modPackDocument, bool) {
	var doc modPackDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, false
	}
	if doc.TTMPVersion != "" {
		return &doc, true
	}
	var line struct {
		FullPath *string `json:"FullPath"`
	}
	if err := json.Unmarshal(data, &line); err != nil || line.FullPath != nil {
		return nil, false
	}
	return &doc, true
}

func (d *modPackDocument) modList() *ModList {
	list := &ModList{
		Name:        d.Name,
		Author:      d.Author,
		Version:     d.Version,
		Description: d.Description,
	}
	list.Entries = append(list.Entries, d.SimpleModsList...)
	for _, page := range d.ModPackPages {
		for _, group := range page.ModGroups {
			for _, option := range group.OptionList {
				list.Entries = append(list.Entries, option.ModsJsons...)
			}
		}
	}
	return list
}

func parseModLines(data []byte) (*ModList, error) {
	list := &ModList{}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}
		var entry ModEntry
		if err := json.Unmarshal(text, &entry); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidModList, line, err)
		}
		if entry.FullPath == "" {
			return nil, fmt.Errorf("%w: line %d: entry without FullPath", ErrInvalidModList, line)
		}
		list.Entries = append(list.Entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidModList, err)
	}
	return list, nil
}
