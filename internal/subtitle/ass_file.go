package subtitle

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var leadingTagsRegex = regexp.MustCompile(`^(\{[^}]*\})+`)

// parsed Dialogue line
type Dialogue struct {
	Fields          map[string]string
	Start           time.Duration
	End             time.Duration
	Style           string
	Text            string
	LeadingTags     string
	TextWithoutTags string
	OriginalLine    string
}

// parsed ASS/SSA script, keeping only what callers inspect
type ASSFile struct {
	info            map[string]string
	styleNames      []string
	eventColumns    []string
	textColumnIndex int
	dialogues       []Dialogue
}

func Open(path string) (*ASSFile, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ASS file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	return Parse(file)
}

func Parse(r io.Reader) (*ASSFile, error) {
	assFile := &ASSFile{
		info:            make(map[string]string),
		textColumnIndex: -1,
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	section := ""
	lineNum := 0

	for scanner.Scan() {
		line := scanner.Text()
		lineNum++

		if lineNum == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}

		trimmedLine := strings.TrimSpace(line)
		if trimmedLine == "" || strings.HasPrefix(trimmedLine, ";") {
			continue
		}

		if strings.HasPrefix(trimmedLine, "[") &&
			strings.HasSuffix(trimmedLine, "]") {
			section = strings.ToLower(
				strings.TrimSuffix(strings.TrimPrefix(trimmedLine, "["), "]"),
			)
			continue
		}

		key, value, found := strings.Cut(trimmedLine, ":")
		if !found {
			continue
		}
		value = strings.TrimSpace(value)

		switch section {
		case "script info":
			assFile.info[key] = value
		case "v4+ styles", "v4 styles":
			if key == "Style" {
				name, _, _ := strings.Cut(value, ",")
				assFile.styleNames = append(assFile.styleNames, strings.TrimSpace(name))
			}
		case "events":
			switch key {
			case "Format":
				if err := assFile.parseEventFormat(value); err != nil {
					return nil, err
				}
			case "Dialogue":
				dialogue, err := assFile.parseDialogue(line, value)
				if err != nil {
					return nil, fmt.Errorf(
						"failed to parse Dialogue at line %d: %w",
						lineNum,
						err,
					)
				}
				assFile.dialogues = append(assFile.dialogues, dialogue)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading ASS file: %w", err)
	}

	if assFile.eventColumns == nil {
		return nil, fmt.Errorf(
			"ASS file missing Format line in [Events] section",
		)
	}

	return assFile, nil
}

func (f *ASSFile) parseEventFormat(value string) error {
	columns := strings.Split(value, ",")
	for i, col := range columns {
		columns[i] = strings.TrimSpace(col)
	}
	f.eventColumns = columns
	for i, col := range columns {
		if strings.EqualFold(col, "Text") {
			f.textColumnIndex = i
			break
		}
	}
	if f.textColumnIndex == -1 {
		return fmt.Errorf("ASS file missing Text column in Format line")
	}
	return nil
}

func (f *ASSFile) parseDialogue(line, content string) (Dialogue, error) {
	dialogue := Dialogue{OriginalLine: line, Fields: make(map[string]string)}

	numColumns := len(f.eventColumns)
	if numColumns == 0 {
		return dialogue, fmt.Errorf("format columns not parsed yet")
	}

	parts := splitASSFields(content, numColumns)
	if len(parts) < numColumns {
		return dialogue, fmt.Errorf(
			"expected %d fields, got %d",
			numColumns,
			len(parts),
		)
	}

	for i, col := range f.eventColumns {
		dialogue.Fields[strings.ToLower(col)] = strings.TrimSpace(parts[i])
	}
	dialogue.Text = parts[f.textColumnIndex]
	dialogue.Style = dialogue.Fields["style"]

	var err error
	if dialogue.Start, err = ParseTime(dialogue.Fields["start"]); err != nil {
		return dialogue, fmt.Errorf("start: %w", err)
	}
	if dialogue.End, err = ParseTime(dialogue.Fields["end"]); err != nil {
		return dialogue, fmt.Errorf("end: %w", err)
	}

	dialogue.LeadingTags, dialogue.TextWithoutTags = extractLeadingTags(dialogue.Text)

	return dialogue, nil
}

// the last field keeps any remaining commas
func splitASSFields(content string, numFields int) []string {
	if numFields <= 0 {
		return nil
	}
	return strings.SplitN(content, ",", numFields)
}

func extractLeadingTags(text string) (string, string) {
	match := leadingTagsRegex.FindString(text)
	if match == "" {
		return "", text
	}
	return match, text[len(match):]
}

// inverse of FormatTime
func ParseTime(ts string) (time.Duration, error) {
	ts = strings.TrimSpace(ts)
	parts := strings.Split(ts, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid ASS timestamp %q", ts)
	}

	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hours in %q: %w", ts, err)
	}

	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minutes in %q: %w", ts, err)
	}

	// split seconds and centiseconds
	secParts := strings.Split(parts[2], ".")
	if len(secParts) != 2 {
		return 0, fmt.Errorf("invalid seconds in %q", ts)
	}

	seconds, err := strconv.Atoi(secParts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid seconds in %q: %w", ts, err)
	}

	centis, err := strconv.Atoi(secParts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid centiseconds in %q: %w", ts, err)
	}

	return time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(centis)*10*time.Millisecond, nil
}

// value of a [Script Info] key such as PlayResX
func (f *ASSFile) Info(key string) string {
	return f.info[key]
}

// style names in declaration order
func (f *ASSFile) StyleNames() []string {
	return f.styleNames
}

func (f *ASSFile) Dialogues() []Dialogue {
	return f.dialogues
}
