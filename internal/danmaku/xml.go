package danmaku

import (
	"bufio"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// reads every <d p="..."> element of a danmaku XML document, in document order
func ParseXML(r io.Reader) ([]Comment, error) {
	decoder := xml.NewDecoder(r)
	var comments []Comment

	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read danmaku XML: %w", err)
		}

		start, ok := token.(xml.StartElement)
		if !ok || start.Name.Local != "d" {
			continue
		}
		p, ok := attr(start, "p")
		if !ok {
			continue
		}

		content, err := innerContent(decoder)
		if err != nil {
			return nil, fmt.Errorf("failed to decode record %d: %w", len(comments), err)
		}

		comment, err := ParseRecord(p, content)
		if err != nil {
			var malformed *MalformedRecordError
			if errors.As(err, &malformed) {
				malformed.Index = len(comments)
			}
			return nil, err
		}
		comments = append(comments, comment)
	}

	return comments, nil
}

func attr(start xml.StartElement, name string) (string, bool) {
	for _, a := range start.Attr {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// reads up to the end of the element just started and returns its content
// with entities decoded; child elements are kept as markup
func innerContent(decoder *xml.Decoder) (string, error) {
	var sb strings.Builder
	depth := 0

	for {
		token, err := decoder.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", io.ErrUnexpectedEOF
			}
			return "", err
		}

		switch t := token.(type) {
		case xml.StartElement:
			depth++
			sb.WriteString("<" + t.Name.Local)
			for _, a := range t.Attr {
				sb.WriteString(" " + a.Name.Local + `="`)
				_ = xml.EscapeText(&sb, []byte(a.Value))
				sb.WriteString(`"`)
			}
			sb.WriteString(">")
		case xml.EndElement:
			if depth == 0 {
				return sb.String(), nil
			}
			depth--
			sb.WriteString("</" + t.Name.Local + ">")
		case xml.CharData:
			sb.Write(t)
		}
	}
}

// <d p="...">content</d>
func (c Comment) XML() string {
	var sb strings.Builder
	sb.WriteString(`<d p="`)
	_ = xml.EscapeText(&sb, []byte(c.Attr()))
	sb.WriteString(`">`)
	_ = xml.EscapeText(&sb, []byte(c.Content))
	sb.WriteString(`</d>`)
	return sb.String()
}

// writes comments as a danmaku XML document
func WriteXML(w io.Writer, comments []Comment) error {
	bw := bufio.NewWriter(w)

	if _, err := bw.WriteString(xml.Header + "<i>\n"); err != nil {
		return err
	}
	for _, c := range comments {
		if _, err := bw.WriteString(c.XML() + "\n"); err != nil {
			return err
		}
	}
	if _, err := bw.WriteString("</i>\n"); err != nil {
		return err
	}

	return bw.Flush()
}
