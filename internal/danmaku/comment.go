package danmaku

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mgpai22/danmaku/internal/subtitle"
)

// raw type code of the <d p> attribute
type MotionType int

const (
	MotionScroll            MotionType = 1
	MotionScrollLeftToRight MotionType = 2
	MotionScrollLegacy      MotionType = 3
	MotionBottom            MotionType = 4
	MotionTop               MotionType = 5
	MotionReversed          MotionType = 6
	MotionSpecialA          MotionType = 7
	MotionSpecialB          MotionType = 8
)

// rendering behaviour of a motion type
type MotionClass int

const (
	ClassUnsupported MotionClass = iota
	ClassScroll
	ClassTop
	ClassBottom
)

func (m MotionType) Class() MotionClass {
	switch m {
	case MotionScroll, MotionScrollLeftToRight, MotionScrollLegacy, MotionReversed:
		return ClassScroll
	case MotionTop:
		return ClassTop
	case MotionBottom:
		return ClassBottom
	default:
		return ClassUnsupported
	}
}

// 7 and 8 are advanced comments and are never rendered
func (m MotionType) Special() bool {
	return m == MotionSpecialA || m == MotionSpecialB
}

type SizeClass int

const (
	SizeLarge SizeClass = iota
	SizeSmall
)

func (s SizeClass) String() string {
	switch s {
	case SizeLarge:
		return "large"
	case SizeSmall:
		return "small"
	default:
		return fmt.Sprintf("size(%d)", int(s))
	}
}

// codes at or above this bucket to SizeLarge (25), below to SizeSmall (18)
const largeSizeThreshold = 21.5

func SizeClassOf(fontSize float64) SizeClass {
	if fontSize >= largeSizeThreshold {
		return SizeLarge
	}
	return SizeSmall
}

const White = 0xFFFFFF

const colorMask = 0xFFFFFF

// submission metadata carried for re-export only
type Metadata struct {
	SubmittedAt int64
	Pool        int
	UserHash    string
	RowID       int64
	// original p attribute, reused verbatim on export
	raw string
}

// one parsed comment
type Comment struct {
	Content  string
	Time     float64
	Type     MotionType
	FontSize float64
	Color    int
	Meta     Metadata
}

func (c Comment) Size() SizeClass {
	return SizeClassOf(c.FontSize)
}

const recordFields = 8

// parses the packed p attribute time,type,size,color,timestamp,pool,userHash,rowId
func ParseRecord(p, content string) (Comment, error) {
	fields := strings.Split(p, ",")
	if len(fields) != recordFields {
		return Comment{}, &MalformedRecordError{
			Index: -1,
			Err:   fmt.Errorf("expected %d fields, got %d", recordFields, len(fields)),
		}
	}

	var (
		c   = Comment{Content: content}
		err error
	)
	if c.Time, err = parseFloat("time", fields[0]); err != nil {
		return Comment{}, err
	}
	if math.IsNaN(c.Time) || math.IsInf(c.Time, 0) {
		return Comment{}, &MalformedRecordError{
			Index: -1, Field: "time", Value: fields[0],
			Err: errors.New("time must be finite"),
		}
	}
	if _, err := subtitle.Seconds(c.Time); err != nil {
		return Comment{}, &MalformedRecordError{Index: -1, Field: "time", Value: fields[0], Err: err}
	}

	motion, err := parseInt("type", fields[1])
	if err != nil {
		return Comment{}, err
	}
	c.Type = MotionType(motion)

	if c.FontSize, err = parseFloat("size", fields[2]); err != nil {
		return Comment{}, err
	}

	color, err := parseInt("color", fields[3])
	if err != nil {
		return Comment{}, err
	}
	// only the low 24 bits are RGB
	c.Color = int(color) & colorMask

	if c.Meta.SubmittedAt, err = parseInt("timestamp", fields[4]); err != nil {
		return Comment{}, err
	}
	pool, err := parseInt("pool", fields[5])
	if err != nil {
		return Comment{}, err
	}
	c.Meta.Pool = int(pool)
	c.Meta.UserHash = fields[6]
	if c.Meta.RowID, err = parseInt("rowId", fields[7]); err != nil {
		return Comment{}, err
	}
	c.Meta.raw = p

	return c, nil
}

// p attribute for export, the original one when the comment was parsed
func (c Comment) Attr() string {
	if c.Meta.raw != "" {
		return c.Meta.raw
	}
	return strings.Join([]string{
		strconv.FormatFloat(c.Time, 'f', -1, 64),
		strconv.Itoa(int(c.Type)),
		strconv.FormatFloat(c.FontSize, 'f', -1, 64),
		strconv.Itoa(c.Color),
		strconv.FormatInt(c.Meta.SubmittedAt, 10),
		strconv.Itoa(c.Meta.Pool),
		c.Meta.UserHash,
		strconv.FormatInt(c.Meta.RowID, 10),
	}, ",")
}

// copy with new text; the metadata keeps pointing at the original record
func (c Comment) WithContent(content string) Comment {
	c.Content = content
	return c
}

func parseFloat(field, value string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, &MalformedRecordError{Index: -1, Field: field, Value: value, Err: err}
	}
	return f, nil
}

func parseInt(field, value string) (int64, error) {
	i, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0, &MalformedRecordError{Index: -1, Field: field, Value: value, Err: err}
	}
	return i, nil
}
