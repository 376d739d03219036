package convert

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/wyfcoding/coordtransform/geo"
	"github.com/wyfcoding/coordtransform/xerrors"
)

// Format 输入输出的记录格式。
type Format string

const (
	FormatCSV  Format = "csv"  // 每行 "lng,lat"，# 开头为注释
	FormatJSON Format = "json" // 每行一个 {"lng":..,"lat":..}
)

// ParseFormat 解析格式名称。
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatCSV, FormatJSON:
		return f, nil
	default:
		return "", xerrors.InvalidArg(fmt.Sprintf("unknown format %q, supported: csv, json", name))
	}
}

// Record 一条输入记录及其所在行号 (从 1 开始)。
type Record struct {
	Line  int
	Point geo.Point
}

// Decoder 逐条读取坐标记录。
type Decoder struct {
	format  Format
	csv     *csv.Reader
	scanner *bufio.Scanner
	line    int
}

// NewDecoder 创建指定格式的 Decoder。
func NewDecoder(r io.Reader, format Format) *Decoder {
	d := &Decoder{format: format}
	if format == FormatJSON {
		d.scanner = bufio.NewScanner(r)
		return d
	}
	d.csv = csv.NewReader(r)
	d.csv.Comment = '#'
	d.csv.FieldsPerRecord = -1
	d.csv.TrimLeadingSpace = true
	d.csv.ReuseRecord = true
	return d
}

// Decode 读取下一条记录，输入结束时返回 io.EOF。
func (d *Decoder) Decode() (Record, error) {
	if d.format == FormatJSON {
		return d.decodeJSON()
	}
	return d.decodeCSV()
}

func (d *Decoder) decodeCSV() (Record, error) {
	fields, err := d.csv.Read()
	if errors.Is(err, io.EOF) {
		return Record{}, io.EOF
	}
	if err != nil {
		var perr *csv.ParseError
		line := 0
		if errors.As(err, &perr) {
			line = perr.Line
		}
		return Record{}, invalidRecord(line, err)
	}
	line, _ := d.csv.FieldPos(0)
	if len(fields) != 2 {
		return Record{}, invalidRecord(line, fmt.Errorf("expected 2 fields, got %d", len(fields)))
	}

	lng, err := strconv.ParseFloat(strings.TrimSpace(fields[0]), 64)
	if err != nil {
		return Record{}, invalidRecord(line, err)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
	if err != nil {
		return Record{}, invalidRecord(line, err)
	}
	return Record{Line: line, Point: geo.Point{Lng: lng, Lat: lat}}, nil
}

func (d *Decoder) decodeJSON() (Record, error) {
	for d.scanner.Scan() {
		d.line++
		text := strings.TrimSpace(d.scanner.Text())
		if text == "" {
			continue
		}

		var raw struct {
			Lng *float64 `json:"lng"`
			Lat *float64 `json:"lat"`
		}
		if err := json.Unmarshal([]byte(text), &raw); err != nil {
			return Record{}, invalidRecord(d.line, err)
		}
		if raw.Lng == nil || raw.Lat == nil {
			return Record{}, invalidRecord(d.line, errors.New("both lng and lat are required"))
		}
		return Record{Line: d.line, Point: geo.Point{Lng: *raw.Lng, Lat: *raw.Lat}}, nil
	}
	if err := d.scanner.Err(); err != nil {
		return Record{}, invalidRecord(d.line+1, err)
	}
	return Record{}, io.EOF
}

// ReadAll 读取全部记录。遇到第一条非法记录即返回错误。
func ReadAll(r io.Reader, format Format) ([]Record, error) {
	d := NewDecoder(r, format)
	var records []Record
	for {
		rec, err := d.Decode()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
}

func invalidRecord(line int, cause error) error {
	return xerrors.ErrInvalidRecord.Derive(cause).
		WithContext("line", line).
		WithDetail("line %d: %v", line, cause)
}

// Encoder 按指定格式写出坐标。
type Encoder struct {
	format Format
	csv    *csv.Writer
	json   *json.Encoder
}

// NewEncoder 创建指定格式的 Encoder。CSV 格式需要在结束时调用 Flush。
func NewEncoder(w io.Writer, format Format) *Encoder {
	if format == FormatJSON {
		return &Encoder{format: format, json: json.NewEncoder(w)}
	}
	return &Encoder{format: format, csv: csv.NewWriter(w)}
}

// Encode 写出一个坐标点。浮点数使用最短且可无损还原的十进制表示。
func (e *Encoder) Encode(p geo.Point) error {
	if e.format == FormatJSON {
		return e.json.Encode(p)
	}
	return e.csv.Write([]string{
		strconv.FormatFloat(p.Lng, 'f', -1, 64),
		strconv.FormatFloat(p.Lat, 'f', -1, 64),
	})
}

// Flush 刷新缓冲并返回写出过程中的错误。
func (e *Encoder) Flush() error {
	if e.csv == nil {
		return nil
	}
	e.csv.Flush()
	return e.csv.Error()
}
