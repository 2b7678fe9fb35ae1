package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/san-kum/physlab/internal/dynamo"
)

const Version = "1.0"

type Options struct {
	// Delimiter separates CSV fields. Zero means ','.
	Delimiter rune
	// Precision is the number of CSV decimals. Zero or less means 6.
	Precision int
	NoHeader  bool

	// Metadata wraps JSON output in {metadata, data}.
	Metadata bool
	DataType string
	Compact  bool

	// Every keeps one record in Every. Zero or one keeps all.
	Every int

	Now func() time.Time
}

type Metadata struct {
	ExportDate string `json:"exportDate"`
	DataType   string `json:"dataType"`
	Version    string `json:"version"`
}

type envelope struct {
	Metadata Metadata `json:"metadata"`
	Data     any      `json:"data"`
}

func Encode(records []Record, format dynamo.Format, opts Options) (string, error) {
	records = sample(records, opts.Every)
	switch format {
	case dynamo.FormatCSV:
		return CSV(records, opts)
	case dynamo.FormatJSON:
		return JSON(records, opts)
	}
	return "", fmt.Errorf("%w: %q", dynamo.ErrUnknownFormat, format)
}

func sample(records []Record, every int) []Record {
	if every <= 1 {
		return records
	}
	out := make([]Record, 0, len(records)/every+1)
	for i := 0; i < len(records); i += every {
		out = append(out, records[i])
	}
	return out
}

// CSV writes one row per record. Headers are the flattened keys in order of
// first appearance; records missing a key leave the cell empty.
func CSV(records []Record, opts Options) (string, error) {
	if len(records) == 0 {
		return "", nil
	}

	flat := make([]Record, len(records))
	var headers []string
	index := map[string]int{}
	for i, r := range records {
		flat[i] = r.Flatten()
		for _, f := range flat[i] {
			if _, ok := index[f.Key]; !ok {
				index[f.Key] = len(headers)
				headers = append(headers, f.Key)
			}
		}
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if opts.Delimiter != 0 {
		w.Comma = opts.Delimiter
	}

	if !opts.NoHeader {
		if err := w.Write(headers); err != nil {
			return "", err
		}
	}

	prec := opts.Precision
	if prec <= 0 {
		prec = 6
	}
	for _, r := range flat {
		row := make([]string, len(headers))
		for _, f := range r {
			row[index[f.Key]] = formatValue(f.Value, prec)
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func formatValue(v any, prec int) string {
	switch x := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(x, 'f', prec, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', prec, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	case string:
		return x
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}

// JSON encodes data (usually []Record) as a pretty-printed array.
func JSON(data any, opts Options) (string, error) {
	if records, ok := data.([]Record); ok && records == nil {
		data = []Record{}
	}

	var payload any = data
	if opts.Metadata {
		now := time.Now
		if opts.Now != nil {
			now = opts.Now
		}
		dataType := opts.DataType
		if dataType == "" {
			dataType = "simulation"
		}
		payload = envelope{
			Metadata: Metadata{
				ExportDate: now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
				DataType:   dataType,
				Version:    Version,
			},
			Data: data,
		}
	}

	var (
		out []byte
		err error
	)
	if opts.Compact {
		out, err = json.Marshal(payload)
	} else {
		out, err = json.MarshalIndent(payload, "", "  ")
	}
	if err != nil {
		return "", fmt.Errorf("encode json: %w", err)
	}
	return string(out), nil
}
