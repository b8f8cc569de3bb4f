// Package source provides batch sources that feed compiled expressions:
// parquet files read locally or over HTTP range requests.
package source

import (
	"fmt"
	"io"
	"net/url"
	"os"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/parquet-go/parquet-go"
	"howett.net/ranger"

	"fusion/columnar"
)

// DefaultBatchSize is the row count per batch when none is requested.
const DefaultBatchSize = 4096

// ParquetSource reads a parquet file into successive record batches whose
// schema is derived from the parquet leaf types.
type ParquetSource struct {
	path      string
	schema    *columnar.Schema
	rows      *parquet.Reader
	closer    io.Closer
	batchSize int
	done      bool
}

// NewParquetSource opens a parquet file. Paths starting with http:// or
// https:// are read remotely via HTTP range requests; everything else is a
// local file path.
func NewParquetSource(path string, batchSize int) (*ParquetSource, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	var (
		file   *parquet.File
		closer io.Closer
		err    error
	)
	if isHTTPURL(path) {
		file, err = openHTTPParquet(path)
	} else {
		file, closer, err = openLocalParquet(path)
	}
	if err != nil {
		return nil, err
	}

	schema, err := convertSchema(file.Schema())
	if err != nil {
		if closer != nil {
			closer.Close()
		}
		return nil, fmt.Errorf("unsupported parquet schema in %s: %w", path, err)
	}

	return &ParquetSource{
		path:      path,
		schema:    schema,
		rows:      parquet.NewReader(file),
		closer:    closer,
		batchSize: batchSize,
	}, nil
}

func isHTTPURL(path string) bool {
	u, err := url.Parse(path)
	if err != nil {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

func openLocalParquet(path string) (*parquet.File, io.Closer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("failed to stat parquet file: %w", err)
	}
	file, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	return file, f, nil
}

func openHTTPParquet(urlStr string) (*parquet.File, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	httpRanger := &ranger.HTTPRanger{URL: parsedURL}
	reader, err := ranger.NewReader(httpRanger)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP reader: %w", err)
	}
	length, err := reader.Length()
	if err != nil {
		return nil, fmt.Errorf("failed to get HTTP content length: %w", err)
	}
	file, err := parquet.OpenFile(reader, length)
	if err != nil {
		return nil, fmt.Errorf("failed to open remote parquet file: %w", err)
	}
	return file, nil
}

// Schema returns the derived columnar schema.
func (ps *ParquetSource) Schema() *columnar.Schema {
	return ps.schema
}

// Next reads up to batchSize rows and assembles them into a record batch.
// Returns (nil, nil) once the file is exhausted.
func (ps *ParquetSource) Next() (*columnar.RecordBatch, error) {
	if ps.done {
		return nil, nil
	}

	rows := make([]map[string]interface{}, 0, ps.batchSize)
	for len(rows) < ps.batchSize {
		row := make(map[string]interface{})
		if err := ps.rows.Read(&row); err != nil {
			ps.done = true
			break
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	columns := make([]columnar.Column, ps.schema.Len())
	for i := 0; i < ps.schema.Len(); i++ {
		col, err := buildColumn(ps.schema.Field(i), rows)
		if err != nil {
			return nil, fmt.Errorf("failed to build column %s: %w", ps.schema.Field(i).Name, err)
		}
		columns[i] = col
	}
	return columnar.NewRecordBatch(ps.schema, columns)
}

// Close releases the underlying file handle, if any.
func (ps *ParquetSource) Close() error {
	if ps.closer != nil {
		return ps.closer.Close()
	}
	return nil
}

func convertSchema(schema *parquet.Schema) (*columnar.Schema, error) {
	fields := make([]columnar.Field, 0, len(schema.Fields()))
	for _, field := range schema.Fields() {
		if !field.Leaf() {
			return nil, fmt.Errorf("nested field %q is not supported", field.Name())
		}
		dtype, err := convertKind(field.Type().Kind())
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", field.Name(), err)
		}
		fields = append(fields, columnar.Field{
			Name:     field.Name(),
			Type:     dtype,
			Nullable: field.Optional(),
		})
	}
	return columnar.NewSchema(fields), nil
}

func convertKind(kind parquet.Kind) (columnar.DataType, error) {
	switch kind {
	case parquet.Boolean:
		return columnar.Boolean, nil
	case parquet.Int32:
		return columnar.Int32, nil
	case parquet.Int64:
		return columnar.Int64, nil
	case parquet.Float:
		return columnar.Float32, nil
	case parquet.Double:
		return columnar.Float64, nil
	case parquet.ByteArray:
		return columnar.String, nil
	default:
		return 0, fmt.Errorf("parquet kind %s is not supported", kind)
	}
}

func buildColumn(field columnar.Field, rows []map[string]interface{}) (columnar.Column, error) {
	nulls := roaring.New()

	switch field.Type {
	case columnar.Int32:
		values := make([]int32, len(rows))
		for i, row := range rows {
			v, ok := cell(row, field.Name)
			if !ok {
				nulls.Add(uint32(i))
				continue
			}
			switch x := v.(type) {
			case int32:
				values[i] = x
			case int64:
				values[i] = int32(x)
			case int:
				values[i] = int32(x)
			default:
				return nil, fmt.Errorf("unexpected value type %T", v)
			}
		}
		return columnar.NewInt32Column(values, nulls), nil

	case columnar.Int64:
		values := make([]int64, len(rows))
		for i, row := range rows {
			v, ok := cell(row, field.Name)
			if !ok {
				nulls.Add(uint32(i))
				continue
			}
			switch x := v.(type) {
			case int64:
				values[i] = x
			case int32:
				values[i] = int64(x)
			case int:
				values[i] = int64(x)
			default:
				return nil, fmt.Errorf("unexpected value type %T", v)
			}
		}
		return columnar.NewInt64Column(values, nulls), nil

	case columnar.Float32:
		values := make([]float32, len(rows))
		for i, row := range rows {
			v, ok := cell(row, field.Name)
			if !ok {
				nulls.Add(uint32(i))
				continue
			}
			x, ok := v.(float32)
			if !ok {
				return nil, fmt.Errorf("unexpected value type %T", v)
			}
			values[i] = x
		}
		return columnar.NewFloat32Column(values, nulls), nil

	case columnar.Float64:
		values := make([]float64, len(rows))
		for i, row := range rows {
			v, ok := cell(row, field.Name)
			if !ok {
				nulls.Add(uint32(i))
				continue
			}
			switch x := v.(type) {
			case float64:
				values[i] = x
			case float32:
				values[i] = float64(x)
			default:
				return nil, fmt.Errorf("unexpected value type %T", v)
			}
		}
		return columnar.NewFloat64Column(values, nulls), nil

	case columnar.Boolean:
		values := make([]bool, len(rows))
		for i, row := range rows {
			v, ok := cell(row, field.Name)
			if !ok {
				nulls.Add(uint32(i))
				continue
			}
			x, ok := v.(bool)
			if !ok {
				return nil, fmt.Errorf("unexpected value type %T", v)
			}
			values[i] = x
		}
		return columnar.NewBooleanColumn(values, nulls), nil

	case columnar.String:
		values := make([]string, len(rows))
		for i, row := range rows {
			v, ok := cell(row, field.Name)
			if !ok {
				nulls.Add(uint32(i))
				continue
			}
			switch x := v.(type) {
			case string:
				values[i] = x
			case []byte:
				values[i] = string(x)
			default:
				return nil, fmt.Errorf("unexpected value type %T", v)
			}
		}
		return columnar.NewStringColumn(values, nulls), nil

	default:
		return nil, fmt.Errorf("unsupported data type %s", field.Type)
	}
}

func cell(row map[string]interface{}, name string) (interface{}, bool) {
	v, ok := row[name]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}
