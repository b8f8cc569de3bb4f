package columnar

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/golang/snappy"
)

// Batch wire format: a 4-byte magic followed by a snappy-compressed payload.
// The payload is the schema, the row count, then each column as a null
// bitmap (roaring serialization) and its raw values.
var batchMagic = [4]byte{'F', 'S', 'B', '1'}

// ByteOrder is the byte order used for all batch serialization.
var ByteOrder = binary.LittleEndian

// EncodeBatch serializes a record batch into a compressed byte slice,
// suitable for spilling or shipping between workers.
func EncodeBatch(batch *RecordBatch) ([]byte, error) {
	payload := new(bytes.Buffer)

	schema := batch.Schema()
	binary.Write(payload, ByteOrder, uint32(schema.Len()))
	for i := 0; i < schema.Len(); i++ {
		field := schema.Field(i)
		binary.Write(payload, ByteOrder, uint16(len(field.Name)))
		payload.WriteString(field.Name)
		binary.Write(payload, ByteOrder, uint8(field.Type))
		nullable := uint8(0)
		if field.Nullable {
			nullable = 1
		}
		binary.Write(payload, ByteOrder, nullable)
	}
	binary.Write(payload, ByteOrder, uint32(batch.NumRows()))

	for i := 0; i < batch.NumColumns(); i++ {
		if err := encodeColumn(payload, batch.Column(i)); err != nil {
			return nil, fmt.Errorf("failed to encode column %d: %w", i, err)
		}
	}

	encoded := snappy.Encode(nil, payload.Bytes())
	out := make([]byte, 0, 4+len(encoded))
	out = append(out, batchMagic[:]...)
	out = append(out, encoded...)
	return out, nil
}

// DecodeBatch reverses EncodeBatch.
func DecodeBatch(data []byte) (*RecordBatch, error) {
	if len(data) < 4 || !bytes.Equal(data[:4], batchMagic[:]) {
		return nil, fmt.Errorf("not a serialized batch: bad magic")
	}
	payload, err := snappy.Decode(nil, data[4:])
	if err != nil {
		return nil, fmt.Errorf("failed to decompress batch: %w", err)
	}
	buf := bytes.NewReader(payload)

	var fieldCount uint32
	if err := binary.Read(buf, ByteOrder, &fieldCount); err != nil {
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}
	fields := make([]Field, fieldCount)
	for i := range fields {
		var nameLen uint16
		if err := binary.Read(buf, ByteOrder, &nameLen); err != nil {
			return nil, fmt.Errorf("failed to read schema: %w", err)
		}
		name := make([]byte, nameLen)
		if _, err := io.ReadFull(buf, name); err != nil {
			return nil, fmt.Errorf("failed to read schema: %w", err)
		}
		var dtype, nullable uint8
		if err := binary.Read(buf, ByteOrder, &dtype); err != nil {
			return nil, fmt.Errorf("failed to read schema: %w", err)
		}
		if err := binary.Read(buf, ByteOrder, &nullable); err != nil {
			return nil, fmt.Errorf("failed to read schema: %w", err)
		}
		fields[i] = Field{Name: string(name), Type: DataType(dtype), Nullable: nullable == 1}
	}
	schema := NewSchema(fields)

	var numRows uint32
	if err := binary.Read(buf, ByteOrder, &numRows); err != nil {
		return nil, fmt.Errorf("failed to read row count: %w", err)
	}

	columns := make([]Column, fieldCount)
	for i := range columns {
		col, err := decodeColumn(buf, fields[i].Type, int(numRows))
		if err != nil {
			return nil, fmt.Errorf("failed to decode column %d: %w", i, err)
		}
		columns[i] = col
	}
	return NewRecordBatch(schema, columns)
}

func encodeColumn(buf *bytes.Buffer, col Column) error {
	nulls := columnNulls(col)
	if nulls == nil {
		binary.Write(buf, ByteOrder, uint8(0))
	} else {
		binary.Write(buf, ByteOrder, uint8(1))
		bm := new(bytes.Buffer)
		if _, err := nulls.WriteTo(bm); err != nil {
			return fmt.Errorf("failed to serialize null bitmap: %w", err)
		}
		binary.Write(buf, ByteOrder, uint32(bm.Len()))
		buf.Write(bm.Bytes())
	}

	switch c := col.(type) {
	case *NumericColumn[int8]:
		return binary.Write(buf, ByteOrder, c.Values())
	case *NumericColumn[int16]:
		return binary.Write(buf, ByteOrder, c.Values())
	case *NumericColumn[int32]:
		return binary.Write(buf, ByteOrder, c.Values())
	case *NumericColumn[int64]:
		return binary.Write(buf, ByteOrder, c.Values())
	case *NumericColumn[uint8]:
		return binary.Write(buf, ByteOrder, c.Values())
	case *NumericColumn[uint16]:
		return binary.Write(buf, ByteOrder, c.Values())
	case *NumericColumn[uint32]:
		return binary.Write(buf, ByteOrder, c.Values())
	case *NumericColumn[uint64]:
		return binary.Write(buf, ByteOrder, c.Values())
	case *NumericColumn[float32]:
		return binary.Write(buf, ByteOrder, c.Values())
	case *NumericColumn[float64]:
		return binary.Write(buf, ByteOrder, c.Values())
	case *BooleanColumn:
		for _, v := range c.Values() {
			b := uint8(0)
			if v {
				b = 1
			}
			buf.WriteByte(b)
		}
		return nil
	case *StringColumn:
		for _, v := range c.Values() {
			binary.Write(buf, ByteOrder, uint32(len(v)))
			buf.WriteString(v)
		}
		return nil
	default:
		return fmt.Errorf("unsupported column type %T", col)
	}
}

func decodeColumn(buf *bytes.Reader, dtype DataType, numRows int) (Column, error) {
	var hasNulls uint8
	if err := binary.Read(buf, ByteOrder, &hasNulls); err != nil {
		return nil, err
	}
	var nulls *roaring.Bitmap
	if hasNulls == 1 {
		var bmLen uint32
		if err := binary.Read(buf, ByteOrder, &bmLen); err != nil {
			return nil, err
		}
		bm := make([]byte, bmLen)
		if _, err := io.ReadFull(buf, bm); err != nil {
			return nil, err
		}
		nulls = roaring.New()
		if _, err := nulls.ReadFrom(bytes.NewReader(bm)); err != nil {
			return nil, fmt.Errorf("failed to deserialize null bitmap: %w", err)
		}
	}

	switch dtype {
	case Int8:
		return decodeNumeric[int8](buf, dtype, numRows, nulls)
	case Int16:
		return decodeNumeric[int16](buf, dtype, numRows, nulls)
	case Int32:
		return decodeNumeric[int32](buf, dtype, numRows, nulls)
	case Int64:
		return decodeNumeric[int64](buf, dtype, numRows, nulls)
	case UInt8:
		return decodeNumeric[uint8](buf, dtype, numRows, nulls)
	case UInt16:
		return decodeNumeric[uint16](buf, dtype, numRows, nulls)
	case UInt32:
		return decodeNumeric[uint32](buf, dtype, numRows, nulls)
	case UInt64:
		return decodeNumeric[uint64](buf, dtype, numRows, nulls)
	case Float32:
		return decodeNumeric[float32](buf, dtype, numRows, nulls)
	case Float64:
		return decodeNumeric[float64](buf, dtype, numRows, nulls)
	case Boolean:
		raw := make([]byte, numRows)
		if _, err := io.ReadFull(buf, raw); err != nil {
			return nil, err
		}
		values := make([]bool, numRows)
		for i, b := range raw {
			values[i] = b == 1
		}
		return NewBooleanColumn(values, nulls), nil
	case String:
		values := make([]string, numRows)
		for i := range values {
			var strLen uint32
			if err := binary.Read(buf, ByteOrder, &strLen); err != nil {
				return nil, err
			}
			raw := make([]byte, strLen)
			if _, err := io.ReadFull(buf, raw); err != nil {
				return nil, err
			}
			values[i] = string(raw)
		}
		return NewStringColumn(values, nulls), nil
	default:
		return nil, fmt.Errorf("unsupported data type %s", dtype)
	}
}

func decodeNumeric[T Element](buf *bytes.Reader, dtype DataType, numRows int, nulls *roaring.Bitmap) (Column, error) {
	values := make([]T, numRows)
	if err := binary.Read(buf, ByteOrder, values); err != nil {
		return nil, err
	}
	return NewNumericColumn(dtype, values, nulls), nil
}

func columnNulls(col Column) *roaring.Bitmap {
	type nullable interface {
		Nulls() *roaring.Bitmap
	}
	if n, ok := col.(nullable); ok {
		return n.Nulls()
	}
	return nil
}
