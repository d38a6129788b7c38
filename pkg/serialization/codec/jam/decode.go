package jam

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"reflect"
)

// Unmarshal decodes data into dst, which must be a non-nil pointer. The whole
// input must be consumed.
func Unmarshal(data []byte, dst any) error {
	dstv := reflect.ValueOf(dst)
	if dstv.Kind() != reflect.Ptr || dstv.IsNil() {
		return fmt.Errorf(ErrUnsupportedType, dst)
	}

	buf := bytes.NewReader(data)
	br := byteReader{Reader: buf}
	if err := br.unmarshal(dstv.Elem()); err != nil {
		return err
	}
	if buf.Len() != 0 {
		return fmt.Errorf("%w: %d", ErrTrailingBytes, buf.Len())
	}
	return nil
}

// NewDecoder returns a decoder reading from reader.
func NewDecoder(reader io.Reader) *Decoder {
	return &Decoder{byteReader{reader}}
}

type Decoder struct {
	byteReader
}

func (d *Decoder) Decode(dst any) error {
	dstv := reflect.ValueOf(dst)
	if dstv.Kind() != reflect.Ptr || dstv.IsNil() {
		return fmt.Errorf(ErrUnsupportedType, dst)
	}
	return d.unmarshal(dstv.Elem())
}

type byteReader struct {
	io.Reader
}

func (br *byteReader) unmarshal(value reflect.Value) error {
	switch value.Kind() {
	case reflect.Bool:
		return br.decodeBool(value)
	case reflect.Int, reflect.Uint:
		return br.decodeCompact(value)
	case reflect.Uint8:
		return br.decodeFixedWidth(value, 1)
	case reflect.Uint16:
		return br.decodeFixedWidth(value, 2)
	case reflect.Uint32:
		return br.decodeFixedWidth(value, 4)
	case reflect.Uint64:
		return br.decodeFixedWidth(value, 8)
	case reflect.Ptr:
		return br.decodePointer(value)
	case reflect.Struct:
		return br.decodeStruct(value)
	case reflect.Array:
		return br.decodeArray(value)
	case reflect.Slice:
		if value.Type().Elem().Kind() == reflect.Uint8 {
			return br.decodeBytes(value)
		}
		return br.decodeSlice(value)
	default:
		return fmt.Errorf(ErrUnsupportedType, value.Type())
	}
}

func (br *byteReader) readFull(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(br.Reader, b); err != nil {
		return nil, fmt.Errorf(ErrReadingBytes, err)
	}
	return b, nil
}

func (br *byteReader) readOctet() (byte, error) {
	b, err := br.readFull(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (br *byteReader) decodePointer(value reflect.Value) error {
	isNil, err := br.readPointerMarker()
	if err != nil {
		return err
	}
	if isNil {
		value.Set(reflect.Zero(value.Type()))
		return nil
	}
	if value.IsNil() {
		value.Set(reflect.New(value.Type().Elem()))
	}
	return br.unmarshal(value.Elem())
}

func (br *byteReader) decodeSlice(value reflect.Value) error {
	l, err := br.decodeLength()
	if err != nil {
		return err
	}
	if l == 0 {
		value.Set(reflect.Zero(value.Type()))
		return nil
	}
	out := reflect.MakeSlice(value.Type(), 0, int(min(l, 1024)))
	for i := uint64(0); i < l; i++ {
		elem := reflect.New(value.Type().Elem()).Elem()
		if err := br.unmarshal(elem); err != nil {
			return err
		}
		out = reflect.Append(out, elem)
	}
	value.Set(out)
	return nil
}

func (br *byteReader) decodeArray(value reflect.Value) error {
	if value.Type().Elem().Kind() == reflect.Uint8 {
		b, err := br.readFull(value.Len())
		if err != nil {
			return err
		}
		reflect.Copy(value, reflect.ValueOf(b))
		return nil
	}
	for i := 0; i < value.Len(); i++ {
		if err := br.unmarshal(value.Index(i)); err != nil {
			return err
		}
	}
	return nil
}

func (br *byteReader) decodeStruct(value reflect.Value) error {
	t := value.Type()
	for i := 0; i < value.NumField(); i++ {
		field := value.Field(i)
		fieldType := t.Field(i)

		// Skip unexported fields
		if !field.CanSet() {
			continue
		}

		opts, err := parseFieldTag(fieldType)
		if err != nil {
			return err
		}
		switch {
		case opts.skip:
			continue
		case opts.length > 0:
			if !isUnsigned(field.Kind()) {
				return fmt.Errorf(ErrDecodingStructField, fieldType.Name, fmt.Errorf(ErrUnsupportedType, field.Type()))
			}
			if err := br.decodeFixedWidth(field, opts.length); err != nil {
				return fmt.Errorf(ErrDecodingStructField, fieldType.Name, err)
			}
			continue
		case opts.compact:
			if !isUnsigned(field.Kind()) {
				return fmt.Errorf(ErrCompactField, field.Kind())
			}
			if err := br.decodeCompact(field); err != nil {
				return fmt.Errorf(ErrDecodingStructField, fieldType.Name, err)
			}
			continue
		}

		if err := br.unmarshal(field); err != nil {
			return fmt.Errorf(ErrDecodingStructField, fieldType.Name, err)
		}
	}
	return nil
}

func (br *byteReader) decodeBool(value reflect.Value) error {
	b, err := br.readOctet()
	if err != nil {
		return err
	}
	switch b {
	case 0x00:
		value.SetBool(false)
	case 0x01:
		value.SetBool(true)
	default:
		return ErrDecodingBool
	}
	return nil
}

func (br *byteReader) readNatural() (uint64, error) {
	prefix, err := br.readOctet()
	if err != nil {
		return 0, err
	}
	rest, err := br.readFull(naturalLength(prefix))
	if err != nil {
		return 0, err
	}
	return decodeNatural(append([]byte{prefix}, rest...))
}

func (br *byteReader) decodeCompact(value reflect.Value) error {
	x, err := br.readNatural()
	if err != nil {
		return err
	}
	switch value.Kind() {
	case reflect.Int:
		if x > math.MaxInt64 {
			return fmt.Errorf(ErrUnsupportedType, value.Type())
		}
		value.SetInt(int64(x))
	default:
		if value.OverflowUint(x) {
			return fmt.Errorf(ErrUnsupportedType, value.Type())
		}
		value.SetUint(x)
	}
	return nil
}

func (br *byteReader) decodeLength() (uint64, error) {
	l, err := br.readNatural()
	if err != nil {
		return 0, err
	}
	if l > math.MaxUint32 {
		return 0, ErrLengthTooLarge
	}
	return l, nil
}

func (br *byteReader) decodeBytes(value reflect.Value) error {
	l, err := br.decodeLength()
	if err != nil {
		return err
	}
	if l == 0 {
		value.Set(reflect.Zero(value.Type()))
		return nil
	}
	b, err := br.readFull(int(l))
	if err != nil {
		return err
	}
	value.SetBytes(b)
	return nil
}

func (br *byteReader) decodeFixedWidth(value reflect.Value, l uint) error {
	b, err := br.readFull(int(l))
	if err != nil {
		return err
	}
	x := decodeFixed(b)
	if value.OverflowUint(x) {
		return fmt.Errorf(ErrUnsupportedType, value.Type())
	}
	value.SetUint(x)
	return nil
}

func (br *byteReader) readPointerMarker() (bool, error) {
	marker, err := br.readOctet()
	if err != nil {
		return false, err
	}
	switch marker {
	case 0x00:
		return true, nil
	case 0x01:
		return false, nil
	default:
		return false, ErrInvalidPointer
	}
}
