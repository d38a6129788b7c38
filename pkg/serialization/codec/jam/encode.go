package jam

import (
	"bytes"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"
)

// Marshaler is the interface implemented by types that can marshal themselves
// into valid JAM encoded data.
type Marshaler interface {
	MarshalJAM() ([]byte, error)
}

// Marshal encodes v. Fixed width unsigned integers are written little-endian
// at their natural width, int and uint use the compact natural encoding,
// slices and byte strings carry a compact length prefix and arrays and
// structs are written element by element. Pointers carry a one byte
// presence marker.
//
// Struct fields honour the `jam` tag: "-" skips the field, "encoding=compact"
// writes an unsigned field in compact form and "length=N" writes it as an N
// byte fixed width integer.
func Marshal(v any) ([]byte, error) {
	buffer := bytes.NewBuffer(nil)
	bw := byteWriter{Writer: buffer}
	if err := bw.marshal(v); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

// NewEncoder returns an encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{byteWriter{w}}
}

type Encoder struct {
	byteWriter
}

func (e *Encoder) Encode(v any) error {
	return e.marshal(v)
}

type byteWriter struct {
	io.Writer
}

func (bw *byteWriter) marshal(in any) error {
	if m, ok := in.(Marshaler); ok {
		b, err := m.MarshalJAM()
		if err != nil {
			return err
		}
		_, err = bw.Write(b)
		return err
	}

	switch v := in.(type) {
	case int:
		if v < 0 {
			return fmt.Errorf(ErrUnsupportedType, v)
		}
		return bw.encodeCompact(uint64(v))
	case uint:
		return bw.encodeCompact(uint64(v))
	case uint8:
		return bw.encodeFixedWidth(uint64(v), 1)
	case uint16:
		return bw.encodeFixedWidth(uint64(v), 2)
	case uint32:
		return bw.encodeFixedWidth(uint64(v), 4)
	case uint64:
		return bw.encodeFixedWidth(v, 8)
	case []byte:
		return bw.encodeBytes(v)
	case bool:
		return bw.encodeBool(v)
	default:
		return bw.handleReflectTypes(reflect.ValueOf(in))
	}
}

func (bw *byteWriter) handleReflectTypes(val reflect.Value) error {
	switch val.Kind() {
	case reflect.Bool, reflect.Int, reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return bw.encodeCustomPrimitive(val)
	case reflect.Ptr:
		if err := bw.writePointerMarker(val.IsNil()); err != nil {
			return err
		}
		if val.IsNil() {
			return nil
		}
		return bw.marshal(val.Elem().Interface())
	case reflect.Struct:
		return bw.encodeStruct(val)
	case reflect.Array:
		return bw.encodeArray(val)
	case reflect.Slice:
		if val.Type().Elem().Kind() == reflect.Uint8 {
			return bw.encodeBytes(val.Bytes())
		}
		return bw.encodeSlice(val)
	default:
		if !val.IsValid() {
			return fmt.Errorf(ErrUnsupportedType, nil)
		}
		return fmt.Errorf(ErrUnsupportedType, val.Type())
	}
}

// encodeCustomPrimitive handles named types whose underlying type is a
// primitive, e.g. `type Kind uint8`.
func (bw *byteWriter) encodeCustomPrimitive(val reflect.Value) error {
	switch val.Kind() {
	case reflect.Bool:
		return bw.encodeBool(val.Bool())
	case reflect.Int:
		return bw.marshal(int(val.Int()))
	case reflect.Uint:
		return bw.encodeCompact(val.Uint())
	case reflect.Uint8:
		return bw.encodeFixedWidth(val.Uint(), 1)
	case reflect.Uint16:
		return bw.encodeFixedWidth(val.Uint(), 2)
	case reflect.Uint32:
		return bw.encodeFixedWidth(val.Uint(), 4)
	case reflect.Uint64:
		return bw.encodeFixedWidth(val.Uint(), 8)
	default:
		return fmt.Errorf(ErrUnsupportedType, val.Type())
	}
}

func (bw *byteWriter) encodeSlice(val reflect.Value) error {
	if err := bw.encodeLength(val.Len()); err != nil {
		return err
	}
	for i := 0; i < val.Len(); i++ {
		if err := bw.marshal(val.Index(i).Interface()); err != nil {
			return err
		}
	}
	return nil
}

func (bw *byteWriter) encodeArray(val reflect.Value) error {
	if val.Type().Elem().Kind() == reflect.Uint8 {
		b := make([]byte, val.Len())
		reflect.Copy(reflect.ValueOf(b), val)
		_, err := bw.Write(b)
		return err
	}
	for i := 0; i < val.Len(); i++ {
		if err := bw.marshal(val.Index(i).Interface()); err != nil {
			return err
		}
	}
	return nil
}

func (bw *byteWriter) encodeStruct(val reflect.Value) error {
	t := val.Type()
	for i := 0; i < t.NumField(); i++ {
		field := val.Field(i)
		fieldType := t.Field(i)

		// Skip unexported fields
		if !field.CanInterface() {
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
				return fmt.Errorf(ErrEncodingStructField, fieldType.Name, fmt.Errorf(ErrUnsupportedType, field.Type()))
			}
			if err := bw.encodeFixedWidth(field.Uint(), opts.length); err != nil {
				return fmt.Errorf(ErrEncodingStructField, fieldType.Name, err)
			}
			continue
		case opts.compact:
			if !isUnsigned(field.Kind()) {
				return fmt.Errorf(ErrCompactField, field.Kind())
			}
			if err := bw.encodeCompact(field.Uint()); err != nil {
				return fmt.Errorf(ErrEncodingStructField, fieldType.Name, err)
			}
			continue
		}

		if err := bw.marshal(field.Interface()); err != nil {
			return fmt.Errorf(ErrEncodingStructField, fieldType.Name, err)
		}
	}
	return nil
}

func (bw *byteWriter) encodeBool(b bool) error {
	var err error
	if b {
		_, err = bw.Write([]byte{0x01})
	} else {
		_, err = bw.Write([]byte{0x00})
	}
	return err
}

func (bw *byteWriter) encodeBytes(b []byte) error {
	if err := bw.encodeLength(len(b)); err != nil {
		return err
	}
	_, err := bw.Write(b)
	return err
}

func (bw *byteWriter) encodeFixedWidth(x uint64, l uint) error {
	_, err := bw.Write(encodeFixed(x, l))
	return err
}

func (bw *byteWriter) writePointerMarker(isNil bool) error {
	marker := byte(0x00)
	if !isNil {
		marker = byte(0x01)
	}
	_, err := bw.Write([]byte{marker})
	return err
}

func (bw *byteWriter) encodeLength(l int) error {
	return bw.encodeCompact(uint64(l))
}

func (bw *byteWriter) encodeCompact(x uint64) error {
	_, err := bw.Write(encodeNatural(x))
	return err
}

type fieldOptions struct {
	skip    bool
	compact bool
	length  uint
}

func parseFieldTag(f reflect.StructField) (fieldOptions, error) {
	tag, ok := f.Tag.Lookup("jam")
	if !ok {
		return fieldOptions{}, nil
	}
	if tag == "-" {
		return fieldOptions{skip: true}, nil
	}

	var opts fieldOptions
	for _, pair := range strings.Split(tag, ",") {
		key, value, found := strings.Cut(pair, "=")
		if !found {
			continue
		}
		switch key {
		case "encoding":
			opts.compact = value == "compact"
		case "length":
			size, err := strconv.ParseUint(value, 10, 8)
			if err != nil {
				return fieldOptions{}, fmt.Errorf(ErrInvalidLengthValue, f.Name, err)
			}
			opts.length = uint(size)
		}
	}
	return opts, nil
}

func isUnsigned(k reflect.Kind) bool {
	switch k {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}
