// Package codec reads and writes the data trees of a retort in JSON, YAML
// and MessagePack.
//
// A codec only moves between bytes and plain data (maps, slices, strings,
// numbers); a retort turns that data into models and back:
//
//	w, err := codec.Load[Weather](r, codec.JSON(), body)
//	body, err = codec.Dump(r, codec.YAML(), w)
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"

	"retort"
)

var (
	// ErrUnmarshal indicates the codec failed to unmarshal input data.
	ErrUnmarshal = errors.New("unmarshal failed")
	// ErrMarshal indicates the codec failed to marshal output data.
	ErrMarshal = errors.New("marshal failed")
)

// CodecError represents a marshal/unmarshal error.
type CodecError struct {
	Err         error // ErrMarshal or ErrUnmarshal
	ContentType string
	Cause       error // Original error from the codec
}

func (e *CodecError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s %s: %v", e.ContentType, e.Err.Error(), e.Cause)
	}

	return e.ContentType + " " + e.Err.Error()
}

func (e *CodecError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}

	return []error{e.Err, e.Cause}
}

// Codec converts between bytes and data trees.
type Codec interface {
	// ContentType returns the MIME type for this codec (e.g., "application/json").
	ContentType() string

	// Marshal encodes v into bytes.
	Marshal(v any) ([]byte, error)

	// Unmarshal decodes data into v.
	Unmarshal(data []byte, v any) error
}

type jsonCodec struct{}

// JSON returns a JSON codec. Numbers decode to json.Number so integers
// keep their precision.
func JSON() Codec { return jsonCodec{} }

func (jsonCodec) ContentType() string { return "application/json" }

func (jsonCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (jsonCodec) Unmarshal(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	if err := dec.Decode(v); err != nil {
		return err
	}

	if dec.More() {
		return errors.New("trailing data after JSON value")
	}

	return nil
}

type yamlCodec struct{}

// YAML returns a YAML codec.
func YAML() Codec { return yamlCodec{} }

func (yamlCodec) ContentType() string { return "application/yaml" }

func (yamlCodec) Marshal(v any) ([]byte, error) { return yaml.Marshal(v) }

func (yamlCodec) Unmarshal(data []byte, v any) error { return yaml.Unmarshal(data, v) }

type msgpackCodec struct{}

// MsgPack returns a MessagePack codec. Integers decode to int64 or uint64
// and floats to float64.
func MsgPack() Codec { return msgpackCodec{} }

func (msgpackCodec) ContentType() string { return "application/msgpack" }

func (msgpackCodec) Marshal(v any) ([]byte, error) { return msgpack.Marshal(v) }

func (msgpackCodec) Unmarshal(data []byte, v any) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.UseLooseInterfaceDecoding(true)

	return dec.Decode(v)
}

// Decode unmarshals data into a data tree.
func Decode(c Codec, data []byte) (any, error) {
	var tree any
	if err := c.Unmarshal(data, &tree); err != nil {
		return nil, &CodecError{Err: ErrUnmarshal, ContentType: c.ContentType(), Cause: err}
	}

	return tree, nil
}

// Encode marshals a data tree.
func Encode(c Codec, tree any) ([]byte, error) {
	data, err := c.Marshal(tree)
	if err != nil {
		return nil, &CodecError{Err: ErrMarshal, ContentType: c.ContentType(), Cause: err}
	}

	return data, nil
}

// Load decodes data with c and loads the tree as T.
func Load[T any](r *retort.Retort, c Codec, data []byte) (T, error) {
	tree, err := Decode(c, data)
	if err != nil {
		var zero T

		return zero, err
	}

	return retort.Load[T](r, tree)
}

// Dump dumps v with its dynamic type and encodes the tree with c.
func Dump(r *retort.Retort, c Codec, v any) ([]byte, error) {
	tree, err := retort.Dump(r, v)
	if err != nil {
		return nil, err
	}

	return Encode(c, tree)
}

// DumpAs dumps v as T and encodes the tree with c.
func DumpAs[T any](r *retort.Retort, c Codec, v T) ([]byte, error) {
	tree, err := retort.DumpAs[T](r, v)
	if err != nil {
		return nil, err
	}

	return Encode(c, tree)
}
