package generator

import (
	"errors"
	"io"
	"path"

	"github.com/google/uuid"
)

// Generator is an interface that defines a method to generate a new value of type T.
// This can be used to generate unique identifiers, lazily iterate, etc.
// Finite generators return io.EOF once exhausted.
type Generator[T any] interface {
	Next() (T, error)
}

// UUIDV4Generator is a generator that produces UUIDv4 strings.
// It implements the Generator interface.
type UUIDV4Generator struct{}

func (g *UUIDV4Generator) Next() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

var _ Generator[string] = &UUIDV4Generator{}

// ObjectKey names a stored asset: its ID and the blob key it lives under.
type ObjectKey struct {
	ID  string
	Key string
}

// ObjectKeyGenerator derives blob keys of the form <Prefix>/<id><Ext> from
// the IDs produced by IDs.
type ObjectKeyGenerator struct {
	IDs    Generator[string]
	Prefix string
	Ext    string
}

func (g *ObjectKeyGenerator) Next() (ObjectKey, error) {
	id, err := g.IDs.Next()
	if err != nil {
		return ObjectKey{}, err
	}
	return ObjectKey{ID: id, Key: path.Join(g.Prefix, id+g.Ext)}, nil
}

var _ Generator[ObjectKey] = (*ObjectKeyGenerator)(nil)

// Drain collects values from g until it returns io.EOF.
func Drain[T any](g Generator[T]) ([]T, error) {
	var out []T
	for {
		v, err := g.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, v)
	}
}
