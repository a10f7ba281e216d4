package model

import (
	"encoding/gob"
	"io"
	"os"

	"github.com/YuminosukeSato/churnlab/pkg/errors"
)

// SaveGob encodes a value to a file with gob. The persist package builds its
// bundle format on top of this.
func SaveGob(value interface{}, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return errors.NewPersistenceError("SaveGob", filename, err)
	}
	defer file.Close()

	if err := gob.NewEncoder(file).Encode(value); err != nil {
		return errors.NewPersistenceError("SaveGob", filename, err)
	}
	return nil
}

// LoadGob decodes a value from a file written by SaveGob.
func LoadGob(value interface{}, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return errors.NewPersistenceError("LoadGob", filename, err)
	}
	defer file.Close()

	if err := gob.NewDecoder(file).Decode(value); err != nil {
		return errors.NewPersistenceError("LoadGob", filename, err)
	}
	return nil
}

// SaveGobToWriter encodes a value to a writer with gob.
func SaveGobToWriter(value interface{}, w io.Writer) error {
	if err := gob.NewEncoder(w).Encode(value); err != nil {
		return errors.Wrap(err, "failed to encode value")
	}
	return nil
}

// LoadGobFromReader decodes a value from a reader written by SaveGobToWriter.
func LoadGobFromReader(value interface{}, r io.Reader) error {
	if err := gob.NewDecoder(r).Decode(value); err != nil {
		return errors.Wrap(err, "failed to decode value")
	}
	return nil
}
