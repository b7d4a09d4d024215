package model

import (
	"encoding/gob"
	"io"
	"os"

	"github.com/YuminosukeSato/brainage/pkg/errors"
)

// Save persists a fitted estimator to a file using gob encoding. Estimators
// keep their fitted parameters in exported plain-slice fields so the encoding
// round-trips without custom marshaling. The cross-scanner generalisation
// test reloads the per-fold regressor and scaler artifacts written this way.
func Save(estimator interface{}, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrapf(err, "failed to create model file %s", filename)
	}
	defer file.Close()

	if err := SaveTo(estimator, file); err != nil {
		return errors.Wrapf(err, "failed to save model to %s", filename)
	}
	return nil
}

// Load restores an estimator previously written with Save into the value
// pointed to by estimator.
func Load(estimator interface{}, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return errors.Wrapf(err, "failed to open model file %s", filename)
	}
	defer file.Close()

	if err := LoadFrom(estimator, file); err != nil {
		return errors.Wrapf(err, "failed to load model from %s", filename)
	}
	return nil
}

// SaveTo writes the gob encoding of an estimator to w.
func SaveTo(estimator interface{}, w io.Writer) error {
	if err := gob.NewEncoder(w).Encode(estimator); err != nil {
		return errors.Wrap(err, "failed to encode model")
	}
	return nil
}

// LoadFrom reads the gob encoding of an estimator from r.
func LoadFrom(estimator interface{}, r io.Reader) error {
	if err := gob.NewDecoder(r).Decode(estimator); err != nil {
		return errors.Wrap(err, "failed to decode model")
	}
	return nil
}
