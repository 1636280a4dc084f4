package models

import (
	"bytes"
	_ "embed"
	"fmt"

	"github.com/ukaddresskit/ukaddresskit/internal/crf"
)

// The baseline is a small hand-weighted model over the word-set and
// context features. It ships inside the binary so parsing works out of
// the box, before any trained model has been installed.
//
//go:embed baseline.crfmodel
var baselineModel []byte

// Baseline loads the embedded baseline model.
func Baseline() (*crf.Tagger, error) {
	tg, err := crf.Load(bytes.NewReader(baselineModel))
	if err != nil {
		return nil, fmt.Errorf("failed to load embedded baseline model: %w", err)
	}
	return tg, nil
}
