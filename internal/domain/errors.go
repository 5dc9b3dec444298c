package domain

import "errors"

// Error kinds. Fatal pipeline errors wrap ErrConfig or ErrRender.
var (
	ErrConfig         = errors.New("configuration error")
	ErrFetch          = errors.New("fetch error")
	ErrClassification = errors.New("classification error")
	ErrRender         = errors.New("render error")
)
