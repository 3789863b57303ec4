package utils

import "errors"

const (
	NODETOL = 1.e-12
)

var (
	// ErrSingular is returned when a matrix cannot be inverted
	ErrSingular = errors.New("utils: matrix is singular")
)
