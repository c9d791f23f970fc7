package service

import "errors"

var (
	ErrInvalidDocument = errors.New("invalid document")
	ErrStorage         = errors.New("storage failure")
)
