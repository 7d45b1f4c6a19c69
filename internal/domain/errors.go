package domain

import "errors"

var (
	ErrTemplateNotFound = errors.New("template not found")
	ErrRevisionNotFound = errors.New("revision not found")
	ErrSessionNotFound  = errors.New("editor session not found")
	ErrPresetNotFound   = errors.New("preset not found")
	ErrInvalidDocument  = errors.New("invalid template document")
)
