package domain

import "errors"

var (
	ErrUnauthorized        = errors.New("unauthorized")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file exceeds maximum allowed size")
	ErrMissingInput        = errors.New("required input file is missing")
	ErrLedgerUnreadable    = errors.New("could not read accounting source")
	ErrTaxSourceUnreadable = errors.New("could not read tax authority source")
	ErrUnknownReport       = errors.New("unknown report")
	ErrArchiveFailed       = errors.New("report archive upload failed")
)
