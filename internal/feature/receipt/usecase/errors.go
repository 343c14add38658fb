package usecase

import "errors"

var (
	ErrNotFound         = errors.New("receipt not found")
	ErrEmptyFile        = errors.New("file is empty")
	ErrFileTooLarge     = errors.New("file exceeds the upload size limit")
	ErrUnsupportedImage = errors.New("unsupported image type")
	ErrRateLimited      = errors.New("daily receipt upload limit reached")
	ErrAlreadyScanned   = errors.New("receipt has already been scanned")
	ErrScanInProgress   = errors.New("receipt scan is in progress")
	ErrScanFailed       = errors.New("receipt scan failed")
)
