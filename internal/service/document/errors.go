package document

import "errors"

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrInvalidInput     = errors.New("invalid document data")
	ErrFileTooLarge     = errors.New("file exceeds the upload size limit")
	ErrUploadFailed     = errors.New("file upload failed")
)
