package handler

const (
	errInternalServer  = "Internal server error"
	errInvalidKey      = "Invalid key"
	errKeyExpired      = "Key expired/inactive"
	errStudentNotFound = "Student not found"
	errNoteNotFound    = "Note not found"
	errNotYourNote     = "Not your note"
	// Delete folds absence and foreign ownership into one message so the
	// status code cannot be used to probe which note ids exist.
	errNoteGone = "Note not found or not yours"
)
