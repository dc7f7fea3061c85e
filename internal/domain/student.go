package domain

import "errors"

var ErrStudentNotFound = errors.New("student not found")

type Student struct {
	ID        int64
	StudNr    int64
	Graduated bool
}
