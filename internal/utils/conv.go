package utils

import (
	"strconv"

	"github.com/google/uuid"
)

// StringToInt converts string to int, returns def if error or not positive.
func StringToInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil || i <= 0 {
		return def
	}
	return i
}

// ParseUUID parses s, returning false instead of an error.
func ParseUUID(s string) (uuid.UUID, bool) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
