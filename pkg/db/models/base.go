package models

import "github.com/google/uuid"

// ensureID assigns a fresh UUID when the caller left it zero. Postgres would
// fill the column default, but the value is needed on the struct right after
// insert and sqlite has no generator.
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
