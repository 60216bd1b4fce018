package repo

import "gorm.io/gorm"

// ErrNoRows is returned by updates and deletes that matched nothing.
var ErrNoRows = gorm.ErrRecordNotFound
