// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup and migrations
//	├── history/         # Reading history of generated studies
//	├── cache/           # Cached ESV passages and generated studies
//	├── studies/         # Saved, editable studies
//	└── preferences/     # User preferences
//
// # Using Sub-packages
//
// Each sub-package provides a Repository type with domain-specific operations:
//
//	db, err := database.NewDatabase("./scribby.db", logger)
//
//	historyRepo := history.NewRepository(db.DB)
//	cacheRepo := cache.NewRepository(db.DB)
//
//	items, err := historyRepo.List(50)
//	passage, err := cacheRepo.GetPassage("John 1:1-18")
//
// Lookups that find nothing return a wrapped gorm.ErrRecordNotFound, so callers
// check with errors.Is.
//
// # Adding a New Domain
//
//  1. Create a new sub-package: internal/database/<domain>/
//  2. Define a Repository struct with a *gorm.DB field
//  3. Add NewRepository(db *gorm.DB) constructor
//  4. Add the entity to the AutoMigrate list in database.go
//  5. Add a compile-time interface check in internal/interfaces
package database
