package repository

import (
	"fmt"

	"github.com/yourusername/sharpline/internal/database"
)

// Repositories aggregates all repository implementations
type Repositories struct {
	Events    EventRepository
	Snapshots SnapshotRepository
	Features  FeatureRepository
	Training  TrainingRepository
	BetLogs   BetLogRepository
}

// NewRepositories creates all repositories with the given database connection
func NewRepositories(db *database.DB) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &Repositories{
		Events:    NewPostgresEventRepository(db),
		Snapshots: NewPostgresSnapshotRepository(db),
		Features:  NewPostgresFeatureRepository(db),
		Training:  NewPostgresTrainingRepository(db),
		BetLogs:   NewPostgresBetLogRepository(db),
	}, nil
}
