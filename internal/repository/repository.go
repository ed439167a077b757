package repository

import (
	"afisha/internal/database"
)

type Repositories struct {
	Events     EventRepository
	Requests   RequestRepository
	Reactions  ReactionRepository
	Users      UserRepository
	Categories CategoryRepository
}

func NewRepositories(db *database.DB) *Repositories {
	return &Repositories{
		Events:     NewEventRepository(db),
		Requests:   NewRequestRepository(db),
		Reactions:  NewReactionRepository(db),
		Users:      NewUserRepository(db),
		Categories: NewCategoryRepository(db),
	}
}
