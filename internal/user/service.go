package user

import (
	"context"
	"errors"
	"fmt"
)

type ServiceAPI interface {
	GetByID(ctx context.Context, userID int64) (*Profile, error)
}

type Service struct {
	directory Directory
}

func NewService(directory Directory) *Service {
	return &Service{
		directory: directory,
	}
}

func (s *Service) GetByID(ctx context.Context, userID int64) (*Profile, error) {
	p, err := s.directory.Lookup(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return p, nil
}
