package employees

import (
	"context"
	"errors"
	"fmt"
	"hrmserver/internal/auth"

	"github.com/sirupsen/logrus"
)

var (
	ErrEmployeeAlreadyExists = errors.New("employee with this login already exists")
	ErrEmployeeNotFound      = errors.New("employee not found")
	ErrInvalidCredentials    = errors.New("invalid login or password")
)

type Service struct {
	repo *Repository
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Register(ctx context.Context, login, password, fullName, department, position string, email, phone *string) (*Employee, error) {
	existing, err := s.repo.GetByLogin(ctx, login)
	if err != nil {
		return nil, fmt.Errorf("failed to check login availability: %w", err)
	}
	if existing != nil {
		return nil, ErrEmployeeAlreadyExists
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	employee, err := s.repo.CreateEmployee(ctx, login, passwordHash, fullName, department, position, email, phone)
	if err != nil {
		return nil, err
	}

	logrus.Infof("Registered employee %d (%s)", employee.ID, employee.Login)
	return employee, nil
}

func (s *Service) Authenticate(ctx context.Context, login, password string) (*Employee, error) {
	employee, err := s.repo.GetByLogin(ctx, login)
	if err != nil {
		return nil, err
	}
	if employee == nil || !auth.CheckPasswordHash(password, employee.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return employee, nil
}

func (s *Service) GetProfile(ctx context.Context, employeeID int64) (*Employee, error) {
	employee, err := s.repo.GetByID(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if employee == nil {
		return nil, ErrEmployeeNotFound
	}
	return employee, nil
}

func (s *Service) Search(ctx context.Context, query string, limit int) ([]Employee, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	logrus.Debugf("Searching employees for %q", query)
	return s.repo.Search(ctx, query, limit)
}
