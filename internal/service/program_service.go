package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ironlog/fitness-app/internal/domain"
	"ironlog/fitness-app/internal/repository"
)

// --- Error Definitions ---
var (
	ErrProgramNotFound     = errors.New("program not found")
	ErrProgramAccessDenied = errors.New("access denied to this program")
)

// ProgramService owns the periodization tree: all structure mutations load
// the aggregate, apply a domain mutation, and persist the whole tree back.
type ProgramService interface {
	CreateProgram(ctx context.Context, ownerID primitive.ObjectID, name, description string) (*domain.Program, error)
	GetProgram(ctx context.Context, ownerID, programID primitive.ObjectID) (*domain.Program, error)
	ListPrograms(ctx context.Context, ownerID primitive.ObjectID) ([]domain.Program, error)
	RenameProgram(ctx context.Context, ownerID, programID primitive.ObjectID, name string) (*domain.Program, error)
	DeleteProgram(ctx context.Context, ownerID, programID primitive.ObjectID) error

	// Tree mutations. Each returns the updated aggregate.
	AddMacrocycle(ctx context.Context, ownerID, programID primitive.ObjectID, name string) (*domain.Program, error)
	AddMesocycle(ctx context.Context, ownerID, programID, macroID primitive.ObjectID, name string, goal domain.MesocycleGoal, customGoal string) (*domain.Program, error)
	AddWeek(ctx context.Context, ownerID, programID, mesoID primitive.ObjectID, name string) (*domain.Program, error)
	AddSession(ctx context.Context, ownerID, programID, weekID primitive.ObjectID, name, description string) (*domain.Program, error)
	RemoveNode(ctx context.Context, ownerID, programID, nodeID primitive.ObjectID) (*domain.Program, error)
	RenameNode(ctx context.Context, ownerID, programID, nodeID primitive.ObjectID, name string) (*domain.Program, error)
	MoveMacrocycle(ctx context.Context, ownerID, programID primitive.ObjectID, from, to int) (*domain.Program, error)
	MoveMesocycle(ctx context.Context, ownerID, programID, macroID primitive.ObjectID, from, to int) (*domain.Program, error)
	MoveWeek(ctx context.Context, ownerID, programID, mesoID primitive.ObjectID, from, to int) (*domain.Program, error)
	MoveSession(ctx context.Context, ownerID, programID, weekID primitive.ObjectID, from, to int) (*domain.Program, error)
	SetWeekVariant(ctx context.Context, ownerID, programID, weekID primitive.ObjectID, variant *domain.WeekVariant) (*domain.Program, error)
	SetPeriodizationABCD(ctx context.Context, ownerID, programID primitive.ObjectID, enabled bool) (*domain.Program, error)
	SetComplex(ctx context.Context, ownerID, programID primitive.ObjectID, complex bool) (*domain.Program, error)
	InstantiateTemplate(ctx context.Context, ownerID, programID, templateProgramID primitive.ObjectID) (*domain.Program, error)
	SetSessionBackground(ctx context.Context, ownerID, programID, sessionID primitive.ObjectID, objectKey string) (*domain.Program, error)
}

// programService implements the ProgramService interface.
type programService struct {
	programRepo repository.ProgramRepository
	logger      zerolog.Logger
}

// NewProgramService creates a new instance of programService.
func NewProgramService(programRepo repository.ProgramRepository, logger zerolog.Logger) ProgramService {
	return &programService{
		programRepo: programRepo,
		logger:      logger.With().Str("service", "program").Logger(),
	}
}

func (s *programService) CreateProgram(ctx context.Context, ownerID primitive.ObjectID, name, description string) (*domain.Program, error) {
	program := domain.NewProgram(ownerID, name, description)
	id, err := s.programRepo.Create(ctx, program)
	if err != nil {
		return nil, err
	}
	program.ID = id
	s.logger.Info().Str("programId", id.Hex()).Msg("program created")
	return program, nil
}

func (s *programService) GetProgram(ctx context.Context, ownerID, programID primitive.ObjectID) (*domain.Program, error) {
	return s.getOwned(ctx, ownerID, programID)
}

func (s *programService) ListPrograms(ctx context.Context, ownerID primitive.ObjectID) ([]domain.Program, error) {
	return s.programRepo.GetByOwnerID(ctx, ownerID)
}

func (s *programService) RenameProgram(ctx context.Context, ownerID, programID primitive.ObjectID, name string) (*domain.Program, error) {
	return s.mutate(ctx, ownerID, programID, func(p *domain.Program) error {
		p.Name = name
		return nil
	})
}

func (s *programService) DeleteProgram(ctx context.Context, ownerID, programID primitive.ObjectID) error {
	err := s.programRepo.SoftDelete(ctx, programID, ownerID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrProgramNotFound
	}
	return err
}

// === Tree mutations ===

func (s *programService) AddMacrocycle(ctx context.Context, ownerID, programID primitive.ObjectID, name string) (*domain.Program, error) {
	return s.mutate(ctx, ownerID, programID, func(p *domain.Program) error {
		p.AddMacrocycle(name)
		return nil
	})
}

func (s *programService) AddMesocycle(ctx context.Context, ownerID, programID, macroID primitive.ObjectID, name string, goal domain.MesocycleGoal, customGoal string) (*domain.Program, error) {
	return s.mutate(ctx, ownerID, programID, func(p *domain.Program) error {
		_, err := p.AddMesocycle(macroID, name, goal, customGoal)
		return err
	})
}

func (s *programService) AddWeek(ctx context.Context, ownerID, programID, mesoID primitive.ObjectID, name string) (*domain.Program, error) {
	return s.mutate(ctx, ownerID, programID, func(p *domain.Program) error {
		_, err := p.AddWeek(mesoID, name)
		return err
	})
}

func (s *programService) AddSession(ctx context.Context, ownerID, programID, weekID primitive.ObjectID, name, description string) (*domain.Program, error) {
	return s.mutate(ctx, ownerID, programID, func(p *domain.Program) error {
		_, err := p.AddSession(weekID, name, description)
		return err
	})
}

// RemoveNode removes the node with the given id at whatever level it lives,
// cascading to descendants. Upstream UI owns the confirmation contract.
func (s *programService) RemoveNode(ctx context.Context, ownerID, programID, nodeID primitive.ObjectID) (*domain.Program, error) {
	return s.mutate(ctx, ownerID, programID, func(p *domain.Program) error {
		for _, remove := range []func(primitive.ObjectID) error{
			p.RemoveSession, p.RemoveWeek, p.RemoveMesocycle, p.RemoveMacrocycle,
		} {
			if err := remove(nodeID); err == nil {
				return nil
			}
		}
		return domain.ErrNodeNotFound
	})
}

// RenameNode renames the node with the given id at whatever level it lives.
func (s *programService) RenameNode(ctx context.Context, ownerID, programID, nodeID primitive.ObjectID, name string) (*domain.Program, error) {
	return s.mutate(ctx, ownerID, programID, func(p *domain.Program) error {
		for _, rename := range []func(primitive.ObjectID, string) error{
			p.RenameSession, p.RenameWeek, p.RenameMesocycle, p.RenameMacrocycle,
		} {
			if err := rename(nodeID, name); err == nil {
				return nil
			}
		}
		return domain.ErrNodeNotFound
	})
}

func (s *programService) MoveMacrocycle(ctx context.Context, ownerID, programID primitive.ObjectID, from, to int) (*domain.Program, error) {
	return s.mutate(ctx, ownerID, programID, func(p *domain.Program) error {
		return p.MoveMacrocycle(from, to)
	})
}

func (s *programService) MoveMesocycle(ctx context.Context, ownerID, programID, macroID primitive.ObjectID, from, to int) (*domain.Program, error) {
	return s.mutate(ctx, ownerID, programID, func(p *domain.Program) error {
		return p.MoveMesocycle(macroID, from, to)
	})
}

func (s *programService) MoveWeek(ctx context.Context, ownerID, programID, mesoID primitive.ObjectID, from, to int) (*domain.Program, error) {
	return s.mutate(ctx, ownerID, programID, func(p *domain.Program) error {
		return p.MoveWeek(mesoID, from, to)
	})
}

func (s *programService) MoveSession(ctx context.Context, ownerID, programID, weekID primitive.ObjectID, from, to int) (*domain.Program, error) {
	return s.mutate(ctx, ownerID, programID, func(p *domain.Program) error {
		return p.MoveSession(weekID, from, to)
	})
}

func (s *programService) SetWeekVariant(ctx context.Context, ownerID, programID, weekID primitive.ObjectID, variant *domain.WeekVariant) (*domain.Program, error) {
	return s.mutate(ctx, ownerID, programID, func(p *domain.Program) error {
		return p.SetWeekVariant(weekID, variant)
	})
}

func (s *programService) SetPeriodizationABCD(ctx context.Context, ownerID, programID primitive.ObjectID, enabled bool) (*domain.Program, error) {
	return s.mutate(ctx, ownerID, programID, func(p *domain.Program) error {
		p.SetPeriodizationABCD(enabled)
		return nil
	})
}

func (s *programService) SetComplex(ctx context.Context, ownerID, programID primitive.ObjectID, complex bool) (*domain.Program, error) {
	return s.mutate(ctx, ownerID, programID, func(p *domain.Program) error {
		return p.SetComplex(complex)
	})
}

// InstantiateTemplate deep-copies another program's macrocycles into the
// target program. Every id in the copied subtree is reassigned, so the
// same template can be instantiated any number of times.
func (s *programService) InstantiateTemplate(ctx context.Context, ownerID, programID, templateProgramID primitive.ObjectID) (*domain.Program, error) {
	template, err := s.getOwned(ctx, ownerID, templateProgramID)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, ownerID, programID, func(p *domain.Program) error {
		p.InstantiateTemplate(template.Macrocycles)
		return nil
	})
}

func (s *programService) SetSessionBackground(ctx context.Context, ownerID, programID, sessionID primitive.ObjectID, objectKey string) (*domain.Program, error) {
	return s.mutate(ctx, ownerID, programID, func(p *domain.Program) error {
		session, _ := p.FindSession(sessionID)
		if session == nil {
			return domain.ErrNodeNotFound
		}
		session.BackgroundKey = objectKey
		return nil
	})
}

// === Helpers ===

func (s *programService) getOwned(ctx context.Context, ownerID, programID primitive.ObjectID) (*domain.Program, error) {
	program, err := s.programRepo.GetByID(ctx, programID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProgramNotFound
		}
		return nil, err
	}
	if program.OwnerID != ownerID {
		return nil, ErrProgramAccessDenied
	}
	return program, nil
}

// mutate loads the owned aggregate, applies fn, and persists the result.
func (s *programService) mutate(ctx context.Context, ownerID, programID primitive.ObjectID, fn func(*domain.Program) error) (*domain.Program, error) {
	program, err := s.getOwned(ctx, ownerID, programID)
	if err != nil {
		return nil, err
	}
	if err := fn(program); err != nil {
		return nil, err
	}
	if err := s.programRepo.Update(ctx, program); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProgramNotFound
		}
		return nil, err
	}
	return program, nil
}
