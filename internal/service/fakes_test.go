package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"ironlog/fitness-app/internal/analysis"
	"ironlog/fitness-app/internal/domain"
	"ironlog/fitness-app/internal/repository"
)

var nowStub = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

// --- In-memory ProgramRepository ---

type fakeProgramRepo struct {
	mu       sync.Mutex
	programs map[primitive.ObjectID]*domain.Program
}

func newFakeProgramRepo() *fakeProgramRepo {
	return &fakeProgramRepo{programs: map[primitive.ObjectID]*domain.Program{}}
}

func (r *fakeProgramRepo) put(p *domain.Program) *domain.Program {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	r.programs[p.ID] = p
	return p
}

func (r *fakeProgramRepo) Create(ctx context.Context, program *domain.Program) (primitive.ObjectID, error) {
	return r.put(program).ID, nil
}

func (r *fakeProgramRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Program, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.programs[id]
	if !ok || p.DeletedAt != nil {
		return nil, repository.ErrNotFound
	}
	return p, nil
}

func (r *fakeProgramRepo) GetByOwnerID(ctx context.Context, ownerID primitive.ObjectID) ([]domain.Program, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Program
	for _, p := range r.programs {
		if p.OwnerID == ownerID && p.DeletedAt == nil {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakeProgramRepo) Update(ctx context.Context, program *domain.Program) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.programs[program.ID]; !ok {
		return repository.ErrNotFound
	}
	r.programs[program.ID] = program
	return nil
}

func (r *fakeProgramRepo) SoftDelete(ctx context.Context, id, ownerID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.programs[id]
	if !ok || p.OwnerID != ownerID || p.DeletedAt != nil {
		return repository.ErrNotFound
	}
	now := nowStub
	p.DeletedAt = &now
	return nil
}

func (r *fakeProgramRepo) Exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.programs[id]
	return ok && p.DeletedAt == nil, nil
}

// GetName resolves soft-deleted programs too, mirroring the real repo.
func (r *fakeProgramRepo) GetName(ctx context.Context, id primitive.ObjectID) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.programs[id]
	if !ok {
		return "", repository.ErrNotFound
	}
	return p.Name, nil
}

// --- In-memory OngoingWorkoutRepository ---

type fakeOngoingRepo struct {
	mu        sync.Mutex
	byUser    map[primitive.ObjectID]domain.OngoingWorkout
	deleteErr error
}

func newFakeOngoingRepo() *fakeOngoingRepo {
	return &fakeOngoingRepo{byUser: map[primitive.ObjectID]domain.OngoingWorkout{}}
}

func (r *fakeOngoingRepo) Create(ctx context.Context, workout *domain.OngoingWorkout) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byUser[workout.UserID]; exists {
		return primitive.NilObjectID, repository.ErrDuplicate
	}
	workout.ID = primitive.NewObjectID()
	r.byUser[workout.UserID] = *workout
	return workout.ID, nil
}

func (r *fakeOngoingRepo) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.OngoingWorkout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.byUser[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := w
	return &copy, nil
}

func (r *fakeOngoingRepo) Update(ctx context.Context, workout *domain.OngoingWorkout) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byUser[workout.UserID]; !ok {
		return repository.ErrNotFound
	}
	r.byUser[workout.UserID] = *workout
	return nil
}

func (r *fakeOngoingRepo) DeleteByUserID(ctx context.Context, userID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleteErr != nil {
		return r.deleteErr
	}
	delete(r.byUser, userID)
	return nil
}

// --- In-memory WorkoutLogRepository ---

type fakeLogRepo struct {
	mu        sync.Mutex
	logs      []domain.WorkoutLog
	exercises map[primitive.ObjectID][]domain.CompletedExercise
	createErr error
	lastLimit int64
}

func newFakeLogRepo() *fakeLogRepo {
	return &fakeLogRepo{exercises: map[primitive.ObjectID][]domain.CompletedExercise{}}
}

func (r *fakeLogRepo) CreateSessionLog(ctx context.Context, log *domain.WorkoutLog, exercises []domain.CompletedExercise) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return primitive.NilObjectID, r.createErr
	}
	log.ID = primitive.NewObjectID()
	stored := make([]domain.CompletedExercise, len(exercises))
	for i, ex := range exercises {
		ex.ID = primitive.NewObjectID()
		ex.LogID = log.ID
		for j := range ex.Sets {
			ex.Sets[j].ID = primitive.NewObjectID()
			ex.Sets[j].CompletedExerciseID = ex.ID
		}
		stored[i] = ex
	}
	r.logs = append(r.logs, *log)
	r.exercises[log.ID] = stored
	return log.ID, nil
}

func (r *fakeLogRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.logs {
		if r.logs[i].ID == id {
			copy := r.logs[i]
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

// GetPage mirrors the real repo's ordering contract: date descending with
// id descending as tie-breaker, cursor row included.
func (r *fakeLogRepo) GetPage(ctx context.Context, userID primitive.ObjectID, limit int64, cursor *primitive.ObjectID) ([]domain.WorkoutLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastLimit = limit

	var rows []domain.WorkoutLog
	for _, l := range r.logs {
		if l.UserID == userID {
			rows = append(rows, l)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].Date.Equal(rows[j].Date) {
			return rows[i].Date.After(rows[j].Date)
		}
		return rows[i].ID.Hex() > rows[j].ID.Hex()
	})

	start := 0
	if cursor != nil {
		start = len(rows) // vanished cursor falls off the end, yielding an empty page
		for i := range rows {
			if rows[i].ID == *cursor {
				start = i
				break
			}
		}
	}
	rows = rows[start:]
	if int64(len(rows)) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (r *fakeLogRepo) GetExercises(ctx context.Context, logID primitive.ObjectID) ([]domain.CompletedExercise, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.exercises[logID], nil
}

// --- Recording JobDispatcher ---

type fakeDispatcher struct {
	mu   sync.Mutex
	jobs []analysis.Job
}

func (d *fakeDispatcher) Enqueue(job analysis.Job) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.jobs = append(d.jobs, job)
}

func (d *fakeDispatcher) enqueued() []analysis.Job {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]analysis.Job(nil), d.jobs...)
}
