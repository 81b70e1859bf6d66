package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/tutela-go-api/internal/dto"
	"github.com/noah-isme/tutela-go-api/internal/models"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

// enqueuedJob records one notification handed to the stub queue.
type enqueuedJob struct {
	Template  string
	Recipient string
	Payload   map[string]interface{}
}

type stubNotifications struct {
	jobs       []enqueuedJob
	enqueueErr error
}

func (s *stubNotifications) Enqueue(_ context.Context, templateSlug, recipient string, payload map[string]interface{}) (uint, error) {
	if s.enqueueErr != nil {
		return 0, s.enqueueErr
	}
	s.jobs = append(s.jobs, enqueuedJob{Template: templateSlug, Recipient: recipient, Payload: payload})
	return uint(len(s.jobs)), nil
}

func (s *stubNotifications) List(context.Context, string, int, int) ([]dto.NotificationJobResponse, error) {
	return nil, nil
}

func (s *stubNotifications) DispatchDue(context.Context, time.Time) (int, error) {
	return 0, nil
}

func (s *stubNotifications) Start(context.Context, time.Duration) {}

func (s *stubNotifications) templates() []string {
	out := make([]string, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, job.Template)
	}
	return out
}

// stubPersons keeps persons in memory and records mutations.
type stubPersons struct {
	persons     map[uint]*models.Person
	nextID      uint
	transitions []string
	deadlines   map[uint]time.Time
}

func newStubPersons(persons ...*models.Person) *stubPersons {
	s := &stubPersons{persons: map[uint]*models.Person{}, deadlines: map[uint]time.Time{}, nextID: 1}
	for _, person := range persons {
		if person.ID == 0 {
			person.ID = s.nextID
		}
		if person.ID >= s.nextID {
			s.nextID = person.ID + 1
		}
		s.persons[person.ID] = person
	}
	return s
}

func (s *stubPersons) Create(_ context.Context, person *models.Person) error {
	person.ID = s.nextID
	s.nextID++
	for i := range person.Dependents {
		person.Dependents[i].ID = uint(i + 1)
		person.Dependents[i].PersonID = person.ID
	}
	s.persons[person.ID] = person
	return nil
}

func (s *stubPersons) FindByID(_ context.Context, id uint) (models.Person, error) {
	person, ok := s.persons[id]
	if !ok {
		return models.Person{}, gorm.ErrRecordNotFound
	}
	return *person, nil
}

func (s *stubPersons) FindByIDWithDependents(ctx context.Context, id uint) (models.Person, error) {
	return s.FindByID(ctx, id)
}

func (s *stubPersons) ListInProgressByEntity(_ context.Context, entityID uint) ([]models.Person, error) {
	var out []models.Person
	for _, person := range s.persons {
		if person.EntityID == entityID && person.Status == models.PersonStatusInProgress {
			out = append(out, *person)
		}
	}
	return out, nil
}

func (s *stubPersons) TransitionStatus(_ context.Context, id uint, from, to string) (bool, error) {
	person, ok := s.persons[id]
	if !ok || person.Status != from {
		return false, nil
	}
	person.Status = to
	s.transitions = append(s.transitions, to)
	return true, nil
}

func (s *stubPersons) SetClearance(_ context.Context, id uint, cleared bool) error {
	if person, ok := s.persons[id]; ok {
		person.ClearanceOnFile = cleared
	}
	return nil
}

func (s *stubPersons) SetDeadline(_ context.Context, id uint, deadline time.Time) error {
	if _, ok := s.deadlines[id]; !ok {
		s.deadlines[id] = deadline
		if person, found := s.persons[id]; found && person.DeadlineAt == nil {
			person.DeadlineAt = &deadline
		}
	}
	return nil
}

// stubEntities serves a fixed set of entities.
type stubEntities struct {
	entities map[uint]models.Entity
}

func newStubEntities(entities ...models.Entity) *stubEntities {
	s := &stubEntities{entities: map[uint]models.Entity{}}
	for _, entity := range entities {
		s.entities[entity.ID] = entity
	}
	return s
}

func (s *stubEntities) Create(_ context.Context, entity *models.Entity) error {
	if entity.ID == 0 {
		entity.ID = uint(len(s.entities) + 1)
	}
	s.entities[entity.ID] = *entity
	return nil
}

func (s *stubEntities) FindByID(_ context.Context, id uint) (models.Entity, error) {
	entity, ok := s.entities[id]
	if !ok {
		return models.Entity{}, gorm.ErrRecordNotFound
	}
	return entity, nil
}
