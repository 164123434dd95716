package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"schooldocs/internal/cache"
	"schooldocs/internal/model"
	"schooldocs/internal/repository"
)

var (
	ErrClassRequired   = errors.New("class is required")
	ErrStudentNotFound = errors.New("student not found")
)

const (
	// MinSearchRunes is the shortest term that triggers a lookup.
	MinSearchRunes = 2
	// SearchLimit caps the number of matches returned by Search.
	SearchLimit = 10

	classesCacheKey = "classes"
)

// StudentService defines the lookups staff use to pick document recipients.
type StudentService interface {
	// Search returns up to SearchLimit students whose name contains term,
	// leaving out the codes in exclude. Terms shorter than MinSearchRunes
	// return an empty list without touching the database.
	Search(ctx context.Context, term string, exclude []int64) ([]model.Student, error)

	// Classes returns the distinct class names, served from cache when possible.
	Classes(ctx context.Context) ([]string, error)

	// ClassRoster returns every student of a class not in exclude, each with
	// an automatically chosen guardian.
	ClassRoster(ctx context.Context, className string, exclude []int64) ([]model.Recipient, error)

	// Get returns a single student by code.
	Get(ctx context.Context, code int64) (*model.Student, error)

	// Import upserts directory rows and drops the cached class list.
	Import(ctx context.Context, rows []model.RawStudent) (int, error)
}

type studentService struct {
	repo  repository.StudentRepository
	cache cache.Cache
	log   *slog.Logger
}

// NewStudentService constructs a StudentService. A nil cache disables caching.
func NewStudentService(repo repository.StudentRepository, c cache.Cache, log *slog.Logger) StudentService {
	if c == nil {
		c = cache.Noop{}
	}
	return &studentService{repo: repo, cache: c, log: log}
}

func (s *studentService) Search(ctx context.Context, term string, exclude []int64) ([]model.Student, error) {
	term = strings.TrimSpace(term)
	if utf8.RuneCountInString(term) < MinSearchRunes {
		return []model.Student{}, nil
	}

	found, err := s.repo.Search(ctx, term, SearchLimit)
	if err != nil {
		return nil, fmt.Errorf("search students: %w", err)
	}
	return without(found, exclude), nil
}

func (s *studentService) Classes(ctx context.Context) ([]string, error) {
	var classes []string
	err := s.cache.Get(ctx, classesCacheKey, &classes)
	if err == nil {
		return classes, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		s.log.WarnContext(ctx, "cache_get_failed", "key", classesCacheKey, "error", err.Error())
	}

	classes, err = s.repo.ListClasses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	if err := s.cache.Set(ctx, classesCacheKey, classes); err != nil {
		s.log.WarnContext(ctx, "cache_set_failed", "key", classesCacheKey, "error", err.Error())
	}
	return classes, nil
}

func (s *studentService) ClassRoster(ctx context.Context, className string, exclude []int64) ([]model.Recipient, error) {
	className = strings.TrimSpace(className)
	if className == "" {
		return nil, ErrClassRequired
	}

	students, err := s.repo.ListByClass(ctx, className)
	if err != nil {
		return nil, fmt.Errorf("list class %s: %w", className, err)
	}

	students = without(students, exclude)
	out := make([]model.Recipient, 0, len(students))
	for _, st := range students {
		out = append(out, model.Recipient{Student: st, Guardian: PreferredGuardian(st)})
	}
	return out, nil
}

func (s *studentService) Get(ctx context.Context, code int64) (*model.Student, error) {
	st, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	return st, nil
}

func (s *studentService) Import(ctx context.Context, rows []model.RawStudent) (int, error) {
	n := 0
	for _, r := range rows {
		if err := s.repo.Upsert(ctx, r); err != nil {
			return n, fmt.Errorf("upsert student %d: %w", r.Code, err)
		}
		n++
	}
	if err := s.cache.Delete(ctx, classesCacheKey); err != nil {
		s.log.WarnContext(ctx, "cache_delete_failed", "key", classesCacheKey, "error", err.Error())
	}
	return n, nil
}

// PreferredGuardian picks who signs for st: the mother when she has a
// phone, else the father when he has one, else whichever is on record
// (mother first). It returns "" when the student has no guardian.
func PreferredGuardian(st model.Student) model.GuardianKind {
	mother := st.Guardian(model.GuardianMother)
	father := st.Guardian(model.GuardianFather)
	switch {
	case mother != nil && mother.Phone != "":
		return model.GuardianMother
	case father != nil && father.Phone != "":
		return model.GuardianFather
	case mother != nil:
		return model.GuardianMother
	case father != nil:
		return model.GuardianFather
	}
	return ""
}

func without(students []model.Student, exclude []int64) []model.Student {
	if len(exclude) == 0 {
		return students
	}
	skip := make(map[int64]struct{}, len(exclude))
	for _, c := range exclude {
		skip[c] = struct{}{}
	}
	out := make([]model.Student, 0, len(students))
	for _, st := range students {
		if _, ok := skip[st.Code]; !ok {
			out = append(out, st)
		}
	}
	return out
}
