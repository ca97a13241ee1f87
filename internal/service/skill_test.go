package service

import (
	"context"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tahmid/skillswap/internal/apperror"
	"github.com/tahmid/skillswap/internal/model"
	"github.com/tahmid/skillswap/internal/repository"
)

// mockSkillRepo is an in-memory SkillRepository. It reproduces the store's
// case-insensitive name uniqueness, which the resolver's race recovery
// depends on.
type mockSkillRepo struct {
	mu     sync.Mutex
	skills map[string]*model.Skill // keyed by ID

	// hideLookups makes that many GetByName calls miss, so a record
	// "appears" only after the resolver's initial lookup.
	hideLookups int
	createCalls int
}

func newMockSkillRepo() *mockSkillRepo {
	return &mockSkillRepo{skills: make(map[string]*model.Skill)}
}

func (m *mockSkillRepo) Create(_ context.Context, skill *model.Skill) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.createCalls++
	for _, existing := range m.skills {
		if strings.EqualFold(existing.Name, skill.Name) {
			return apperror.Conflict("name", "skill already exists")
		}
	}

	skill.ID = uuid.NewString()
	stored := *skill
	m.skills[skill.ID] = &stored
	return nil
}

func (m *mockSkillRepo) GetByID(_ context.Context, id string) (*model.Skill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	skill, ok := m.skills[id]
	if !ok {
		return nil, apperror.NotFound("skill", id)
	}
	result := *skill
	return &result, nil
}

func (m *mockSkillRepo) GetByName(_ context.Context, name string) (*model.Skill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.hideLookups > 0 {
		m.hideLookups--
		return nil, apperror.NotFound("skill", name)
	}
	for _, skill := range m.skills {
		if strings.EqualFold(skill.Name, name) {
			result := *skill
			return &result, nil
		}
	}
	return nil, apperror.NotFound("skill", name)
}

func (m *mockSkillRepo) List(_ context.Context, opts repository.ListOptions) ([]model.Skill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]model.Skill, 0, len(m.skills))
	for _, s := range m.skills {
		result = append(result, *s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	if opts.Offset >= len(result) {
		return []model.Skill{}, nil
	}
	result = result[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(result) {
		result = result[:opts.Limit]
	}
	return result, nil
}

func (m *mockSkillRepo) Update(_ context.Context, skill *model.Skill) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.skills[skill.ID]; !ok {
		return apperror.NotFound("skill", skill.ID)
	}
	for id, existing := range m.skills {
		if id != skill.ID && strings.EqualFold(existing.Name, skill.Name) {
			return apperror.Conflict("name", "skill already exists")
		}
	}
	stored := *skill
	m.skills[skill.ID] = &stored
	return nil
}

func (m *mockSkillRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.skills[id]; !ok {
		return apperror.NotFound("skill", id)
	}
	delete(m.skills, id)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

func newTestSkillService() (*SkillService, *mockSkillRepo) {
	repo := newMockSkillRepo()
	return NewSkillService(repo, testLogger()), repo
}

// =========================================================================
// RESOLVE TESTS
// =========================================================================

func TestResolve_ValidIDReturnedUnchanged(t *testing.T) {
	svc, repo := newTestSkillService()

	// A syntactically valid UUID passes through without an existence check.
	staleID := uuid.NewString()
	got, err := svc.Resolve(context.Background(), staleID)
	require.NoError(t, err)
	assert.Equal(t, staleID, got)
	assert.Zero(t, repo.createCalls, "Resolve must not create a skill for an ID token")
}

func TestResolve_CreatesMissingSkill(t *testing.T) {
	svc, repo := newTestSkillService()

	id, err := svc.Resolve(context.Background(), "Woodworking")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	created, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Woodworking", created.Name, "stored name keeps its original case")
}

func TestResolve_Idempotent(t *testing.T) {
	svc, repo := newTestSkillService()

	first, err := svc.Resolve(context.Background(), "javascript")
	require.NoError(t, err)

	second, err := svc.Resolve(context.Background(), "JavaScript")
	require.NoError(t, err)

	third, err := svc.Resolve(context.Background(), "  JavaScript  ")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, first, third)
	assert.Len(t, repo.skills, 1, "only one skill record may exist")
}

func TestResolve_LostCreateRaceRecovers(t *testing.T) {
	svc, repo := newTestSkillService()

	// Simulate the winner inserting between our lookup and our create: the
	// record exists, but the initial lookup misses and the create conflicts.
	// The resolver must absorb the conflict, re-fetch, and return the
	// winner's ID.
	winner := &model.Skill{Name: "Go"}
	require.NoError(t, repo.Create(context.Background(), winner))
	repo.hideLookups = 1

	id, err := svc.Resolve(context.Background(), "go")
	require.NoError(t, err, "a create conflict must be absorbed, not surfaced")
	assert.Equal(t, winner.ID, id)
	assert.Len(t, repo.skills, 1)
}

func TestResolve_EmptyToken(t *testing.T) {
	svc, _ := newTestSkillService()

	_, err := svc.Resolve(context.Background(), "   ")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestResolveAll_AllOrNothing(t *testing.T) {
	svc, _ := newTestSkillService()

	tooLong := strings.Repeat("x", MaxSkillNameLength+1)
	_, err := svc.ResolveAll(context.Background(), []string{"Python", tooLong})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestResolveAll_PreservesOrder(t *testing.T) {
	svc, _ := newTestSkillService()

	ids, err := svc.ResolveAll(context.Background(), []string{"Python", "Go", "python"})
	require.NoError(t, err)
	require.Len(t, ids, 3)
	assert.Equal(t, ids[0], ids[2], "same name must resolve to the same skill")
	assert.NotEqual(t, ids[0], ids[1])
}

func TestResolveAll_ConcurrentSameName(t *testing.T) {
	svc, repo := newTestSkillService()

	tokens := make([]string, 16)
	for i := range tokens {
		tokens[i] = "concurrency"
	}

	ids, err := svc.ResolveAll(context.Background(), tokens)
	require.NoError(t, err)
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	assert.Len(t, repo.skills, 1)
}

// =========================================================================
// CRUD TESTS
// =========================================================================

func TestSkillCreate_TrimsAndValidates(t *testing.T) {
	svc, _ := newTestSkillService()

	skill, err := svc.Create(context.Background(), "  Pottery  ")
	require.NoError(t, err)
	assert.Equal(t, "Pottery", skill.Name)

	_, err = svc.Create(context.Background(), "")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestSkillCreate_CaseInsensitiveConflict(t *testing.T) {
	svc, _ := newTestSkillService()

	_, err := svc.Create(context.Background(), "Python")
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), "python")
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestSkillRename_Conflict(t *testing.T) {
	svc, _ := newTestSkillService()

	first, err := svc.Create(context.Background(), "Drawing")
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), "Painting")
	require.NoError(t, err)

	_, err = svc.Rename(context.Background(), first.ID, "painting")
	assert.ErrorIs(t, err, apperror.ErrConflict)

	renamed, err := svc.Rename(context.Background(), first.ID, "Sketching")
	require.NoError(t, err)
	assert.Equal(t, "Sketching", renamed.Name)
}

func TestSkillDelete_NotFound(t *testing.T) {
	svc, _ := newTestSkillService()

	err := svc.Delete(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
