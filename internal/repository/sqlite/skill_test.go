package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/tahmid/skillswap/internal/apperror"
	"github.com/tahmid/skillswap/internal/model"
	"github.com/tahmid/skillswap/internal/repository"
)

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestSkillCreate(t *testing.T) {
	db := newTestDB(t)
	s := db.Skills()

	skill := &model.Skill{Name: "Woodworking"}
	if err := s.Create(context.Background(), skill); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if skill.ID == "" {
		t.Error("Create() did not set skill.ID")
	}
	if skill.CreatedAt.IsZero() {
		t.Error("Create() did not set skill.CreatedAt")
	}
}

func TestSkillCreate_DuplicateNameCaseInsensitive(t *testing.T) {
	db := newTestDB(t)
	s := db.Skills()

	createTestSkill(t, s, "Python")

	err := s.Create(context.Background(), &model.Skill{Name: "PYTHON"})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("Create() error = %v, want ErrConflict", err)
	}
}

// =========================================================================
// GET TESTS
// =========================================================================

func TestSkillGetByName_CaseInsensitivePreservesStoredCase(t *testing.T) {
	db := newTestDB(t)
	s := db.Skills()
	created := createTestSkill(t, s, "JavaScript")

	found, err := s.GetByName(context.Background(), "javascript")
	if err != nil {
		t.Fatalf("GetByName() error = %v", err)
	}
	if found.ID != created.ID {
		t.Errorf("ID = %q, want %q", found.ID, created.ID)
	}
	// The original casing is what lives in the taxonomy.
	if found.Name != "JavaScript" {
		t.Errorf("Name = %q, want %q", found.Name, "JavaScript")
	}
}

func TestSkillGetByName_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Skills().GetByName(context.Background(), "nonexistent")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByName() error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// LIST TESTS
// =========================================================================

func TestSkillList_OrderedByName(t *testing.T) {
	db := newTestDB(t)
	s := db.Skills()
	createTestSkill(t, s, "Piano")
	createTestSkill(t, s, "Cooking")
	createTestSkill(t, s, "Go")

	skills, err := s.List(context.Background(), repository.ListOptions{Limit: 10})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(skills) != 3 {
		t.Fatalf("List() returned %d skills, want 3", len(skills))
	}
	want := []string{"Cooking", "Go", "Piano"}
	for i, name := range want {
		if skills[i].Name != name {
			t.Errorf("skills[%d].Name = %q, want %q", i, skills[i].Name, name)
		}
	}
}

// =========================================================================
// UPDATE TESTS
// =========================================================================

func TestSkillUpdate(t *testing.T) {
	db := newTestDB(t)
	s := db.Skills()
	skill := createTestSkill(t, s, "Javascript")

	skill.Name = "JavaScript"
	if err := s.Update(context.Background(), skill); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	found, err := s.GetByID(context.Background(), skill.ID)
	if err != nil {
		t.Fatalf("GetByID() after Update: %v", err)
	}
	if found.Name != "JavaScript" {
		t.Errorf("Name = %q, want %q", found.Name, "JavaScript")
	}
}

func TestSkillUpdate_NameConflict(t *testing.T) {
	db := newTestDB(t)
	s := db.Skills()
	createTestSkill(t, s, "Go")
	skill := createTestSkill(t, s, "Golang")

	skill.Name = "go"
	err := s.Update(context.Background(), skill)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("Update() error = %v, want ErrConflict", err)
	}
}

// =========================================================================
// DELETE TESTS
// =========================================================================

func TestSkillDelete_CascadesUserSkills(t *testing.T) {
	db := newTestDB(t)
	s := db.Skills()
	u := db.Users()

	user := createTestUser(t, u, "Alice", "alice@example.com")
	skill := createTestSkill(t, s, "Go")
	if err := u.AddSkill(context.Background(), user.ID, skill.ID, repository.SkillKindTeach); err != nil {
		t.Fatalf("AddSkill() error = %v", err)
	}

	if err := s.Delete(context.Background(), skill.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	found, err := u.GetByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetByID() after skill delete: %v", err)
	}
	if len(found.TeachSkills) != 0 {
		t.Errorf("TeachSkills = %v, want the cascade to have cleared it", found.TeachSkills)
	}
}

func TestSkillDelete_NotFound(t *testing.T) {
	db := newTestDB(t)

	err := db.Skills().Delete(context.Background(), "nonexistent")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Delete() error = %v, want ErrNotFound", err)
	}
}
