package specialist

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/esaha/esaha/internal/platform/auth"
)

type mockRepo struct {
	specialists map[uuid.UUID]*Specialist
	rules       map[uuid.UUID][]*AvailabilityRule
	timeOff     map[uuid.UUID][]*TimeOff
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		specialists: make(map[uuid.UUID]*Specialist),
		rules:       make(map[uuid.UUID][]*AvailabilityRule),
		timeOff:     make(map[uuid.UUID][]*TimeOff),
	}
}

func (m *mockRepo) Create(_ context.Context, s *Specialist) error {
	m.specialists[s.ID] = s
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Specialist, error) {
	s, ok := m.specialists[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

func (m *mockRepo) GetByUserID(_ context.Context, userID string) (*Specialist, error) {
	for _, s := range m.specialists {
		if s.UserID != nil && *s.UserID == userID {
			return s, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) List(_ context.Context, onlyActive bool, specialty string, _, _ int) ([]*Specialist, int, error) {
	var out []*Specialist
	for _, s := range m.specialists {
		if onlyActive && !s.Active {
			continue
		}
		if specialty != "" {
			found := false
			for _, sp := range s.Specialties {
				if sp == specialty {
					found = true
				}
			}
			if !found {
				continue
			}
		}
		out = append(out, s)
	}
	return out, len(out), nil
}

func (m *mockRepo) Update(_ context.Context, s *Specialist) error {
	if _, ok := m.specialists[s.ID]; !ok {
		return ErrNotFound
	}
	m.specialists[s.ID] = s
	return nil
}

func (m *mockRepo) ListRules(_ context.Context, id uuid.UUID) ([]*AvailabilityRule, error) {
	return m.rules[id], nil
}

func (m *mockRepo) ReplaceRules(_ context.Context, id uuid.UUID, rules []*AvailabilityRule) error {
	m.rules[id] = rules
	return nil
}

func (m *mockRepo) ListTimeOff(_ context.Context, id uuid.UUID, fromDate string) ([]*TimeOff, error) {
	var out []*TimeOff
	for _, t := range m.timeOff[id] {
		if t.Date >= fromDate {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *mockRepo) AddTimeOff(_ context.Context, t *TimeOff) error {
	m.timeOff[t.SpecialistID] = append(m.timeOff[t.SpecialistID], t)
	return nil
}

func (m *mockRepo) DeleteTimeOff(_ context.Context, specialistID, timeOffID uuid.UUID) error {
	for i, t := range m.timeOff[specialistID] {
		if t.ID == timeOffID {
			m.timeOff[specialistID] = append(m.timeOff[specialistID][:i], m.timeOff[specialistID][i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

type mockAvailabilityCache struct {
	invalidated []uuid.UUID
}

func (m *mockAvailabilityCache) InvalidateSpecialist(_ context.Context, id uuid.UUID) {
	m.invalidated = append(m.invalidated, id)
}

func adminCtx() context.Context {
	return auth.WithIdentity(context.Background(), "admin-1", []string{auth.RoleAdmin}, "admin@example.com")
}

func specialistCtx(userID string) context.Context {
	return auth.WithIdentity(context.Background(), userID, []string{auth.RoleSpecialist}, userID+"@example.com")
}

func TestCreateSpecialist(t *testing.T) {
	svc := NewService(newMockRepo(), nil)

	sp, err := svc.Create(adminCtx(), CreateSpecialistRequest{
		Name:  "Dr. Amal",
		Email: "amal@example.com",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !sp.Active {
		t.Error("new specialists should start active")
	}
	if sp.Specialties == nil {
		t.Error("specialties should never be nil")
	}
}

func TestCreateSpecialistValidation(t *testing.T) {
	svc := NewService(newMockRepo(), nil)

	if _, err := svc.Create(adminCtx(), CreateSpecialistRequest{Email: "a@b.c"}); err == nil {
		t.Error("expected an error for a missing name")
	}
	if _, err := svc.Create(adminCtx(), CreateSpecialistRequest{Name: "X"}); err == nil {
		t.Error("expected an error for a missing email")
	}

	bad := 5.5
	if _, err := svc.Create(adminCtx(), CreateSpecialistRequest{Name: "X", Email: "a@b.c", Rating: &bad}); err == nil {
		t.Error("expected an error for a rating above 5")
	}
	negative := -10.0
	if _, err := svc.Create(adminCtx(), CreateSpecialistRequest{Name: "X", Email: "a@b.c", Price: &negative}); err == nil {
		t.Error("expected an error for a negative price")
	}
}

func TestCreateSpecialistKeepsRatingAndPrice(t *testing.T) {
	svc := NewService(newMockRepo(), nil)

	rating := 4.8
	price := 75.0
	sp, err := svc.Create(adminCtx(), CreateSpecialistRequest{
		Name:   "Dr. Amal",
		Email:  "amal@example.com",
		Rating: &rating,
		Price:  &price,
	})
	if err != nil {
		t.Fatal(err)
	}
	if sp.Rating == nil || *sp.Rating != 4.8 {
		t.Errorf("expected rating 4.8, got %v", sp.Rating)
	}
	if sp.Price == nil || *sp.Price != 75.0 {
		t.Errorf("expected price 75, got %v", sp.Price)
	}
}

func TestSetAvailabilityValidation(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, nil)
	sp, _ := svc.Create(adminCtx(), CreateSpecialistRequest{Name: "Dr. A", Email: "a@b.c"})

	cases := []struct {
		name string
		in   AvailabilityRuleInput
	}{
		{"bad weekday", AvailabilityRuleInput{Weekday: 7, StartTime: "09:00", EndTime: "17:00"}},
		{"negative weekday", AvailabilityRuleInput{Weekday: -1, StartTime: "09:00", EndTime: "17:00"}},
		{"end before start", AvailabilityRuleInput{Weekday: 1, StartTime: "17:00", EndTime: "09:00"}},
		{"equal start end", AvailabilityRuleInput{Weekday: 1, StartTime: "09:00", EndTime: "09:00"}},
		{"malformed time", AvailabilityRuleInput{Weekday: 1, StartTime: "9am", EndTime: "17:00"}},
		{"out of range hour", AvailabilityRuleInput{Weekday: 1, StartTime: "25:00", EndTime: "26:00"}},
	}
	for _, tc := range cases {
		_, err := svc.SetAvailability(adminCtx(), sp.ID, SetAvailabilityRequest{
			Rules: []AvailabilityRuleInput{tc.in},
		})
		if err == nil {
			t.Errorf("%s: expected an error", tc.name)
		}
	}

	// Nothing should be written when validation fails.
	if len(repo.rules[sp.ID]) != 0 {
		t.Error("failed validation must not write rules")
	}
}

func TestSetAvailabilityReplacesRules(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, nil)
	sp, _ := svc.Create(adminCtx(), CreateSpecialistRequest{Name: "Dr. A", Email: "a@b.c"})

	first := SetAvailabilityRequest{Rules: []AvailabilityRuleInput{
		{Weekday: 1, StartTime: "09:00", EndTime: "17:00"},
		{Weekday: 2, StartTime: "09:00", EndTime: "17:00"},
	}}
	if _, err := svc.SetAvailability(adminCtx(), sp.ID, first); err != nil {
		t.Fatal(err)
	}

	second := SetAvailabilityRequest{Rules: []AvailabilityRuleInput{
		{Weekday: 5, StartTime: "10:00", EndTime: "14:00"},
	}}
	rules, err := svc.SetAvailability(adminCtx(), sp.ID, second)
	if err != nil {
		t.Fatal(err)
	}
	if len(rules) != 1 || rules[0].Weekday != 5 {
		t.Errorf("expected the old rule set replaced, got %d rules", len(rules))
	}
}

func TestSetAvailabilityRuleActiveFlag(t *testing.T) {
	svc := NewService(newMockRepo(), nil)
	sp, _ := svc.Create(adminCtx(), CreateSpecialistRequest{Name: "Dr. A", Email: "a@b.c"})

	off := false
	rules, err := svc.SetAvailability(adminCtx(), sp.ID, SetAvailabilityRequest{
		Rules: []AvailabilityRuleInput{
			{Weekday: 1, StartTime: "09:00", EndTime: "17:00"},
			{Weekday: 2, StartTime: "09:00", EndTime: "17:00", IsActive: &off},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !rules[0].Active {
		t.Error("rules should default to active when is_active is omitted")
	}
	if rules[1].Active {
		t.Error("is_active=false should be kept on the stored rule")
	}
}

func TestSetAvailabilityOwnershipEnforced(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, nil)

	owner := "user-owner"
	sp, err := svc.Create(adminCtx(), CreateSpecialistRequest{Name: "Dr. A", Email: "a@b.c", UserID: &owner})
	if err != nil {
		t.Fatal(err)
	}

	req := SetAvailabilityRequest{Rules: []AvailabilityRuleInput{
		{Weekday: 1, StartTime: "09:00", EndTime: "17:00"},
	}}

	// Another specialist account must not be able to edit this schedule.
	if _, err := svc.SetAvailability(specialistCtx("user-other"), sp.ID, req); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for a different specialist, got %v", err)
	}
	if len(repo.rules[sp.ID]) != 0 {
		t.Error("forbidden call must not write rules")
	}

	// The linked account and admins both may.
	if _, err := svc.SetAvailability(specialistCtx(owner), sp.ID, req); err != nil {
		t.Fatalf("owner should be allowed: %v", err)
	}
	if _, err := svc.SetAvailability(adminCtx(), sp.ID, req); err != nil {
		t.Fatalf("admin should be allowed: %v", err)
	}
}

func TestTimeOffOwnershipEnforced(t *testing.T) {
	svc := NewService(newMockRepo(), nil)

	owner := "user-owner"
	sp, _ := svc.Create(adminCtx(), CreateSpecialistRequest{Name: "Dr. A", Email: "a@b.c", UserID: &owner})

	if _, err := svc.AddTimeOff(specialistCtx("user-other"), sp.ID, AddTimeOffRequest{Date: "2026-09-10"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden adding time off, got %v", err)
	}
	if _, err := svc.TimeOff(specialistCtx("user-other"), sp.ID, "2026-01-01"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden listing time off, got %v", err)
	}

	added, err := svc.AddTimeOff(specialistCtx(owner), sp.ID, AddTimeOffRequest{Date: "2026-09-10"})
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.RemoveTimeOff(specialistCtx("user-other"), sp.ID, added.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden removing time off, got %v", err)
	}
	if err := svc.RemoveTimeOff(specialistCtx(owner), sp.ID, added.ID); err != nil {
		t.Fatalf("owner should be allowed to remove time off: %v", err)
	}
}

func TestScheduleChangesInvalidateSlotCache(t *testing.T) {
	cache := &mockAvailabilityCache{}
	svc := NewService(newMockRepo(), cache)
	sp, _ := svc.Create(adminCtx(), CreateSpecialistRequest{Name: "Dr. A", Email: "a@b.c"})

	if _, err := svc.SetAvailability(adminCtx(), sp.ID, SetAvailabilityRequest{
		Rules: []AvailabilityRuleInput{{Weekday: 1, StartTime: "09:00", EndTime: "17:00"}},
	}); err != nil {
		t.Fatal(err)
	}
	added, err := svc.AddTimeOff(adminCtx(), sp.ID, AddTimeOffRequest{Date: "2026-09-10"})
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.RemoveTimeOff(adminCtx(), sp.ID, added.ID); err != nil {
		t.Fatal(err)
	}

	if len(cache.invalidated) != 3 {
		t.Fatalf("expected 3 cache invalidations, got %d", len(cache.invalidated))
	}
	for _, id := range cache.invalidated {
		if id != sp.ID {
			t.Errorf("invalidated wrong specialist: %s", id)
		}
	}
}

func TestSetAvailabilityUnknownSpecialist(t *testing.T) {
	svc := NewService(newMockRepo(), nil)

	_, err := svc.SetAvailability(adminCtx(), uuid.New(), SetAvailabilityRequest{})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAddTimeOffValidation(t *testing.T) {
	svc := NewService(newMockRepo(), nil)
	sp, _ := svc.Create(adminCtx(), CreateSpecialistRequest{Name: "Dr. A", Email: "a@b.c"})

	if _, err := svc.AddTimeOff(adminCtx(), sp.ID, AddTimeOffRequest{Date: "08/19/2026"}); err == nil {
		t.Error("expected an error for a non-ISO date")
	}
	if _, err := svc.AddTimeOff(adminCtx(), sp.ID, AddTimeOffRequest{Date: "2026-08-19"}); err != nil {
		t.Errorf("valid date rejected: %v", err)
	}
}

func TestUpdatePartial(t *testing.T) {
	svc := NewService(newMockRepo(), nil)
	sp, _ := svc.Create(adminCtx(), CreateSpecialistRequest{Name: "Dr. A", Email: "a@b.c", Title: "Counselor"})

	newName := "Dr. Amal"
	rating := 4.2
	updated, err := svc.Update(adminCtx(), sp.ID, UpdateSpecialistRequest{Name: &newName, Rating: &rating})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Name != "Dr. Amal" {
		t.Errorf("expected updated name, got %s", updated.Name)
	}
	if updated.Title != "Counselor" {
		t.Errorf("untouched field changed: %s", updated.Title)
	}
	if updated.Rating == nil || *updated.Rating != 4.2 {
		t.Errorf("expected rating 4.2, got %v", updated.Rating)
	}
}
