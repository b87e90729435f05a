package mood

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/esaha/esaha/internal/platform/auth"
)

var dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Log(ctx context.Context, req CreateEntryRequest) (*Entry, error) {
	if !ValidMoods[req.Mood] {
		return nil, fmt.Errorf("invalid mood %q", req.Mood)
	}
	if req.Intensity != nil && (*req.Intensity < 1 || *req.Intensity > 10) {
		return nil, fmt.Errorf("intensity must be 1..10, got %d", *req.Intensity)
	}

	now := time.Now().UTC()
	date := req.Date
	if date == "" {
		date = now.Format("2006-01-02")
	} else if !dateRe.MatchString(date) {
		return nil, fmt.Errorf("date must be YYYY-MM-DD, got %q", date)
	}
	if date > now.Format("2006-01-02") {
		return nil, fmt.Errorf("cannot log a mood for a future date")
	}

	factors := req.Factors
	if factors == nil {
		factors = []string{}
	}
	e := &Entry{
		ID:        uuid.New(),
		UserID:    auth.UserIDFromContext(ctx),
		Mood:      req.Mood,
		Intensity: req.Intensity,
		Note:      req.Note,
		Factors:   factors,
		Date:      date,
		CreatedAt: now,
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// Update edits one of the caller's entries. The mood and intensity rules
// match Log; the entry's date cannot change.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateEntryRequest) (*Entry, error) {
	e, err := s.repo.GetByID(ctx, auth.UserIDFromContext(ctx), id)
	if err != nil {
		return nil, err
	}

	if req.Mood != nil {
		if !ValidMoods[*req.Mood] {
			return nil, fmt.Errorf("invalid mood %q", *req.Mood)
		}
		e.Mood = *req.Mood
	}
	if req.Intensity != nil {
		if *req.Intensity < 1 || *req.Intensity > 10 {
			return nil, fmt.Errorf("intensity must be 1..10, got %d", *req.Intensity)
		}
		e.Intensity = req.Intensity
	}
	if req.Note != nil {
		e.Note = req.Note
	}
	if req.Factors != nil {
		e.Factors = req.Factors
	}

	if err := s.repo.Update(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// History lists the caller's entries in a date range, defaulting to the
// last 30 days.
func (s *Service) History(ctx context.Context, fromDate, toDate string, limit, offset int) ([]*Entry, int, error) {
	fromDate, toDate, err := normalizeRange(fromDate, toDate)
	if err != nil {
		return nil, 0, err
	}
	return s.repo.ListByUser(ctx, auth.UserIDFromContext(ctx), fromDate, toDate, limit, offset)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, auth.UserIDFromContext(ctx), id)
}

func (s *Service) Summarize(ctx context.Context, fromDate, toDate string) (*Summary, error) {
	fromDate, toDate, err := normalizeRange(fromDate, toDate)
	if err != nil {
		return nil, err
	}
	counts, err := s.repo.CountByMood(ctx, auth.UserIDFromContext(ctx), fromDate, toDate)
	if err != nil {
		return nil, err
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	return &Summary{FromDate: fromDate, ToDate: toDate, Total: total, Counts: counts}, nil
}

// ExportCSV writes the caller's entries for a date range as CSV. Export is
// unpaginated; the row cap keeps a runaway range bounded.
func (s *Service) ExportCSV(ctx context.Context, w io.Writer, fromDate, toDate string) error {
	fromDate, toDate, err := normalizeRange(fromDate, toDate)
	if err != nil {
		return err
	}
	entries, _, err := s.repo.ListByUser(ctx, auth.UserIDFromContext(ctx), fromDate, toDate, 10000, 0)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "mood", "intensity", "note", "factors", "logged_at"}); err != nil {
		return err
	}
	for _, e := range entries {
		intensity := ""
		if e.Intensity != nil {
			intensity = strconv.Itoa(*e.Intensity)
		}
		note := ""
		if e.Note != nil {
			note = *e.Note
		}
		row := []string{e.Date, e.Mood, intensity, note, strings.Join(e.Factors, ";"), e.CreatedAt.Format(time.RFC3339)}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func normalizeRange(fromDate, toDate string) (string, string, error) {
	now := time.Now().UTC()
	if toDate == "" {
		toDate = now.Format("2006-01-02")
	}
	if fromDate == "" {
		fromDate = now.AddDate(0, 0, -30).Format("2006-01-02")
	}
	if !dateRe.MatchString(fromDate) || !dateRe.MatchString(toDate) {
		return "", "", fmt.Errorf("dates must be YYYY-MM-DD")
	}
	if fromDate > toDate {
		return "", "", fmt.Errorf("from date %q is after to date %q", fromDate, toDate)
	}
	return fromDate, toDate, nil
}
