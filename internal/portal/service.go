package portal

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrValidation marks user-facing submission errors; handlers map it to 400.
var ErrValidation = errors.New("invalid submission")

// Repo is the storage surface the portal needs.
type Repo interface {
	InsertComplaint(ctx context.Context, c Complaint) (Complaint, error)
	ListComplaints(ctx context.Context) ([]Complaint, error)
	InsertMisconductReport(ctx context.Context, m MisconductReport) (MisconductReport, error)
	ListMisconductReports(ctx context.Context) ([]MisconductReport, error)
	InsertRuleChange(ctx context.Context, p RuleChangeProposal) (RuleChangeProposal, error)
	ListRuleChanges(ctx context.Context) ([]RuleChangeProposal, error)
	InsertPerson(ctx context.Context, p Person) (Person, error)
	DeletePerson(ctx context.Context, id string) (bool, error)
	ListPersons(ctx context.Context) ([]Person, error)
	PersonExists(ctx context.Context, name string) (bool, error)
	InsertMeeting(ctx context.Context, m Meeting) (Meeting, error)
	ListMeetings(ctx context.Context, userID string) ([]Meeting, error)
}

// Service validates and persists portal submissions.
type Service struct {
	repo Repo
}

// NewService creates a service backed by a repository.
func NewService(repo Repo) *Service {
	return &Service{repo: repo}
}

// SubmitComplaint validates and files a complaint.
func (s *Service) SubmitComplaint(ctx context.Context, c Complaint) (Complaint, error) {
	if c.UserID == "" {
		return Complaint{}, fmt.Errorf("%w: user required", ErrValidation)
	}
	if c.Subject == "" || c.Description == "" {
		return Complaint{}, fmt.Errorf("%w: subject and description are required", ErrValidation)
	}
	return s.repo.InsertComplaint(ctx, c)
}

// SubmitMisconductReport validates and files a misconduct report.
func (s *Service) SubmitMisconductReport(ctx context.Context, m MisconductReport) (MisconductReport, error) {
	if m.ReporterID == "" {
		return MisconductReport{}, fmt.Errorf("%w: reporter required", ErrValidation)
	}
	if m.AccusedName == "" || m.Description == "" {
		return MisconductReport{}, fmt.Errorf("%w: accused name and description are required", ErrValidation)
	}
	return s.repo.InsertMisconductReport(ctx, m)
}

// SubmitRuleChange validates and files a rule-change proposal.
func (s *Service) SubmitRuleChange(ctx context.Context, p RuleChangeProposal) (RuleChangeProposal, error) {
	if p.UserID == "" {
		return RuleChangeProposal{}, fmt.Errorf("%w: user required", ErrValidation)
	}
	if p.Rule == "" || p.Rationale == "" {
		return RuleChangeProposal{}, fmt.Errorf("%w: rule and rationale are required", ErrValidation)
	}
	return s.repo.InsertRuleChange(ctx, p)
}

// Complaints returns all filed complaints for council review.
func (s *Service) Complaints(ctx context.Context) ([]Complaint, error) {
	return s.repo.ListComplaints(ctx)
}

// MisconductReports returns all filed reports for council review.
func (s *Service) MisconductReports(ctx context.Context) ([]MisconductReport, error) {
	return s.repo.ListMisconductReports(ctx)
}

// RuleChanges returns all filed proposals for council review.
func (s *Service) RuleChanges(ctx context.Context) ([]RuleChangeProposal, error) {
	return s.repo.ListRuleChanges(ctx)
}

// AddPerson validates and adds a bookable roster member.
func (s *Service) AddPerson(ctx context.Context, p Person) (Person, error) {
	if p.Name == "" {
		return Person{}, fmt.Errorf("%w: name is required", ErrValidation)
	}
	exists, err := s.repo.PersonExists(ctx, p.Name)
	if err != nil {
		return Person{}, err
	}
	if exists {
		return Person{}, fmt.Errorf("%w: %q is already on the roster", ErrValidation, p.Name)
	}
	return s.repo.InsertPerson(ctx, p)
}

// RemovePerson deletes a roster member by id.
func (s *Service) RemovePerson(ctx context.Context, id string) error {
	ok, err := s.repo.DeletePerson(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: unknown person id", ErrValidation)
	}
	return nil
}

// Persons returns the bookable roster.
func (s *Service) Persons(ctx context.Context) ([]Person, error) {
	return s.repo.ListPersons(ctx)
}

// BookMeeting validates and books a slot with a roster member.
func (s *Service) BookMeeting(ctx context.Context, m Meeting, now time.Time) (Meeting, error) {
	if m.UserID == "" {
		return Meeting{}, fmt.Errorf("%w: user required", ErrValidation)
	}
	if m.PersonName == "" {
		return Meeting{}, fmt.Errorf("%w: person is required", ErrValidation)
	}
	if m.StartTime.IsZero() || m.EndTime.IsZero() {
		return Meeting{}, fmt.Errorf("%w: start and end times are required", ErrValidation)
	}
	if !m.EndTime.After(m.StartTime) {
		return Meeting{}, fmt.Errorf("%w: end time must be after start time", ErrValidation)
	}
	if !m.StartTime.After(now) {
		return Meeting{}, fmt.Errorf("%w: meeting must be in the future", ErrValidation)
	}
	ok, err := s.repo.PersonExists(ctx, m.PersonName)
	if err != nil {
		return Meeting{}, err
	}
	if !ok {
		return Meeting{}, fmt.Errorf("%w: unknown person %q", ErrValidation, m.PersonName)
	}
	return s.repo.InsertMeeting(ctx, m)
}

// Meetings returns a user's bookings.
func (s *Service) Meetings(ctx context.Context, userID string) ([]Meeting, error) {
	return s.repo.ListMeetings(ctx, userID)
}
