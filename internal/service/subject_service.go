package service

import (
	"context"

	"okeears-server/internal/domain"
	"okeears-server/internal/graph"

	"golang.org/x/sync/errgroup"
)

// peopleLimit caps relevant-people and search results.
const peopleLimit = 25

// Directory is the part of Microsoft Graph that knows about people.
type Directory interface {
	Me(ctx context.Context) (*graph.User, error)
	User(ctx context.Context, id string) (*graph.User, error)
	Manager(ctx context.Context, id string) (*graph.User, error)
	DirectReports(ctx context.Context, id string) ([]*graph.User, error)
	People(ctx context.Context, search string, top int) ([]*graph.User, error)
}

type SubjectService struct {
	directory Directory
}

func NewSubjectService(directory Directory) *SubjectService {
	return &SubjectService{directory: directory}
}

func toSubject(u *graph.User) *domain.Subject {
	if u == nil {
		return nil
	}
	mail := u.Mail
	if mail == "" {
		mail = u.UserPrincipalName
	}
	return &domain.Subject{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		Mail:        mail,
		JobTitle:    u.JobTitle,
	}
}

func toSubjects(users []*graph.User) []*domain.Subject {
	subjects := make([]*domain.Subject, 0, len(users))
	for _, u := range users {
		subjects = append(subjects, toSubject(u))
	}
	return subjects
}

func (s *SubjectService) Me(ctx context.Context) (*domain.Subject, error) {
	me, err := s.directory.Me(ctx)
	if err != nil {
		return nil, err
	}
	return toSubject(me), nil
}

// People returns the people most relevant to the signed-in user, or those
// matching query when it is not empty.
func (s *SubjectService) People(ctx context.Context, query string) ([]*domain.Subject, error) {
	users, err := s.directory.People(ctx, query, peopleLimit)
	if err != nil {
		return nil, err
	}
	return toSubjects(users), nil
}

// OrgTree returns the subject with its manager and direct reports.
func (s *SubjectService) OrgTree(ctx context.Context, subjectID string) (*domain.OrgTree, error) {
	var (
		subject *graph.User
		manager *graph.User
		reports []*graph.User
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		subject, err = s.directory.User(gctx, subjectID)
		return err
	})
	g.Go(func() error {
		var err error
		manager, err = s.directory.Manager(gctx, subjectID)
		return err
	})
	g.Go(func() error {
		var err error
		reports, err = s.directory.DirectReports(gctx, subjectID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &domain.OrgTree{
		Subject:       toSubject(subject),
		Manager:       toSubject(manager),
		DirectReports: toSubjects(reports),
	}, nil
}
