package file

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/dukex/fuzzie/pkg/models"
	"github.com/dukex/fuzzie/pkg/persistence"
)

// detach copies v so callers never hold pointers into the stored state.
func detach[T any](v *T) (*T, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %T: %w", v, err)
	}

	out := new(T)

	err = json.Unmarshal(data, out)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal %T: %w", v, err)
	}

	return out, nil
}

func detachAll[T any](in []*T) ([]*T, error) {
	out := make([]*T, 0, len(in))

	for _, v := range in {
		c, err := detach(v)
		if err != nil {
			return nil, err
		}

		out = append(out, c)
	}

	return out, nil
}

type userRepository struct {
	run runner
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user *models.User

	err := r.run(ctx, false, func(s *state) error {
		found, ok := s.Users[id]
		if !ok {
			return persistence.NewEntityError("GetByID", "user", id, persistence.ErrUserNotFound)
		}

		var err error
		user, err = detach(found)

		return err
	})

	return user, err
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user *models.User

	err := r.run(ctx, false, func(s *state) error {
		for _, candidate := range s.Users {
			if candidate.Email != "" && strings.EqualFold(candidate.Email, email) {
				var err error
				user, err = detach(candidate)

				return err
			}
		}

		return persistence.NewEntityError("GetByEmail", "user", email, persistence.ErrUserNotFound)
	})

	return user, err
}

func (r *userRepository) Save(ctx context.Context, user *models.User) error {
	return r.run(ctx, true, func(s *state) error {
		for id, other := range s.Users {
			if id != user.ID && user.Email != "" && strings.EqualFold(other.Email, user.Email) {
				return persistence.NewEntityError("Save", "user", user.ID, persistence.ErrDuplicate)
			}
		}

		stored, err := detach(user)
		if err != nil {
			return err
		}

		s.Users[user.ID] = stored

		return nil
	})
}

type teamRepository struct {
	run runner
}

func (r *teamRepository) GetByID(ctx context.Context, id string) (*models.Team, error) {
	var team *models.Team

	err := r.run(ctx, false, func(s *state) error {
		found, ok := s.Teams[id]
		if !ok {
			return persistence.NewEntityError("GetByID", "team", id, persistence.ErrTeamNotFound)
		}

		var err error
		team, err = detach(found)

		return err
	})

	return team, err
}

func (r *teamRepository) Save(ctx context.Context, team *models.Team) error {
	return r.run(ctx, true, func(s *state) error {
		stored, err := detach(team)
		if err != nil {
			return err
		}

		s.Teams[team.ID] = stored

		return nil
	})
}

func (r *teamRepository) Delete(ctx context.Context, id string) error {
	return r.run(ctx, true, func(s *state) error {
		if _, ok := s.Teams[id]; !ok {
			return persistence.NewEntityError("Delete", "team", id, persistence.ErrTeamNotFound)
		}

		delete(s.Teams, id)

		return nil
	})
}

type memberRepository struct {
	run runner
}

func (r *memberRepository) GetByID(ctx context.Context, id string) (*models.TeamMember, error) {
	var member *models.TeamMember

	err := r.run(ctx, false, func(s *state) error {
		found, ok := s.Members[id]
		if !ok {
			return persistence.NewEntityError("GetByID", "team member", id, persistence.ErrMemberNotFound)
		}

		var err error
		member, err = detach(found)

		return err
	})

	return member, err
}

func (r *memberRepository) Find(ctx context.Context, teamID, userID string) (*models.TeamMember, error) {
	var member *models.TeamMember

	err := r.run(ctx, false, func(s *state) error {
		for _, candidate := range s.Members {
			if candidate.TeamID == teamID && candidate.UserID == userID {
				var err error
				member, err = detach(candidate)

				return err
			}
		}

		return persistence.NewEntityError("Find", "team member", teamID+"/"+userID, persistence.ErrMemberNotFound)
	})

	return member, err
}

func (r *memberRepository) ListByTeam(ctx context.Context, teamID string) ([]*models.TeamMember, error) {
	return r.list(ctx, func(m *models.TeamMember) bool { return m.TeamID == teamID })
}

func (r *memberRepository) ListByUser(ctx context.Context, userID string) ([]*models.TeamMember, error) {
	return r.list(ctx, func(m *models.TeamMember) bool { return m.UserID == userID })
}

func (r *memberRepository) list(ctx context.Context, keep func(*models.TeamMember) bool) ([]*models.TeamMember, error) {
	var members []*models.TeamMember

	err := r.run(ctx, false, func(s *state) error {
		matched := make([]*models.TeamMember, 0)

		for _, m := range s.Members {
			if keep(m) {
				matched = append(matched, m)
			}
		}

		slices.SortFunc(matched, func(a, b *models.TeamMember) int {
			return cmp.Or(a.JoinedAt.Compare(b.JoinedAt), cmp.Compare(a.ID, b.ID))
		})

		var err error
		members, err = detachAll(matched)

		return err
	})

	return members, err
}

func (r *memberRepository) Create(ctx context.Context, member *models.TeamMember) error {
	return r.run(ctx, true, func(s *state) error {
		for _, other := range s.Members {
			if other.ID == member.ID || (other.TeamID == member.TeamID && other.UserID == member.UserID) {
				return persistence.NewEntityError("Create", "team member", member.ID, persistence.ErrDuplicate)
			}
		}

		stored, err := detach(member)
		if err != nil {
			return err
		}

		s.Members[member.ID] = stored

		return nil
	})
}

func (r *memberRepository) Delete(ctx context.Context, id string) error {
	return r.run(ctx, true, func(s *state) error {
		if _, ok := s.Members[id]; !ok {
			return persistence.NewEntityError("Delete", "team member", id, persistence.ErrMemberNotFound)
		}

		delete(s.Members, id)

		return nil
	})
}

func (r *memberRepository) DeleteByTeam(ctx context.Context, teamID string) error {
	return r.run(ctx, true, func(s *state) error {
		for id, m := range s.Members {
			if m.TeamID == teamID {
				delete(s.Members, id)
			}
		}

		return nil
	})
}

func (r *memberRepository) CountByTeam(ctx context.Context, teamID string) (int, error) {
	count := 0

	err := r.run(ctx, false, func(s *state) error {
		for _, m := range s.Members {
			if m.TeamID == teamID {
				count++
			}
		}

		return nil
	})

	return count, err
}

type workflowRepository struct {
	run runner
}

func (r *workflowRepository) GetByID(ctx context.Context, id string) (*models.Workflow, error) {
	var workflow *models.Workflow

	err := r.run(ctx, false, func(s *state) error {
		found, ok := s.Workflows[id]
		if !ok {
			return persistence.NewEntityError("GetByID", "workflow", id, persistence.ErrWorkflowNotFound)
		}

		var err error
		workflow, err = detach(found)

		return err
	})

	return workflow, err
}

func (r *workflowRepository) Save(ctx context.Context, workflow *models.Workflow) error {
	return r.run(ctx, true, func(s *state) error {
		stored, err := detach(workflow)
		if err != nil {
			return err
		}

		s.Workflows[workflow.ID] = stored

		return nil
	})
}

func (r *workflowRepository) Delete(ctx context.Context, id string) error {
	return r.run(ctx, true, func(s *state) error {
		if _, ok := s.Workflows[id]; !ok {
			return persistence.NewEntityError("Delete", "workflow", id, persistence.ErrWorkflowNotFound)
		}

		delete(s.Workflows, id)

		return nil
	})
}

func (r *workflowRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Workflow, error) {
	return r.list(ctx, func(w *models.Workflow) bool { return w.OwnerID == ownerID })
}

func (r *workflowRepository) ListByTeam(ctx context.Context, teamID string) ([]*models.Workflow, error) {
	return r.list(ctx, func(w *models.Workflow) bool { return w.InTeam(teamID) })
}

func (r *workflowRepository) list(ctx context.Context, keep func(*models.Workflow) bool) ([]*models.Workflow, error) {
	var workflows []*models.Workflow

	err := r.run(ctx, false, func(s *state) error {
		matched := make([]*models.Workflow, 0)

		for _, w := range s.Workflows {
			if keep(w) {
				matched = append(matched, w)
			}
		}

		slices.SortFunc(matched, func(a, b *models.Workflow) int {
			return cmp.Or(b.UpdatedAt.Compare(a.UpdatedAt), cmp.Compare(a.ID, b.ID))
		})

		var err error
		workflows, err = detachAll(matched)

		return err
	})

	return workflows, err
}

func (r *workflowRepository) DetachTeam(ctx context.Context, teamID string) error {
	return r.run(ctx, true, func(s *state) error {
		for _, w := range s.Workflows {
			if w.InTeam(teamID) {
				w.TeamID = nil
				w.Visibility = models.VisibilityPrivate
			}
		}

		return nil
	})
}

type notificationRepository struct {
	run runner
}

func (r *notificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	return r.run(ctx, true, func(s *state) error {
		stored, err := detach(notification)
		if err != nil {
			return err
		}

		s.Notifications[notification.ID] = stored

		return nil
	})
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID string) ([]*models.Notification, error) {
	var notifications []*models.Notification

	err := r.run(ctx, false, func(s *state) error {
		matched := make([]*models.Notification, 0)

		for _, n := range s.Notifications {
			if n.UserID == userID {
				matched = append(matched, n)
			}
		}

		slices.SortFunc(matched, func(a, b *models.Notification) int {
			return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(a.ID, b.ID))
		})

		var err error
		notifications, err = detachAll(matched)

		return err
	})

	return notifications, err
}
