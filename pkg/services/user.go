package services

import (
	"context"
	"strings"

	"github.com/dukex/fuzzie/pkg/models"
	"github.com/dukex/fuzzie/pkg/otelhelper"
	"github.com/dukex/fuzzie/pkg/persistence"
	"go.opentelemetry.io/otel/attribute"
)

type User struct {
	core
}

// NewUser creates a new user service.
func NewUser(deps Dependencies) *User {
	return &User{core: newCore(deps, "user_service")}
}

// Profile is the identity-provider view of the caller.
type Profile struct {
	ID           string
	Email        string
	Name         string
	ProfileImage string
}

// EnsureProfile stores the caller's profile the first time it is seen and returns the stored
// record. An existing record is never modified.
func (s *User) EnsureProfile(ctx context.Context, profile Profile) (*models.User, error) {
	const op = "EnsureProfile"

	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "services.user.ensure_profile", attribute.String(otelhelper.CallerIDKey, profile.ID))
	defer span.End()

	if err := requireCaller(profile.ID); err != nil {
		return nil, s.fail(ctx, span, op, err)
	}

	var user *models.User

	err := s.persistence.Transaction(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		existing, err := repos.Users().GetByID(ctx, profile.ID)
		if err == nil {
			user = existing

			return nil
		}

		if !persistence.IsNotFound(err) {
			return err
		}

		user = &models.User{
			ID:           profile.ID,
			Email:        strings.TrimSpace(profile.Email),
			Name:         profile.Name,
			ProfileImage: profile.ProfileImage,
			CreatedAt:    s.now(),
		}

		return repos.Users().Save(ctx, user)
	})
	if err != nil {
		return nil, s.fail(ctx, span, op, err, "user_id", profile.ID)
	}

	return user, nil
}

// Notifications lists the caller's notifications, newest first.
func (s *User) Notifications(ctx context.Context, caller string) ([]*models.Notification, error) {
	const op = "Notifications"

	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "services.user.notifications", attribute.String(otelhelper.CallerIDKey, caller))
	defer span.End()

	if err := requireCaller(caller); err != nil {
		return nil, s.fail(ctx, span, op, err)
	}

	notifications, err := s.persistence.Notifications().ListByUser(ctx, caller)
	if err != nil {
		return nil, s.fail(ctx, span, op, err)
	}

	return notifications, nil
}
