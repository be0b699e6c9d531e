package profile

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/yanqian/kisanmitra/internal/domain/language"
	apperrors "github.com/yanqian/kisanmitra/pkg/errors"
	"github.com/yanqian/kisanmitra/pkg/util"
)

// Service manages farmer profiles and exposes their language preference.
type Service interface {
	Get(ctx context.Context, userID string) (Profile, error)
	// Update replaces the whole profile: fields omitted from req are stored empty.
	Update(ctx context.Context, userID string, req UpdateRequest) (Profile, error)
	PreferredLanguage(ctx context.Context, userID string) (string, bool, error)
}

type service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

// NewService constructs the profile service.
func NewService(repo Repository, logger *slog.Logger) Service {
	return &service{
		repo:   repo,
		logger: logger.With("component", "profile.service"),
		now:    util.NowUTC,
	}
}

func (s *service) Get(ctx context.Context, userID string) (Profile, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Profile{}, apperrors.Wrap("unauthorized", "Sign in to view your profile.", nil)
	}
	p, ok, err := s.repo.Get(ctx, userID)
	if err != nil {
		return Profile{}, apperrors.Wrap("profile_store_error", "Failed to load profile.", err)
	}
	if !ok {
		return Profile{}, apperrors.Wrap("not_found", "Profile not found.", nil)
	}
	return p, nil
}

func (s *service) Update(ctx context.Context, userID string, req UpdateRequest) (Profile, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Profile{}, apperrors.Wrap("unauthorized", "Sign in to update your profile.", nil)
	}
	lang := language.DefaultValue
	if value := strings.TrimSpace(req.PreferredLanguage); value != "" {
		resolved, ok := language.Lookup(value)
		if !ok {
			return Profile{}, apperrors.Wrap("invalid_input", "Unsupported preferred language.", nil)
		}
		lang = resolved.Value
	}

	p := Profile{
		UserID:            userID,
		DisplayName:       strings.TrimSpace(req.DisplayName),
		Phone:             strings.TrimSpace(req.Phone),
		Address:           strings.TrimSpace(req.Address),
		State:             strings.TrimSpace(req.State),
		District:          strings.TrimSpace(req.District),
		FarmName:          strings.TrimSpace(req.FarmName),
		FarmSize:          strings.TrimSpace(req.FarmSize),
		CropTypes:         strings.TrimSpace(req.CropTypes),
		PreferredLanguage: lang,
		UpdatedAt:         s.now(),
	}
	saved, err := s.repo.Upsert(ctx, p)
	if err != nil {
		return Profile{}, apperrors.Wrap("profile_store_error", "Failed to save profile.", err)
	}
	s.logger.Info("profile updated", "user_id", userID, "language", lang)
	return saved, nil
}

func (s *service) PreferredLanguage(ctx context.Context, userID string) (string, bool, error) {
	p, ok, err := s.repo.Get(ctx, userID)
	if err != nil || !ok {
		return "", false, err
	}
	if strings.TrimSpace(p.PreferredLanguage) == "" {
		return "", false, nil
	}
	return p.PreferredLanguage, true, nil
}
