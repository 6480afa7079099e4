package authgate

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Profiles is the storage surface for application-owned profile rows. The
// backing connection is expected to hold elevated rights: profile resolution
// runs before any request-scoped authorization exists, so row-level security
// must not be able to block it.
type Profiles interface {
	repository.Repository[*Profile]

	GetByPrincipal(ctx context.Context, id uuid.UUID) (*Profile, error)
	GetByPrincipalTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*Profile, error)

	Create(ctx context.Context, record *Profile, criteria ...repository.InsertCriteria) (*Profile, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Profile, criteria ...repository.InsertCriteria) (*Profile, error)

	CompleteOnboardingStep(ctx context.Context, id uuid.UUID, step int) (*Profile, error)
	MarkOnboardingComplete(ctx context.Context, id uuid.UUID) (*Profile, error)
	UpdateVerificationStatus(ctx context.Context, id uuid.UUID, status VerificationStatus) (*Profile, error)
}

type profiles struct {
	repository.Repository[*Profile]
	db *bun.DB
}

var (
	_ Profiles                        = (*profiles)(nil)
	_ repository.Repository[*Profile] = (*profiles)(nil)
)

func NewProfilesRepository(db *bun.DB) Profiles {
	repo := repository.NewRepository[*Profile](db, repository.ModelHandlers[*Profile]{
		NewRecord: func() *Profile { return &Profile{} },
		GetID: func(p *Profile) uuid.UUID {
			if p == nil {
				return uuid.Nil
			}
			return p.ID
		},
		SetID: func(p *Profile, id uuid.UUID) {
			if p != nil {
				p.ID = id
			}
		},
	})

	return &profiles{
		Repository: repo,
		db:         db,
	}
}

func (r *profiles) GetByPrincipal(ctx context.Context, id uuid.UUID) (*Profile, error) {
	return r.GetByPrincipalTx(ctx, r.db, id)
}

func (r *profiles) GetByPrincipalTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*Profile, error) {
	record := &Profile{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"id": id.String(),
				})
		}
		return nil, err
	}

	return record, nil
}

func (r *profiles) Create(ctx context.Context, record *Profile, criteria ...repository.InsertCriteria) (*Profile, error) {
	return r.CreateTx(ctx, r.db, record, criteria...)
}

func (r *profiles) CreateTx(ctx context.Context, tx bun.IDB, record *Profile, criteria ...repository.InsertCriteria) (*Profile, error) {
	prepareProfileDefaults(record)
	return r.Repository.CreateTx(ctx, tx, record, criteria...)
}

// CompleteOnboardingStep advances the step counter, clamping to the role's
// total and flipping the completion flag at the last step. The onboarding
// flow mutates the same columns the edge redirect logic reads.
func (r *profiles) CompleteOnboardingStep(ctx context.Context, id uuid.UUID, step int) (*Profile, error) {
	record, err := r.GetByPrincipal(ctx, id)
	if err != nil {
		return nil, err
	}

	total := OnboardingTotal(record.Role)
	if step > total {
		step = total
	}
	if step > record.OnboardingStep {
		record.OnboardingStep = step
	}
	if total > 0 && record.OnboardingStep >= total {
		record.OnboardingCompleted = true
	}

	return r.updateOnboarding(ctx, record)
}

func (r *profiles) MarkOnboardingComplete(ctx context.Context, id uuid.UUID) (*Profile, error) {
	record, err := r.GetByPrincipal(ctx, id)
	if err != nil {
		return nil, err
	}

	record.OnboardingCompleted = true
	if total := OnboardingTotal(record.Role); record.OnboardingStep < total {
		record.OnboardingStep = total
	}

	return r.updateOnboarding(ctx, record)
}

func (r *profiles) updateOnboarding(ctx context.Context, record *Profile) (*Profile, error) {
	now := time.Now()
	record.UpdatedAt = &now

	_, err := r.db.NewUpdate().
		Model(record).
		Column("onboarding_step_completed", "is_onboarding_completed", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	return record, nil
}

// UpdateVerificationStatus is the admin verification workflow's touch point
// on profile rows.
func (r *profiles) UpdateVerificationStatus(ctx context.Context, id uuid.UUID, status VerificationStatus) (*Profile, error) {
	record, err := r.GetByPrincipal(ctx, id)
	if err != nil {
		return nil, err
	}

	record.VerificationStatus = status
	now := time.Now()
	record.UpdatedAt = &now

	_, err = r.db.NewUpdate().
		Model(record).
		Column("verification_status", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	return record, nil
}

func prepareProfileDefaults(record *Profile) {
	if record == nil {
		return
	}
	if record.Role == "" {
		record.Role = RoleBuyer
	}
	if record.VerificationStatus == "" {
		record.VerificationStatus = VerificationPending
	}
}

// IsDuplicateKeyError detects a unique-constraint insert conflict across the
// drivers we run against (Postgres in production, SQLite in tests). The
// repository layer wraps driver errors in rich errors whose top-level text is
// generic, so every error in the unwrap chain is inspected.
func IsDuplicateKeyError(err error) bool {
	for e := err; e != nil; e = errors.Unwrap(e) {
		msg := strings.ToLower(e.Error())
		if strings.Contains(msg, "duplicate key value") ||
			strings.Contains(msg, "unique constraint") ||
			strings.Contains(msg, "constraint failed") {
			return true
		}
	}
	return false
}

// IsProfileNotFound reports whether err is the repository's not-found error.
func IsProfileNotFound(err error) bool {
	return repository.IsRecordNotFound(err)
}
