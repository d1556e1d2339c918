package users

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/uggybe/storage-buddy-bot/internal/repository"
	apperrors "github.com/uggybe/storage-buddy-bot/pkg/errors"
	"github.com/uggybe/storage-buddy-bot/pkg/models"
)

type UserRepository interface {
	IsAllowed(ctx context.Context, externalID string) (bool, error)
	GetByExternalID(ctx context.Context, externalID string) (*models.AppUser, error)
	CreateUser(ctx context.Context, externalID, name string, credentialHash []byte) (*models.AppUser, error)
	UpdateName(ctx context.Context, id int, name string) error
	GetUser(id int) (*models.AppUser, error)
	GetUsers() ([]models.AppUser, error)
}

type userRepositoryImpl struct {
	repository *repository.Repository
}

func NewUserRepository(r *repository.Repository) UserRepository {
	return &userRepositoryImpl{repository: r}
}

func (r *userRepositoryImpl) IsAllowed(ctx context.Context, externalID string) (bool, error) {
	query := r.repository.GoquDBWrapper.Select(goqu.COUNT("*")).
		From("allowed_users").
		Where(goqu.Ex{"external_id": externalID})

	var count int
	if _, err := query.Executor().ScanValContext(ctx, &count); err != nil {
		return false, fmt.Errorf("failed to check allow-list: %w", err)
	}

	return count > 0, nil
}

func (r *userRepositoryImpl) GetByExternalID(ctx context.Context, externalID string) (*models.AppUser, error) {
	var user models.AppUser
	query := r.repository.GoquDBWrapper.
		Select("id", "external_id", "name", "credential_hash", "created_at").
		From("app_users").
		Where(goqu.Ex{"external_id": externalID})

	found, err := query.Executor().ScanStructContext(ctx, &user)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by external id: %w", err)
	}
	if !found {
		return nil, &apperrors.NotFoundError{Resource: "user", ID: 0}
	}

	return &user, nil
}

// CreateUser is an idempotent upsert: re-authentication with the same
// external identity never produces a duplicate row. The insert and the
// reselect run in one transaction so the returned row is the one the
// upsert settled on.
func (r *userRepositoryImpl) CreateUser(ctx context.Context, externalID, name string, credentialHash []byte) (*models.AppUser, error) {
	var user models.AppUser
	err := repository.WithTransaction(r.repository.GoquDBWrapper, func(tx *goqu.TxDatabase) error {
		insert := tx.Insert("app_users").
			Rows(goqu.Record{
				"external_id":     externalID,
				"name":            name,
				"credential_hash": string(credentialHash),
			}).
			OnConflict(goqu.DoNothing())

		if _, err := insert.Executor().ExecContext(ctx); err != nil {
			return fmt.Errorf("failed to insert app user: %w", err)
		}

		query := tx.
			Select("id", "external_id", "name", "credential_hash", "created_at").
			From("app_users").
			Where(goqu.Ex{"external_id": externalID})

		found, err := query.Executor().ScanStructContext(ctx, &user)
		if err != nil {
			return fmt.Errorf("failed to get user by external id: %w", err)
		}
		if !found {
			return &apperrors.NotFoundError{Resource: "user", ID: 0}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *userRepositoryImpl) UpdateName(ctx context.Context, id int, name string) error {
	query := r.repository.GoquDBWrapper.Update("app_users").
		Set(goqu.Record{"name": name}).
		Where(goqu.Ex{"id": id})

	if _, err := query.Executor().ExecContext(ctx); err != nil {
		return fmt.Errorf("failed to update user name: %w", err)
	}

	return nil
}

func (r *userRepositoryImpl) GetUser(id int) (*models.AppUser, error) {
	var user models.AppUser
	query := r.repository.GoquDBWrapper.
		Select("id", "external_id", "name", "credential_hash", "created_at").
		From("app_users").
		Where(goqu.Ex{"id": id})

	found, err := query.Executor().ScanStruct(&user)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if !found {
		return nil, &apperrors.NotFoundError{Resource: "user", ID: id}
	}

	return &user, nil
}

func (r *userRepositoryImpl) GetUsers() ([]models.AppUser, error) {
	var users []models.AppUser
	query := r.repository.GoquDBWrapper.
		Select("id", "external_id", "name", "created_at").
		From("app_users").
		Order(goqu.I("name").Asc())

	if err := query.Executor().ScanStructs(&users); err != nil {
		return nil, fmt.Errorf("error executing SQL statement: %w", err)
	}

	return users, nil
}
