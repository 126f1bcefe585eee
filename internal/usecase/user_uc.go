package usecase

import (
	"context"
	"errors"
	"time"

	"telegram-hosting-bot/internal/domain"
	"telegram-hosting-bot/internal/domain/model"
	"telegram-hosting-bot/internal/domain/ports/repository"
	"telegram-hosting-bot/internal/infra/logging"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
)

// Compile-time check
var _ UserUseCase = (*userUC)(nil)

// UserUseCase exposes user-related operations used by bot/admin flows.
type UserUseCase interface {
	// RegisterOrFetch returns the user for tgID, creating it on first
	// contact. created reports whether this call performed the creation.
	RegisterOrFetch(ctx context.Context, tgID int64, username string) (user *model.User, created bool, err error)
	GetByTelegramID(ctx context.Context, tgID int64) (*model.User, error)
	// Touch refreshes LastActiveAt; unknown ids return ErrNotFound.
	Touch(ctx context.Context, tgID int64) error
	List(ctx context.Context, offset, limit int) ([]*model.User, error)
	Count(ctx context.Context) (int, error)
}

type userUC struct {
	users          repository.UserRepository
	tm             repository.TransactionManager
	baseLimit      int
	referralReward int
	log            *zerolog.Logger
}

func NewUserUseCase(users repository.UserRepository, tm repository.TransactionManager, baseLimit, referralReward int, logger *zerolog.Logger) *userUC {
	return &userUC{
		users:          users,
		tm:             tm,
		baseLimit:      baseLimit,
		referralReward: referralReward,
		log:            logger,
	}
}

func (u *userUC) RegisterOrFetch(ctx context.Context, tgID int64, username string) (*model.User, bool, error) {
	defer logging.TraceDuration(u.log, "UserUC.RegisterOrFetch")()

	var user *model.User
	var created bool
	// The find and save run as one atomic operation so two racing /start
	// events for the same user cannot both create a record.
	txOpts := pgx.TxOptions{IsoLevel: pgx.Serializable}
	err := u.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		usr, err := u.users.FindByTelegramID(ctx, tx, tgID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		if usr != nil {
			if usr.Username != username && username != "" {
				usr.Username = username
			}
			usr.Touch()
			if err := u.users.Save(ctx, tx, usr); err != nil {
				u.log.Error().Err(err).Msg("Failed to update user")
				return err
			}
			user = usr
			return nil
		}

		nu, err := model.NewUser("", tgID, username, u.baseLimit, u.referralReward)
		if err != nil {
			return err
		}
		if err := u.users.Save(ctx, tx, nu); err != nil {
			return err
		}
		user = nu
		created = true
		return nil
	})

	return user, created, err
}

func (u *userUC) GetByTelegramID(ctx context.Context, tgID int64) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.GetByTelegramID")()
	return u.users.FindByTelegramID(ctx, repository.NoTX, tgID)
}

func (u *userUC) Touch(ctx context.Context, tgID int64) error {
	// Targeted single-column update. A full-row read-then-save here would
	// race concurrent ledger transactions and could write back a stale
	// file count.
	return u.users.MarkActive(ctx, repository.NoTX, tgID, time.Now())
}

func (u *userUC) List(ctx context.Context, offset, limit int) ([]*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.List")()
	return u.users.List(ctx, repository.NoTX, offset, limit)
}

func (u *userUC) Count(ctx context.Context) (int, error) {
	defer logging.TraceDuration(u.log, "UserUC.Count")()
	return u.users.CountUsers(ctx, repository.NoTX)
}
