package app

import (
	"fmt"
	"time"

	"github.com/allisson/usertokens/internal/config"
	"github.com/allisson/usertokens/internal/database"
	tokenDomain "github.com/allisson/usertokens/internal/token/domain"
	"github.com/allisson/usertokens/internal/token/repository/mysql"
	"github.com/allisson/usertokens/internal/token/repository/postgresql"
	"github.com/allisson/usertokens/internal/token/repository/redis"
	tokenService "github.com/allisson/usertokens/internal/token/service"
	tokenUsecase "github.com/allisson/usertokens/internal/token/usecase"
)

// TokenGenerator returns the generator shared by every token kind.
func (c *Container) TokenGenerator() tokenService.Generator {
	return tokenService.NewGenerator()
}

// MailRegistrationTokenUseCase returns the use case for e-mail confirmation tokens.
func (c *Container) MailRegistrationTokenUseCase() (
	tokenUsecase.TokenUseCase[*tokenDomain.MailRegistrationToken],
	error,
) {
	var err error
	c.mailTokenUseCaseInit.Do(func() {
		c.mailTokenUseCase, err = initTokenUseCase(
			c,
			tokenDomain.NewMailRegistrationToken,
			c.config.MailRegistrationTokenExpiration,
		)
		if err != nil {
			c.initErrors["mailTokenUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["mailTokenUseCase"]; exists {
		return nil, storedErr
	}
	return c.mailTokenUseCase, nil
}

// ForgotPasswordTokenUseCase returns the use case for password reset tokens.
func (c *Container) ForgotPasswordTokenUseCase() (
	tokenUsecase.TokenUseCase[*tokenDomain.ForgotPasswordToken],
	error,
) {
	var err error
	c.passwordTokenUseCaseInit.Do(func() {
		c.passwordTokenUseCase, err = initTokenUseCase(
			c,
			tokenDomain.NewForgotPasswordToken,
			c.config.ForgotPasswordTokenExpiration,
		)
		if err != nil {
			c.initErrors["passwordTokenUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["passwordTokenUseCase"]; exists {
		return nil, storedErr
	}
	return c.passwordTokenUseCase, nil
}

// TokenInvalidator returns the InvalidateToken operation for kind.
func (c *Container) TokenInvalidator(kind tokenDomain.Kind) (tokenUsecase.Invalidator, error) {
	switch kind {
	case tokenDomain.KindMailRegistration:
		return c.MailRegistrationTokenUseCase()
	case tokenDomain.KindForgotPassword:
		return c.ForgotPasswordTokenUseCase()
	default:
		return nil, fmt.Errorf("unsupported token kind: %s", kind)
	}
}

// ExpiredTokenRepository returns the repository that purges expired SQL token rows.
func (c *Container) ExpiredTokenRepository() (tokenUsecase.ExpiredTokenRepository, error) {
	var err error
	c.expiredTokenRepoInit.Do(func() {
		c.expiredTokenRepo, err = c.initExpiredTokenRepository()
		if err != nil {
			c.initErrors["expiredTokenRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["expiredTokenRepo"]; exists {
		return nil, storedErr
	}
	return c.expiredTokenRepo, nil
}

// CleanupUseCase returns the expired token cleanup use case.
func (c *Container) CleanupUseCase() (tokenUsecase.CleanupUseCase, error) {
	var err error
	c.cleanupUseCaseInit.Do(func() {
		var repo tokenUsecase.ExpiredTokenRepository
		repo, err = c.ExpiredTokenRepository()
		if err != nil {
			err = fmt.Errorf("failed to get expired token repository for cleanup use case: %w", err)
			c.initErrors["cleanupUseCase"] = err
			return
		}
		c.cleanupUseCase = tokenUsecase.NewCleanupUseCase(repo)
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["cleanupUseCase"]; exists {
		return nil, storedErr
	}
	return c.cleanupUseCase, nil
}

// initTokenUseCase assembles store, expiry, lifecycle and metrics for one token kind.
func initTokenUseCase[T tokenDomain.Record](
	c *Container,
	newRecord func() T,
	ttl time.Duration,
) (tokenUsecase.TokenUseCase[T], error) {
	store, err := initTokenStore(c, newRecord)
	if err != nil {
		return nil, err
	}

	store = tokenUsecase.NewExpiringStore(store, ttl, time.Now)
	useCase := tokenUsecase.NewTokenUseCase(newRecord, c.TokenGenerator(), store)

	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for token use case: %w", err)
		}
		useCase = tokenUsecase.NewTokenUseCaseWithMetrics(useCase, businessMetrics, newRecord().Base().Kind)
	}

	return useCase, nil
}

// initTokenStore selects the token store backend from configuration.
func initTokenStore[T tokenDomain.Record](c *Container, newRecord func() T) (tokenUsecase.Store[T], error) {
	if c.config.TokenStore == config.TokenStoreRedis {
		client, err := c.RedisClient()
		if err != nil {
			return nil, fmt.Errorf("failed to get redis client for token store: %w", err)
		}
		return redis.NewRedisTokenRepository(client, c.config.RedisKeyPrefix, newRecord), nil
	}

	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for token store: %w", err)
	}

	switch c.config.DBDriver {
	case database.DriverPostgres:
		return postgresql.NewPostgreSQLTokenRepository(db, newRecord), nil
	case database.DriverMySQL:
		return mysql.NewMySQLTokenRepository(db, newRecord), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initExpiredTokenRepository creates the expired token repository for the database driver.
func (c *Container) initExpiredTokenRepository() (tokenUsecase.ExpiredTokenRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for expired token repository: %w", err)
	}

	switch c.config.DBDriver {
	case database.DriverPostgres:
		return postgresql.NewPostgreSQLExpiredTokenRepository(db), nil
	case database.DriverMySQL:
		return mysql.NewMySQLExpiredTokenRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}
