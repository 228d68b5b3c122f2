package usecase_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"app/internal/config"
	"app/internal/domain/model"
	repo "app/internal/repository"
	"app/internal/usecase"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
)

func authConfig() config.Config {
	return config.Config{JWTSecret: "test-secret"}
}

func TestAuthUsecase_Register_Success(t *testing.T) {
	users := new(UserRepoMock)
	uc := usecase.NewAuthUsecase(authConfig(), users, usecase.RealClock{})

	users.On("FindByEmail", mock.Anything, "ana@example.com").Return(model.User{}, repo.ErrNotFound)
	users.On("Create", mock.Anything, mock.Anything).Return(model.User{
		ID: 1, Email: "ana@example.com", Username: "ana", Role: model.RoleUser, IsActive: true,
	}, nil)

	out, err := uc.Register(context.Background(), usecase.AuthRegisterInput{
		Email:    "ana@example.com",
		Username: "ana",
		Password: "s3cret-pass",
	})
	assert.NoError(t, err)
	assert.Equal(t, "ana@example.com", out.Email)
	assert.Equal(t, "USER", out.Role)

	//保存されるのはハッシュ（平文ではない）
	createdArg := users.Calls[1].Arguments.Get(1).(model.User)
	assert.NotEqual(t, "s3cret-pass", createdArg.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(createdArg.PasswordHash), []byte("s3cret-pass")))
}

func TestAuthUsecase_Register_DuplicateEmail(t *testing.T) {
	users := new(UserRepoMock)
	uc := usecase.NewAuthUsecase(authConfig(), users, usecase.RealClock{})

	users.On("FindByEmail", mock.Anything, "ana@example.com").Return(model.User{ID: 1}, nil)

	_, err := uc.Register(context.Background(), usecase.AuthRegisterInput{
		Email:    "ana@example.com",
		Username: "ana",
		Password: "s3cret-pass",
	})
	assertHTTPStatus(t, err, http.StatusConflict)
}

func TestAuthUsecase_Register_ShortPassword(t *testing.T) {
	uc := usecase.NewAuthUsecase(authConfig(), new(UserRepoMock), usecase.RealClock{})

	_, err := uc.Register(context.Background(), usecase.AuthRegisterInput{
		Email:    "ana@example.com",
		Username: "ana",
		Password: "short",
	})
	assertHTTPStatus(t, err, http.StatusBadRequest)
}

func TestAuthUsecase_Login_Success(t *testing.T) {
	users := new(UserRepoMock)
	clock := fixedClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	uc := usecase.NewAuthUsecase(authConfig(), users, clock)

	hash, _ := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.DefaultCost)
	user := model.User{ID: 1, Email: "ana@example.com", Username: "ana", PasswordHash: string(hash), Role: model.RoleUser, IsActive: true}

	users.On("FindByEmail", mock.Anything, "ana@example.com").Return(user, nil)
	users.On("UpdateLastLogin", mock.Anything, int64(1)).Return(nil)

	out, err := uc.Login(context.Background(), usecase.AuthLoginInput{Email: "ana@example.com", Password: "s3cret-pass"})
	assert.NoError(t, err)
	assert.NotEmpty(t, out.Token.AccessToken)

	//発行されたJWTのclaimsを検証（expはテスト用の固定時刻で検証する）
	prevTimeFunc := jwt.TimeFunc
	jwt.TimeFunc = clock.Now
	defer func() { jwt.TimeFunc = prevTimeFunc }()
	token, err := jwt.Parse(out.Token.AccessToken, func(t *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	assert.NoError(t, err)
	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, float64(1), claims["sub"])
	assert.Equal(t, "USER", claims["role"])
}

func TestAuthUsecase_Login_WrongPassword(t *testing.T) {
	users := new(UserRepoMock)
	uc := usecase.NewAuthUsecase(authConfig(), users, usecase.RealClock{})

	hash, _ := bcrypt.GenerateFromPassword([]byte("correct"), bcrypt.DefaultCost)
	user := model.User{ID: 1, Email: "ana@example.com", PasswordHash: string(hash), IsActive: true}

	users.On("FindByEmail", mock.Anything, "ana@example.com").Return(user, nil)

	_, err := uc.Login(context.Background(), usecase.AuthLoginInput{Email: "ana@example.com", Password: "wrong"})
	assertHTTPStatus(t, err, http.StatusUnauthorized)
}

func TestAuthUsecase_Login_UnknownEmailSameError(t *testing.T) {
	users := new(UserRepoMock)
	uc := usecase.NewAuthUsecase(authConfig(), users, usecase.RealClock{})

	users.On("FindByEmail", mock.Anything, "nobody@example.com").Return(model.User{}, repo.ErrNotFound)

	_, err := uc.Login(context.Background(), usecase.AuthLoginInput{Email: "nobody@example.com", Password: "whatever"})
	assertHTTPStatus(t, err, http.StatusUnauthorized)
	assertErrContains(t, err, "invalid credentials")
}

func TestAuthUsecase_Login_InactiveUser(t *testing.T) {
	users := new(UserRepoMock)
	uc := usecase.NewAuthUsecase(authConfig(), users, usecase.RealClock{})

	hash, _ := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.DefaultCost)
	user := model.User{ID: 1, Email: "ana@example.com", PasswordHash: string(hash), IsActive: false}

	users.On("FindByEmail", mock.Anything, "ana@example.com").Return(user, nil)

	_, err := uc.Login(context.Background(), usecase.AuthLoginInput{Email: "ana@example.com", Password: "s3cret-pass"})
	assertHTTPStatus(t, err, http.StatusForbidden)
}
