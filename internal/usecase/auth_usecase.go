package usecase

import (
	"context"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"app/internal/config"
	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

// accesstokenの有効期限
const accessTokenTTL = 24 * time.Hour

type UserDTO struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Role     string `json:"role"`
	IsActive bool   `json:"is_active"`
}

type AuthRegisterInput struct {
	Email    string
	Username string
	Password string
}

type AuthLoginInput struct {
	Email    string
	Password string
}

type AuthTokenOutput struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type AuthLoginOutput struct {
	User  UserDTO         `json:"user"`
	Token AuthTokenOutput `json:"token"`
}

type AuthUsecase struct {
	cfg   config.Config
	users repo.UserRepository
	clock Clock
}

func NewAuthUsecase(cfg config.Config, users repo.UserRepository, clock Clock) *AuthUsecase {
	return &AuthUsecase{cfg: cfg, users: users, clock: clock}
}

// 会員登録。パスワードは必ずハッシュ化して保存（平文保存しない）
func (u *AuthUsecase) Register(ctx context.Context, in AuthRegisterInput) (UserDTO, error) {
	email := strings.TrimSpace(in.Email)
	username := strings.TrimSpace(in.Username)

	if !isValidEmailFormat(email) {
		return UserDTO{}, NewHTTPError(http.StatusBadRequest, "invalid email format")
	}
	if len(username) < 3 || len(username) > 50 {
		return UserDTO{}, NewHTTPError(http.StatusBadRequest, "invalid username")
	}
	if len(in.Password) < 8 {
		return UserDTO{}, NewHTTPError(http.StatusBadRequest, "password too short")
	}

	//email重複チェック
	if _, err := u.users.FindByEmail(ctx, email); err == nil {
		return UserDTO{}, NewHTTPError(http.StatusConflict, "email already exists")
	} else if err != repo.ErrNotFound {
		return UserDTO{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	pwHash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return UserDTO{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	created, err := u.users.Create(ctx, model.User{
		Email:        email,
		Username:     username,
		PasswordHash: string(pwHash),
		Role:         model.RoleUser,
		IsActive:     true,
	})
	if err != nil {
		// unique違反（usernameなど）はここに落ちる
		return UserDTO{}, NewHTTPError(http.StatusConflict, "user already exists")
	}

	return toUserDTO(created), nil
}

// ログイン。成功時はJWT（HS256）を返す
func (u *AuthUsecase) Login(ctx context.Context, in AuthLoginInput) (AuthLoginOutput, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" || in.Password == "" {
		return AuthLoginOutput{}, NewHTTPError(http.StatusBadRequest, "email and password are required")
	}

	user, err := u.users.FindByEmail(ctx, email)
	if err == repo.ErrNotFound {
		//存在有無は漏らさない
		return AuthLoginOutput{}, NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}
	if err != nil {
		return AuthLoginOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if !user.IsActive {
		return AuthLoginOutput{}, NewHTTPError(http.StatusForbidden, "user is inactive")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return AuthLoginOutput{}, NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}

	_ = u.users.UpdateLastLogin(ctx, user.ID)

	token, expiresIn, err := u.issueAccessToken(user)
	if err != nil {
		return AuthLoginOutput{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return AuthLoginOutput{
		User:  toUserDTO(user),
		Token: AuthTokenOutput{AccessToken: token, ExpiresIn: expiresIn},
	}, nil
}

func (u *AuthUsecase) Me(ctx context.Context, userID int64) (UserDTO, error) {
	if userID <= 0 {
		return UserDTO{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	user, err := u.users.FindByID(ctx, userID)
	if err == repo.ErrNotFound {
		return UserDTO{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err != nil {
		return UserDTO{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return toUserDTO(user), nil
}

// jwt発行
func (u *AuthUsecase) issueAccessToken(user model.User) (string, int, error) {
	now := u.clock.Now()
	exp := now.Add(accessTokenTTL)

	claims := jwt.MapClaims{
		"sub":  user.ID,
		"role": string(user.Role),
		"iat":  now.Unix(),
		"exp":  exp.Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(u.cfg.JWTSecret))
	if err != nil {
		return "", 0, err
	}

	return signed, int(accessTokenTTL.Seconds()), nil
}

func isValidEmailFormat(email string) bool {
	if email == "" {
		return false
	}
	_, err := mail.ParseAddress(email)
	return err == nil
}

func toUserDTO(u model.User) UserDTO {
	return UserDTO{
		ID:       u.ID,
		Email:    u.Email,
		Username: u.Username,
		Role:     string(u.Role),
		IsActive: u.IsActive,
	}
}
