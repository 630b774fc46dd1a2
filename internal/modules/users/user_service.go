package users

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"ecocollect/internal/models"
	"ecocollect/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
)

const accessTokenTTL = 30 * 24 * time.Hour

// ServiceInterface defines methods for user business logic.
type ServiceInterface interface {
	Signup(ctx context.Context, req models.SignupRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	HandleGoogleLogin() (string, error)
	HandleGoogleCallback(ctx context.Context, code string) (*models.AuthResponse, error)

	GetUserProfile(ctx context.Context, userID string) (*models.User, error)
	UpdateUserProfile(ctx context.Context, userID string, data models.UserUpdateData) (*models.User, error)

	ListAddresses(ctx context.Context, userID string) ([]models.Address, error)
	AddAddress(ctx context.Context, userID string, req models.AddAddressRequest) (*models.Address, error)
	UpdateAddress(ctx context.Context, userID, addressID string, req models.UpdateAddressRequest) (*models.Address, error)
	DeleteAddress(ctx context.Context, userID, addressID string) error

	RateWorker(ctx context.Context, workerID string, score int) error

	AdminRegisterWorker(ctx context.Context, req models.RegisterWorkerRequest) (*models.User, error)
	AdminListWorkers(ctx context.Context, area string, page, limit int) ([]*models.User, int, error)
	AdminSetWorkerStatus(ctx context.Context, workerID string, status models.WorkerStatus) error
}

// Service implements the ServiceInterface.
type Service struct {
	repo              RepositoryInterface
	jwtSecret         string
	googleOAuthConfig *oauth2.Config
	logger            *zap.SugaredLogger
}

// NewService creates a new user service. googleOAuthConfig may be nil when
// OAuth is not configured.
func NewService(repo RepositoryInterface, jwtSecret string, googleOAuthConfig *oauth2.Config, logger *zap.SugaredLogger) ServiceInterface {
	return &Service{
		repo:              repo,
		jwtSecret:         jwtSecret,
		googleOAuthConfig: googleOAuthConfig,
		logger:            logger,
	}
}

// googleUserInfo unmarshals the Google userinfo response.
type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
}

func (s *Service) generateAuthResponse(user *models.User) (*models.AuthResponse, error) {
	token, err := utils.GenerateJWT(user.ID, user.Email, user.Role, s.jwtSecret, accessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("service.generateAuthResponse: %w", err)
	}
	// Strip the hash from a copy; callers may still hold the stored record.
	sanitized := *user
	sanitized.PasswordHash = ""
	return &models.AuthResponse{AccessToken: token, User: &sanitized}, nil
}

func (s *Service) Signup(ctx context.Context, req models.SignupRequest) (*models.AuthResponse, error) {
	_, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("service.Signup.FindByEmail: %w", err)
	}
	if err == nil {
		return nil, models.ErrConflict
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("service.Signup.HashPassword: %w", err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: string(hashedPassword),
		Name:         req.Name,
		Phone:        req.Phone,
		Role:         models.RoleUser,
		AuthProvider: "local",
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("service.Signup: %w", err)
	}

	s.logger.Infow("user signed up", "userId", user.ID)
	return s.generateAuthResponse(user)
}

func (s *Service) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("service.Login.FindByEmail: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, models.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, models.ErrInvalidCredentials
	}

	return s.generateAuthResponse(user)
}

// HandleGoogleLogin returns the Google consent URL to redirect the user to.
// The state parameter is random per request for CSRF protection.
func (s *Service) HandleGoogleLogin() (string, error) {
	if s.googleOAuthConfig == nil {
		return "", models.ErrInvalidCredentials
	}
	state, err := utils.GenerateSecureToken(16)
	if err != nil {
		return "", fmt.Errorf("service.HandleGoogleLogin: %w", err)
	}
	return s.googleOAuthConfig.AuthCodeURL(state), nil
}

// HandleGoogleCallback exchanges the authorization code, fetches the user's
// profile from Google and logs them in, creating the account on first use.
func (s *Service) HandleGoogleCallback(ctx context.Context, code string) (*models.AuthResponse, error) {
	if s.googleOAuthConfig == nil {
		return nil, models.ErrInvalidCredentials
	}

	token, err := s.googleOAuthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("google code exchange failed: %w", err)
	}

	response, err := http.Get("https://www.googleapis.com/oauth2/v2/userinfo?access_token=" + token.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed getting user info from google: %w", err)
	}
	defer response.Body.Close()

	contents, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("failed reading user info response body: %w", err)
	}

	var userInfo googleUserInfo
	if err := json.Unmarshal(contents, &userInfo); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user info: %w", err)
	}
	if !userInfo.VerifiedEmail {
		return nil, models.ErrInvalidCredentials
	}

	user, err := s.repo.FindByEmail(ctx, userInfo.Email)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("service.HandleGoogleCallback.FindByEmail: %w", err)
	}
	if errors.Is(err, models.ErrNotFound) {
		user = &models.User{
			ID:           uuid.NewString(),
			Email:        userInfo.Email,
			Name:         userInfo.Name,
			Role:         models.RoleUser,
			AuthProvider: "google",
		}
		if err := s.repo.CreateUser(ctx, user); err != nil {
			return nil, fmt.Errorf("service.HandleGoogleCallback.CreateUser: %w", err)
		}
		s.logger.Infow("user signed up via google", "userId", user.ID)
	}

	return s.generateAuthResponse(user)
}

func (s *Service) GetUserProfile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *Service) UpdateUserProfile(ctx context.Context, userID string, data models.UserUpdateData) (*models.User, error) {
	user, err := s.repo.UpdateProfile(ctx, userID, data)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *Service) ListAddresses(ctx context.Context, userID string) ([]models.Address, error) {
	return s.repo.ListAddresses(ctx, userID)
}

func (s *Service) AddAddress(ctx context.Context, userID string, req models.AddAddressRequest) (*models.Address, error) {
	addr := &models.Address{
		ID:        uuid.NewString(),
		UserID:    userID,
		Label:     req.Label,
		Street:    req.Street,
		Landmark:  req.Landmark,
		Area:      req.Area,
		City:      req.City,
		Pincode:   req.Pincode,
		Lat:       req.Lat,
		Lng:       req.Lng,
		IsDefault: req.IsDefault,
	}
	if err := s.repo.AddAddress(ctx, addr); err != nil {
		return nil, err
	}
	return addr, nil
}

func (s *Service) UpdateAddress(ctx context.Context, userID, addressID string, req models.UpdateAddressRequest) (*models.Address, error) {
	return s.repo.UpdateAddress(ctx, userID, addressID, req)
}

func (s *Service) DeleteAddress(ctx context.Context, userID, addressID string) error {
	return s.repo.DeleteAddress(ctx, userID, addressID)
}

// RateWorker applies a direct rating to a worker's running average. Order
// completion ratings arrive here too, via the order service.
func (s *Service) RateWorker(ctx context.Context, workerID string, score int) error {
	target, err := s.repo.FindByID(ctx, workerID)
	if err != nil {
		return err
	}
	if !target.Role.IsFieldRole() {
		return models.ErrNotFound
	}
	return s.repo.ApplyRating(ctx, workerID, score)
}

func (s *Service) AdminRegisterWorker(ctx context.Context, req models.RegisterWorkerRequest) (*models.User, error) {
	_, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("service.AdminRegisterWorker.FindByEmail: %w", err)
	}
	if err == nil {
		return nil, models.ErrConflict
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("service.AdminRegisterWorker.HashPassword: %w", err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: string(hashedPassword),
		Name:         req.Name,
		Phone:        req.Phone,
		Role:         models.Role(req.Role),
		AuthProvider: "local",
		Worker: &models.WorkerInfo{
			EmployeeID:    req.EmployeeID,
			VehicleNumber: req.VehicleNumber,
			VehicleType:   req.VehicleType,
			AssignedArea:  req.AssignedArea,
		},
	}
	if err := s.repo.CreateWorker(ctx, user); err != nil {
		return nil, fmt.Errorf("service.AdminRegisterWorker: %w", err)
	}

	s.logger.Infow("worker registered", "workerId", user.ID, "role", user.Role, "employeeId", req.EmployeeID)
	user.PasswordHash = ""
	return user, nil
}

func (s *Service) AdminListWorkers(ctx context.Context, area string, page, limit int) ([]*models.User, int, error) {
	return s.repo.ListWorkers(ctx, area, page, limit)
}

func (s *Service) AdminSetWorkerStatus(ctx context.Context, workerID string, status models.WorkerStatus) error {
	if err := s.repo.SetWorkerStatus(ctx, workerID, status); err != nil {
		return err
	}
	s.logger.Infow("worker status changed", "workerId", workerID, "status", status)
	return nil
}
