package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"reviewhub/internal/dto"
	"reviewhub/internal/middleware"
	"reviewhub/internal/service"
)

// MockUserService mocks the UserService interface
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Create(req *dto.CreateUserRequest) (*dto.UserResponse, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.UserResponse), args.Error(1)
}

func (m *MockUserService) List(page, pageSize int) (*dto.ListResponse, error) {
	args := m.Called(page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListResponse), args.Error(1)
}

func (m *MockUserService) GetByUsername(username string) (*dto.UserResponse, error) {
	args := m.Called(username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.UserResponse), args.Error(1)
}

func (m *MockUserService) Update(username string, req *dto.UpdateUserRequest, allowRoleChange bool) (*dto.UserResponse, error) {
	args := m.Called(username, req, allowRoleChange)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.UserResponse), args.Error(1)
}

func (m *MockUserService) Delete(username string) error {
	args := m.Called(username)
	return args.Error(0)
}

func userRouter(mockService *MockUserService, auth gin.HandlerFunc) *gin.Engine {
	router := setupRouter()
	handler := NewUserHandler(mockService)
	api := router.Group("/api/v1")
	handler.RegisterRoutes(api, auth, middleware.RequireAdmin())
	return router
}

func TestMe_ReturnsOwnProfile(t *testing.T) {
	mockService := new(MockUserService)
	router := userRouter(mockService, asActor("reader-1", "reader", "user", false))

	mockService.On("GetByUsername", "reader").Return(&dto.UserResponse{
		Username: "reader",
		Email:    "reader@example.com",
		Role:     "user",
	}, nil)

	req, _ := http.NewRequest("GET", "/api/v1/users/me", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response dto.UserResponse
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, "reader", response.Username)

	mockService.AssertExpectations(t)
}

func TestUpdateMe_RoleChangeNotAllowed(t *testing.T) {
	mockService := new(MockUserService)
	router := userRouter(mockService, asActor("reader-1", "reader", "user", false))

	mockService.On("Update", "reader", mock.AnythingOfType("*dto.UpdateUserRequest"), false).
		Return(&dto.UserResponse{Username: "reader", Role: "user"}, nil)

	role := "admin"
	req := jsonRequest("PATCH", "/api/v1/users/me", dto.UpdateUserRequest{Role: &role})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	// the false flag means the service drops the role field
	mockService.AssertExpectations(t)
}

func TestListUsers_NonAdminForbidden(t *testing.T) {
	mockService := new(MockUserService)
	router := userRouter(mockService, asActor("reader-1", "reader", "user", false))

	req, _ := http.NewRequest("GET", "/api/v1/users", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	mockService.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestCreateUser_AdminCreates(t *testing.T) {
	mockService := new(MockUserService)
	router := userRouter(mockService, asActor("admin-1", "boss", "admin", false))

	mockService.On("Create", mock.AnythingOfType("*dto.CreateUserRequest")).
		Return(&dto.UserResponse{Username: "hire", Email: "hire@example.com", Role: "moderator"}, nil)

	req := jsonRequest("POST", "/api/v1/users", dto.CreateUserRequest{
		Username: "hire",
		Email:    "hire@example.com",
		Role:     "moderator",
	})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	mockService.AssertExpectations(t)
}

func TestCreateUser_InvalidRoleRejectedByBinding(t *testing.T) {
	mockService := new(MockUserService)
	router := userRouter(mockService, asActor("admin-1", "boss", "admin", false))

	req := jsonRequest("POST", "/api/v1/users", map[string]string{
		"username": "odd",
		"email":    "odd@example.com",
		"role":     "owner",
	})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "Create", mock.Anything)
}

func TestGetUser_NotFound(t *testing.T) {
	mockService := new(MockUserService)
	router := userRouter(mockService, asActor("admin-1", "boss", "admin", false))

	mockService.On("GetByUsername", "ghost").Return(nil, service.ErrUserNotFound)

	req, _ := http.NewRequest("GET", "/api/v1/users/ghost", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateUser_AdminMayChangeRole(t *testing.T) {
	mockService := new(MockUserService)
	router := userRouter(mockService, asActor("admin-1", "boss", "admin", false))

	mockService.On("Update", "worker", mock.AnythingOfType("*dto.UpdateUserRequest"), true).
		Return(&dto.UserResponse{Username: "worker", Role: "moderator"}, nil)

	role := "moderator"
	req := jsonRequest("PATCH", "/api/v1/users/worker", dto.UpdateUserRequest{Role: &role})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestUpdateUser_EmptyRole(t *testing.T) {
	mockService := new(MockUserService)
	router := userRouter(mockService, asActor("admin-1", "boss", "admin", false))

	role := ""
	mockService.On("Update", "worker", &dto.UpdateUserRequest{Role: &role}, true).
		Return(nil, service.ErrInvalidRole)

	req := jsonRequest("PATCH", "/api/v1/users/worker", map[string]string{"role": ""})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertExpectations(t)
}

func TestDeleteUser_Success(t *testing.T) {
	mockService := new(MockUserService)
	router := userRouter(mockService, asActor("admin-1", "boss", "admin", false))

	mockService.On("Delete", "leaver").Return(nil)

	req, _ := http.NewRequest("DELETE", "/api/v1/users/leaver", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}
