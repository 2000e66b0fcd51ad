package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"simagang/backend/internal/dto"
	"simagang/backend/internal/service"
	"simagang/backend/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock AuthService ──

type mockAuthService struct {
	registerErr   error
	verifyResult  *dto.TokenResponse
	verifyErr     error
	loginResult   *dto.TokenResponse
	loginErr      error
	refreshResult *dto.TokenResponse
	refreshErr    error
	logoutErr     error
	forgotErr     error
	resetErr      error
	changePassErr error
	profileResult *dto.UserResponse
	profileErr    error
	loggedOutJTIs []string
}

func (m *mockAuthService) Register(_ context.Context, _ *dto.RegisterRequest) error {
	return m.registerErr
}
func (m *mockAuthService) VerifyOTP(_ context.Context, _ *dto.VerifyOTPRequest) (*dto.TokenResponse, error) {
	return m.verifyResult, m.verifyErr
}
func (m *mockAuthService) Login(_ context.Context, _ *dto.LoginRequest) (*dto.TokenResponse, error) {
	return m.loginResult, m.loginErr
}
func (m *mockAuthService) RefreshToken(_ context.Context, _ *dto.RefreshTokenRequest) (*dto.TokenResponse, error) {
	return m.refreshResult, m.refreshErr
}
func (m *mockAuthService) Logout(_ context.Context, jti string, _ time.Time) error {
	m.loggedOutJTIs = append(m.loggedOutJTIs, jti)
	return m.logoutErr
}
func (m *mockAuthService) ForgotPassword(_ context.Context, _ *dto.ForgotPasswordRequest) error {
	return m.forgotErr
}
func (m *mockAuthService) ResetPassword(_ context.Context, _ *dto.ResetPasswordRequest) error {
	return m.resetErr
}
func (m *mockAuthService) ChangePassword(_ context.Context, _ string, _ *dto.ChangePasswordRequest) error {
	return m.changePassErr
}
func (m *mockAuthService) GetProfile(_ context.Context, _ string) (*dto.UserResponse, error) {
	return m.profileResult, m.profileErr
}

// ── Mock RegistrationService ──

type mockRegistrationService struct {
	submitResult   *dto.RegistrationResponse
	submitErr      error
	mineResult     *dto.RegistrationResponse
	mineErr        error
	getResult      *dto.RegistrationResponse
	getErr         error
	listResult     []dto.RegistrationResponse
	listTotal      int64
	listErr        error
	editResult     *dto.RegistrationResponse
	editErr        error
	decideResult   *dto.RegistrationResponse
	decideErr      error
	assignResult   *dto.RegistrationResponse
	assignErr      error
	unassignResult *dto.RegistrationResponse
	unassignErr    error
	reportResult   *dto.RegistrationResponse
	reportErr      error
	verifyResult   *dto.RegistrationResponse
	verifyErr      error
	certResult     *dto.RegistrationResponse
	certErr        error
	presignURL     string
	presignErr     error

	lastDecision    string
	lastReplyLetter *dto.FileUpload
	lastGetCaller   []string
	lastPresignKey  string
}

func (m *mockRegistrationService) Submit(_ context.Context, _, _ string, _ *dto.SubmitRegistrationRequest, _ *dto.DocumentUploads) (*dto.RegistrationResponse, error) {
	return m.submitResult, m.submitErr
}
func (m *mockRegistrationService) GetMine(_ context.Context, _ string) (*dto.RegistrationResponse, error) {
	return m.mineResult, m.mineErr
}
func (m *mockRegistrationService) GetByID(_ context.Context, _, callerID, callerRole, callerEmail string) (*dto.RegistrationResponse, error) {
	m.lastGetCaller = []string{callerID, callerRole, callerEmail}
	return m.getResult, m.getErr
}
func (m *mockRegistrationService) List(_ context.Context, _ *dto.RegistrationListRequest) ([]dto.RegistrationResponse, int64, error) {
	return m.listResult, m.listTotal, m.listErr
}
func (m *mockRegistrationService) Edit(_ context.Context, _ string, _ *dto.EditRegistrationRequest, _ *dto.DocumentUploads) (*dto.RegistrationResponse, error) {
	return m.editResult, m.editErr
}
func (m *mockRegistrationService) Decide(_ context.Context, _, _ string, req *dto.DecideRegistrationRequest, replyLetter *dto.FileUpload) (*dto.RegistrationResponse, error) {
	m.lastDecision = req.Decision
	m.lastReplyLetter = replyLetter
	return m.decideResult, m.decideErr
}
func (m *mockRegistrationService) AssignSupervisor(_ context.Context, _, _ string, _ *dto.AssignSupervisorRequest) (*dto.RegistrationResponse, error) {
	return m.assignResult, m.assignErr
}
func (m *mockRegistrationService) UnassignSupervisor(_ context.Context, _, _ string) (*dto.RegistrationResponse, error) {
	return m.unassignResult, m.unassignErr
}
func (m *mockRegistrationService) UploadFinalReport(_ context.Context, _ string, _ *dto.FileUpload) (*dto.RegistrationResponse, error) {
	return m.reportResult, m.reportErr
}
func (m *mockRegistrationService) VerifyFinalReport(_ context.Context, _, _ string) (*dto.RegistrationResponse, error) {
	return m.verifyResult, m.verifyErr
}
func (m *mockRegistrationService) UploadCertificate(_ context.Context, _, _ string, _ *dto.FileUpload) (*dto.RegistrationResponse, error) {
	return m.certResult, m.certErr
}
func (m *mockRegistrationService) PresignDocument(_ context.Context, key, _, _, _ string) (string, error) {
	m.lastPresignKey = key
	return m.presignURL, m.presignErr
}

// ── Mock SupervisorService ──

type mockSupervisorService struct {
	createResult   *dto.SupervisorResponse
	createErr      error
	getResult      *dto.SupervisorResponse
	getErr         error
	listResult     []dto.SupervisorResponse
	listTotal      int64
	listErr        error
	updateResult   *dto.SupervisorResponse
	updateErr      error
	statusResult   *dto.SupervisorResponse
	statusErr      error
	deleteErr      error
	studentsResult []dto.SupervisedStudentResponse
	studentsErr    error
}

func (m *mockSupervisorService) Create(_ context.Context, _ *dto.CreateSupervisorRequest, _ string) (*dto.SupervisorResponse, error) {
	return m.createResult, m.createErr
}
func (m *mockSupervisorService) GetByID(_ context.Context, _ string) (*dto.SupervisorResponse, error) {
	return m.getResult, m.getErr
}
func (m *mockSupervisorService) List(_ context.Context, _ *dto.PaginationRequest) ([]dto.SupervisorResponse, int64, error) {
	return m.listResult, m.listTotal, m.listErr
}
func (m *mockSupervisorService) Update(_ context.Context, _ string, _ *dto.UpdateSupervisorRequest, _ string) (*dto.SupervisorResponse, error) {
	return m.updateResult, m.updateErr
}
func (m *mockSupervisorService) SetStatus(_ context.Context, _ string, _ *dto.SetSupervisorStatusRequest, _ string) (*dto.SupervisorResponse, error) {
	return m.statusResult, m.statusErr
}
func (m *mockSupervisorService) Delete(_ context.Context, _ string, _ string) error {
	return m.deleteErr
}
func (m *mockSupervisorService) GetStudents(_ context.Context, _ string) ([]dto.SupervisedStudentResponse, error) {
	return m.studentsResult, m.studentsErr
}
func (m *mockSupervisorService) GetStudentsByID(_ context.Context, _ string) ([]dto.SupervisedStudentResponse, error) {
	return m.studentsResult, m.studentsErr
}

// ── Mock LogbookService ──

type mockLogbookService struct {
	createResult  *dto.LogbookResponse
	createErr     error
	listResult    []dto.LogbookResponse
	listTotal     int64
	listErr       error
	commentResult *dto.LogbookResponse
	commentErr    error
	approveResult *dto.LogbookResponse
	approveErr    error
	deleteErr     error

	lastCallerRole string
}

func (m *mockLogbookService) Create(_ context.Context, _ string, _ *dto.CreateLogbookRequest, _ *dto.FileUpload) (*dto.LogbookResponse, error) {
	return m.createResult, m.createErr
}
func (m *mockLogbookService) ListMine(_ context.Context, _ string, _ *dto.PaginationRequest) ([]dto.LogbookResponse, int64, error) {
	return m.listResult, m.listTotal, m.listErr
}
func (m *mockLogbookService) ListForRegistration(_ context.Context, _, _, callerRole, _ string, _ *dto.PaginationRequest) ([]dto.LogbookResponse, int64, error) {
	m.lastCallerRole = callerRole
	return m.listResult, m.listTotal, m.listErr
}
func (m *mockLogbookService) Comment(_ context.Context, _, _ string, _ *dto.CommentLogbookRequest) (*dto.LogbookResponse, error) {
	return m.commentResult, m.commentErr
}
func (m *mockLogbookService) Approve(_ context.Context, _, _ string) (*dto.LogbookResponse, error) {
	return m.approveResult, m.approveErr
}
func (m *mockLogbookService) Delete(_ context.Context, _, _ string) error {
	return m.deleteErr
}

// ── Mock NotificationService ──

type mockNotificationService struct {
	listResult  []dto.NotificationResponse
	listTotal   int64
	listErr     error
	unreadCount int64
	countErr    error
	markReadErr error
	markAllErr  error
}

func (m *mockNotificationService) ListMine(_ context.Context, _ string, _ *dto.NotificationListRequest) ([]dto.NotificationResponse, int64, error) {
	return m.listResult, m.listTotal, m.listErr
}
func (m *mockNotificationService) CountUnread(_ context.Context, _ string) (int64, error) {
	return m.unreadCount, m.countErr
}
func (m *mockNotificationService) MarkRead(_ context.Context, _, _ string) error {
	return m.markReadErr
}
func (m *mockNotificationService) MarkAllRead(_ context.Context, _ string) error {
	return m.markAllErr
}

// ── Mock ExportService ──

type mockExportService struct {
	buf      *bytes.Buffer
	filename string
	err      error
}

func (m *mockExportService) ExportRegistrations(_ context.Context, _ string) (*bytes.Buffer, string, error) {
	return m.buf, m.filename, m.err
}

// ═══════════════════════════════════════════════════════════
// Test Helpers
// ═══════════════════════════════════════════════════════════

func setupGin() (*gin.Engine, *gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, r := gin.CreateTestContext(w)
	return r, c, w
}

func setAuth(c *gin.Context) {
	c.Set("user_id", "test-user-id")
	c.Set("email", "test@example.com")
	c.Set("role", "admin")
	c.Set("jti", "test-jti")
	c.Set("token_exp", time.Now().Add(15*time.Minute))
}

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

// multipartBody 构造 multipart 表单请求体
func multipartBody(fields map[string]string, files map[string]string) (io.Reader, string) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	for field, filename := range files {
		fw, _ := mw.CreateFormFile(field, filename)
		fw.Write([]byte("file content of " + filename))
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func parseResponse(w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

// ═══════════════════════════════════════════════════════════
// AuthHandler Tests
// ═══════════════════════════════════════════════════════════

func TestAuthHandler_Register_Success(t *testing.T) {
	mock := &mockAuthService{}
	h := NewAuthHandler(mock)

	_, _, w := setupGin()
	req := httptest.NewRequest("POST", "/auth/register", jsonBody(dto.RegisterRequest{
		Name:     "张三",
		Email:    "zhangsan@example.com",
		Password: "Passw0rd123",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/auth/register", h.Register)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestAuthHandler_Register_EmailTaken(t *testing.T) {
	mock := &mockAuthService{registerErr: service.ErrEmailTaken}
	h := NewAuthHandler(mock)

	_, _, w := setupGin()
	req := httptest.NewRequest("POST", "/auth/register", jsonBody(dto.RegisterRequest{
		Name:     "张三",
		Email:    "zhangsan@example.com",
		Password: "Passw0rd123",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/auth/register", h.Register)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 11001 {
		t.Errorf("expected error code 11001, got %d", resp.Code)
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	mock := &mockAuthService{
		loginResult: &dto.TokenResponse{
			AccessToken:  "test-access-token",
			RefreshToken: "test-refresh-token",
			ExpiresIn:    3600,
		},
	}
	h := NewAuthHandler(mock)

	_, _, w := setupGin()
	req := httptest.NewRequest("POST", "/auth/login", jsonBody(dto.LoginRequest{
		Email:    "zhangsan@example.com",
		Password: "Passw0rd123",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/auth/login", h.Login)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 0 {
		t.Errorf("expected code 0, got %d", resp.Code)
	}
}

func TestAuthHandler_Login_BadJSON(t *testing.T) {
	mock := &mockAuthService{}
	h := NewAuthHandler(mock)

	_, _, w := setupGin()
	req := httptest.NewRequest("POST", "/auth/login", bytes.NewReader([]byte("invalid json")))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/auth/login", h.Login)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestAuthHandler_Login_UnverifiedEmail(t *testing.T) {
	mock := &mockAuthService{loginErr: service.ErrEmailNotVerified}
	h := NewAuthHandler(mock)

	_, _, w := setupGin()
	req := httptest.NewRequest("POST", "/auth/login", jsonBody(dto.LoginRequest{
		Email:    "zhangsan@example.com",
		Password: "Passw0rd123",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/auth/login", h.Login)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 11004 {
		t.Errorf("expected error code 11004, got %d", resp.Code)
	}
}

func TestAuthHandler_VerifyOTP_Invalid(t *testing.T) {
	mock := &mockAuthService{verifyErr: service.ErrOTPInvalid}
	h := NewAuthHandler(mock)

	_, _, w := setupGin()
	req := httptest.NewRequest("POST", "/auth/verify-otp", jsonBody(dto.VerifyOTPRequest{
		Email: "zhangsan@example.com",
		Code:  "000000",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/auth/verify-otp", h.VerifyOTP)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 11002 {
		t.Errorf("expected error code 11002, got %d", resp.Code)
	}
}

func TestAuthHandler_Logout_Success(t *testing.T) {
	mock := &mockAuthService{}
	h := NewAuthHandler(mock)

	_, _, w := setupGin()
	req := httptest.NewRequest("POST", "/auth/logout", nil)

	r := gin.New()
	r.POST("/auth/logout", func(c *gin.Context) {
		setAuth(c)
		h.Logout(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if len(mock.loggedOutJTIs) != 1 || mock.loggedOutJTIs[0] != "test-jti" {
		t.Errorf("expected jti test-jti to be blacklisted, got %v", mock.loggedOutJTIs)
	}
}

func TestAuthHandler_Logout_Unauthenticated(t *testing.T) {
	mock := &mockAuthService{}
	h := NewAuthHandler(mock)

	_, _, w := setupGin()
	req := httptest.NewRequest("POST", "/auth/logout", nil)

	r := gin.New()
	r.POST("/auth/logout", h.Logout)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestAuthHandler_ForgotPassword_AlwaysOK(t *testing.T) {
	mock := &mockAuthService{}
	h := NewAuthHandler(mock)

	_, _, w := setupGin()
	req := httptest.NewRequest("POST", "/auth/forgot-password", jsonBody(dto.ForgotPasswordRequest{
		Email: "unknown@example.com",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/auth/forgot-password", h.ForgotPassword)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestAuthHandler_ChangePassword_WrongOld(t *testing.T) {
	mock := &mockAuthService{changePassErr: service.ErrWrongPassword}
	h := NewAuthHandler(mock)

	_, _, w := setupGin()
	req := httptest.NewRequest("PUT", "/auth/password", jsonBody(dto.ChangePasswordRequest{
		OldPassword: "Wrong1234",
		NewPassword: "New12345678",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.PUT("/auth/password", func(c *gin.Context) {
		setAuth(c)
		h.ChangePassword(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 11007 {
		t.Errorf("expected error code 11007, got %d", resp.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// RegistrationHandler Tests
// ═══════════════════════════════════════════════════════════

func TestRegistrationHandler_Submit_Success(t *testing.T) {
	mock := &mockRegistrationService{
		submitResult: &dto.RegistrationResponse{ID: "reg-1", Status: "pending"},
	}
	h := NewRegistrationHandler(mock)

	body, contentType := multipartBody(map[string]string{
		"name":        "张三",
		"institution": "某某大学",
		"program":     "软件工程",
		"start_date":  "2026-09-01",
		"end_date":    "2026-12-31",
	}, map[string]string{
		"cover_letter": "cover.pdf",
		"cv":           "cv.pdf",
	})

	_, _, w := setupGin()
	req := httptest.NewRequest("POST", "/registrations", body)
	req.Header.Set("Content-Type", contentType)

	r := gin.New()
	r.POST("/registrations", func(c *gin.Context) {
		setAuth(c)
		h.Submit(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", w.Code)
	}
}

func TestRegistrationHandler_Submit_MissingRequired(t *testing.T) {
	mock := &mockRegistrationService{}
	h := NewRegistrationHandler(mock)

	body, contentType := multipartBody(map[string]string{
		"name": "张三", // 缺 institution / program / 日期
	}, nil)

	_, _, w := setupGin()
	req := httptest.NewRequest("POST", "/registrations", body)
	req.Header.Set("Content-Type", contentType)

	r := gin.New()
	r.POST("/registrations", func(c *gin.Context) {
		setAuth(c)
		h.Submit(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestRegistrationHandler_Submit_Duplicate(t *testing.T) {
	mock := &mockRegistrationService{submitErr: service.ErrRegistrationExists}
	h := NewRegistrationHandler(mock)

	body, contentType := multipartBody(map[string]string{
		"name":        "张三",
		"institution": "某某大学",
		"program":     "软件工程",
		"start_date":  "2026-09-01",
		"end_date":    "2026-12-31",
	}, nil)

	_, _, w := setupGin()
	req := httptest.NewRequest("POST", "/registrations", body)
	req.Header.Set("Content-Type", contentType)

	r := gin.New()
	r.POST("/registrations", func(c *gin.Context) {
		setAuth(c)
		h.Submit(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 12002 {
		t.Errorf("expected error code 12002, got %d", resp.Code)
	}
}

func TestRegistrationHandler_Decide_ApproveWithReplyLetter(t *testing.T) {
	mock := &mockRegistrationService{
		decideResult: &dto.RegistrationResponse{ID: "reg-1", Status: "approved"},
	}
	h := NewRegistrationHandler(mock)

	body, contentType := multipartBody(map[string]string{
		"decision": "approved",
	}, map[string]string{
		"reply_letter": "reply.pdf",
	})

	_, _, w := setupGin()
	req := httptest.NewRequest("PUT", "/registrations/reg-1/decision", body)
	req.Header.Set("Content-Type", contentType)

	r := gin.New()
	r.PUT("/registrations/:id/decision", func(c *gin.Context) {
		setAuth(c)
		h.Decide(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if mock.lastDecision != "approved" {
		t.Errorf("expected decision approved, got %s", mock.lastDecision)
	}
	if mock.lastReplyLetter == nil {
		t.Error("expected reply letter to be forwarded")
	} else if mock.lastReplyLetter.OriginalName != "reply.pdf" {
		t.Errorf("expected reply.pdf, got %s", mock.lastReplyLetter.OriginalName)
	}
}

func TestRegistrationHandler_Decide_MissingReplyLetter(t *testing.T) {
	mock := &mockRegistrationService{decideErr: service.ErrReplyLetterRequired}
	h := NewRegistrationHandler(mock)

	body, contentType := multipartBody(map[string]string{
		"decision": "approved",
	}, nil)

	_, _, w := setupGin()
	req := httptest.NewRequest("PUT", "/registrations/reg-1/decision", body)
	req.Header.Set("Content-Type", contentType)

	r := gin.New()
	r.PUT("/registrations/:id/decision", func(c *gin.Context) {
		setAuth(c)
		h.Decide(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 12005 {
		t.Errorf("expected error code 12005, got %d", resp.Code)
	}
	if mock.lastReplyLetter != nil {
		t.Error("expected nil reply letter")
	}
}

func TestRegistrationHandler_Decide_InvalidDecision(t *testing.T) {
	mock := &mockRegistrationService{}
	h := NewRegistrationHandler(mock)

	body, contentType := multipartBody(map[string]string{
		"decision": "maybe",
	}, nil)

	_, _, w := setupGin()
	req := httptest.NewRequest("PUT", "/registrations/reg-1/decision", body)
	req.Header.Set("Content-Type", contentType)

	r := gin.New()
	r.PUT("/registrations/:id/decision", func(c *gin.Context) {
		setAuth(c)
		h.Decide(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestRegistrationHandler_GetMine_NotFound(t *testing.T) {
	mock := &mockRegistrationService{mineErr: service.ErrRegistrationNotFound}
	h := NewRegistrationHandler(mock)

	_, _, w := setupGin()
	req := httptest.NewRequest("GET", "/registrations/me", nil)

	r := gin.New()
	r.GET("/registrations/me", func(c *gin.Context) {
		setAuth(c)
		h.GetMine(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 12001 {
		t.Errorf("expected error code 12001, got %d", resp.Code)
	}
}

func TestRegistrationHandler_AssignSupervisor_Success(t *testing.T) {
	mock := &mockRegistrationService{
		assignResult: &dto.RegistrationResponse{ID: "reg-1", Status: "approved"},
	}
	h := NewRegistrationHandler(mock)

	_, _, w := setupGin()
	req := httptest.NewRequest("PUT", "/registrations/reg-1/supervisor", jsonBody(dto.AssignSupervisorRequest{
		SupervisorID: "55555555-5555-5555-5555-555555555555",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.PUT("/registrations/:id/supervisor", func(c *gin.Context) {
		setAuth(c)
		h.AssignSupervisor(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestRegistrationHandler_UploadFinalReport_MissingFile(t *testing.T) {
	mock := &mockRegistrationService{}
	h := NewRegistrationHandler(mock)

	body, contentType := multipartBody(nil, nil)

	_, _, w := setupGin()
	req := httptest.NewRequest("POST", "/registrations/me/final-report", body)
	req.Header.Set("Content-Type", contentType)

	r := gin.New()
	r.POST("/registrations/me/final-report", func(c *gin.Context) {
		setAuth(c)
		h.UploadFinalReport(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestRegistrationHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   int
	}{
		{"NotFound", service.ErrRegistrationNotFound, 404, 12001},
		{"NotPending", service.ErrRegistrationNotPending, 409, 12004},
		{"NotApproved", service.ErrRegistrationNotApproved, 409, 12007},
		{"ReportMissing", service.ErrFinalReportMissing, 400, 12009},
		{"ReportNotVerified", service.ErrFinalReportNotVerified, 409, 12010},
		{"Forbidden", service.ErrRegistrationForbidden, 403, 12011},
		{"DocumentNotFound", service.ErrDocumentNotFound, 404, 12012},
		{"SupervisorNotFound", service.ErrSupervisorNotFound, 404, 13001},
		{"SupervisorInactive", service.ErrSupervisorInactive, 409, 13003},
		{"InternalError", errors.New("unknown"), 500, 50000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockRegistrationService{getErr: tt.err}
			h := NewRegistrationHandler(mock)

			_, _, w := setupGin()
			req := httptest.NewRequest("GET", "/registrations/reg-1", nil)

			r := gin.New()
			r.GET("/registrations/:id", func(c *gin.Context) {
				setAuth(c)
				h.Get(c)
			})
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			resp := parseResponse(w)
			if resp.Code != tt.wantCode {
				t.Errorf("expected code %d, got %d", tt.wantCode, resp.Code)
			}
		})
	}
}

func TestRegistrationHandler_Get_ForwardsCallerIdentity(t *testing.T) {
	mock := &mockRegistrationService{
		getResult: &dto.RegistrationResponse{ID: "reg-1", Status: "pending"},
	}
	h := NewRegistrationHandler(mock)

	_, _, w := setupGin()
	req := httptest.NewRequest("GET", "/registrations/reg-1", nil)

	r := gin.New()
	r.GET("/registrations/:id", func(c *gin.Context) {
		setAuth(c)
		h.Get(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	want := []string{"test-user-id", "admin", "test@example.com"}
	if len(mock.lastGetCaller) != 3 ||
		mock.lastGetCaller[0] != want[0] ||
		mock.lastGetCaller[1] != want[1] ||
		mock.lastGetCaller[2] != want[2] {
		t.Errorf("期望透传调用者身份 %v，实际: %v", want, mock.lastGetCaller)
	}
}

func TestRegistrationHandler_DownloadDocument_Success(t *testing.T) {
	mock := &mockRegistrationService{presignURL: "https://blob.example.com/signed"}
	h := NewRegistrationHandler(mock)

	_, _, w := setupGin()
	req := httptest.NewRequest("GET", "/registrations/documents?key=cvs/abc.pdf", nil)

	r := gin.New()
	r.GET("/registrations/documents", func(c *gin.Context) {
		setAuth(c)
		h.DownloadDocument(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if mock.lastPresignKey != "cvs/abc.pdf" {
		t.Errorf("期望透传 key cvs/abc.pdf，实际: %s", mock.lastPresignKey)
	}
}

func TestRegistrationHandler_DownloadDocument_Forbidden(t *testing.T) {
	mock := &mockRegistrationService{presignErr: service.ErrRegistrationForbidden}
	h := NewRegistrationHandler(mock)

	_, _, w := setupGin()
	req := httptest.NewRequest("GET", "/registrations/documents?key=cvs/other.pdf", nil)

	r := gin.New()
	r.GET("/registrations/documents", func(c *gin.Context) {
		setAuth(c)
		h.DownloadDocument(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 12011 {
		t.Errorf("expected error code 12011, got %d", resp.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// SupervisorHandler Tests
// ═══════════════════════════════════════════════════════════

func TestSupervisorHandler_Create_Success(t *testing.T) {
	mock := &mockSupervisorService{
		createResult: &dto.SupervisorResponse{ID: "sup-1", Name: "王老师", Status: "active"},
	}
	h := NewSupervisorHandler(mock)

	_, _, w := setupGin()
	req := httptest.NewRequest("POST", "/supervisors", jsonBody(dto.CreateSupervisorRequest{
		Name:     "王老师",
		Email:    "wang@example.com",
		Password: "Passw0rd123",
		Division: "技术部",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/supervisors", func(c *gin.Context) {
		setAuth(c)
		h.Create(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", w.Code)
	}
}

func TestSupervisorHandler_Create_Duplicate(t *testing.T) {
	mock := &mockSupervisorService{createErr: service.ErrSupervisorExists}
	h := NewSupervisorHandler(mock)

	_, _, w := setupGin()
	req := httptest.NewRequest("POST", "/supervisors", jsonBody(dto.CreateSupervisorRequest{
		Name:     "王老师",
		Email:    "wang@example.com",
		Password: "Passw0rd123",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/supervisors", func(c *gin.Context) {
		setAuth(c)
		h.Create(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 13002 {
		t.Errorf("expected error code 13002, got %d", resp.Code)
	}
}

func TestSupervisorHandler_SetStatus_Invalid(t *testing.T) {
	mock := &mockSupervisorService{}
	h := NewSupervisorHandler(mock)

	_, _, w := setupGin()
	req := httptest.NewRequest("PUT", "/supervisors/sup-1/status", jsonBody(map[string]string{
		"status": "retired",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.PUT("/supervisors/:id/status", func(c *gin.Context) {
		setAuth(c)
		h.SetStatus(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestSupervisorHandler_GetMyStudents_Success(t *testing.T) {
	mock := &mockSupervisorService{
		studentsResult: []dto.SupervisedStudentResponse{
			{RegistrationID: "reg-1", Name: "张三"},
		},
	}
	h := NewSupervisorHandler(mock)

	_, _, w := setupGin()
	req := httptest.NewRequest("GET", "/supervisors/me/students", nil)

	r := gin.New()
	r.GET("/supervisors/me/students", func(c *gin.Context) {
		setAuth(c)
		h.GetMyStudents(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestSupervisorHandler_Delete_NotFound(t *testing.T) {
	mock := &mockSupervisorService{deleteErr: service.ErrSupervisorNotFound}
	h := NewSupervisorHandler(mock)

	_, _, w := setupGin()
	req := httptest.NewRequest("DELETE", "/supervisors/sup-1", nil)

	r := gin.New()
	r.DELETE("/supervisors/:id", func(c *gin.Context) {
		setAuth(c)
		h.Delete(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// LogbookHandler Tests
// ═══════════════════════════════════════════════════════════

func TestLogbookHandler_Create_Success(t *testing.T) {
	mock := &mockLogbookService{
		createResult: &dto.LogbookResponse{ID: "lb-1", Status: "pending"},
	}
	h := NewLogbookHandler(mock)

	body, contentType := multipartBody(map[string]string{
		"title":         "第一周总结",
		"content":       "学习了项目结构",
		"activity_date": "2026-09-07",
	}, map[string]string{
		"report": "week1.pdf",
	})

	_, _, w := setupGin()
	req := httptest.NewRequest("POST", "/logbooks", body)
	req.Header.Set("Content-Type", contentType)

	r := gin.New()
	r.POST("/logbooks", func(c *gin.Context) {
		setAuth(c)
		h.Create(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", w.Code)
	}
}

func TestLogbookHandler_Create_RegistrationNotApproved(t *testing.T) {
	mock := &mockLogbookService{createErr: service.ErrRegistrationNotApproved}
	h := NewLogbookHandler(mock)

	body, contentType := multipartBody(map[string]string{
		"title":   "第一周总结",
		"content": "学习了项目结构",
	}, nil)

	_, _, w := setupGin()
	req := httptest.NewRequest("POST", "/logbooks", body)
	req.Header.Set("Content-Type", contentType)

	r := gin.New()
	r.POST("/logbooks", func(c *gin.Context) {
		setAuth(c)
		h.Create(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 12007 {
		t.Errorf("expected error code 12007, got %d", resp.Code)
	}
}

func TestLogbookHandler_Comment_NotAssigned(t *testing.T) {
	mock := &mockLogbookService{commentErr: service.ErrNotAssignedSupervisor}
	h := NewLogbookHandler(mock)

	_, _, w := setupGin()
	req := httptest.NewRequest("PUT", "/logbooks/lb-1/comment", jsonBody(dto.CommentLogbookRequest{
		Comment: "写得不错",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.PUT("/logbooks/:id/comment", func(c *gin.Context) {
		setAuth(c)
		h.Comment(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 14003 {
		t.Errorf("expected error code 14003, got %d", resp.Code)
	}
}

func TestLogbookHandler_ListForRegistration_PassesRole(t *testing.T) {
	mock := &mockLogbookService{
		listResult: []dto.LogbookResponse{{ID: "lb-1"}},
		listTotal:  1,
	}
	h := NewLogbookHandler(mock)

	_, _, w := setupGin()
	req := httptest.NewRequest("GET", "/registrations/reg-1/logbooks", nil)

	r := gin.New()
	r.GET("/registrations/:id/logbooks", func(c *gin.Context) {
		setAuth(c)
		h.ListForRegistration(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if mock.lastCallerRole != "admin" {
		t.Errorf("expected caller role admin, got %s", mock.lastCallerRole)
	}
}

func TestLogbookHandler_Delete_Forbidden(t *testing.T) {
	mock := &mockLogbookService{deleteErr: service.ErrLogbookForbidden}
	h := NewLogbookHandler(mock)

	_, _, w := setupGin()
	req := httptest.NewRequest("DELETE", "/logbooks/lb-1", nil)

	r := gin.New()
	r.DELETE("/logbooks/:id", func(c *gin.Context) {
		setAuth(c)
		h.Delete(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 14002 {
		t.Errorf("expected error code 14002, got %d", resp.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// NotificationHandler Tests
// ═══════════════════════════════════════════════════════════

func TestNotificationHandler_CountUnread_Success(t *testing.T) {
	mock := &mockNotificationService{unreadCount: 3}
	h := NewNotificationHandler(mock)

	_, _, w := setupGin()
	req := httptest.NewRequest("GET", "/notifications/unread-count", nil)

	r := gin.New()
	r.GET("/notifications/unread-count", func(c *gin.Context) {
		setAuth(c)
		h.CountUnread(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Data dto.UnreadCountResponse `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Data.Count != 3 {
		t.Errorf("expected count 3, got %d", resp.Data.Count)
	}
}

func TestNotificationHandler_MarkRead_Forbidden(t *testing.T) {
	mock := &mockNotificationService{markReadErr: service.ErrNotificationForbidden}
	h := NewNotificationHandler(mock)

	_, _, w := setupGin()
	req := httptest.NewRequest("PUT", "/notifications/n-1/read", nil)

	r := gin.New()
	r.PUT("/notifications/:id/read", func(c *gin.Context) {
		setAuth(c)
		h.MarkRead(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 15002 {
		t.Errorf("expected error code 15002, got %d", resp.Code)
	}
}

func TestNotificationHandler_MarkAllRead_Success(t *testing.T) {
	mock := &mockNotificationService{}
	h := NewNotificationHandler(mock)

	_, _, w := setupGin()
	req := httptest.NewRequest("PUT", "/notifications/read-all", nil)

	r := gin.New()
	r.PUT("/notifications/read-all", func(c *gin.Context) {
		setAuth(c)
		h.MarkAllRead(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// ExportHandler Tests
// ═══════════════════════════════════════════════════════════

func TestExportHandler_Success(t *testing.T) {
	buf := bytes.NewBufferString("excel content")
	mock := &mockExportService{
		buf:      buf,
		filename: "申请名册_20260829.xlsx",
	}
	h := NewExportHandler(mock)

	_, _, w := setupGin()
	req := httptest.NewRequest("GET", "/export/registrations?status=approved", nil)

	r := gin.New()
	r.GET("/export/registrations", h.ExportRegistrations)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	ct := w.Header().Get("Content-Type")
	if ct != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Errorf("unexpected content type: %s", ct)
	}
	cd := w.Header().Get("Content-Disposition")
	if cd == "" {
		t.Error("expected Content-Disposition header")
	}
}

func TestExportHandler_NoData(t *testing.T) {
	mock := &mockExportService{err: service.ErrExportNoData}
	h := NewExportHandler(mock)

	_, _, w := setupGin()
	req := httptest.NewRequest("GET", "/export/registrations", nil)

	r := gin.New()
	r.GET("/export/registrations", h.ExportRegistrations)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 16001 {
		t.Errorf("expected error code 16001, got %d", resp.Code)
	}
}
