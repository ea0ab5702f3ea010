package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"tutorlink/backend/internal/dto"
	"tutorlink/backend/internal/service"
	apperrors "tutorlink/backend/pkg/errors"
	"tutorlink/backend/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock AuthService ──

type mockAuthService struct {
	loginResult      *dto.TokenResponse
	loginErr         error
	refreshResult    *dto.TokenResponse
	refreshErr       error
	logoutErr        error
	getCurrentResult *dto.UserBrief
	getCurrentErr    error
}

func (m *mockAuthService) Login(_ context.Context, _ *dto.LoginRequest) (*dto.TokenResponse, error) {
	return m.loginResult, m.loginErr
}
func (m *mockAuthService) RefreshToken(_ context.Context, _ string) (*dto.TokenResponse, error) {
	return m.refreshResult, m.refreshErr
}
func (m *mockAuthService) Logout(_ context.Context, _ string, _ time.Time) error {
	return m.logoutErr
}
func (m *mockAuthService) GetCurrentUser(_ context.Context, _ string) (*dto.UserBrief, error) {
	return m.getCurrentResult, m.getCurrentErr
}

// ── Mock ScheduleService ──

type mockScheduleService struct {
	getResult     *dto.WeeklyScheduleResponse
	getErr        error
	replaceResult *dto.ReplaceWeeklyScheduleResponse
	replaceErr    error
	scanResult    *dto.ConflictScanResponse
	scanErr       error
}

func (m *mockScheduleService) GetWeeklySchedule(_ context.Context, _ string) (*dto.WeeklyScheduleResponse, error) {
	return m.getResult, m.getErr
}
func (m *mockScheduleService) ReplaceWeeklySchedule(_ context.Context, _ string, _ *dto.ReplaceWeeklyScheduleRequest) (*dto.ReplaceWeeklyScheduleResponse, error) {
	return m.replaceResult, m.replaceErr
}
func (m *mockScheduleService) IsTimeWithinAvailability(_ context.Context, _ string, _ int, _ string) (bool, error) {
	return false, nil
}
func (m *mockScheduleService) ScanConflicts(_ context.Context, _ string, _ *dto.ConflictScanRequest) (*dto.ConflictScanResponse, error) {
	return m.scanResult, m.scanErr
}

// ── Mock ReservationService ──

type mockReservationService struct {
	createResult   *dto.CreateReservationResponse
	createErr      error
	getResult      *dto.ReservationResponse
	getErr         error
	listResult     []dto.ReservationResponse
	listTotal      int64
	listErr        error
	confirmResult  *dto.ReservationResponse
	confirmErr     error
	rejectResult   *dto.ReservationResponse
	rejectErr      error
	completeResult *dto.CompleteReservationResponse
	completeErr    error
	cancelResult   *dto.ReservationResponse
	cancelErr      error
	overdueResult  *dto.ReservationResponse
	overdueErr     error
	reviewResult   *dto.ReservationResponse
	reviewErr      error
}

func (m *mockReservationService) Create(_ context.Context, _ string, _ *dto.CreateReservationRequest) (*dto.CreateReservationResponse, error) {
	return m.createResult, m.createErr
}
func (m *mockReservationService) GetByID(_ context.Context, _, _, _ string) (*dto.ReservationResponse, error) {
	return m.getResult, m.getErr
}
func (m *mockReservationService) List(_ context.Context, _, _ string, _ *dto.ReservationListRequest) ([]dto.ReservationResponse, int64, error) {
	return m.listResult, m.listTotal, m.listErr
}
func (m *mockReservationService) Confirm(_ context.Context, _, _ string) (*dto.ReservationResponse, error) {
	return m.confirmResult, m.confirmErr
}
func (m *mockReservationService) Reject(_ context.Context, _, _ string, _ string) (*dto.ReservationResponse, error) {
	return m.rejectResult, m.rejectErr
}
func (m *mockReservationService) Complete(_ context.Context, _, _ string) (*dto.CompleteReservationResponse, error) {
	return m.completeResult, m.completeErr
}
func (m *mockReservationService) Cancel(_ context.Context, _, _ string) (*dto.ReservationResponse, error) {
	return m.cancelResult, m.cancelErr
}
func (m *mockReservationService) MarkOverdue(_ context.Context, _ string) (*dto.ReservationResponse, error) {
	return m.overdueResult, m.overdueErr
}
func (m *mockReservationService) ReviewSubmitted(_ context.Context, _ string) (*dto.ReservationResponse, error) {
	return m.reviewResult, m.reviewErr
}

// ── Mock CalendarService ──

type mockCalendarService struct {
	result *dto.CalendarResponse
	err    error
}

func (m *mockCalendarService) GetCalendarView(_ context.Context, _, _ string, _ *dto.CalendarRequest) (*dto.CalendarResponse, error) {
	return m.result, m.err
}

// ── Mock ExportService ──

type mockExportService struct {
	xlsxBuf      *bytes.Buffer
	xlsxFilename string
	xlsxErr      error
	icsData      []byte
	icsFilename  string
	icsErr       error
}

func (m *mockExportService) ExportCalendarXLSX(_ context.Context, _, _ string, _ *dto.CalendarRequest) (*bytes.Buffer, string, error) {
	return m.xlsxBuf, m.xlsxFilename, m.xlsxErr
}
func (m *mockExportService) ExportReservationsICS(_ context.Context, _, _ string) ([]byte, string, error) {
	return m.icsData, m.icsFilename, m.icsErr
}

// ═══════════════════════════════════════════════════════════
// Test Helpers
// ═══════════════════════════════════════════════════════════

// authInjector 模拟 JWT 中间件注入的上下文
func authInjector(userID, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Set("role", role)
		c.Set("token_jti", "test-jti")
		c.Set("token_expires_at", time.Now().Add(15*time.Minute))
		c.Next()
	}
}

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func parseResponse(w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

// ═══════════════════════════════════════════════════════════
// AuthHandler Tests
// ═══════════════════════════════════════════════════════════

func TestAuthHandler_Login_Success(t *testing.T) {
	mock := &mockAuthService{
		loginResult: &dto.TokenResponse{
			AccessToken:  "test-access-token",
			RefreshToken: "test-refresh-token",
			ExpiresIn:    900,
		},
	}
	h := NewAuthHandler(mock)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/auth/login", jsonBody(dto.LoginRequest{
		Email:    "xiaoming@example.com",
		Password: "password123",
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
	h := NewAuthHandler(&mockAuthService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/auth/login", bytes.NewReader([]byte("invalid json")))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/auth/login", h.Login)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{loginErr: service.ErrInvalidCredentials})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/auth/login", jsonBody(dto.LoginRequest{
		Email:    "xiaoming@example.com",
		Password: "wrong-password",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/auth/login", h.Login)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 11001 {
		t.Errorf("expected error code 11001, got %d", resp.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// ReservationHandler Tests
// ═══════════════════════════════════════════════════════════

func TestReservationHandler_Create_Success(t *testing.T) {
	mock := &mockReservationService{
		createResult: &dto.CreateReservationResponse{
			Reservation: dto.ReservationResponse{ID: "resv-001", TeacherStatus: "PENDING"},
			Lessons:     dto.LessonSnapshot{Total: 10, Used: 3, Remaining: 7},
		},
	}
	h := NewReservationHandler(mock)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/reservations", jsonBody(dto.CreateReservationRequest{
		CourseID:  "3b8e9a7e-1f41-4ef0-9d5e-8c1a2b3c4d5e",
		TeacherID: "9d5e8c1a-2b3c-4d5e-8c1a-2b3c4d5e6f70",
		Date:      "2026-03-05",
		Time:      "09:00",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/reservations", authInjector("student-001", "student"), h.Create)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", w.Code)
	}
}

func TestReservationHandler_Create_TimeConflict(t *testing.T) {
	h := NewReservationHandler(&mockReservationService{createErr: service.ErrTimeConflict})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/reservations", jsonBody(dto.CreateReservationRequest{
		CourseID:  "3b8e9a7e-1f41-4ef0-9d5e-8c1a2b3c4d5e",
		TeacherID: "9d5e8c1a-2b3c-4d5e-8c1a-2b3c4d5e6f70",
		Date:      "2026-03-05",
		Time:      "09:00",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/reservations", authInjector("student-001", "student"), h.Create)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 13005 {
		t.Errorf("expected error code 13005, got %d", resp.Code)
	}
}

func TestReservationHandler_Create_ValidationDetails(t *testing.T) {
	verr := apperrors.NewValidationError()
	verr.Add("date", "日期格式应为 YYYY-MM-DD")
	h := NewReservationHandler(&mockReservationService{createErr: verr})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/reservations", jsonBody(dto.CreateReservationRequest{
		CourseID:  "3b8e9a7e-1f41-4ef0-9d5e-8c1a2b3c4d5e",
		TeacherID: "9d5e8c1a-2b3c-4d5e-8c1a-2b3c4d5e6f70",
		Date:      "2026-13-99",
		Time:      "09:00",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/reservations", authInjector("student-001", "student"), h.Create)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Details == nil {
		t.Error("expected field details in response")
	}
}

func TestReservationHandler_Confirm_NotParticipant(t *testing.T) {
	h := NewReservationHandler(&mockReservationService{confirmErr: service.ErrNotParticipant})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/reservations/resv-001/confirm", nil)

	r := gin.New()
	r.POST("/reservations/:id/confirm", authInjector("teacher-002", "teacher"), h.Confirm)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
}

func TestReservationHandler_Get_NotFound(t *testing.T) {
	h := NewReservationHandler(&mockReservationService{getErr: service.ErrReservationNotFound})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/reservations/resv-999", nil)

	r := gin.New()
	r.GET("/reservations/:id", authInjector("student-001", "student"), h.Get)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestReservationHandler_Cancel_Window(t *testing.T) {
	h := NewReservationHandler(&mockReservationService{cancelErr: service.ErrCancelWindow})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/reservations/resv-001/cancel", nil)

	r := gin.New()
	r.POST("/reservations/:id/cancel", authInjector("student-001", "student"), h.Cancel)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 13008 {
		t.Errorf("expected error code 13008, got %d", resp.Code)
	}
}

func TestReservationHandler_Unauthenticated(t *testing.T) {
	h := NewReservationHandler(&mockReservationService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/reservations/resv-001", nil)

	// 未经过 JWT 中间件
	r := gin.New()
	r.GET("/reservations/:id", h.Get)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// ScheduleHandler Tests
// ═══════════════════════════════════════════════════════════

func TestScheduleHandler_ReplaceMySchedule_Success(t *testing.T) {
	mock := &mockScheduleService{
		replaceResult: &dto.ReplaceWeeklyScheduleResponse{Created: 3, Deleted: 1},
	}
	h := NewScheduleHandler(mock)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("PUT", "/schedule/me", jsonBody(dto.ReplaceWeeklyScheduleRequest{
		Schedule: dto.WeeklyScheduleMap{"1": {"09:00", "10:00"}, "3": {"14:00"}},
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.PUT("/schedule/me", authInjector("teacher-001", "teacher"), h.ReplaceMySchedule)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestScheduleHandler_GetTeacherSchedule_NotFound(t *testing.T) {
	h := NewScheduleHandler(&mockScheduleService{getErr: service.ErrTeacherNotFound})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/teachers/teacher-999/schedule", nil)

	r := gin.New()
	r.GET("/teachers/:id/schedule", authInjector("student-001", "student"), h.GetTeacherSchedule)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 12001 {
		t.Errorf("expected error code 12001, got %d", resp.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// CalendarHandler Tests
// ═══════════════════════════════════════════════════════════

func TestCalendarHandler_GetCalendar_Success(t *testing.T) {
	mock := &mockCalendarService{
		result: &dto.CalendarResponse{View: "week", From: "2026-03-02", To: "2026-03-08"},
	}
	h := NewCalendarHandler(mock)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/calendar?view=week&date=2026-03-04", nil)

	r := gin.New()
	r.GET("/calendar", authInjector("student-001", "student"), h.GetCalendar)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestCalendarHandler_GetCalendar_BadView(t *testing.T) {
	h := NewCalendarHandler(&mockCalendarService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/calendar?view=year&date=2026-03-04", nil)

	r := gin.New()
	r.GET("/calendar", authInjector("student-001", "student"), h.GetCalendar)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// ExportHandler Tests
// ═══════════════════════════════════════════════════════════

func TestExportHandler_XLSX_Success(t *testing.T) {
	mock := &mockExportService{
		xlsxBuf:      bytes.NewBufferString("fake-xlsx-bytes"),
		xlsxFilename: "calendar_2026-03-02_2026-03-08.xlsx",
	}
	h := NewExportHandler(mock)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/export/calendar.xlsx?view=week&date=2026-03-04", nil)

	r := gin.New()
	r.GET("/export/calendar.xlsx", authInjector("student-001", "student"), h.ExportCalendarXLSX)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	cd := w.Header().Get("Content-Disposition")
	if cd != `attachment; filename="calendar_2026-03-02_2026-03-08.xlsx"` {
		t.Errorf("unexpected Content-Disposition: %s", cd)
	}
}

func TestExportHandler_ICS_NoData(t *testing.T) {
	h := NewExportHandler(&mockExportService{icsErr: service.ErrExportNoData})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/export/reservations.ics", nil)

	r := gin.New()
	r.GET("/export/reservations.ics", authInjector("student-001", "student"), h.ExportReservationsICS)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}
