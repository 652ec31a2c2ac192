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
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	apivalidator "easypro/backend/internal/api/validator"
	"easypro/backend/internal/dto"
	"easypro/backend/internal/model"
	"easypro/backend/pkg/response"
	"easypro/backend/pkg/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := apivalidator.Register(); err != nil {
		panic(err)
	}
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock AuthService ──

type mockAuthService struct {
	loginResult   *dto.TokenResponse
	loginErr      error
	refreshResult *dto.TokenResponse
	refreshErr    error
	refreshToken  string
	logoutErr     error
	logoutJTI     string
	meResult      *dto.UserResponse
	meErr         error
}

func (m *mockAuthService) Login(_ context.Context, _ *dto.LoginRequest) (*dto.TokenResponse, error) {
	return m.loginResult, m.loginErr
}
func (m *mockAuthService) Register(_ context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error) {
	return &dto.UserResponse{Name: req.Name, Email: req.Email}, nil
}
func (m *mockAuthService) Invite(_ context.Context, _ *dto.InviteWriterRequest, _ string) (*dto.InviteResponse, error) {
	return &dto.InviteResponse{InviteToken: "tok"}, nil
}
func (m *mockAuthService) ListPending(_ context.Context, _ *dto.PaginationRequest) ([]dto.UserResponse, int64, error) {
	return nil, 0, nil
}
func (m *mockAuthService) Approve(_ context.Context, id string) (*dto.UserResponse, error) {
	return &dto.UserResponse{ID: id, IsApproved: true}, nil
}
func (m *mockAuthService) Reject(_ context.Context, _ string) error { return nil }
func (m *mockAuthService) RequestPasswordReset(_ context.Context, _ *dto.RequestPasswordResetRequest) (*dto.PasswordResetCodeResponse, error) {
	return &dto.PasswordResetCodeResponse{Code: "123456"}, nil
}
func (m *mockAuthService) ResetPassword(_ context.Context, _ *dto.ResetPasswordRequest) error {
	return nil
}
func (m *mockAuthService) Logout(_ context.Context, _, jti string, _ time.Duration) error {
	m.logoutJTI = jti
	return m.logoutErr
}
func (m *mockAuthService) RefreshToken(_ context.Context, token string) (*dto.TokenResponse, error) {
	m.refreshToken = token
	return m.refreshResult, m.refreshErr
}
func (m *mockAuthService) GetMe(_ context.Context, _ string) (*dto.UserResponse, error) {
	return m.meResult, m.meErr
}
func (m *mockAuthService) CurrentTokenVersion(_ context.Context, _ string) (int, error) {
	return 0, nil
}

// ── Mock WriterService ──

type mockWriterService struct {
	getResult    *dto.WriterResponse
	getErr       error
	changeResult *dto.WriterResponse
	changeErr    error
	changeReq    *dto.ChangeWriterStatusRequest
}

func (m *mockWriterService) List(_ context.Context, _ *dto.WriterListRequest) ([]dto.WriterResponse, int64, error) {
	return nil, 0, nil
}
func (m *mockWriterService) Get(_ context.Context, _ string) (*dto.WriterResponse, error) {
	return m.getResult, m.getErr
}
func (m *mockWriterService) GetByUserID(_ context.Context, _ string) (*dto.WriterResponse, error) {
	return m.getResult, m.getErr
}
func (m *mockWriterService) ChangeStatus(_ context.Context, _ string, req *dto.ChangeWriterStatusRequest, _ string) (*dto.WriterResponse, error) {
	m.changeReq = req
	return m.changeResult, m.changeErr
}
func (m *mockWriterService) ListStatusLogs(_ context.Context, _ string, _ *dto.PaginationRequest) ([]dto.WriterStatusLogResponse, int64, error) {
	return nil, 0, nil
}
func (m *mockWriterService) ExpirePenalties(_ context.Context, _ time.Time) (int, error) {
	return 0, nil
}

// ── Mock ShiftService ──

type mockShiftService struct {
	current     *dto.ShiftResponse
	currentErr  error
	createdWith *int
	ics         []byte
	icsDays     int
}

func (m *mockShiftService) GetCurrentShift(_ context.Context) (*dto.ShiftResponse, error) {
	return m.current, m.currentErr
}
func (m *mockShiftService) Current(_ context.Context) (*model.Shift, error) { return nil, nil }
func (m *mockShiftService) CreateNewShift(_ context.Context, maxPages *int) (*dto.ShiftResponse, error) {
	m.createdWith = maxPages
	return &dto.ShiftResponse{ID: "s-new", IsActive: true}, nil
}
func (m *mockShiftService) Rollover(_ context.Context) error { return nil }
func (m *mockShiftService) UpdateMaxPages(_ context.Context, maxPages int) (*dto.ShiftResponse, error) {
	return &dto.ShiftResponse{MaxPagesPerShift: maxPages}, nil
}
func (m *mockShiftService) List(_ context.Context, _ *dto.PaginationRequest) ([]dto.ShiftResponse, int64, error) {
	return nil, 0, nil
}
func (m *mockShiftService) CalendarICS(_ context.Context, days int) ([]byte, error) {
	m.icsDays = days
	return m.ics, nil
}

// ── Mock OrderService ──

type mockOrderService struct {
	result      *dto.OrderResponse
	err         error
	createReq   *dto.CreateOrderRequest
	createFiles []storage.StoredFile
	extWriterID string
	listScope   string
	getScope    string
	deletePaths []string
}

func (m *mockOrderService) Create(_ context.Context, req *dto.CreateOrderRequest, files []storage.StoredFile, _ string) (*dto.OrderResponse, error) {
	m.createReq = req
	m.createFiles = files
	return m.result, m.err
}
func (m *mockOrderService) CreateExternal(_ context.Context, _ *dto.CreateExternalOrderRequest, _ []storage.StoredFile, writerID, _ string) (*dto.OrderResponse, error) {
	m.extWriterID = writerID
	return m.result, m.err
}
func (m *mockOrderService) Get(_ context.Context, _, scope string) (*dto.OrderResponse, error) {
	m.getScope = scope
	return m.result, m.err
}
func (m *mockOrderService) List(_ context.Context, _ *dto.OrderListRequest, scope string) ([]dto.OrderResponse, int64, error) {
	m.listScope = scope
	return []dto.OrderResponse{}, 0, m.err
}
func (m *mockOrderService) Update(_ context.Context, _ string, _ *dto.UpdateOrderRequest, _ string) (*dto.OrderResponse, error) {
	return m.result, m.err
}
func (m *mockOrderService) AssignToWriter(_ context.Context, _, _, _ string) (*dto.OrderResponse, error) {
	return m.result, m.err
}
func (m *mockOrderService) MarkInProgress(_ context.Context, _, scope, _ string) (*dto.OrderResponse, error) {
	m.getScope = scope
	return m.result, m.err
}
func (m *mockOrderService) MarkSubmitted(_ context.Context, _, scope, _ string) (*dto.OrderResponse, error) {
	m.getScope = scope
	return m.result, m.err
}
func (m *mockOrderService) CancelOrder(_ context.Context, _ string, _ *dto.CancelOrderRequest, _ string) (*dto.OrderResponse, error) {
	return m.result, m.err
}
func (m *mockOrderService) Delete(_ context.Context, _ string) ([]string, error) {
	return m.deletePaths, m.err
}

// ── Mock SubmissionService ──

type mockSubmissionService struct {
	createResult *dto.CreateSubmissionResponse
	createErr    error
	createFiles  []storage.StoredFile
	writerID     string
	reviewErr    error
	progress     *dto.ProgressResponse
}

func (m *mockSubmissionService) Create(_ context.Context, _ *dto.CreateSubmissionRequest, files []storage.StoredFile, writerID string) (*dto.CreateSubmissionResponse, error) {
	m.createFiles = files
	m.writerID = writerID
	return m.createResult, m.createErr
}
func (m *mockSubmissionService) Review(_ context.Context, id string, req *dto.ReviewSubmissionRequest, _ string) (*dto.SubmissionResponse, error) {
	if m.reviewErr != nil {
		return nil, m.reviewErr
	}
	return &dto.SubmissionResponse{ID: id, Status: req.Status}, nil
}
func (m *mockSubmissionService) Get(_ context.Context, id, _ string) (*dto.SubmissionResponse, error) {
	return &dto.SubmissionResponse{ID: id}, nil
}
func (m *mockSubmissionService) List(_ context.Context, _ *dto.SubmissionListRequest, _ string) ([]dto.SubmissionResponse, int64, error) {
	return nil, 0, nil
}
func (m *mockSubmissionService) CalculateWriterProgress(_ context.Context, writerID string) (*dto.ProgressResponse, error) {
	m.writerID = writerID
	return m.progress, nil
}

// ── Mock PaymentService ──

type mockPaymentService struct {
	result    *dto.PaymentResponse
	err       error
	listScope string
}

func (m *mockPaymentService) Create(_ context.Context, _ *dto.CreatePaymentRequest, _ string) (*dto.PaymentResponse, error) {
	return m.result, m.err
}
func (m *mockPaymentService) MarkAsPaid(_ context.Context, _ string, _ *dto.MarkPaymentPaidRequest, _ string) (*dto.PaymentResponse, error) {
	return m.result, m.err
}
func (m *mockPaymentService) MarkAsFailed(_ context.Context, _ string, _ *dto.MarkPaymentFailedRequest, _ string) (*dto.PaymentResponse, error) {
	return m.result, m.err
}
func (m *mockPaymentService) Get(_ context.Context, _, _ string) (*dto.PaymentResponse, error) {
	return m.result, m.err
}
func (m *mockPaymentService) List(_ context.Context, _ *dto.PaymentListRequest, scope string) ([]dto.PaymentResponse, int64, error) {
	m.listScope = scope
	return []dto.PaymentResponse{}, 0, m.err
}
func (m *mockPaymentService) ListLogs(_ context.Context, _, _ string) ([]dto.PaymentLogResponse, error) {
	return nil, m.err
}

// ── Mock AnalyticsService ──

type mockAnalyticsService struct {
	writerID string
}

func (m *mockAnalyticsService) AdminDashboard(_ context.Context) (*dto.AdminDashboardResponse, error) {
	return &dto.AdminDashboardResponse{}, nil
}
func (m *mockAnalyticsService) WriterDashboard(_ context.Context, writerID string) (*dto.WriterDashboardResponse, error) {
	m.writerID = writerID
	return &dto.WriterDashboardResponse{}, nil
}

// ── Mock ExportService ──

type mockExportService struct {
	buf      *bytes.Buffer
	filename string
	err      error
	from, to time.Time
}

func (m *mockExportService) ExportPayments(_ context.Context, from, to time.Time) (*bytes.Buffer, string, error) {
	m.from, m.to = from, to
	return m.buf, m.filename, m.err
}
func (m *mockExportService) ExportWriterEarnings(_ context.Context) (*bytes.Buffer, string, error) {
	return m.buf, m.filename, m.err
}

// ── Mock SystemConfigService ──

type mockSystemConfigService struct {
	getErr error
}

func (m *mockSystemConfigService) Get(_ context.Context) (*dto.SystemConfigResponse, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return &dto.SystemConfigResponse{DefaultMaxPages: 20}, nil
}
func (m *mockSystemConfigService) Update(_ context.Context, req *dto.UpdateSystemConfigRequest, _ string) (*dto.SystemConfigResponse, error) {
	return &dto.SystemConfigResponse{DefaultMaxPages: *req.DefaultMaxPages}, nil
}

// ── 内存附件存储 ──

type memStorage struct {
	mu      sync.Mutex
	files   map[string][]byte
	deleted []string
}

func newMemStorage() *memStorage {
	return &memStorage{files: make(map[string][]byte)}
}

func (s *memStorage) Save(_ context.Context, key string, r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[key] = b
	return key, nil
}

func (s *memStorage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.files[key]
	if !ok {
		return nil, errors.New("not found")
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (s *memStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, key)
	s.deleted = append(s.deleted, key)
	return nil
}

// ═══════════════════════════════════════════════════════════
// Test Helpers
// ═══════════════════════════════════════════════════════════

var testLimits = storage.Limits{MaxSize: 1 << 20, MaxFiles: 3}

func storageLimitsOne() storage.Limits {
	return storage.Limits{MaxSize: 1 << 20, MaxFiles: 1}
}

func setAdmin(c *gin.Context) {
	c.Set("user_id", "admin-user-id")
	c.Set("role", "admin")
	c.Set("writer_id", "")
	c.Set("token_jti", "test-jti")
	c.Set("token_exp", time.Now().Add(15*time.Minute))
}

func setWriter(c *gin.Context) {
	c.Set("user_id", "writer-user-id")
	c.Set("role", "writer")
	c.Set("writer_id", "writer-1")
	c.Set("token_jti", "writer-jti")
	c.Set("token_exp", time.Now().Add(15*time.Minute))
}

// serve 以指定身份注册单个路由并执行请求
func serve(method, route string, auth func(*gin.Context), h gin.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	r := gin.New()
	r.Handle(method, route, func(c *gin.Context) {
		if auth != nil {
			auth(c)
		}
		h(c)
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func jsonRequest(method, target string, v interface{}) *http.Request {
	b, _ := json.Marshal(v)
	req := httptest.NewRequest(method, target, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func multipartRequest(t *testing.T, target string, fields map[string]string, filename, content string) *http.Request {
	t.Helper()
	if filename == "" {
		return multipartRequestFiles(t, target, fields)
	}
	return buildMultipart(t, target, fields, map[string]string{filename: content})
}

// multipartRequestFiles 构造带多个附件的表单，附件内容即文件名
func multipartRequestFiles(t *testing.T, target string, fields map[string]string, filenames ...string) *http.Request {
	t.Helper()
	files := make(map[string]string, len(filenames))
	for _, f := range filenames {
		files[f] = f
	}
	return buildMultipart(t, target, fields, files)
}

func buildMultipart(t *testing.T, target string, fields, files map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("写入表单字段失败: %v", err)
		}
	}
	for name, content := range files {
		fw, err := mw.CreateFormFile(uploadField, name)
		if err != nil {
			t.Fatalf("创建文件字段失败: %v", err)
		}
		fw.Write([]byte(content))
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func parseResponse(w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

func expectCode(t *testing.T, w *httptest.ResponseRecorder, status, code int) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("期望 HTTP %d，实际: %d (%s)", status, w.Code, w.Body.String())
	}
	if resp := parseResponse(w); resp.Code != code {
		t.Errorf("期望业务码 %d，实际: %d (%s)", code, resp.Code, resp.Message)
	}
}
