package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"easypro/backend/internal/dto"
	"easypro/backend/internal/service"
)

func TestWriterHandler_ChangeStatus_Success(t *testing.T) {
	m := &mockWriterService{changeResult: &dto.WriterResponse{ID: "w1", Status: "suspended"}}
	h := NewWriterHandler(m, &mockSubmissionService{})

	days := 10
	w := serve(http.MethodPost, "/writers/:id/status", setAdmin, h.ChangeStatus,
		jsonRequest(http.MethodPost, "/writers/w1/status", dto.ChangeWriterStatusRequest{
			Action: "suspension", Reason: "missed deadlines", DurationDays: &days,
		}))

	expectCode(t, w, http.StatusOK, 0)
	if m.changeReq == nil || *m.changeReq.DurationDays != 10 {
		t.Error("期望透传处罚天数")
	}
}

func TestWriterHandler_ChangeStatus_UnknownAction(t *testing.T) {
	h := NewWriterHandler(&mockWriterService{}, &mockSubmissionService{})

	w := serve(http.MethodPost, "/writers/:id/status", setAdmin, h.ChangeStatus,
		jsonRequest(http.MethodPost, "/writers/w1/status", dto.ChangeWriterStatusRequest{Action: "ban", Reason: "xx"}))

	expectCode(t, w, http.StatusBadRequest, 10001)
}

func TestWriterHandler_ChangeStatus_AlreadyActive(t *testing.T) {
	h := NewWriterHandler(&mockWriterService{changeErr: service.ErrWriterAlreadyActive}, &mockSubmissionService{})

	w := serve(http.MethodPost, "/writers/:id/status", setAdmin, h.ChangeStatus,
		jsonRequest(http.MethodPost, "/writers/w1/status", dto.ChangeWriterStatusRequest{Action: "activation", Reason: "ok now"}))

	expectCode(t, w, http.StatusConflict, 12003)
}

func TestWriterHandler_Get_NotFound(t *testing.T) {
	h := NewWriterHandler(&mockWriterService{getErr: service.ErrWriterNotFound}, &mockSubmissionService{})

	w := serve(http.MethodGet, "/writers/:id", setAdmin, h.Get, httptest.NewRequest(http.MethodGet, "/writers/w9", nil))

	expectCode(t, w, http.StatusNotFound, 12001)
}

func TestWriterHandler_GetMyProgress(t *testing.T) {
	sub := &mockSubmissionService{progress: &dto.ProgressResponse{WriterID: "writer-1", TargetPages: 20}}
	h := NewWriterHandler(&mockWriterService{}, sub)

	w := serve(http.MethodGet, "/writers/me/progress", setWriter, h.GetMyProgress,
		httptest.NewRequest(http.MethodGet, "/writers/me/progress", nil))

	expectCode(t, w, http.StatusOK, 0)
	if sub.writerID != "writer-1" {
		t.Errorf("期望查询本人进度，实际: %s", sub.writerID)
	}
}

func TestAnalyticsHandler_WriterDashboard_Scope(t *testing.T) {
	m := &mockAnalyticsService{}
	h := NewAnalyticsHandler(m)

	w := serve(http.MethodGet, "/analytics/writer", setWriter, h.WriterDashboard,
		httptest.NewRequest(http.MethodGet, "/analytics/writer?writer_id=someone-else", nil))

	expectCode(t, w, http.StatusOK, 0)
	if m.writerID != "writer-1" {
		t.Errorf("写手只能查看本人看板，实际: %s", m.writerID)
	}
}

func TestAnalyticsHandler_WriterDashboard_AdminRequiresWriterID(t *testing.T) {
	h := NewAnalyticsHandler(&mockAnalyticsService{})

	w := serve(http.MethodGet, "/analytics/writer", setAdmin, h.WriterDashboard,
		httptest.NewRequest(http.MethodGet, "/analytics/writer", nil))

	expectCode(t, w, http.StatusBadRequest, 10001)
}

func TestSystemConfigHandler_Get_NotInitialized(t *testing.T) {
	h := NewSystemConfigHandler(&mockSystemConfigService{getErr: service.ErrSystemConfigNotFound})

	w := serve(http.MethodGet, "/system-config", setAdmin, h.GetConfig, httptest.NewRequest(http.MethodGet, "/system-config", nil))

	expectCode(t, w, http.StatusNotFound, 18001)
}

func TestSystemConfigHandler_Update(t *testing.T) {
	h := NewSystemConfigHandler(&mockSystemConfigService{})

	w := serve(http.MethodPut, "/system-config", setAdmin, h.UpdateConfig,
		jsonRequest(http.MethodPut, "/system-config", map[string]int{"default_max_pages": 25}))

	expectCode(t, w, http.StatusOK, 0)
}
