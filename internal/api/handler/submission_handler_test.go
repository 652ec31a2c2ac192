package handler

import (
	"net/http"
	"testing"

	"github.com/shopspring/decimal"

	"easypro/backend/internal/dto"
	"easypro/backend/internal/service"
)

const testOrderID = "6f1c2a1e-8d2b-4c39-9a57-0b7f3f3d1e01"

func TestSubmissionHandler_Create_Multipart(t *testing.T) {
	m := &mockSubmissionService{createResult: &dto.CreateSubmissionResponse{
		CurrentShiftPages: decimal.NewFromInt(25),
		MaxPagesPerShift:  20,
		ExceedsQuota:      true,
	}}
	st := newMemStorage()
	h := NewSubmissionHandler(m, st, testLimits)

	req := multipartRequest(t, "/submissions", map[string]string{
		"order_id":     testOrderID,
		"pages_worked": "5",
	}, "draft.docx", "PK")
	w := serve(http.MethodPost, "/submissions", setWriter, h.Create, req)

	expectCode(t, w, http.StatusCreated, 0)
	if m.writerID != "writer-1" {
		t.Errorf("提交应归属当前写手，实际: %s", m.writerID)
	}
	if len(m.createFiles) != 1 || m.createFiles[0].Name != "draft.docx" {
		t.Errorf("期望 1 个附件 draft.docx，实际: %+v", m.createFiles)
	}
}

func TestSubmissionHandler_Create_TooManyFiles(t *testing.T) {
	m := &mockSubmissionService{}
	h := NewSubmissionHandler(m, newMemStorage(), storageLimitsOne())

	req := multipartRequestFiles(t, "/submissions", map[string]string{
		"order_id":     testOrderID,
		"pages_worked": "5",
	}, "a.pdf", "b.pdf")
	w := serve(http.MethodPost, "/submissions", setWriter, h.Create, req)

	expectCode(t, w, http.StatusBadRequest, 10006)
	if m.writerID != "" {
		t.Error("附件超限时不应调用 Service")
	}
}

func TestSubmissionHandler_Create_AdminHasNoWriterProfile(t *testing.T) {
	h := NewSubmissionHandler(&mockSubmissionService{}, nil, testLimits)

	w := serve(http.MethodPost, "/submissions", setAdmin, h.Create,
		jsonRequest(http.MethodPost, "/submissions", map[string]interface{}{
			"order_id": testOrderID, "pages_worked": "5",
		}))

	expectCode(t, w, http.StatusForbidden, 10003)
}

func TestSubmissionHandler_Create_Suspended(t *testing.T) {
	st := newMemStorage()
	h := NewSubmissionHandler(&mockSubmissionService{createErr: service.ErrWriterSuspended}, st, testLimits)

	req := multipartRequest(t, "/submissions", map[string]string{
		"order_id":     testOrderID,
		"pages_worked": "5",
	}, "draft.pdf", "x")
	w := serve(http.MethodPost, "/submissions", setWriter, h.Create, req)

	expectCode(t, w, http.StatusForbidden, 15003)
	if len(st.files) != 0 {
		t.Error("提交被拒后应删除已上传附件")
	}
}

func TestSubmissionHandler_Create_NoActiveShift(t *testing.T) {
	h := NewSubmissionHandler(&mockSubmissionService{createErr: service.ErrNoActiveShift}, nil, testLimits)

	w := serve(http.MethodPost, "/submissions", setWriter, h.Create,
		jsonRequest(http.MethodPost, "/submissions", map[string]interface{}{
			"order_id": testOrderID, "pages_worked": "5",
		}))

	expectCode(t, w, http.StatusConflict, 13001)
}

func TestSubmissionHandler_Review_AlreadyReviewed(t *testing.T) {
	h := NewSubmissionHandler(&mockSubmissionService{reviewErr: service.ErrSubmissionAlreadyReviewed}, nil, testLimits)

	w := serve(http.MethodPost, "/submissions/:id/review", setAdmin, h.Review,
		jsonRequest(http.MethodPost, "/submissions/s1/review", dto.ReviewSubmissionRequest{Status: "approved"}))

	expectCode(t, w, http.StatusConflict, 15005)
}

func TestSubmissionHandler_Review_InvalidStatus(t *testing.T) {
	h := NewSubmissionHandler(&mockSubmissionService{}, nil, testLimits)

	w := serve(http.MethodPost, "/submissions/:id/review", setAdmin, h.Review,
		jsonRequest(http.MethodPost, "/submissions/s1/review", dto.ReviewSubmissionRequest{Status: "pending"}))

	expectCode(t, w, http.StatusBadRequest, 10001)
}
