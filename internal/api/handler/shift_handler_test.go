package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"easypro/backend/internal/dto"
	"easypro/backend/internal/service"
)

func TestShiftHandler_GetCurrent_NoShift(t *testing.T) {
	h := NewShiftHandler(&mockShiftService{currentErr: service.ErrNoActiveShift})

	w := serve(http.MethodGet, "/shifts/current", setWriter, h.GetCurrent,
		httptest.NewRequest(http.MethodGet, "/shifts/current", nil))

	expectCode(t, w, http.StatusConflict, 13001)
}

func TestShiftHandler_Create_WithoutBody(t *testing.T) {
	m := &mockShiftService{}
	h := NewShiftHandler(m)

	w := serve(http.MethodPost, "/shifts", setAdmin, h.Create, httptest.NewRequest(http.MethodPost, "/shifts", nil))

	expectCode(t, w, http.StatusCreated, 0)
	if m.createdWith != nil {
		t.Errorf("未指定配额时应传 nil，实际: %v", *m.createdWith)
	}
}

func TestShiftHandler_Create_WithQuota(t *testing.T) {
	m := &mockShiftService{}
	h := NewShiftHandler(m)

	w := serve(http.MethodPost, "/shifts", setAdmin, h.Create,
		jsonRequest(http.MethodPost, "/shifts", map[string]int{"max_pages_per_shift": 30}))

	expectCode(t, w, http.StatusCreated, 0)
	if m.createdWith == nil || *m.createdWith != 30 {
		t.Error("期望以配额 30 开启新班次")
	}
}

func TestShiftHandler_UpdateQuota_Invalid(t *testing.T) {
	h := NewShiftHandler(&mockShiftService{})

	w := serve(http.MethodPut, "/shifts/current/quota", setAdmin, h.UpdateQuota,
		jsonRequest(http.MethodPut, "/shifts/current/quota", dto.UpdateShiftQuotaRequest{MaxPagesPerShift: 0}))

	expectCode(t, w, http.StatusBadRequest, 10001)
}

func TestShiftHandler_Calendar(t *testing.T) {
	m := &mockShiftService{ics: []byte("BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n")}
	h := NewShiftHandler(m)

	w := serve(http.MethodGet, "/shifts/calendar.ics", setWriter, h.Calendar,
		httptest.NewRequest(http.MethodGet, "/shifts/calendar.ics?days=7", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际: %d", w.Code)
	}
	if !strings.HasPrefix(w.Header().Get("Content-Type"), "text/calendar") {
		t.Errorf("期望 text/calendar，实际: %s", w.Header().Get("Content-Type"))
	}
	if m.icsDays != 7 {
		t.Errorf("期望 days=7，实际: %d", m.icsDays)
	}
}

func TestShiftHandler_Calendar_DaysOutOfRange(t *testing.T) {
	h := NewShiftHandler(&mockShiftService{})

	w := serve(http.MethodGet, "/shifts/calendar.ics", setWriter, h.Calendar,
		httptest.NewRequest(http.MethodGet, "/shifts/calendar.ics?days=365", nil))

	expectCode(t, w, http.StatusBadRequest, 10001)
}
