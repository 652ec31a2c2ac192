package service

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"

	"easypro/backend/internal/model"
)

// ── 班次日历 (iCalendar) ──────────────────────────────────────
//
// 每个班次输出为一个 VEVENT，UID 取班次 ID，订阅端按 UID 去重更新。
// 活动班次在摘要中标注，便于写手在日历里区分当前窗口。
// ─────────────────────────────────────────────────────────────

const calendarProductID = "-//EasyPro//Shift Calendar//ZH"

// buildShiftCalendar 生成班次日历
func buildShiftCalendar(shifts []model.Shift, now time.Time) []byte {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(calendarProductID)
	cal.SetXWRCalName("EasyPro 班次")

	for _, sh := range shifts {
		evt := cal.AddEvent(shiftEventUID(sh.ShiftID))
		evt.SetDtStampTime(now)
		evt.SetStartAt(sh.StartTime)
		evt.SetEndAt(sh.EndTime)
		evt.SetSummary(shiftEventSummary(&sh))
		evt.SetDescription(fmt.Sprintf("本班次页数配额：%d", sh.MaxPagesPerShift))
	}

	return []byte(cal.Serialize())
}

func shiftEventUID(shiftID string) string {
	return shiftID + "@easypro"
}

func shiftEventSummary(sh *model.Shift) string {
	if sh.IsActive {
		return fmt.Sprintf("班次（进行中）· 配额 %d 页", sh.MaxPagesPerShift)
	}
	return fmt.Sprintf("班次 · 配额 %d 页", sh.MaxPagesPerShift)
}
