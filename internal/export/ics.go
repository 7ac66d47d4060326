package export

import (
	"time"

	ics "github.com/arran4/golang-ical"

	"pharmacy-ops/backend/internal/model"
)

const calendarProductID = "-//pharmacy-ops//campaigns//ZH"

// BuildCampaignCalendar 将活动排期导出为 iCalendar（全天事件）
//
// 有排期的活动每条排期一个事件；无排期的活动以活动自身起止日期生成一个事件。
// DTEND 按 RFC 5545 取结束日期的次日。stamp 写入 DTSTAMP，调用方传入固定值即可得到稳定输出。
func BuildCampaignCalendar(name string, campaigns []model.Campaign, stamp time.Time) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(calendarProductID)
	if name != "" {
		cal.SetXWRCalName(name)
	}

	for i := range campaigns {
		c := &campaigns[i]
		if len(c.Schedules) == 0 {
			addAllDayEvent(cal, "campaign-"+c.ID, c.Title, c.Description, c.StartDate, c.EndDate, stamp)
			continue
		}
		for _, s := range c.Schedules {
			summary := c.Title
			if s.Title != "" {
				summary = c.Title + " · " + s.Title
			}
			addAllDayEvent(cal, "schedule-"+s.ID, summary, s.Note, s.StartDate, s.EndDate, stamp)
		}
	}
	return cal.Serialize()
}

func addAllDayEvent(cal *ics.Calendar, uid, summary, desc string, start, end time.Time, stamp time.Time) {
	ev := cal.AddEvent(uid + "@pharmacy-ops")
	ev.SetDtStampTime(stamp)
	ev.SetSummary(summary)
	if desc != "" {
		ev.SetDescription(desc)
	}
	ev.SetAllDayStartAt(start)
	ev.SetAllDayEndAt(end.AddDate(0, 0, 1))
}
