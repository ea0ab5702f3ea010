package service

import (
	"fmt"
	"sort"
	"strconv"

	"tutorlink/backend/internal/dto"
	"tutorlink/backend/internal/model"
	apperrors "tutorlink/backend/pkg/errors"
)

// ── 每周课表编解码 ──────────────────────────────────────────
//
// UI 侧与存储侧使用两套表示：
//   - UI 映射：ISO 星期键 "1"(周一).."7"(周日) → 标准时段标签列表（整点 HH:MM）
//   - 存储行：weekday 0=周日..6=周六 + [start_time, end_time) 时间区间
//
// 星期编号换算（7 → 0）只允许出现在本文件内，
// 引擎其余部分一律使用 0=周日..6=周六 的内部表示。
// ─────────────────────────────────────────────────────────────

// 标准时段集合：整点标签 "00:00".."23:00"，每个标签代表一节一小时的课
var standardSlotSet = buildStandardSlotSet()

func buildStandardSlotSet() map[string]bool {
	set := make(map[string]bool, 24)
	for h := 0; h < 24; h++ {
		set[fmt.Sprintf("%02d:00", h)] = true
	}
	return set
}

// IsStandardSlot 判断标签是否属于标准时段集合
func IsStandardSlot(label string) bool {
	return standardSlotSet[label]
}

// DecodeWeeklySchedule 将 UI 映射展开为存储行
// 每个标准时段标签展开为一条一小时的时段行；校验失败返回字段级 ValidationError
func DecodeWeeklySchedule(teacherID string, schedule dto.WeeklyScheduleMap) ([]model.AvailableSlot, error) {
	verr := apperrors.NewValidationError()

	slots := make([]model.AvailableSlot, 0, 16)
	for key, labels := range schedule {
		isoDay, err := strconv.Atoi(key)
		if err != nil || isoDay < 1 || isoDay > 7 {
			verr.Add(key, "无效的星期键，应为 \"1\"-\"7\"")
			continue
		}
		weekday := isoDay % 7 // ISO 周日=7 → 内部 0

		seen := make(map[string]bool, len(labels))
		for i, label := range labels {
			field := fmt.Sprintf("%s[%d]", key, i)
			if !IsStandardSlot(label) {
				verr.Add(field, "时段 %q 不在标准时段集合内", label)
				continue
			}
			if seen[label] {
				verr.Add(field, "时段 %q 在同一天内重复", label)
				continue
			}
			seen[label] = true

			slots = append(slots, model.AvailableSlot{
				TeacherID: teacherID,
				Weekday:   weekday,
				StartTime: label,
				EndTime:   addOneHour(label),
				IsActive:  true,
			})
		}
	}

	if verr.HasErrors() {
		return nil, verr
	}

	sort.Slice(slots, func(i, j int) bool {
		if slots[i].Weekday != slots[j].Weekday {
			return slots[i].Weekday < slots[j].Weekday
		}
		return slots[i].StartTime < slots[j].StartTime
	})
	return slots, nil
}

// EncodeWeeklySchedule 将存储行重组为 UI 映射
// 每天的标签列表按时间升序排列；不产生空键
func EncodeWeeklySchedule(slots []model.AvailableSlot) dto.WeeklyScheduleMap {
	schedule := make(dto.WeeklyScheduleMap)
	for _, slot := range slots {
		isoDay := slot.Weekday
		if isoDay == 0 {
			isoDay = 7 // 内部周日 0 → ISO 7
		}
		key := strconv.Itoa(isoDay)
		schedule[key] = append(schedule[key], slot.StartTime)
	}

	for key := range schedule {
		sort.Strings(schedule[key])
	}
	return schedule
}

// ValidateSlotRows 校验存储行（weekday 范围、HH:MM 格式、start < end）
// 供不经过 UI 映射直接写入时段行的调用方使用
func ValidateSlotRows(slots []model.AvailableSlot) error {
	verr := apperrors.NewValidationError()
	for i, slot := range slots {
		prefix := fmt.Sprintf("slots[%d]", i)
		if slot.Weekday < 0 || slot.Weekday > 6 {
			verr.Add(prefix+".weekday", "weekday 必须在 0-6 之间，实际 %d", slot.Weekday)
		}
		if !isValidHHMM(slot.StartTime) {
			verr.Add(prefix+".start_time", "时间格式应为 HH:MM，实际 %q", slot.StartTime)
		}
		if !isValidHHMM(slot.EndTime) && slot.EndTime != "24:00" {
			verr.Add(prefix+".end_time", "时间格式应为 HH:MM，实际 %q", slot.EndTime)
		}
		if slot.StartTime >= slot.EndTime {
			verr.Add(prefix, "start_time 必须早于 end_time")
		}
	}
	if verr.HasErrors() {
		return verr
	}
	return nil
}

// addOneHour 计算整点标签的下一个整点；"23:00" 的终点记为 "24:00"（PostgreSQL time 合法值）
func addOneHour(label string) string {
	h, _ := strconv.Atoi(label[:2])
	return fmt.Sprintf("%02d:00", h+1)
}

// isValidHHMM 零填充 HH:MM 格式校验
func isValidHHMM(s string) bool {
	if len(s) != 5 || s[2] != ':' {
		return false
	}
	h, err := strconv.Atoi(s[:2])
	if err != nil || h < 0 || h > 23 {
		return false
	}
	m, err := strconv.Atoi(s[3:])
	if err != nil || m < 0 || m > 59 {
		return false
	}
	return true
}
