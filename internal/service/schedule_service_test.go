package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"tutorlink/backend/internal/dto"
	"tutorlink/backend/internal/model"
)

// ── 测试辅助 ──

type scheduleTestEnv struct {
	svc          ScheduleService
	users        *mockUserRepo
	slots        *mockAvailableSlotRepo
	reservations *mockReservationRepo
}

func newScheduleTestEnv() *scheduleTestEnv {
	repo, users, _, _, slots, reservations := newMockRepository()

	users.users["teacher-001"] = &model.User{
		UserID: "teacher-001", Name: "王老师", Role: model.RoleTeacher, IsActive: true,
	}

	// rdb=nil: 降级为直查数据库
	svc := NewScheduleService(testReservationConfig(), repo, nil, zap.NewNop())
	return &scheduleTestEnv{svc: svc, users: users, slots: slots, reservations: reservations}
}

// ── GetWeeklySchedule 测试 ──

func TestScheduleService_GetWeeklySchedule_Empty(t *testing.T) {
	env := newScheduleTestEnv()

	result, err := env.svc.GetWeeklySchedule(context.Background(), "teacher-001")
	if err != nil {
		t.Fatalf("GetWeeklySchedule 应成功: %v", err)
	}
	if len(result.Schedule) != 0 {
		t.Errorf("无时段时应返回空映射，实际=%v", result.Schedule)
	}
	if len(result.Slots) != 0 {
		t.Errorf("无时段时应返回空列表，实际=%v", result.Slots)
	}
}

func TestScheduleService_GetWeeklySchedule_TeacherNotFound(t *testing.T) {
	env := newScheduleTestEnv()

	_, err := env.svc.GetWeeklySchedule(context.Background(), "teacher-999")
	if !errors.Is(err, ErrTeacherNotFound) {
		t.Errorf("期望 ErrTeacherNotFound，实际: %v", err)
	}
}

func TestScheduleService_GetWeeklySchedule_StudentRejected(t *testing.T) {
	env := newScheduleTestEnv()
	env.users.users["student-001"] = &model.User{
		UserID: "student-001", Name: "小明", Role: model.RoleStudent, IsActive: true,
	}

	// 学生 ID 不解析为教师
	_, err := env.svc.GetWeeklySchedule(context.Background(), "student-001")
	if !errors.Is(err, ErrTeacherNotFound) {
		t.Errorf("期望 ErrTeacherNotFound，实际: %v", err)
	}
}

// ── ReplaceWeeklySchedule 测试 ──

func TestScheduleService_ReplaceWeeklySchedule_Success(t *testing.T) {
	env := newScheduleTestEnv()
	env.slots.add(model.AvailableSlot{TeacherID: "teacher-001", Weekday: 1, StartTime: "08:00", EndTime: "09:00", IsActive: true})

	req := &dto.ReplaceWeeklyScheduleRequest{
		Schedule: dto.WeeklyScheduleMap{
			"1": {"09:00", "10:00"},
			"3": {"14:00"},
		},
	}

	result, err := env.svc.ReplaceWeeklySchedule(context.Background(), "teacher-001", req)
	if err != nil {
		t.Fatalf("ReplaceWeeklySchedule 应成功: %v", err)
	}
	if result.Created != 3 || result.Deleted != 1 {
		t.Errorf("期望 created=3 deleted=1，实际=%+v", result)
	}

	// 替换后读取应还原新课表
	view, err := env.svc.GetWeeklySchedule(context.Background(), "teacher-001")
	if err != nil {
		t.Fatalf("GetWeeklySchedule 应成功: %v", err)
	}
	if len(view.Schedule["1"]) != 2 || len(view.Schedule["3"]) != 1 {
		t.Errorf("替换结果不符，实际=%v", view.Schedule)
	}
}

func TestScheduleService_ReplaceWeeklySchedule_ClearAll(t *testing.T) {
	env := newScheduleTestEnv()
	env.slots.add(model.AvailableSlot{TeacherID: "teacher-001", Weekday: 1, StartTime: "08:00", EndTime: "09:00", IsActive: true})

	result, err := env.svc.ReplaceWeeklySchedule(context.Background(), "teacher-001",
		&dto.ReplaceWeeklyScheduleRequest{Schedule: dto.WeeklyScheduleMap{}})
	if err != nil {
		t.Fatalf("清空课表应成功: %v", err)
	}
	if result.Created != 0 || result.Deleted != 1 {
		t.Errorf("期望 created=0 deleted=1，实际=%+v", result)
	}
}

func TestScheduleService_ReplaceWeeklySchedule_InvalidRejectsAll(t *testing.T) {
	env := newScheduleTestEnv()
	env.slots.add(model.AvailableSlot{TeacherID: "teacher-001", Weekday: 1, StartTime: "08:00", EndTime: "09:00", IsActive: true})

	// 一条非法记录应导致整体拒绝，原课表保持不变
	req := &dto.ReplaceWeeklyScheduleRequest{
		Schedule: dto.WeeklyScheduleMap{
			"1": {"09:00"},
			"9": {"10:00"},
		},
	}

	_, err := env.svc.ReplaceWeeklySchedule(context.Background(), "teacher-001", req)
	if err == nil {
		t.Fatal("非法星期键应导致整体拒绝")
	}

	view, _ := env.svc.GetWeeklySchedule(context.Background(), "teacher-001")
	if len(view.Slots) != 1 || view.Slots[0].StartTime != "08:00" {
		t.Errorf("整体拒绝后原课表应保持不变，实际=%v", view.Slots)
	}
}

// ── IsTimeWithinAvailability 测试 ──

func TestScheduleService_IsTimeWithinAvailability(t *testing.T) {
	env := newScheduleTestEnv()
	env.slots.add(model.AvailableSlot{TeacherID: "teacher-001", Weekday: 2, StartTime: "09:00", EndTime: "11:00", IsActive: true})

	cases := []struct {
		weekday int
		hhmm    string
		want    bool
	}{
		{2, "09:00", true},
		{2, "10:30", true},
		{2, "11:00", false}, // 半开区间终点
		{2, "08:59", false},
		{3, "09:00", false}, // 星期不匹配
	}

	for _, tc := range cases {
		got, err := env.svc.IsTimeWithinAvailability(context.Background(), "teacher-001", tc.weekday, tc.hhmm)
		if err != nil {
			t.Fatalf("IsTimeWithinAvailability 应成功: %v", err)
		}
		if got != tc.want {
			t.Errorf("weekday=%d hhmm=%s: 期望%v，实际%v", tc.weekday, tc.hhmm, tc.want, got)
		}
	}
}

// ── ScanConflicts 测试 ──

func TestScheduleService_ScanConflicts(t *testing.T) {
	env := newScheduleTestEnv()
	slot := env.slots.add(model.AvailableSlot{TeacherID: "teacher-001", Weekday: 4, StartTime: "09:00", EndTime: "10:00", IsActive: true})
	env.slots.add(model.AvailableSlot{TeacherID: "teacher-001", Weekday: 4, StartTime: "14:00", EndTime: "15:00", IsActive: true})

	// 2026-03-05 是周四：09:00 落入第一个时段窗口
	env.reservations.reservations["resv-hit"] = &model.Reservation{
		ReservationID: "resv-hit", CourseID: "course-001",
		TeacherID: "teacher-001", StudentID: "student-001",
		ReserveTime:   time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC),
		TeacherStatus: model.StatusReserved, StudentStatus: model.StatusReserved,
	}
	// 已取消的预约不参与扫描
	env.reservations.reservations["resv-cancelled"] = &model.Reservation{
		ReservationID: "resv-cancelled", CourseID: "course-001",
		TeacherID: "teacher-001", StudentID: "student-001",
		ReserveTime:   time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC),
		TeacherStatus: model.StatusCancelled, StudentStatus: model.StatusCancelled,
	}
	// 范围外的预约不参与扫描
	env.reservations.reservations["resv-outside"] = &model.Reservation{
		ReservationID: "resv-outside", CourseID: "course-001",
		TeacherID: "teacher-001", StudentID: "student-001",
		ReserveTime:   time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC),
		TeacherStatus: model.StatusReserved, StudentStatus: model.StatusReserved,
	}

	result, err := env.svc.ScanConflicts(context.Background(), "teacher-001", &dto.ConflictScanRequest{
		From: "2026-03-01", To: "2026-03-07",
	})
	if err != nil {
		t.Fatalf("ScanConflicts 应成功: %v", err)
	}
	if len(result.Conflicts) != 1 {
		t.Fatalf("期望1条冲突，实际=%d", len(result.Conflicts))
	}
	if result.Conflicts[0].ReservationID != "resv-hit" || result.Conflicts[0].SlotID != slot.AvailableSlotID {
		t.Errorf("冲突记录不符: %+v", result.Conflicts[0])
	}
}

func TestScheduleService_ScanConflicts_SlotSubset(t *testing.T) {
	env := newScheduleTestEnv()
	env.slots.add(model.AvailableSlot{TeacherID: "teacher-001", Weekday: 4, StartTime: "09:00", EndTime: "10:00", IsActive: true})
	other := env.slots.add(model.AvailableSlot{TeacherID: "teacher-001", Weekday: 4, StartTime: "14:00", EndTime: "15:00", IsActive: true})

	env.reservations.reservations["resv-hit"] = &model.Reservation{
		ReservationID: "resv-hit", CourseID: "course-001",
		TeacherID: "teacher-001", StudentID: "student-001",
		ReserveTime:   time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC),
		TeacherStatus: model.StatusReserved, StudentStatus: model.StatusReserved,
	}

	// 只扫描下午时段：上午的预约不构成冲突
	result, err := env.svc.ScanConflicts(context.Background(), "teacher-001", &dto.ConflictScanRequest{
		From: "2026-03-01", To: "2026-03-07", SlotIDs: []string{other.AvailableSlotID},
	})
	if err != nil {
		t.Fatalf("ScanConflicts 应成功: %v", err)
	}
	if len(result.Conflicts) != 0 {
		t.Errorf("子集外的冲突不应出现，实际=%v", result.Conflicts)
	}
}

func TestScheduleService_ScanConflicts_BadRange(t *testing.T) {
	env := newScheduleTestEnv()

	if _, err := env.svc.ScanConflicts(context.Background(), "teacher-001", &dto.ConflictScanRequest{
		From: "03/01/2026", To: "2026-03-07",
	}); !errors.Is(err, ErrBadDateFormat) {
		t.Errorf("期望 ErrBadDateFormat，实际: %v", err)
	}

	if _, err := env.svc.ScanConflicts(context.Background(), "teacher-001", &dto.ConflictScanRequest{
		From: "2026-03-07", To: "2026-03-01",
	}); err == nil {
		t.Error("结束早于开始应被拒绝")
	}
}
