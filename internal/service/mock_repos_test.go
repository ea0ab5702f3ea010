package service

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"tutorlink/backend/internal/model"
	"tutorlink/backend/internal/repository"
)

// newMockRepository 组装一个全 mock 的 Repository 聚合
// 无底层数据库连接，Transaction 退化为直接执行
func newMockRepository() (*repository.Repository, *mockUserRepo, *mockCourseRepo, *mockPurchaseRepo, *mockAvailableSlotRepo, *mockReservationRepo) {
	userRepo := newMockUserRepo()
	courseRepo := newMockCourseRepo()
	purchaseRepo := newMockPurchaseRepo()
	slotRepo := newMockAvailableSlotRepo()
	reservationRepo := newMockReservationRepo()

	repo := &repository.Repository{
		User:          userRepo,
		Course:        courseRepo,
		Purchase:      purchaseRepo,
		AvailableSlot: slotRepo,
		Reservation:   reservationRepo,
	}
	return repo, userRepo, courseRepo, purchaseRepo, slotRepo, reservationRepo
}

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetTeacherByID(_ context.Context, id string) (*model.User, error) {
	u, ok := m.users[id]
	if !ok || u.Role != model.RoleTeacher || !u.IsActive {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

// ── Mock CourseRepository ──

type mockCourseRepo struct {
	courses map[string]*model.Course
}

func newMockCourseRepo() *mockCourseRepo {
	return &mockCourseRepo{courses: make(map[string]*model.Course)}
}

func (m *mockCourseRepo) GetByID(_ context.Context, id string) (*model.Course, error) {
	if c, ok := m.courses[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCourseRepo) GetActiveByIDAndTeacher(_ context.Context, id, teacherID string) (*model.Course, error) {
	c, ok := m.courses[id]
	if !ok || c.TeacherID != teacherID || !c.IsActive {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

// ── Mock PurchaseRepository ──

type mockPurchaseRepo struct {
	purchases map[string]*model.Purchase
}

func newMockPurchaseRepo() *mockPurchaseRepo {
	return &mockPurchaseRepo{purchases: make(map[string]*model.Purchase)}
}

func (m *mockPurchaseRepo) GetByStudentAndCourse(_ context.Context, studentID, courseID string) (*model.Purchase, error) {
	for _, p := range m.purchases {
		if p.StudentID == studentID && p.CourseID == courseID {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPurchaseRepo) AdjustUsed(_ context.Context, purchaseID string, delta int) error {
	p, ok := m.purchases[purchaseID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.QuantityUsed += delta
	if p.QuantityUsed < 0 {
		p.QuantityUsed = 0
	}
	return nil
}

// ── Mock AvailableSlotRepository ──

type mockAvailableSlotRepo struct {
	slots  map[string]*model.AvailableSlot
	nextID int
}

func newMockAvailableSlotRepo() *mockAvailableSlotRepo {
	return &mockAvailableSlotRepo{slots: make(map[string]*model.AvailableSlot)}
}

func (m *mockAvailableSlotRepo) add(slot model.AvailableSlot) *model.AvailableSlot {
	m.nextID++
	if slot.AvailableSlotID == "" {
		slot.AvailableSlotID = fmt.Sprintf("slot-%03d", m.nextID)
	}
	m.slots[slot.AvailableSlotID] = &slot
	return &slot
}

func (m *mockAvailableSlotRepo) ListByTeacher(_ context.Context, teacherID string) ([]model.AvailableSlot, error) {
	var result []model.AvailableSlot
	for _, s := range m.slots {
		if s.TeacherID == teacherID && s.IsActive {
			result = append(result, *s)
		}
	}
	return result, nil
}

func (m *mockAvailableSlotRepo) ListByTeacherAndWeekday(_ context.Context, teacherID string, weekday int) ([]model.AvailableSlot, error) {
	var result []model.AvailableSlot
	for _, s := range m.slots {
		if s.TeacherID == teacherID && s.Weekday == weekday && s.IsActive {
			result = append(result, *s)
		}
	}
	return result, nil
}

func (m *mockAvailableSlotRepo) ReplaceByTeacher(_ context.Context, teacherID string, slots []model.AvailableSlot) (int, int, error) {
	deleted := 0
	for id, s := range m.slots {
		if s.TeacherID == teacherID {
			delete(m.slots, id)
			deleted++
		}
	}
	for i := range slots {
		m.add(slots[i])
	}
	return len(slots), deleted, nil
}

// ── Mock ReservationRepository ──

type mockReservationRepo struct {
	reservations map[string]*model.Reservation
	nextID       int
	createErr    error // 注入唯一索引冲突等错误
}

func newMockReservationRepo() *mockReservationRepo {
	return &mockReservationRepo{reservations: make(map[string]*model.Reservation)}
}

func (m *mockReservationRepo) Create(_ context.Context, reservation *model.Reservation) error {
	if m.createErr != nil {
		return m.createErr
	}
	// 模拟数据库部分唯一索引的兜底行为
	for _, r := range m.reservations {
		if r.TeacherID == reservation.TeacherID &&
			r.ReserveTime.Equal(reservation.ReserveTime) &&
			r.TeacherStatus != model.StatusCancelled {
			return gorm.ErrDuplicatedKey
		}
	}
	m.nextID++
	if reservation.ReservationID == "" {
		reservation.ReservationID = fmt.Sprintf("resv-%03d", m.nextID)
	}
	reservation.CreatedAt = time.Now().UTC()
	m.reservations[reservation.ReservationID] = reservation
	return nil
}

func (m *mockReservationRepo) GetByID(_ context.Context, id string) (*model.Reservation, error) {
	if r, ok := m.reservations[id]; ok {
		return r, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockReservationRepo) Update(_ context.Context, reservation *model.Reservation) error {
	if _, ok := m.reservations[reservation.ReservationID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.reservations[reservation.ReservationID] = reservation
	return nil
}

func (m *mockReservationRepo) ExistsConfirmedAt(_ context.Context, teacherID string, at time.Time) (bool, error) {
	for _, r := range m.reservations {
		if r.TeacherID == teacherID && r.ReserveTime.Equal(at) && r.TeacherStatus == model.StatusReserved {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockReservationRepo) ListActiveByTeacherAndRange(_ context.Context, teacherID string, from, to time.Time) ([]model.Reservation, error) {
	var result []model.Reservation
	for _, r := range m.reservations {
		if r.TeacherID != teacherID || r.TeacherStatus == model.StatusCancelled {
			continue
		}
		if r.ReserveTime.Before(from) || r.ReserveTime.After(to) {
			continue
		}
		result = append(result, *r)
	}
	return result, nil
}

func (m *mockReservationRepo) ListByActorAndRange(_ context.Context, actorID, role string, from, to time.Time) ([]model.Reservation, error) {
	var result []model.Reservation
	for _, r := range m.reservations {
		if role == model.RoleTeacher {
			if r.TeacherID != actorID {
				continue
			}
		} else if r.StudentID != actorID {
			continue
		}
		if r.ReserveTime.Before(from) || r.ReserveTime.After(to) {
			continue
		}
		result = append(result, *r)
	}
	return result, nil
}

func (m *mockReservationRepo) ListByActor(_ context.Context, actorID, role string, page, pageSize int) ([]model.Reservation, int64, error) {
	var all []model.Reservation
	for _, r := range m.reservations {
		if role == model.RoleTeacher {
			if r.TeacherID != actorID {
				continue
			}
		} else if r.StudentID != actorID {
			continue
		}
		all = append(all, *r)
	}
	total := int64(len(all))
	start := (page - 1) * pageSize
	if start >= len(all) {
		return nil, total, nil
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}
