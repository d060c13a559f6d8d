package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sahilchouksey/eduadmit/model"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testEnv holds the database connection and services under test plus the
// fixture rows every scenario needs.
type testEnv struct {
	db          *gorm.DB
	admissions  *AdmissionService
	enrollments *EnrollmentService
	institutes  *InstituteService
	payments    *PaymentService

	user      model.User
	student   model.Student
	institute model.Institute
	category  model.CourseCategory
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	if os.Getenv("RUN_INTEGRATION_TESTS") != "true" {
		t.Skip("Skipping integration test. Set RUN_INTEGRATION_TESTS=true to run.")
	}

	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		envOr("DB_HOST", "localhost"),
		envOr("DB_USER_NAME", "postgres"),
		envOr("DB_PASSWORD", "postgres"),
		envOr("DB_NAME", "eduadmit_test"),
		envOr("DB_PORT", "5432"),
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	err = db.AutoMigrate(
		&model.User{}, &model.Student{}, &model.Profile{},
		&model.Institute{}, &model.CourseCategory{}, &model.Course{},
		&model.Admission{}, &model.AdmissionDocument{}, &model.Enrollment{},
		&model.UserNotification{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	env := &testEnv{
		db:          db,
		enrollments: NewEnrollmentService(db),
		institutes:  NewInstituteService(db, nil),
		payments:    NewPaymentService(db, nil, "esewa-mock"),
	}
	env.admissions = NewAdmissionService(db, NewSeatLedger(), env.enrollments, nil)

	// Unique per run so tests do not collide with leftovers
	tag := uuid.New().String()[:8]

	env.user = model.User{
		Email:        fmt.Sprintf("applicant-%s@test.local", tag),
		PasswordHash: "x",
		Name:         "Test Applicant",
		Role:         "student",
	}
	if err := db.Create(&env.user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	env.student = model.Student{UserID: env.user.ID}
	if err := db.Create(&env.student).Error; err != nil {
		t.Fatalf("failed to create student: %v", err)
	}

	env.institute = model.Institute{
		OwnerID: env.student.ID,
		Name:    fmt.Sprintf("Test Institute %s", tag),
		Email:   fmt.Sprintf("institute-%s@test.local", tag),
		Status:  model.InstituteStatusApproved,
	}
	if err := db.Create(&env.institute).Error; err != nil {
		t.Fatalf("failed to create institute: %v", err)
	}

	env.category = model.CourseCategory{
		InstituteID: env.institute.ID,
		Title:       "General",
	}
	if err := db.Create(&env.category).Error; err != nil {
		t.Fatalf("failed to create category: %v", err)
	}

	return env
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func (e *testEnv) createCourse(t *testing.T, seats uint, price string, discount uint) *model.Course {
	t.Helper()
	original, err := decimal.NewFromString(price)
	if err != nil {
		t.Fatalf("bad price %q: %v", price, err)
	}
	course := model.Course{
		InstituteID:     e.institute.ID,
		CategoryID:      e.category.ID,
		Title:           fmt.Sprintf("Course %s", uuid.New().String()[:8]),
		Seats:           seats,
		OriginalPrice:   original,
		DiscountPercent: discount,
	}
	if err := e.db.Create(&course).Error; err != nil {
		t.Fatalf("failed to create course: %v", err)
	}
	return &course
}

func (e *testEnv) submit(t *testing.T, courseID uint) *model.Admission {
	t.Helper()
	admission, err := e.admissions.Submit(context.Background(), e.user.ID, SubmitAdmissionRequest{
		StudentName: "Test Applicant",
		Email:       e.user.Email,
		CourseID:    courseID,
	})
	if err != nil {
		t.Fatalf("failed to submit admission: %v", err)
	}
	return admission
}

func (e *testEnv) courseSeats(t *testing.T, courseID uint) uint {
	t.Helper()
	var course model.Course
	if err := e.db.First(&course, courseID).Error; err != nil {
		t.Fatalf("failed to reload course: %v", err)
	}
	return course.Seats
}

func TestAcceptConsumesOneSeatAndEnrolls(t *testing.T) {
	env := setupTestEnv(t)
	course := env.createCourse(t, 5, "1000", 10)
	admission := env.submit(t, course.ID)

	result, err := env.admissions.Transition(context.Background(), admission.ID, ActionAccept)
	if err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	if result.Admission.Status != model.AdmissionStatusAccepted {
		t.Errorf("status = %s, want accepted", result.Admission.Status)
	}
	if result.SeatsExhausted {
		t.Error("SeatsExhausted reported with seats available")
	}
	if result.Enrollment == nil {
		t.Fatal("no enrollment created")
	}
	if result.AlreadyEnrolled {
		t.Error("AlreadyEnrolled reported on first accept")
	}
	if seats := env.courseSeats(t, course.ID); seats != 4 {
		t.Errorf("seats = %d, want 4", seats)
	}
}

func TestReAcceptIsIdempotent(t *testing.T) {
	env := setupTestEnv(t)
	course := env.createCourse(t, 5, "1000", 0)
	admission := env.submit(t, course.ID)

	if _, err := env.admissions.Transition(context.Background(), admission.ID, ActionAccept); err != nil {
		t.Fatalf("first accept failed: %v", err)
	}

	result, err := env.admissions.Transition(context.Background(), admission.ID, ActionAccept)
	if err != nil {
		t.Fatalf("re-accept failed: %v", err)
	}
	if !result.AlreadyAccepted {
		t.Error("re-accept did not report AlreadyAccepted")
	}

	// The second accept must not consume another seat
	if seats := env.courseSeats(t, course.ID); seats != 4 {
		t.Errorf("seats = %d after re-accept, want 4", seats)
	}

	var count int64
	env.db.Model(&model.Enrollment{}).
		Where("student_id = ? AND course_id = ?", env.student.ID, course.ID).
		Count(&count)
	if count != 1 {
		t.Errorf("enrollment count = %d, want 1", count)
	}
}

func TestAcceptWithExhaustedSeatsStillSucceeds(t *testing.T) {
	env := setupTestEnv(t)
	course := env.createCourse(t, 0, "500", 0)
	admission := env.submit(t, course.ID)

	result, err := env.admissions.Transition(context.Background(), admission.ID, ActionAccept)
	if err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	if !result.SeatsExhausted {
		t.Error("SeatsExhausted not reported with zero seats")
	}
	if result.Admission.Status != model.AdmissionStatusAccepted {
		t.Errorf("status = %s, want accepted", result.Admission.Status)
	}
	if result.Enrollment == nil {
		t.Error("no enrollment created")
	}
	if seats := env.courseSeats(t, course.ID); seats != 0 {
		t.Errorf("seats = %d, want 0 (never negative)", seats)
	}
}

func TestConcurrentAcceptsDecrementOnce(t *testing.T) {
	env := setupTestEnv(t)
	course := env.createCourse(t, 5, "750", 0)

	// Three distinct applicants, one admission each
	admissionIDs := make([]uint, 3)
	for i := range admissionIDs {
		tag := uuid.New().String()[:8]
		user := model.User{
			Email:        fmt.Sprintf("concurrent-%s@test.local", tag),
			PasswordHash: "x",
			Name:         "Concurrent Applicant",
		}
		if err := env.db.Create(&user).Error; err != nil {
			t.Fatalf("failed to create user: %v", err)
		}
		student := model.Student{UserID: user.ID}
		if err := env.db.Create(&student).Error; err != nil {
			t.Fatalf("failed to create student: %v", err)
		}
		admission, err := env.admissions.Submit(context.Background(), user.ID, SubmitAdmissionRequest{
			StudentName: user.Name,
			Email:       user.Email,
			CourseID:    course.ID,
		})
		if err != nil {
			t.Fatalf("failed to submit admission: %v", err)
		}
		admissionIDs[i] = admission.ID
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(admissionIDs))
	for _, id := range admissionIDs {
		wg.Add(1)
		go func(admissionID uint) {
			defer wg.Done()
			if _, err := env.admissions.Transition(context.Background(), admissionID, ActionAccept); err != nil {
				errs <- err
			}
		}(id)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent accept failed: %v", err)
	}

	if seats := env.courseSeats(t, course.ID); seats != 2 {
		t.Errorf("seats = %d after 3 accepts from 5, want 2", seats)
	}

	var enrollments []model.Enrollment
	if err := env.db.Where("course_id = ?", course.ID).Find(&enrollments).Error; err != nil {
		t.Fatalf("failed to load enrollments: %v", err)
	}
	if len(enrollments) != 3 {
		t.Fatalf("enrollment count = %d, want 3", len(enrollments))
	}
	seen := make(map[uint]bool, len(enrollments))
	for _, e := range enrollments {
		if seen[e.StudentID] {
			t.Errorf("student %d enrolled twice", e.StudentID)
		}
		seen[e.StudentID] = true
	}
}

func TestEnsureEnrollmentIsIdempotentUnderConcurrency(t *testing.T) {
	env := setupTestEnv(t)
	course := env.createCourse(t, 10, "100", 0)

	const workers = 4
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := env.db.Transaction(func(tx *gorm.DB) error {
				_, _, err := env.enrollments.Ensure(tx, env.student.ID, course.ID, env.institute.ID)
				return err
			})
			if err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent Ensure failed: %v", err)
	}

	var count int64
	env.db.Model(&model.Enrollment{}).
		Where("student_id = ? AND course_id = ?", env.student.ID, course.ID).
		Count(&count)
	if count != 1 {
		t.Errorf("enrollment count = %d, want 1", count)
	}
}

func TestAmountSnapshotSurvivesPriceChange(t *testing.T) {
	env := setupTestEnv(t)
	course := env.createCourse(t, 5, "1000", 10)
	admission := env.submit(t, course.ID)

	want := decimal.NewFromInt(900)
	if !admission.Amount.Equal(want) {
		t.Fatalf("amount = %s at submission, want %s", admission.Amount, want)
	}

	// Raise the price after submission
	if err := env.db.First(course, course.ID).Error; err != nil {
		t.Fatalf("failed to reload course: %v", err)
	}
	course.OriginalPrice = decimal.NewFromInt(2000)
	if err := env.db.Save(course).Error; err != nil {
		t.Fatalf("failed to update course price: %v", err)
	}

	// The save path recomputes the course's discount price
	var updated model.Course
	if err := env.db.First(&updated, course.ID).Error; err != nil {
		t.Fatalf("failed to reload course: %v", err)
	}
	if !updated.DiscountPrice.Equal(decimal.NewFromInt(1800)) {
		t.Errorf("discount price = %s after update, want 1800", updated.DiscountPrice)
	}

	// The admission's snapshot is untouched
	var reloaded model.Admission
	if err := env.db.First(&reloaded, admission.ID).Error; err != nil {
		t.Fatalf("failed to reload admission: %v", err)
	}
	if !reloaded.Amount.Equal(want) {
		t.Errorf("amount = %s after price change, want %s", reloaded.Amount, want)
	}
}

func TestRejectedTransitionsAreTerminal(t *testing.T) {
	env := setupTestEnv(t)
	course := env.createCourse(t, 5, "100", 0)
	admission := env.submit(t, course.ID)

	if _, err := env.admissions.Transition(context.Background(), admission.ID, ActionReject); err != nil {
		t.Fatalf("reject failed: %v", err)
	}

	for _, action := range []TransitionAction{ActionShortlist, ActionAccept} {
		if _, err := env.admissions.Transition(context.Background(), admission.ID, action); err == nil {
			t.Errorf("%s after reject succeeded, want ErrInvalidTransition", action)
		}
	}
}

func TestRemoveCourseKeepsAdmissionAndSeats(t *testing.T) {
	env := setupTestEnv(t)
	course := env.createCourse(t, 5, "100", 0)
	admission := env.submit(t, course.ID)

	if _, err := env.admissions.Transition(context.Background(), admission.ID, ActionAccept); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	updated, err := env.admissions.RemoveCourse(context.Background(), admission.ID)
	if err != nil {
		t.Fatalf("remove course failed: %v", err)
	}
	if updated.CourseID != nil {
		t.Error("course still attached after removal")
	}

	// Seats are not restored on removal
	if seats := env.courseSeats(t, course.ID); seats != 4 {
		t.Errorf("seats = %d after removal, want 4", seats)
	}
}

func TestReapplyAfterRejectionResetsApplication(t *testing.T) {
	env := setupTestEnv(t)

	// A fresh owner with no institute yet
	tag := uuid.New().String()[:8]
	user := model.User{
		Email:        fmt.Sprintf("owner-%s@test.local", tag),
		PasswordHash: "x",
		Name:         "Institute Owner",
	}
	if err := env.db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	student := model.Student{UserID: user.ID}
	if err := env.db.Create(&student).Error; err != nil {
		t.Fatalf("failed to create student: %v", err)
	}

	ctx := context.Background()
	first, err := env.institutes.Apply(ctx, student.ID, ApplyInstituteRequest{
		Name:  "First Attempt",
		Email: fmt.Sprintf("apply-%s@test.local", tag),
	})
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	// A second apply while pending is refused
	if _, err := env.institutes.Apply(ctx, student.ID, ApplyInstituteRequest{Name: "Dup", Email: "dup@test.local"}); err != ErrApplicationPending {
		t.Errorf("apply while pending: got %v, want ErrApplicationPending", err)
	}

	if _, err := env.institutes.Reject(ctx, first.ID, "missing registration document"); err != nil {
		t.Fatalf("reject failed: %v", err)
	}

	second, err := env.institutes.Apply(ctx, student.ID, ApplyInstituteRequest{
		Name:  "Second Attempt",
		Email: fmt.Sprintf("apply2-%s@test.local", tag),
	})
	if err != nil {
		t.Fatalf("reapply failed: %v", err)
	}

	// Same row, reset to pending with the admin message cleared
	if second.ID != first.ID {
		t.Errorf("reapply created a new row: id %d != %d", second.ID, first.ID)
	}
	if second.Status != model.InstituteStatusPending {
		t.Errorf("status = %s after reapply, want pending", second.Status)
	}
	if second.AdminMessage != "" {
		t.Errorf("admin message = %q after reapply, want empty", second.AdminMessage)
	}
	if second.Name != "Second Attempt" {
		t.Errorf("name = %q after reapply, want updated details", second.Name)
	}
}

func TestConcurrentApplicationsYieldOneInstitute(t *testing.T) {
	env := setupTestEnv(t)

	tag := uuid.New().String()[:8]
	user := model.User{
		Email:        fmt.Sprintf("racing-owner-%s@test.local", tag),
		PasswordHash: "x",
		Name:         "Racing Owner",
	}
	if err := env.db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	student := model.Student{UserID: user.ID}
	if err := env.db.Create(&student).Error; err != nil {
		t.Fatalf("failed to create student: %v", err)
	}

	// All goroutines race past the empty lookup; the unique index on
	// owner_id lets exactly one Create through.
	const workers = 4
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := env.institutes.Apply(context.Background(), student.ID, ApplyInstituteRequest{
				Name:  fmt.Sprintf("Racing Institute %d", n),
				Email: fmt.Sprintf("racing-%s-%d@test.local", tag, n),
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	var created, refused int
	for err := range errs {
		switch {
		case err == nil:
			created++
		case errors.Is(err, ErrApplicationPending):
			refused++
		default:
			t.Fatalf("concurrent apply failed: %v", err)
		}
	}
	if created != 1 {
		t.Errorf("created = %d, want exactly 1", created)
	}
	if refused != workers-1 {
		t.Errorf("refused = %d, want %d", refused, workers-1)
	}

	var count int64
	env.db.Model(&model.Institute{}).Where("owner_id = ?", student.ID).Count(&count)
	if count != 1 {
		t.Errorf("institute count for owner = %d, want 1", count)
	}

	// The surviving row is unambiguous for the owner lookups
	owned, err := env.institutes.OwnedInstitute(context.Background(), student.ID)
	if err != nil {
		t.Fatalf("owned institute lookup failed: %v", err)
	}
	if owned.Status != model.InstituteStatusPending {
		t.Errorf("status = %s, want pending", owned.Status)
	}
}

func TestRepeatedApprovalNotifiesOnce(t *testing.T) {
	env := setupTestEnv(t)

	tag := uuid.New().String()[:8]
	user := model.User{
		Email:        fmt.Sprintf("decided-owner-%s@test.local", tag),
		PasswordHash: "x",
		Name:         "Decided Owner",
	}
	if err := env.db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	student := model.Student{UserID: user.ID}
	if err := env.db.Create(&student).Error; err != nil {
		t.Fatalf("failed to create student: %v", err)
	}

	notifying := NewInstituteService(env.db, NewNotificationService(env.db))
	ctx := context.Background()

	applied, err := notifying.Apply(ctx, student.ID, ApplyInstituteRequest{
		Name:  "Decided Institute",
		Email: fmt.Sprintf("decided-%s@test.local", tag),
	})
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	notificationCount := func() int64 {
		var count int64
		env.db.Model(&model.UserNotification{}).Where("user_id = ?", user.ID).Count(&count)
		return count
	}

	if _, err := notifying.Approve(ctx, applied.ID); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	// Notifications dispatch on their own goroutine; wait for the first
	deadline := time.Now().Add(2 * time.Second)
	for notificationCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("no notification arrived after approval")
		}
		time.Sleep(20 * time.Millisecond)
	}

	// Re-approving an approved institute is a no-op and must stay silent
	if _, err := notifying.Approve(ctx, applied.ID); err != nil {
		t.Fatalf("re-approve failed: %v", err)
	}
	time.Sleep(300 * time.Millisecond)

	if count := notificationCount(); count != 1 {
		t.Errorf("notification count = %d after re-approve, want 1", count)
	}
}

func TestDoublePayIsRefused(t *testing.T) {
	env := setupTestEnv(t)
	course := env.createCourse(t, 5, "1000", 0)
	admission := env.submit(t, course.ID)

	ctx := context.Background()
	receipt, err := env.payments.Pay(ctx, admission.ID, env.user.ID)
	if err != nil {
		t.Fatalf("pay failed: %v", err)
	}
	if receipt.PaymentRef == "" {
		t.Error("payment reference is empty")
	}

	if _, err := env.payments.Pay(ctx, admission.ID, env.user.ID); err != ErrAlreadyPaid {
		t.Errorf("second pay: got %v, want ErrAlreadyPaid", err)
	}

	// The stored reference is unchanged
	reloaded, err := env.payments.Status(ctx, admission.ID, env.user.ID)
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if reloaded.PaymentRef != receipt.PaymentRef {
		t.Errorf("payment ref changed: %q != %q", reloaded.PaymentRef, receipt.PaymentRef)
	}
	if !reloaded.IsPaid {
		t.Error("admission not marked paid")
	}
}

func TestSubmitRequiresApprovedInstitute(t *testing.T) {
	env := setupTestEnv(t)
	course := env.createCourse(t, 5, "100", 0)

	// Suspend the institute and try to submit
	if err := env.db.Model(&model.Institute{}).
		Where("id = ?", env.institute.ID).
		Update("status", model.InstituteStatusPending).Error; err != nil {
		t.Fatalf("failed to update institute: %v", err)
	}
	defer env.db.Model(&model.Institute{}).
		Where("id = ?", env.institute.ID).
		Update("status", model.InstituteStatusApproved)

	_, err := env.admissions.Submit(context.Background(), env.user.ID, SubmitAdmissionRequest{
		StudentName: "Test Applicant",
		Email:       env.user.Email,
		CourseID:    course.ID,
	})
	if err != ErrInstituteNotApproved {
		t.Errorf("submit to unapproved institute: got %v, want ErrInstituteNotApproved", err)
	}
}

// Guard against clock skew flakiness in CI by making sure EnrolledAt lands
// in a sane window.
func TestEnrollmentTimestamp(t *testing.T) {
	env := setupTestEnv(t)
	course := env.createCourse(t, 5, "100", 0)
	admission := env.submit(t, course.ID)

	before := time.Now().Add(-time.Minute)
	result, err := env.admissions.Transition(context.Background(), admission.ID, ActionAccept)
	if err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	after := time.Now().Add(time.Minute)

	if result.Enrollment.EnrolledAt.Before(before) || result.Enrollment.EnrolledAt.After(after) {
		t.Errorf("EnrolledAt %s outside expected window", result.Enrollment.EnrolledAt)
	}
}
