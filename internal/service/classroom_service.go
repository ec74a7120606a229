package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/stemsi/classpoints-backend/internal/clock"
	"github.com/stemsi/classpoints-backend/internal/events"
	"github.com/stemsi/classpoints-backend/internal/model"
	"github.com/stemsi/classpoints-backend/internal/picker"
	"github.com/stemsi/classpoints-backend/internal/repository"
	"github.com/stemsi/classpoints-backend/internal/roster"
	"github.com/stemsi/classpoints-backend/internal/sound"
)

var (
	ErrNoClassSelected      = errors.New("no class selected")
	ErrStudentNotFound      = errors.New("student not found")
	ErrConfirmationRequired = errors.New("deletion must be confirmed")
	ErrInvalidSort          = errors.New("unknown sort type")
)

// DefaultFeedbackTTL is how long a feedback notification stays up.
const DefaultFeedbackTTL = 3 * time.Second

// Persister receives every new roster value. *worker.SnapshotWorker
// satisfies it.
type Persister interface {
	Enqueue(classes []model.ClassData)
}

// ScoreRecorder receives every applied score change, in order.
// *worker.LedgerWorker satisfies it.
type ScoreRecorder interface {
	Record(e model.ScoreEvent)
}

type nopRecorder struct{}

func (nopRecorder) Record(model.ScoreEvent) {}

// ClassroomDeps wires a ClassroomService.
type ClassroomDeps struct {
	Store       repository.SnapshotStore
	Persister   Persister
	Recorder    ScoreRecorder
	Ledger      repository.LedgerRepository
	Bus         events.Publisher
	Player      sound.Player
	Picker      *picker.Picker
	Clock       clock.Clock
	Rand        roster.Rand
	FeedbackTTL time.Duration
}

// ClassroomService owns the roster and the presenter's view state. All state
// lives in one value guarded by mu; every change goes through a pure roster
// transform and is handed to the persister before mu is released, so saves
// happen in mutation order. Events and sounds are emitted after mu is
// released.
type ClassroomService struct {
	mu            sync.Mutex
	classes       []model.ClassData
	session       model.Session
	feedbackTimer clock.Timer

	store       repository.SnapshotStore
	persist     Persister
	recorder    ScoreRecorder
	ledger      repository.LedgerRepository
	bus         events.Publisher
	sound       *sound.SafePlayer
	picker      *picker.Picker
	clock       clock.Clock
	rng         roster.Rand
	feedbackTTL time.Duration
	log         zerolog.Logger
}

// NewClassroomService creates a service with an empty roster; call Load
// before serving requests.
func NewClassroomService(deps ClassroomDeps, log zerolog.Logger) *ClassroomService {
	ttl := deps.FeedbackTTL
	if ttl <= 0 {
		ttl = DefaultFeedbackTTL
	}
	player := deps.Player
	if player == nil {
		player = sound.Nop{}
	}
	var recorder ScoreRecorder = nopRecorder{}
	if deps.Recorder != nil {
		recorder = deps.Recorder
	}
	return &ClassroomService{
		classes:     []model.ClassData{},
		session:     model.Session{Sort: model.SortIDAsc},
		store:       deps.Store,
		persist:     deps.Persister,
		recorder:    recorder,
		ledger:      deps.Ledger,
		bus:         deps.Bus,
		sound:       sound.Safe(player, log),
		picker:      deps.Picker,
		clock:       deps.Clock,
		rng:         deps.Rand,
		feedbackTTL: ttl,
		log:         log.With().Str("component", "classroom").Logger(),
	}
}

// Load reads the stored roster. A missing snapshot is replaced by the seed
// roster and saved; an unreadable one falls back to the seed roster without
// overwriting it until the next change.
func (s *ClassroomService) Load(ctx context.Context) error {
	classes, err := s.store.Load(ctx)
	switch {
	case err == nil:
		s.log.Info().Int("classes", len(classes)).Msg("Roster loaded")
	case errors.Is(err, repository.ErrSnapshotNotFound):
		s.log.Info().Msg("No stored roster, using seed roster")
		classes = s.seed()
		if err := s.store.Save(ctx, classes); err != nil {
			s.log.Warn().Err(err).Msg("Could not save seed roster")
		}
	case ctx.Err() != nil:
		return ctx.Err()
	default:
		s.log.Warn().Err(err).Msg("Stored roster unreadable, using seed roster")
		classes = s.seed()
	}

	s.mu.Lock()
	s.classes = classes
	s.mu.Unlock()
	return nil
}

func (s *ClassroomService) seed() []model.ClassData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return roster.Seed(s.rng)
}

// Classes returns a copy of the whole collection.
func (s *ClassroomService) Classes() []model.ClassData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return roster.Clone(s.classes)
}

// ListClasses returns a summary of every class in stored order.
func (s *ClassroomService) ListClasses() []model.ClassSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.ClassSummary, len(s.classes))
	for i, c := range s.classes {
		out[i] = c.Summary()
	}
	return out
}

// GetClass returns one class with its students ordered by sortType.
func (s *ClassroomService) GetClass(classID string, sortType model.SortType) (model.ClassData, error) {
	if sortType == "" {
		sortType = model.SortIDAsc
	}
	if !sortType.Valid() {
		return model.ClassData{}, ErrInvalidSort
	}
	s.mu.Lock()
	c, ok := roster.FindClass(s.classes, classID)
	s.mu.Unlock()
	if !ok {
		return model.ClassData{}, roster.ErrClassNotFound
	}
	c.Students = roster.Sorted(c.Students, sortType)
	return c, nil
}

// Session returns the view state with the selected class's students in the
// current sort order.
func (s *ClassroomService) Session() model.SessionView {
	s.mu.Lock()
	view := s.viewLocked()
	s.mu.Unlock()

	if s.picker != nil {
		view.Picker = s.picker.Status()
	} else {
		view.Picker = model.PickerStatus{Phase: model.PickerIdle, Steps: picker.Steps}
	}
	return view
}

func (s *ClassroomService) viewLocked() model.SessionView {
	view := model.SessionView{Session: s.session, Students: []model.Student{}}
	if s.session.Feedback != nil {
		fb := *s.session.Feedback
		view.Feedback = &fb
	}
	c, ok := roster.FindClass(s.classes, s.session.SelectedClassID)
	if !ok {
		return view
	}
	summary := c.Summary()
	view.Class = &summary
	view.Students = roster.Sorted(c.Students, s.session.Sort)
	if st, ok := roster.FindStudent(s.classes, c.ID, s.session.ActiveStudentID); ok {
		view.ActiveStudent = &st
	}
	return view
}

// SelectClass makes classID the current class and closes any open views.
func (s *ClassroomService) SelectClass(classID string) (model.SessionView, error) {
	s.mu.Lock()
	if _, ok := roster.FindClass(s.classes, classID); !ok {
		s.mu.Unlock()
		return model.SessionView{}, roster.ErrClassNotFound
	}
	s.session.SelectedClassID = classID
	s.session.ActiveStudentID = ""
	session := s.session
	s.mu.Unlock()

	s.publish(events.SessionChanged, session)
	return s.Session(), nil
}

// SetSort changes the sort order of the current view.
func (s *ClassroomService) SetSort(sortType model.SortType) (model.SessionView, error) {
	if !sortType.Valid() {
		return model.SessionView{}, ErrInvalidSort
	}
	s.mu.Lock()
	s.session.Sort = sortType
	session := s.session
	s.mu.Unlock()

	s.publish(events.SessionChanged, session)
	return s.Session(), nil
}

// OpenStudent opens the behavior selection view for a student of the
// current class.
func (s *ClassroomService) OpenStudent(studentID string) (model.Student, error) {
	s.mu.Lock()
	if s.session.SelectedClassID == "" {
		s.mu.Unlock()
		return model.Student{}, ErrNoClassSelected
	}
	st, ok := roster.FindStudent(s.classes, s.session.SelectedClassID, studentID)
	if !ok {
		s.mu.Unlock()
		return model.Student{}, ErrStudentNotFound
	}
	s.session.ActiveStudentID = studentID
	session := s.session
	s.mu.Unlock()

	s.publish(events.SessionChanged, session)
	return st, nil
}

// CloseStudent closes the behavior selection view.
func (s *ClassroomService) CloseStudent() {
	s.mu.Lock()
	changed := s.session.ActiveStudentID != ""
	s.session.ActiveStudentID = ""
	session := s.session
	s.mu.Unlock()

	if changed {
		s.publish(events.SessionChanged, session)
	}
}

// ApplyBehavior applies behavior to a student of the current class. A
// student that is not in the current class is ignored and applied is false.
func (s *ClassroomService) ApplyBehavior(ctx context.Context, studentID string, behavior model.Behavior) (model.Student, bool) {
	now := s.clock.Now()

	s.mu.Lock()
	classID := s.session.SelectedClassID
	next, updated, ok := roster.ApplyBehavior(s.classes, classID, studentID, behavior)
	if !ok {
		s.mu.Unlock()
		s.log.Debug().Str("student_id", studentID).Str("class_id", classID).Msg("Behavior ignored, student not in current class")
		return model.Student{}, false
	}
	s.classes = next
	s.session.ActiveStudentID = ""

	fb := &model.Feedback{
		ID:        uuid.NewString(),
		ClassID:   classID,
		Student:   updated,
		Behavior:  behavior,
		CreatedAt: now,
		ExpiresAt: now.Add(s.feedbackTTL),
	}
	s.showFeedbackLocked(fb)
	session := s.session
	scoreEvent := model.ScoreEvent{
		ID:         uuid.New(),
		ClassID:    classID,
		StudentID:  studentID,
		Label:      behavior.Label,
		LabelEn:    behavior.LabelEn,
		Points:     behavior.Points,
		TotalAfter: updated.TotalScore,
		OccurredAt: now,
	}
	s.persist.Enqueue(next)
	s.recorder.Record(scoreEvent)
	s.mu.Unlock()

	s.publish(events.ScoreUpdated, model.ScoreUpdate{Event: scoreEvent, Student: updated})
	s.publish(events.FeedbackShown, fb)
	s.publish(events.SessionChanged, session)
	s.sound.Fire(ctx, sound.ForScore(behavior.IsPositive()))

	s.log.Info().
		Str("class_id", classID).
		Str("student_id", studentID).
		Int("points", behavior.Points).
		Int("total", updated.TotalScore).
		Msg("Behavior applied")
	return updated, true
}

// ApplyManualPoints applies an ad-hoc point value with the manual label.
func (s *ClassroomService) ApplyManualPoints(ctx context.Context, studentID string, points int) (model.Student, bool) {
	return s.ApplyBehavior(ctx, studentID, model.ManualBehavior(points))
}

// showFeedbackLocked replaces the current feedback and restarts its expiry.
func (s *ClassroomService) showFeedbackLocked(fb *model.Feedback) {
	if s.feedbackTimer != nil {
		s.feedbackTimer.Stop()
	}
	s.session.Feedback = fb
	id := fb.ID
	s.feedbackTimer = s.clock.AfterFunc(s.feedbackTTL, func() { s.expireFeedback(id) })
}

// expireFeedback clears feedback id if it is still the one shown.
func (s *ClassroomService) expireFeedback(id string) {
	s.mu.Lock()
	if s.session.Feedback == nil || s.session.Feedback.ID != id {
		s.mu.Unlock()
		return
	}
	s.session.Feedback = nil
	s.feedbackTimer = nil
	s.mu.Unlock()

	s.publish(events.FeedbackDismissed, map[string]string{"id": id, "reason": "expired"})
}

// DismissFeedback closes the feedback early. It reports whether anything
// was shown.
func (s *ClassroomService) DismissFeedback() bool {
	s.mu.Lock()
	fb := s.session.Feedback
	if fb == nil {
		s.mu.Unlock()
		return false
	}
	s.clearFeedbackLocked()
	s.mu.Unlock()

	s.publish(events.FeedbackDismissed, map[string]string{"id": fb.ID, "reason": "dismissed"})
	return true
}

// clearFeedbackLocked removes the current feedback and stops its expiry.
func (s *ClassroomService) clearFeedbackLocked() {
	if s.feedbackTimer != nil {
		s.feedbackTimer.Stop()
		s.feedbackTimer = nil
	}
	s.session.Feedback = nil
}

// dropStaleFeedbackLocked clears feedback about a student who is no longer
// in classes and returns its id, or "" when nothing was cleared.
func (s *ClassroomService) dropStaleFeedbackLocked(classes []model.ClassData) string {
	fb := s.session.Feedback
	if fb == nil {
		return ""
	}
	if _, ok := roster.FindStudent(classes, fb.ClassID, fb.Student.ID); ok {
		return ""
	}
	s.clearFeedbackLocked()
	return fb.ID
}

// CreateClass adds a class from a newline separated roster and selects it.
func (s *ClassroomService) CreateClass(name, rosterText string) (model.ClassData, error) {
	return s.CreateClassFromNames(name, roster.ParseNames(rosterText))
}

// CreateClassFromNames adds a class from a list of names and selects it.
func (s *ClassroomService) CreateClassFromNames(name string, names []string) (model.ClassData, error) {
	now := s.clock.Now()

	s.mu.Lock()
	next, class, err := roster.CreateClassFromNames(s.classes, name, names, now, s.rng)
	if err != nil {
		s.mu.Unlock()
		return model.ClassData{}, err
	}
	s.classes = next
	s.session.SelectedClassID = class.ID
	s.session.ActiveStudentID = ""
	session := s.session
	s.persist.Enqueue(next)
	s.mu.Unlock()

	s.publish(events.ClassCreated, class.Summary())
	s.publish(events.SessionChanged, session)
	s.log.Info().Str("class_id", class.ID).Int("students", len(class.Students)).Msg("Class created")
	return class, nil
}

// DeleteClass removes a class. confirm must be true.
func (s *ClassroomService) DeleteClass(classID string, confirm bool) error {
	if !confirm {
		return ErrConfirmationRequired
	}

	s.mu.Lock()
	next, err := roster.DeleteClass(s.classes, classID)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.classes = next
	if s.session.SelectedClassID == classID {
		s.session.SelectedClassID = ""
		s.session.ActiveStudentID = ""
	}
	stale := s.dropStaleFeedbackLocked(next)
	session := s.session
	s.persist.Enqueue(next)
	s.mu.Unlock()

	s.publish(events.ClassDeleted, map[string]string{"classId": classID})
	s.publishStaleFeedback(stale)
	s.publish(events.SessionChanged, session)
	s.log.Info().Str("class_id", classID).Msg("Class deleted")
	return nil
}

// SetAvatar assigns a new avatar to a student in any class.
func (s *ClassroomService) SetAvatar(studentID string, pokemonID int) (model.Student, error) {
	s.mu.Lock()
	next, st, err := roster.SetAvatar(s.classes, studentID, pokemonID)
	if err != nil {
		s.mu.Unlock()
		if errors.Is(err, roster.ErrClassNotFound) {
			return model.Student{}, ErrStudentNotFound
		}
		return model.Student{}, err
	}
	s.classes = next
	s.persist.Enqueue(next)
	s.mu.Unlock()

	s.publish(events.AvatarChanged, st)
	return st, nil
}

// ReplaceAll swaps in a whole new collection, as an import does. Views and
// feedback that point at classes or students that no longer exist are closed.
func (s *ClassroomService) ReplaceAll(classes []model.ClassData) {
	classes = roster.Normalize(roster.Clone(classes))

	s.mu.Lock()
	s.classes = classes
	if _, ok := roster.FindClass(classes, s.session.SelectedClassID); !ok {
		s.session.SelectedClassID = ""
	}
	if _, ok := roster.FindStudent(classes, s.session.SelectedClassID, s.session.ActiveStudentID); !ok {
		s.session.ActiveStudentID = ""
	}
	stale := s.dropStaleFeedbackLocked(classes)
	session := s.session
	s.persist.Enqueue(classes)
	s.mu.Unlock()

	s.publish(events.RosterReplaced, map[string]int{"classes": len(classes)})
	s.publishStaleFeedback(stale)
	s.publish(events.SessionChanged, session)
	s.log.Info().Int("classes", len(classes)).Msg("Roster replaced")
}

// StartPicker runs the random picker over the current class. When the
// winner is revealed the behavior selection view opens for them.
func (s *ClassroomService) StartPicker() error {
	if s.picker == nil {
		return fmt.Errorf("picker: %w", picker.ErrEmptyRoster)
	}
	s.mu.Lock()
	c, ok := roster.FindClass(s.classes, s.session.SelectedClassID)
	s.mu.Unlock()
	if !ok {
		return ErrNoClassSelected
	}
	return s.picker.Start(c.ID, c.Students, s.openWinner)
}

// PickerStatus reports the picker phase.
func (s *ClassroomService) PickerStatus() model.PickerStatus {
	if s.picker == nil {
		return model.PickerStatus{Phase: model.PickerIdle, Steps: picker.Steps}
	}
	return s.picker.Status()
}

func (s *ClassroomService) openWinner(classID string, winner model.Student) {
	s.mu.Lock()
	if s.session.SelectedClassID != classID {
		s.mu.Unlock()
		return
	}
	if _, ok := roster.FindStudent(s.classes, classID, winner.ID); !ok {
		s.mu.Unlock()
		return
	}
	s.session.ActiveStudentID = winner.ID
	session := s.session
	s.mu.Unlock()

	s.publish(events.SessionChanged, session)
}

// History returns the newest ledger entries for a student.
func (s *ClassroomService) History(ctx context.Context, studentID string, limit int) ([]model.ScoreEvent, error) {
	if s.ledger == nil {
		return []model.ScoreEvent{}, nil
	}
	return s.ledger.ListByStudent(ctx, studentID, limit)
}

func (s *ClassroomService) publishStaleFeedback(id string) {
	if id != "" {
		s.publish(events.FeedbackDismissed, map[string]string{"id": id, "reason": "removed"})
	}
}

func (s *ClassroomService) publish(t events.Type, payload interface{}) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(events.New(t, s.clock.Now(), payload))
}
