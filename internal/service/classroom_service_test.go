package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemsi/classpoints-backend/internal/events"
	"github.com/stemsi/classpoints-backend/internal/model"
	"github.com/stemsi/classpoints-backend/internal/picker"
	"github.com/stemsi/classpoints-backend/internal/roster"
	"github.com/stemsi/classpoints-backend/internal/sound"
)

func TestLoad_SeedsWhenNothingStored(t *testing.T) {
	f := newFixture()

	require.NoError(t, f.classroom.Load(context.Background()))

	classes := f.classroom.Classes()
	require.NotEmpty(t, classes)
	stored, err := f.store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, classes, stored)
}

func TestLoad_CorruptSnapshotFallsBackWithoutOverwrite(t *testing.T) {
	f := newFixture()
	f.store.SetRaw([]byte("garbage"))

	require.NoError(t, f.classroom.Load(context.Background()))

	assert.NotEmpty(t, f.classroom.Classes())
	assert.Zero(t, f.store.Saves())
}

func TestApplyBehavior_UpdatesTotalsAndCounters(t *testing.T) {
	f := loaded()
	ctx := context.Background()
	st := f.classroom.Session().Students[0]

	for _, p := range []int{5, -2, 5, 0, -3} {
		_, ok := f.classroom.ApplyBehavior(ctx, st.ID, model.Behavior{Label: "x", Points: p})
		require.True(t, ok)
	}

	got, ok := roster.FindStudent(f.classroom.Classes(), f.classroom.Session().SelectedClassID, st.ID)
	require.True(t, ok)
	assert.Equal(t, 5, got.TotalScore)
	assert.Equal(t, 10, got.PosCount)
	assert.Equal(t, 5, got.NegCount)
}

func TestApplyBehavior_SideEffects(t *testing.T) {
	f := loaded()
	ctx := context.Background()
	st := f.classroom.Session().Students[1]
	_, err := f.classroom.OpenStudent(st.ID)
	require.NoError(t, err)
	sub := f.bus.Subscribe()

	updated, ok := f.classroom.ApplyBehavior(ctx, st.ID, model.PositiveBehaviors[0])
	require.True(t, ok)
	_, ok = f.classroom.ApplyBehavior(ctx, st.ID, model.NegativeBehaviors[0])
	require.True(t, ok)

	assert.Equal(t, []sound.Name{sound.ScoreUp, sound.ScoreDown}, f.player.names())

	view := f.classroom.Session()
	assert.Empty(t, view.ActiveStudentID, "behavior view closes")
	require.NotNil(t, view.Feedback)
	assert.Equal(t, model.NegativeBehaviors[0], view.Feedback.Behavior)
	assert.Equal(t, updated.TotalScore+model.NegativeBehaviors[0].Points, view.Feedback.Student.TotalScore)

	var types []events.Type
	for len(sub) > 0 {
		types = append(types, (<-sub).Type)
	}
	assert.Contains(t, types, events.ScoreUpdated)
	assert.Contains(t, types, events.FeedbackShown)

	require.NoError(t, f.snapshots.Flush(ctx))
	stored, err := f.store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, f.classroom.Classes(), stored)
}

func TestApplyBehavior_StudentOutsideCurrentClassIsIgnored(t *testing.T) {
	f := loaded()
	classes := f.classroom.Classes()
	other := classes[1].Students[0]
	before := f.classroom.Classes()

	_, ok := f.classroom.ApplyBehavior(context.Background(), other.ID, model.Behavior{Points: 3})

	assert.False(t, ok)
	assert.Equal(t, before, f.classroom.Classes())
	assert.Nil(t, f.classroom.Session().Feedback)
	assert.Empty(t, f.player.names())
}

func TestApplyManualPoints_UsesManualLabel(t *testing.T) {
	f := loaded()
	st := f.classroom.Session().Students[0]

	_, ok := f.classroom.ApplyManualPoints(context.Background(), st.ID, -4)
	require.True(t, ok)

	fb := f.classroom.Session().Feedback
	require.NotNil(t, fb)
	assert.Equal(t, "Manual Point Entry", fb.Behavior.LabelEn)
	assert.Equal(t, -4, fb.Behavior.Points)
}

func TestFeedback_ExpiresAfterTTL(t *testing.T) {
	f := loaded()
	st := f.classroom.Session().Students[0]
	f.classroom.ApplyBehavior(context.Background(), st.ID, model.Behavior{Points: 1})

	f.clock.Advance(DefaultFeedbackTTL - time.Millisecond)
	assert.NotNil(t, f.classroom.Session().Feedback)

	f.clock.Advance(time.Millisecond)
	assert.Nil(t, f.classroom.Session().Feedback)
}

func TestFeedback_NewerFeedbackSurvivesStaleTimer(t *testing.T) {
	f := loaded()
	ctx := context.Background()
	st := f.classroom.Session().Students[0]

	f.classroom.ApplyBehavior(ctx, st.ID, model.Behavior{Label: "first", Points: 1})
	f.clock.Advance(2 * time.Second)
	f.classroom.ApplyBehavior(ctx, st.ID, model.Behavior{Label: "second", Points: 1})

	f.clock.Advance(1500 * time.Millisecond)
	fb := f.classroom.Session().Feedback
	require.NotNil(t, fb, "first timer must not clear the second feedback")
	assert.Equal(t, "second", fb.Behavior.Label)

	f.clock.Advance(1500 * time.Millisecond)
	assert.Nil(t, f.classroom.Session().Feedback)
}

func TestDismissFeedback_CancelsTimer(t *testing.T) {
	f := loaded()
	st := f.classroom.Session().Students[0]
	f.classroom.ApplyBehavior(context.Background(), st.ID, model.Behavior{Points: 1})
	require.Equal(t, 1, f.clock.Pending())

	assert.True(t, f.classroom.DismissFeedback())
	assert.Nil(t, f.classroom.Session().Feedback)
	assert.Zero(t, f.clock.Pending())
	assert.False(t, f.classroom.DismissFeedback())
}

func TestSetSort_OrdersSessionStudents(t *testing.T) {
	f := loaded()
	ctx := context.Background()
	students := f.classroom.Session().Students
	f.classroom.ApplyBehavior(ctx, students[2].ID, model.Behavior{Points: 5})
	f.classroom.ApplyBehavior(ctx, students[0].ID, model.Behavior{Points: -1})

	view, err := f.classroom.SetSort(model.SortScoreDesc)
	require.NoError(t, err)
	assert.Equal(t, students[2].ID, view.Students[0].ID)
	assert.Equal(t, students[0].ID, view.Students[len(view.Students)-1].ID)

	view, err = f.classroom.SetSort(model.SortScoreAsc)
	require.NoError(t, err)
	assert.Equal(t, students[0].ID, view.Students[0].ID)

	_, err = f.classroom.SetSort("RANDOM")
	assert.ErrorIs(t, err, ErrInvalidSort)
}

func TestCreateClass_SelectsNewClass(t *testing.T) {
	f := loaded()

	c, err := f.classroom.CreateClass("  5A  ", "Ann\n\n  Bob \n")
	require.NoError(t, err)

	assert.Equal(t, "5A", c.Name)
	require.Len(t, c.Students, 2)
	assert.Equal(t, c.ID+"_2", c.Students[1].ID)
	view := f.classroom.Session()
	assert.Equal(t, c.ID, view.SelectedClassID)

	_, err = f.classroom.CreateClass("5B", "\n \n")
	assert.ErrorIs(t, err, roster.ErrEmptyRoster)
	_, err = f.classroom.CreateClass(" ", "Ann")
	assert.ErrorIs(t, err, roster.ErrEmptyClassName)
}

func TestDeleteClass_RequiresConfirmation(t *testing.T) {
	f := loaded()
	classID := f.classroom.Session().SelectedClassID

	err := f.classroom.DeleteClass(classID, false)
	assert.ErrorIs(t, err, ErrConfirmationRequired)
	assert.Len(t, f.classroom.Classes(), 2)

	require.NoError(t, f.classroom.DeleteClass(classID, true))
	assert.Len(t, f.classroom.Classes(), 1)
	assert.Empty(t, f.classroom.Session().SelectedClassID)

	assert.ErrorIs(t, f.classroom.DeleteClass(classID, true), roster.ErrClassNotFound)
}

func TestSetAvatar(t *testing.T) {
	f := loaded()
	other := f.classroom.Classes()[1].Students[0]

	st, err := f.classroom.SetAvatar(other.ID, 150)
	require.NoError(t, err)
	assert.Equal(t, 150, st.PokemonID)

	_, err = f.classroom.SetAvatar(other.ID, 501)
	assert.ErrorIs(t, err, roster.ErrInvalidAvatar)
	_, err = f.classroom.SetAvatar("ghost", 1)
	assert.ErrorIs(t, err, ErrStudentNotFound)
}

func TestStartPicker_OpensWinner(t *testing.T) {
	f := loaded()

	require.NoError(t, f.classroom.StartPicker())
	assert.ErrorIs(t, f.classroom.StartPicker(), picker.ErrAlreadyRunning)
	assert.Equal(t, model.PickerRolling, f.classroom.PickerStatus().Phase)

	f.clock.Advance(picker.TickInterval*picker.Steps + picker.RevealDelay)

	view := f.classroom.Session()
	require.NotNil(t, view.ActiveStudent)
	assert.Equal(t, view.ActiveStudentID, view.ActiveStudent.ID)
	assert.Equal(t, model.PickerIdle, view.Picker.Phase)
}

func TestStartPicker_NoClassSelected(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.classroom.Load(context.Background()))

	assert.ErrorIs(t, f.classroom.StartPicker(), ErrNoClassSelected)
}

func TestHistory_ComesFromLedger(t *testing.T) {
	f := loaded()
	require.NoError(t, f.ledger.Append(context.Background(), []model.ScoreEvent{{StudentID: "s1", Points: 2}}))

	history, err := f.classroom.History(context.Background(), "s1", 10)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestApplyBehavior_RecordsEveryScoreWhileBusSubscriberStalls(t *testing.T) {
	f := loaded()
	ctx := context.Background()
	st := f.classroom.Session().Students[0]
	stalled := f.bus.Subscribe()
	defer f.bus.Unsubscribe(stalled)

	for i := 0; i < 40; i++ {
		_, ok := f.classroom.ApplyBehavior(ctx, st.ID, model.Behavior{Label: "x", Points: 1})
		require.True(t, ok)
	}

	assert.Equal(t, 40, f.recorder.Pending())
}

func TestReplaceAll_DropsFeedbackForRemovedStudent(t *testing.T) {
	f := loaded()
	st := f.classroom.Session().Students[0]
	f.classroom.ApplyBehavior(context.Background(), st.ID, model.Behavior{Points: 1})
	require.NotNil(t, f.classroom.Session().Feedback)
	sub := f.bus.Subscribe()
	defer f.bus.Unsubscribe(sub)

	f.classroom.ReplaceAll([]model.ClassData{{ID: "other", Name: "Other", Students: []model.Student{}}})

	assert.Nil(t, f.classroom.Session().Feedback)
	assert.Zero(t, f.clock.Pending(), "expiry timer stopped")
	var types []events.Type
	for len(sub) > 0 {
		types = append(types, (<-sub).Type)
	}
	assert.Contains(t, types, events.FeedbackDismissed)
}

func TestReplaceAll_KeepsFeedbackForSurvivingStudent(t *testing.T) {
	f := loaded()
	st := f.classroom.Session().Students[0]
	f.classroom.ApplyBehavior(context.Background(), st.ID, model.Behavior{Points: 1})

	f.classroom.ReplaceAll(f.classroom.Classes())

	require.NotNil(t, f.classroom.Session().Feedback)
	assert.Equal(t, 1, f.clock.Pending())
}

func TestDeleteClass_DropsFeedbackForItsStudents(t *testing.T) {
	f := loaded()
	view := f.classroom.Session()
	f.classroom.ApplyBehavior(context.Background(), view.Students[0].ID, model.Behavior{Points: 1})

	require.NoError(t, f.classroom.DeleteClass(view.SelectedClassID, true))

	assert.Nil(t, f.classroom.Session().Feedback)
	assert.Zero(t, f.clock.Pending())
}
