package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ironlog/fitness-app/internal/domain"
)

func programFixture(t *testing.T) (ProgramService, *fakeProgramRepo, primitive.ObjectID) {
	t.Helper()
	repo := newFakeProgramRepo()
	return NewProgramService(repo, zerolog.Nop()), repo, primitive.NewObjectID()
}

func TestProgramOwnership(t *testing.T) {
	svc, _, ownerID := programFixture(t)
	program, err := svc.CreateProgram(context.Background(), ownerID, "Block 1", "")
	require.NoError(t, err)

	t.Run("owner can read", func(t *testing.T) {
		got, err := svc.GetProgram(context.Background(), ownerID, program.ID)
		require.NoError(t, err)
		assert.Equal(t, program.ID, got.ID)
	})

	t.Run("other users are denied", func(t *testing.T) {
		_, err := svc.GetProgram(context.Background(), primitive.NewObjectID(), program.ID)
		assert.ErrorIs(t, err, ErrProgramAccessDenied)
	})

	t.Run("mutations check ownership too", func(t *testing.T) {
		_, err := svc.AddMacrocycle(context.Background(), primitive.NewObjectID(), program.ID, "Macro")
		assert.ErrorIs(t, err, ErrProgramAccessDenied)
	})

	t.Run("unknown program", func(t *testing.T) {
		_, err := svc.GetProgram(context.Background(), ownerID, primitive.NewObjectID())
		assert.ErrorIs(t, err, ErrProgramNotFound)
	})
}

func TestProgramMutationsPersist(t *testing.T) {
	svc, _, ownerID := programFixture(t)
	ctx := context.Background()
	program, err := svc.CreateProgram(ctx, ownerID, "Block 1", "")
	require.NoError(t, err)

	updated, err := svc.AddMacrocycle(ctx, ownerID, program.ID, "Macro 1")
	require.NoError(t, err)
	macroID := updated.Macrocycles[0].ID

	updated, err = svc.AddMesocycle(ctx, ownerID, program.ID, macroID, "Meso 1", domain.GoalAccumulation, "")
	require.NoError(t, err)
	mesoID := updated.Macrocycles[0].Mesocycles[0].ID

	updated, err = svc.AddWeek(ctx, ownerID, program.ID, mesoID, "Week 1")
	require.NoError(t, err)
	weekID := updated.Macrocycles[0].Mesocycles[0].Weeks[0].ID

	updated, err = svc.AddSession(ctx, ownerID, program.ID, weekID, "Upper A", "")
	require.NoError(t, err)
	sessionID := updated.Macrocycles[0].Mesocycles[0].Weeks[0].Sessions[0].ID

	// A fresh read sees the whole spine.
	reloaded, err := svc.GetProgram(ctx, ownerID, program.ID)
	require.NoError(t, err)
	session, week := reloaded.FindSession(sessionID)
	require.NotNil(t, session)
	assert.Equal(t, weekID, week.ID)

	t.Run("rename resolves the level by id", func(t *testing.T) {
		updated, err := svc.RenameNode(ctx, ownerID, program.ID, weekID, "Intro Week")
		require.NoError(t, err)
		assert.Equal(t, "Intro Week", updated.Macrocycles[0].Mesocycles[0].Weeks[0].Name)
	})

	t.Run("remove resolves the level by id", func(t *testing.T) {
		updated, err := svc.RemoveNode(ctx, ownerID, program.ID, sessionID)
		require.NoError(t, err)
		found, _ := updated.FindSession(sessionID)
		assert.Nil(t, found)
	})

	t.Run("unknown node id", func(t *testing.T) {
		_, err := svc.RemoveNode(ctx, ownerID, program.ID, primitive.NewObjectID())
		assert.ErrorIs(t, err, domain.ErrNodeNotFound)
	})
}

func TestDeleteProgramIsSoft(t *testing.T) {
	svc, repo, ownerID := programFixture(t)
	ctx := context.Background()
	program, err := svc.CreateProgram(ctx, ownerID, "Block 1", "")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteProgram(ctx, ownerID, program.ID))

	// Gone from reads and listings...
	_, err = svc.GetProgram(ctx, ownerID, program.ID)
	assert.ErrorIs(t, err, ErrProgramNotFound)
	programs, err := svc.ListPrograms(ctx, ownerID)
	require.NoError(t, err)
	assert.Empty(t, programs)

	// ...but the name survives for log snapshots.
	name, err := repo.GetName(ctx, program.ID)
	require.NoError(t, err)
	assert.Equal(t, "Block 1", name)

	t.Run("delete twice", func(t *testing.T) {
		assert.ErrorIs(t, svc.DeleteProgram(ctx, ownerID, program.ID), ErrProgramNotFound)
	})
}

func TestInstantiateTemplateService(t *testing.T) {
	svc, _, ownerID := programFixture(t)
	ctx := context.Background()

	template, err := svc.CreateProgram(ctx, ownerID, "Template", "")
	require.NoError(t, err)
	_, err = svc.AddMacrocycle(ctx, ownerID, template.ID, "Macro 1")
	require.NoError(t, err)

	target, err := svc.CreateProgram(ctx, ownerID, "Mine", "")
	require.NoError(t, err)

	updated, err := svc.InstantiateTemplate(ctx, ownerID, target.ID, template.ID)
	require.NoError(t, err)
	require.Len(t, updated.Macrocycles, 1)

	reloadedTemplate, err := svc.GetProgram(ctx, ownerID, template.ID)
	require.NoError(t, err)
	assert.NotEqual(t, reloadedTemplate.Macrocycles[0].ID, updated.Macrocycles[0].ID,
		"instantiated subtree must not share ids with the template")

	t.Run("template must be owned too", func(t *testing.T) {
		stranger := primitive.NewObjectID()
		_, err := svc.InstantiateTemplate(ctx, stranger, target.ID, template.ID)
		assert.ErrorIs(t, err, ErrProgramAccessDenied)
	})
}
