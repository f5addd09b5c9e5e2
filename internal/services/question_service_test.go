package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"querystack/internal/apperror"
	"querystack/internal/events"
	"querystack/internal/models"
	"querystack/internal/services"
	"querystack/internal/validation"
)

func ask(tags ...string) services.CreateQuestionParams {
	return services.CreateQuestionParams{
		Title:   "How do I center a div?",
		Content: longContent,
		Tags:    tags,
	}
}

func TestQuestionService_CreateCollapsesTagCase(t *testing.T) {
	e := newEnv(t)
	svc := services.NewQuestionService(e.deps)
	author, ctx := e.user(t, "ada")

	q, err := svc.Create(ctx, ask("css", "CSS"))
	require.NoError(t, err)
	assert.Equal(t, author.ID, q.AuthorID)
	require.Len(t, q.Tags, 1)
	assert.Equal(t, "css", q.Tags[0].Name)

	assert.EqualValues(t, 1, e.count(t, &models.Tag{}, "1 = 1"))
	assert.EqualValues(t, 1, e.count(t, &models.TagQuestion{}, "question_id = ?", q.ID))
	assert.Equal(t, 1, e.tag(t, "css").QuestionCount)
	assert.Equal(t, []string{events.QuestionCreated}, e.publisher.published())

	_, err = svc.Create(ctx, ask("Css", "html"))
	require.NoError(t, err)
	assert.Equal(t, 2, e.tag(t, "CSS").QuestionCount)
	assert.EqualValues(t, 2, e.count(t, &models.Tag{}, "1 = 1"))
	e.assertTagCounts(t)
}

func TestQuestionService_CreateRequiresSessionAndValidInput(t *testing.T) {
	e := newEnv(t)
	svc := services.NewQuestionService(e.deps)
	_, ctx := e.user(t, "ada")

	_, err := svc.Create(context.Background(), ask("css"))
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	_, err = svc.Create(ctx, ask())
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = svc.Create(ctx, ask("a", "b", "c", "d"))
	assert.ErrorIs(t, err, apperror.ErrValidation)

	assert.EqualValues(t, 0, e.count(t, &models.Question{}, "1 = 1"))
	assert.Empty(t, e.publisher.published())
}

func TestQuestionService_CreateRollsBackOnFailure(t *testing.T) {
	e := newEnv(t)
	svc := services.NewQuestionService(e.deps)
	_, ctx := e.user(t, "ada")

	_, err := svc.Create(ctx, ask("go"))
	require.NoError(t, err)

	e.failOn(t, "create", "tag_questions")
	_, err = svc.Create(ctx, ask("go", "sql"))
	require.Error(t, err)

	assert.EqualValues(t, 1, e.count(t, &models.Question{}, "1 = 1"))
	assert.Equal(t, 1, e.tag(t, "go").QuestionCount)
	_, err = e.store.Tags().FindByName(context.Background(), "sql")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	e.assertTagCounts(t)
}

func TestQuestionService_EditReconcilesTags(t *testing.T) {
	e := newEnv(t)
	svc := services.NewQuestionService(e.deps)
	_, ctx := e.user(t, "ada")

	q, err := svc.Create(ctx, ask("react"))
	require.NoError(t, err)
	_, err = svc.Create(ctx, ask("React", "js"))
	require.NoError(t, err)
	require.Equal(t, 2, e.tag(t, "react").QuestionCount)

	edited, err := svc.Edit(ctx, services.EditQuestionParams{
		QuestionID: q.ID,
		Title:      "How do I center a div in Vue?",
		Content:    longContent,
		Tags:       []string{"vue"},
	})
	require.NoError(t, err)

	assert.Equal(t, "How do I center a div in Vue?", edited.Title)
	require.Len(t, edited.Tags, 1)
	assert.Equal(t, "vue", edited.Tags[0].Name)
	assert.Equal(t, 1, e.tag(t, "react").QuestionCount)
	assert.Equal(t, 1, e.tag(t, "vue").QuestionCount)
	assert.EqualValues(t, 1, e.count(t, &models.TagQuestion{}, "question_id = ?", q.ID))
	e.assertTagCounts(t)

	// Same set with different case is a no-op for tags.
	edited, err = svc.Edit(ctx, services.EditQuestionParams{
		QuestionID: q.ID,
		Title:      edited.Title,
		Content:    longContent,
		Tags:       []string{"VUE"},
	})
	require.NoError(t, err)
	assert.Equal(t, "vue", edited.Tags[0].Name)
	assert.Equal(t, 1, e.tag(t, "vue").QuestionCount)
	e.assertTagCounts(t)
}

func TestQuestionService_EditRollsBackTogether(t *testing.T) {
	e := newEnv(t)
	svc := services.NewQuestionService(e.deps)
	_, ctx := e.user(t, "ada")

	q, err := svc.Create(ctx, ask("react"))
	require.NoError(t, err)

	e.failOn(t, "delete", "tag_questions")
	_, err = svc.Edit(ctx, services.EditQuestionParams{
		QuestionID: q.ID,
		Title:      "A brand new title",
		Content:    longContent,
		Tags:       []string{"vue"},
	})
	require.Error(t, err)

	assert.Equal(t, "How do I center a div?", e.question(t, q.ID).Title)
	assert.Equal(t, 1, e.tag(t, "react").QuestionCount)
	_, err = e.store.Tags().FindByName(context.Background(), "vue")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	e.assertTagCounts(t)
}

func TestQuestionService_NonAuthorIsForbidden(t *testing.T) {
	e := newEnv(t)
	svc := services.NewQuestionService(e.deps)
	_, adaCtx := e.user(t, "ada")
	_, bobCtx := e.user(t, "bob")

	q, err := svc.Create(adaCtx, ask("css"))
	require.NoError(t, err)

	_, err = svc.Edit(bobCtx, services.EditQuestionParams{
		QuestionID: q.ID,
		Title:      "Hijacked title",
		Content:    longContent,
		Tags:       []string{"hacks"},
	})
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	err = svc.Delete(bobCtx, services.QuestionIDParams{QuestionID: q.ID})
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	got := e.question(t, q.ID)
	assert.Equal(t, q.Title, got.Title)
	assert.Equal(t, 1, e.tag(t, "css").QuestionCount)
	assert.EqualValues(t, 1, e.count(t, &models.Tag{}, "1 = 1"))

	err = svc.Delete(bobCtx, services.QuestionIDParams{QuestionID: "missing"})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestQuestionService_DeleteCascades(t *testing.T) {
	e := newEnv(t)
	questions := services.NewQuestionService(e.deps)
	answers := services.NewAnswerService(e.deps)
	votes := services.NewVoteService(e.deps)
	saves := services.NewCollectionService(e.deps)
	_, adaCtx := e.user(t, "ada")
	_, bobCtx := e.user(t, "bob")

	q, err := questions.Create(adaCtx, ask("go", "sql"))
	require.NoError(t, err)
	keep, err := questions.Create(adaCtx, ask("go"))
	require.NoError(t, err)

	a, err := answers.Create(bobCtx, services.CreateAnswerParams{QuestionID: q.ID, Content: longAnswer()})
	require.NoError(t, err)
	_, err = votes.Toggle(adaCtx, services.VoteParams{TargetID: a.ID, TargetType: models.ActionAnswer, VoteType: models.Upvote})
	require.NoError(t, err)
	_, err = votes.Toggle(bobCtx, services.VoteParams{TargetID: q.ID, TargetType: models.ActionQuestion, VoteType: models.Downvote})
	require.NoError(t, err)
	_, err = saves.Toggle(bobCtx, services.QuestionIDParams{QuestionID: q.ID})
	require.NoError(t, err)

	require.NoError(t, questions.Delete(adaCtx, services.QuestionIDParams{QuestionID: q.ID}))

	assert.EqualValues(t, 0, e.count(t, &models.Question{}, "id = ?", q.ID))
	assert.EqualValues(t, 0, e.count(t, &models.Collection{}, "question_id = ?", q.ID))
	assert.EqualValues(t, 0, e.count(t, &models.TagQuestion{}, "question_id = ?", q.ID))
	assert.EqualValues(t, 0, e.count(t, &models.Answer{}, "question_id = ?", q.ID))
	assert.EqualValues(t, 0, e.count(t, &models.Vote{}, "action_id IN ?", []string{q.ID, a.ID}))
	assert.Equal(t, 1, e.tag(t, "go").QuestionCount)
	assert.Equal(t, 0, e.tag(t, "sql").QuestionCount)
	assert.Equal(t, keep.ID, e.question(t, keep.ID).ID)
	e.assertTagCounts(t)
	e.assertVoteCounts(t)
	assert.Contains(t, e.publisher.published(), events.QuestionDeleted)
}

func TestQuestionService_DeleteRollsBackMidCascade(t *testing.T) {
	e := newEnv(t)
	questions := services.NewQuestionService(e.deps)
	answers := services.NewAnswerService(e.deps)
	votes := services.NewVoteService(e.deps)
	_, adaCtx := e.user(t, "ada")
	_, bobCtx := e.user(t, "bob")

	q, err := questions.Create(adaCtx, ask("go"))
	require.NoError(t, err)
	a, err := answers.Create(bobCtx, services.CreateAnswerParams{QuestionID: q.ID, Content: longAnswer()})
	require.NoError(t, err)
	_, err = votes.Toggle(adaCtx, services.VoteParams{TargetID: a.ID, TargetType: models.ActionAnswer, VoteType: models.Upvote})
	require.NoError(t, err)

	e.failOn(t, "delete", "answers")
	err = questions.Delete(adaCtx, services.QuestionIDParams{QuestionID: q.ID})
	require.Error(t, err)

	assert.Equal(t, 1, e.question(t, q.ID).Answers)
	assert.Equal(t, 1, e.tag(t, "go").QuestionCount)
	assert.EqualValues(t, 1, e.count(t, &models.TagQuestion{}, "question_id = ?", q.ID))
	assert.EqualValues(t, 1, e.count(t, &models.Vote{}, "action_id = ?", a.ID))
	e.assertTagCounts(t)
	e.assertVoteCounts(t)
}

func TestQuestionService_Reads(t *testing.T) {
	e := newEnv(t)
	svc := services.NewQuestionService(e.deps)
	_, ctx := e.user(t, "ada")

	first, err := svc.Create(ctx, ask("go"))
	require.NoError(t, err)
	second, err := svc.Create(ctx, ask("sql"))
	require.NoError(t, err)

	views, err := svc.IncrementView(context.Background(), services.QuestionIDParams{QuestionID: second.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, views)
	views, err = svc.IncrementView(context.Background(), services.QuestionIDParams{QuestionID: second.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, views)

	hot, err := svc.Hot(context.Background())
	require.NoError(t, err)
	require.Len(t, hot, 2)
	assert.Equal(t, second.ID, hot[0].ID)

	got, err := svc.Get(context.Background(), services.QuestionIDParams{QuestionID: first.ID})
	require.NoError(t, err)
	require.NotNil(t, got.Author)
	assert.Equal(t, "ada", got.Author.Name)
	assert.Equal(t, "go", got.Tags[0].Name)

	page, err := svc.List(context.Background(), services.ListQuestionsParams{
		Pagination: validation.Pagination{PageSize: 1},
	})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.True(t, page.IsNext)
	assert.EqualValues(t, 2, page.Total)

	page, err = svc.List(context.Background(), services.ListQuestionsParams{
		Pagination: validation.Pagination{Filter: "recommended"},
	})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.False(t, page.IsNext)

	_, err = svc.Get(context.Background(), services.QuestionIDParams{QuestionID: "missing"})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
