package handlers

import (
	"github.com/gofiber/fiber/v2"

	"querystack/internal/services"
)

// QuestionHandler serves questions, their answers and the caller's saves.
type QuestionHandler struct {
	questions   *services.QuestionService
	answers     *services.AnswerService
	collections *services.CollectionService
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(questions *services.QuestionService, answers *services.AnswerService, collections *services.CollectionService) *QuestionHandler {
	return &QuestionHandler{questions: questions, answers: answers, collections: collections}
}

// RegisterRoutes registers the question routes. /questions/hot must be
// registered ahead of /questions/:id.
func (h *QuestionHandler) RegisterRoutes(router fiber.Router) {
	q := router.Group("/questions")
	q.Get("/", h.HandleList)
	q.Get("/hot", h.HandleHot)
	q.Post("/", h.HandleCreate)
	q.Get("/:id", h.HandleGet)
	q.Put("/:id", h.HandleEdit)
	q.Delete("/:id", h.HandleDelete)
	q.Post("/:id/views", h.HandleView)
	q.Post("/:id/save", h.HandleToggleSave)
	q.Get("/:id/saved", h.HandleHasSaved)
	q.Get("/:id/answers", h.HandleListAnswers)
	q.Post("/:id/answers", h.HandleCreateAnswer)

	router.Delete("/answers/:id", h.HandleDeleteAnswer)
	router.Get("/collections", h.HandleListSaved)
}

// HandleList returns one page of questions matching the query filters.
func (h *QuestionHandler) HandleList(c *fiber.Ctx) error {
	var params services.ListQuestionsParams
	if err := c.QueryParser(&params); err != nil {
		return badBody()
	}
	page, err := h.questions.List(c.UserContext(), params)
	if err != nil {
		return err
	}
	return ok(c, page)
}

// HandleHot returns the most viewed questions.
func (h *QuestionHandler) HandleHot(c *fiber.Ctx) error {
	questions, err := h.questions.Hot(c.UserContext())
	if err != nil {
		return err
	}
	return ok(c, questions)
}

// HandleCreate asks a new question as the caller.
func (h *QuestionHandler) HandleCreate(c *fiber.Ctx) error {
	var params services.CreateQuestionParams
	if err := c.BodyParser(&params); err != nil {
		return badBody()
	}
	question, err := h.questions.Create(c.UserContext(), params)
	if err != nil {
		return err
	}
	return created(c, question)
}

// HandleGet retrieves a question with its author and tags.
func (h *QuestionHandler) HandleGet(c *fiber.Ctx) error {
	question, err := h.questions.Get(c.UserContext(), services.QuestionIDParams{QuestionID: c.Params("id")})
	if err != nil {
		return err
	}
	return ok(c, question)
}

// HandleEdit takes the question id from the path; a body id is ignored.
func (h *QuestionHandler) HandleEdit(c *fiber.Ctx) error {
	var params services.EditQuestionParams
	if err := c.BodyParser(&params); err != nil {
		return badBody()
	}
	params.QuestionID = c.Params("id")
	question, err := h.questions.Edit(c.UserContext(), params)
	if err != nil {
		return err
	}
	return ok(c, question)
}

// HandleDelete removes a question and everything attached to it.
func (h *QuestionHandler) HandleDelete(c *fiber.Ctx) error {
	if err := h.questions.Delete(c.UserContext(), services.QuestionIDParams{QuestionID: c.Params("id")}); err != nil {
		return err
	}
	return ok(c, nil)
}

// HandleView counts one view and returns the new total.
func (h *QuestionHandler) HandleView(c *fiber.Ctx) error {
	views, err := h.questions.IncrementView(c.UserContext(), services.QuestionIDParams{QuestionID: c.Params("id")})
	if err != nil {
		return err
	}
	return ok(c, fiber.Map{"views": views})
}

// HandleToggleSave saves or unsaves a question for the caller.
func (h *QuestionHandler) HandleToggleSave(c *fiber.Ctx) error {
	status, err := h.collections.Toggle(c.UserContext(), services.QuestionIDParams{QuestionID: c.Params("id")})
	if err != nil {
		return err
	}
	return ok(c, status)
}

// HandleHasSaved reports whether the caller has saved a question.
func (h *QuestionHandler) HandleHasSaved(c *fiber.Ctx) error {
	status, err := h.collections.HasSaved(c.UserContext(), services.QuestionIDParams{QuestionID: c.Params("id")})
	if err != nil {
		return err
	}
	return ok(c, status)
}

// HandleListSaved returns one page of the caller's saved questions.
func (h *QuestionHandler) HandleListSaved(c *fiber.Ctx) error {
	var params services.ListSavedParams
	if err := c.QueryParser(&params); err != nil {
		return badBody()
	}
	page, err := h.collections.ListSaved(c.UserContext(), params)
	if err != nil {
		return err
	}
	return ok(c, page)
}

// HandleListAnswers returns one page of answers to a question.
func (h *QuestionHandler) HandleListAnswers(c *fiber.Ctx) error {
	var params services.ListAnswersParams
	if err := c.QueryParser(&params); err != nil {
		return badBody()
	}
	params.QuestionID = c.Params("id")
	page, err := h.answers.List(c.UserContext(), params)
	if err != nil {
		return err
	}
	return ok(c, page)
}

// HandleCreateAnswer posts an answer to a question as the caller.
func (h *QuestionHandler) HandleCreateAnswer(c *fiber.Ctx) error {
	var params services.CreateAnswerParams
	if err := c.BodyParser(&params); err != nil {
		return badBody()
	}
	params.QuestionID = c.Params("id")
	answer, err := h.answers.Create(c.UserContext(), params)
	if err != nil {
		return err
	}
	return created(c, answer)
}

// HandleDeleteAnswer removes one of the caller's answers.
func (h *QuestionHandler) HandleDeleteAnswer(c *fiber.Ctx) error {
	if err := h.answers.Delete(c.UserContext(), services.AnswerIDParams{AnswerID: c.Params("id")}); err != nil {
		return err
	}
	return ok(c, nil)
}
