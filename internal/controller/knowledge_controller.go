package controller

import (
	"strconv"

	"ai-trainer-be/internal/dto"
	"ai-trainer-be/internal/pkg/serverutils"
	"ai-trainer-be/internal/service"
	"ai-trainer-be/pkg/vectorstore"

	"github.com/gofiber/fiber/v2"
)

const defaultSearchLimit = 6

type IKnowledgeController interface {
	RegisterRoutes(r fiber.Router)
	AddKnowledge(ctx *fiber.Ctx) error
	SemanticSearch(ctx *fiber.Ctx) error
	DeleteKnowledge(ctx *fiber.Ctx) error
}

type knowledgeController struct {
	knowledgeService service.IKnowledgeService
}

func NewKnowledgeController(knowledgeService service.IKnowledgeService) IKnowledgeController {
	return &knowledgeController{
		knowledgeService: knowledgeService,
	}
}

func (c *knowledgeController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/trainer/v1/knowledge")
	h.Use(serverutils.JwtMiddleware)
	h.Post("", c.AddKnowledge)
	h.Get("semantic-search", c.SemanticSearch)
	h.Delete("", c.DeleteKnowledge)
}

func (c *knowledgeController) AddKnowledge(ctx *fiber.Ctx) error {
	userID := localUserID(ctx)
	if userID == "" {
		return ctx.Status(fiber.StatusUnauthorized).
			JSON(serverutils.ErrorResponse(fiber.StatusUnauthorized, "Unauthorized"))
	}

	var req dto.AddKnowledgeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).
			JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, "Invalid request body"))
	}
	if err := serverutils.ValidateRequest(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).
			JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, err.Error()))
	}

	var (
		res *dto.AddKnowledgeResponse
		err error
	)
	if req.Personal {
		res, err = c.knowledgeService.AddUserDocuments(ctx.Context(), userID, req.Documents)
	} else {
		res, err = c.knowledgeService.AddGlobalDocuments(ctx.Context(), req.Documents)
	}
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusAccepted).
		JSON(serverutils.SuccessResponse("Knowledge documents queued for ingestion", res))
}

// DeleteKnowledge only touches the caller's private namespace. The shared
// corpus is managed out of band.
func (c *knowledgeController) DeleteKnowledge(ctx *fiber.Ctx) error {
	userID := localUserID(ctx)
	if userID == "" {
		return ctx.Status(fiber.StatusUnauthorized).
			JSON(serverutils.ErrorResponse(fiber.StatusUnauthorized, "Unauthorized"))
	}

	var req dto.DeleteKnowledgeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).
			JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, "Invalid request body"))
	}
	if err := serverutils.ValidateRequest(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).
			JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, err.Error()))
	}

	if err := c.knowledgeService.DeleteDocuments(ctx.Context(), vectorstore.UserNamespace(userID), req.Ids); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Knowledge documents deleted", nil))
}

func (c *knowledgeController) SemanticSearch(ctx *fiber.Ctx) error {
	userID := localUserID(ctx)

	query := ctx.Query("q")
	if query == "" {
		return ctx.Status(fiber.StatusBadRequest).
			JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, "Query parameter 'q' is required"))
	}

	limit := defaultSearchLimit
	if raw := ctx.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	res, err := c.knowledgeService.SemanticSearch(ctx.Context(), userID, query, limit)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success semantic search knowledge", res))
}
