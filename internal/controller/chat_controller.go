package controller

import (
	"fmt"

	"ai-trainer-be/internal/dto"
	"ai-trainer-be/internal/pkg/serverutils"
	"ai-trainer-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	Chat(ctx *fiber.Ctx) error
}

type chatController struct {
	trainerService service.ITrainerService
}

func NewChatController(trainerService service.ITrainerService) IChatController {
	return &chatController{
		trainerService: trainerService,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/trainer/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("chat", c.Chat)
}

func (c *chatController) Chat(ctx *fiber.Ctx) error {
	userID := localUserID(ctx)
	if userID == "" {
		return ctx.Status(fiber.StatusUnauthorized).
			JSON(serverutils.ErrorResponse(fiber.StatusUnauthorized, "Unauthorized - user id missing"))
	}

	var req dto.ChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).
			JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, "Invalid request body"))
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).
			JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, err.Error()))
	}

	res, err := c.trainerService.Chat(ctx.Context(), userID, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success chat", res))
}

// localUserID reads the JWT claim set by the middleware. The claim may be a
// string or a number depending on the issuing service.
func localUserID(ctx *fiber.Ctx) string {
	switch v := ctx.Locals("user_id").(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	default:
		return ""
	}
}
