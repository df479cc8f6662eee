package controller

import (
	"fmt"

	"medichain-be/internal/dto"
	"medichain-be/internal/pkg/serverutils"
	"medichain-be/internal/service"
	"medichain-be/pkg/apperror"
	"medichain-be/pkg/rag/session"

	"github.com/gofiber/fiber/v2"
)

type IChatbotController interface {
	RegisterRoutes(r fiber.Router, middleware ...fiber.Handler)
	CreateSession(ctx *fiber.Ctx) error
	Ask(ctx *fiber.Ctx) error
	GetHistory(ctx *fiber.Ctx) error
	GetTranscript(ctx *fiber.Ctx) error
	Summarize(ctx *fiber.Ctx) error
	CloseSession(ctx *fiber.Ctx) error
}

type chatbotController struct {
	chatbotService service.IChatbotService
}

func NewChatbotController(chatbotService service.IChatbotService) IChatbotController {
	return &chatbotController{
		chatbotService: chatbotService,
	}
}

func (c *chatbotController) RegisterRoutes(r fiber.Router, middleware ...fiber.Handler) {
	h := r.Group("/chat/v1")
	for _, m := range middleware {
		h.Use(m)
	}
	h.Post("sessions", c.CreateSession)
	h.Post("ask", c.Ask)
	h.Get("sessions/:id/history", c.GetHistory)
	h.Get("sessions/:id/transcript", c.GetTranscript)
	h.Post("sessions/:id/summary", c.Summarize)
	h.Delete("sessions/:id", c.CloseSession)
}

func (c *chatbotController) CreateSession(ctx *fiber.Ctx) error {
	res, err := c.chatbotService.CreateSession(ctx.Context())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success create session", res))
}

func (c *chatbotController) Ask(ctx *fiber.Ctx) error {
	var req dto.AskRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.Validation("malformed request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.chatbotService.Ask(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success answer question", res))
}

func (c *chatbotController) GetHistory(ctx *fiber.Ctx) error {
	res, err := c.chatbotService.GetHistory(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get chat history", res))
}

func (c *chatbotController) GetTranscript(ctx *fiber.Ctx) error {
	id := session.NormalizeID(ctx.Params("id"))

	text, err := c.chatbotService.GetTranscript(ctx.UserContext(), id)
	if err != nil {
		return err
	}

	ctx.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	ctx.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", "chat_"+id+".txt"))
	return ctx.SendString(text)
}

func (c *chatbotController) Summarize(ctx *fiber.Ctx) error {
	res, err := c.chatbotService.Summarize(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success summarize session", res))
}

func (c *chatbotController) CloseSession(ctx *fiber.Ctx) error {
	if err := c.chatbotService.CloseSession(ctx.UserContext(), ctx.Params("id")); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success close session", fiber.Map{}))
}
